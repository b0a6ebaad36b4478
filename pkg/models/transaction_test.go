package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestBuildBalanced(t *testing.T) {
	tx, err := NewTransaction("csv").
		SetDate(NewDate(2024, time.January, 5)).
		SetPayee("  Coffee Shop ").
		SetDocument("row:0").
		SetRecordIndex(0).
		AddPosting(NewPosting("Assets:Checking", d("-4.50"), "usd")).
		AddPosting(NewPosting("", d("4.50"), "USD")).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "Coffee Shop", tx.Payee())
	assert.Equal(t, "USD", tx.Posting(0).Currency(), "currency normalized")
	assert.Equal(t, []int{1}, tx.Unclassified())
	source, _ := tx.MetaValue(MetaSource)
	assert.Equal(t, "csv", source)
	doc, _ := tx.MetaValue(MetaDocument)
	assert.Equal(t, "row:0", doc)
}

func TestBuildUnbalanced(t *testing.T) {
	_, err := NewTransaction("csv").
		SetDate(NewDate(2024, time.January, 5)).
		AddPosting(NewPosting("Assets:Checking", d("-4.50"), "USD")).
		AddPosting(NewPosting("Expenses:Food", d("4.49"), "USD")).
		Build()

	var balanceErr *BalanceError
	require.ErrorAs(t, err, &balanceErr)
	assert.True(t, balanceErr.Residual.Equal(d("-0.01")), "residual = %s", balanceErr.Residual)
	assert.Equal(t, "USD", balanceErr.Currency)
}

func TestBuildWithinTolerance(t *testing.T) {
	_, err := NewTransaction("csv").
		SetDate(NewDate(2024, time.January, 5)).
		AddPosting(NewPosting("Assets:Checking", d("-4.504"), "USD")).
		AddPosting(NewPosting("Expenses:Food", d("4.50"), "USD")).
		Build()
	assert.NoError(t, err, "residual below tolerance rejected")

	_, err = NewTransaction("csv").
		SetDate(NewDate(2024, time.January, 5)).
		SetTolerance(decimal.Zero).
		AddPosting(NewPosting("Assets:Checking", d("-4.504"), "USD")).
		AddPosting(NewPosting("Expenses:Food", d("4.50"), "USD")).
		Build()
	assert.Equal(t, KindBalance, Kind(err), "zero tolerance")
}

func TestBuildPriced(t *testing.T) {
	_, err := NewTransaction("csv").
		SetDate(NewDate(2024, time.January, 5)).
		AddPosting(NewPosting("Assets:Brokerage", d("10"), "EUR").WithPrice(d("1.10"), "USD")).
		AddPosting(NewPosting("Assets:Checking", d("-11.00"), "USD")).
		Build()
	assert.NoError(t, err, "priced transaction rejected")
}

func TestBuildErrors(t *testing.T) {
	_, err := NewTransaction("csv").
		AddPosting(NewPosting("A", d("1"), "USD")).
		AddPosting(NewPosting("B", d("-1"), "USD")).
		Build()
	assert.Error(t, err, "missing date")

	_, err = NewTransaction("csv").SetDate(NewDate(2024, 1, 1)).Build()
	assert.Error(t, err, "no postings")

	_, err = NewTransaction("csv").
		SetDate(NewDate(2024, 1, 1)).
		AddPosting(NewPosting("A", d("1"), "XYZ")).
		Build()
	assert.Equal(t, KindAmount, Kind(err), "unknown currency: %v", err)
}

func TestWithAccounts(t *testing.T) {
	tx, err := NewTransaction("csv").
		SetDate(NewDate(2024, 1, 1)).
		AddPosting(NewPosting("Assets:Checking", d("-1"), "USD")).
		AddPosting(NewPosting("", d("1"), "USD")).
		Build()
	require.NoError(t, err)

	out := tx.WithAccounts(func(i int, p Posting) string {
		if p.IsUnclassified() {
			return "Expenses:Misc"
		}
		return ""
	})

	assert.Equal(t, "Expenses:Misc", out.Posting(1).Account())
	assert.Equal(t, "Assets:Checking", out.Posting(0).Account())
	assert.True(t, tx.Posting(1).IsUnclassified(), "original transaction was mutated")
}
