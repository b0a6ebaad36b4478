package rules

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yurifrl/ledgeru/pkg/models"
)

func buildTx(t *testing.T, payee string, postings ...models.Posting) *models.Transaction {
	t.Helper()
	b := models.NewTransaction("csv").
		SetDate(models.NewDate(2024, time.March, 1)).
		SetPayee(payee).
		SetNarration("card purchase").
		SetMeta("category", "Food & Drink")
	for _, p := range postings {
		b.AddPosting(p)
	}
	tx, err := b.Build()
	require.NoError(t, err)
	return tx
}

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestApplyFirstMatchWins(t *testing.T) {
	set, err := Compile(
		Rule{Account: "Expenses:Coffee", Payee: "(?i)coffee"},
		Rule{Account: "Expenses:Food", Meta: map[string]string{"category": "^Food"}},
	)
	require.NoError(t, err)

	tx := buildTx(t, "Blue Bottle Coffee",
		models.NewPosting("Assets:Checking", amt("-4.50"), "USD"),
		models.NewPosting("", amt("4.50"), "USD"),
	)

	out := set.Apply(tx)
	assert.Equal(t, "Expenses:Coffee", out.Posting(1).Account())
	assert.Equal(t, "Assets:Checking", out.Posting(0).Account())
	assert.Empty(t, out.Unclassified())
}

func TestApplyNoMatchKeepsPlaceholder(t *testing.T) {
	set := MustCompile(Rule{Account: "Expenses:Coffee", Payee: "(?i)coffee"})
	tx := buildTx(t, "Hardware Store",
		models.NewPosting("Assets:Checking", amt("-20"), "USD"),
		models.NewPosting("", amt("20"), "USD"),
	)

	out := set.Apply(tx)
	assert.Equal(t, []int{1}, out.Unclassified())
	assert.Equal(t, models.UnclassifiedAccount, out.Posting(1).Account())
}

func TestApplyIsIdempotent(t *testing.T) {
	set := MustCompile(Rule{Account: "Expenses:Misc"})
	tx := buildTx(t, "Anything",
		models.NewPosting("Assets:Checking", amt("-1"), "USD"),
		models.NewPosting("", amt("1"), "USD"),
	)

	once := set.Apply(tx)
	twice := set.Apply(once)
	assert.Equal(t, once.String(), twice.String())
}

func TestApplySignAndPostingMeta(t *testing.T) {
	set := MustCompile(
		Rule{Account: "Income:Refunds", Sign: SignCredit},
		Rule{Account: "Expenses:Groceries", Meta: map[string]string{"item_id": "^E$"}},
		Rule{Account: "Expenses:Taxes:{year}", Meta: map[string]string{"kind": "tax"}},
	)
	tx := buildTx(t, "Costco",
		models.NewPosting("", amt("10"), "USD").WithMeta("item_id", "E"),
		models.NewPosting("", amt("1"), "USD").WithMeta("kind", "tax"),
		models.NewPosting("", amt("-2"), "USD"),
		models.NewPosting("Liabilities:Card", amt("-9"), "USD"),
	)

	out := set.Apply(tx)
	assert.Equal(t, "Expenses:Groceries", out.Posting(0).Account())
	assert.Equal(t, "Expenses:Taxes:2024", out.Posting(1).Account())
	assert.Equal(t, "Income:Refunds", out.Posting(2).Account())
}

func TestCompileErrors(t *testing.T) {
	_, err := Compile(Rule{Payee: "x"})
	assert.Error(t, err)

	_, err = Compile(Rule{Account: "Expenses:X", Payee: "("})
	assert.Error(t, err)

	_, err = Compile(Rule{Account: "Expenses:X", Sign: "sideways"})
	assert.Error(t, err)
}

func TestConcat(t *testing.T) {
	a := MustCompile(Rule{Account: "A"})
	b := MustCompile(Rule{Account: "B"}, Rule{Account: "C"})
	assert.Equal(t, 3, Concat(a, nil, b).Len())
	assert.Equal(t, 0, (*Set)(nil).Len())
}
