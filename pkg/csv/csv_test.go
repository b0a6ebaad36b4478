package csv

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yurifrl/ledgeru/pkg/identity"
	"github.com/yurifrl/ledgeru/pkg/models"
)

func transaction(t *testing.T, day int, payee, amount string) *models.Transaction {
	t.Helper()
	d := decimal.RequireFromString(amount)
	tx, err := models.NewTransaction("checking").
		SetDate(models.NewDate(2024, time.January, day)).
		SetPayee(payee).
		SetNarration("card purchase").
		SetDocument(payee).
		AddPosting(models.NewPosting("Assets:Checking", d, "USD")).
		AddPosting(models.NewPosting("", d.Neg(), "USD")).
		Build()
	require.NoError(t, err)
	return tx
}

func TestCreate(t *testing.T) {
	coffee := transaction(t, 5, "Cafe, Inc", "-4.50")
	out, err := Create(slices.Values([]*models.Transaction{coffee}), nil)
	require.NoError(t, err)

	key := identity.Compute(coffee).String()
	want := "Date,Payee,Narration,Account,Amount,Currency,Key\n" +
		"2024-01-05,\"Cafe, Inc\",card purchase,Assets:Checking,-4.5,USD," + key + "\n" +
		"2024-01-05,\"Cafe, Inc\",card purchase,Expenses:FIXME,4.5,USD," + key + "\n"
	assert.Equal(t, want, string(out))
}

func TestCreateFilter(t *testing.T) {
	txs := []*models.Transaction{
		transaction(t, 5, "Cafe", "-4.50"),
		transaction(t, 6, "Grocer", "-60"),
		transaction(t, 7, "Cafe", "-3"),
	}
	cafe := func(tx *models.Transaction) bool { return tx.Payee() == "Cafe" }
	early := func(tx *models.Transaction) bool { return tx.Date().Day() < 7 }

	out, err := Create(slices.Values(txs), And(cafe, nil, early))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	for _, line := range lines[1:] {
		assert.True(t, strings.HasPrefix(line, "2024-01-05,Cafe,"), line)
	}
}

func TestCreateEmpty(t *testing.T) {
	out, err := Create(slices.Values([]*models.Transaction(nil)), nil)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(Header, ",")+"\n", string(out))
}
