package main

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurifrl/ledgeru/pkg/models"
)

func tx(t *testing.T, day int, payee, amount string) *models.Transaction {
	t.Helper()
	d := decimal.RequireFromString(amount)
	out, err := models.NewTransaction("checking").
		SetDate(models.NewDate(2024, time.March, day)).
		SetPayee(payee).
		SetDocument(payee).
		AddPosting(models.NewPosting("Assets:Checking", d.Neg(), "USD")).
		AddPosting(models.NewPosting("", d, "USD")).
		Build()
	require.NoError(t, err)
	return out
}

func TestFilters(t *testing.T) {
	tests := []struct {
		name    string
		filters filters
		keep    []bool
	}{
		{"none", filters{}, []bool{true, true, true}},
		{"start", filters{startDate: "2024-03-02"}, []bool{false, true, true}},
		{"end", filters{endDate: "2024-03-02"}, []bool{true, true, false}},
		{"min", filters{minAmount: "20"}, []bool{false, true, true}},
		{"max", filters{maxAmount: "20"}, []bool{true, true, false}},
		{"payee", filters{payee: "MARKET"}, []bool{false, true, false}},
		{"combined", filters{startDate: "2024-03-02", payee: "rent"}, []bool{false, false, true}},
	}

	txs := []*models.Transaction{
		tx(t, 1, "Coffee Shop", "4.50"),
		tx(t, 2, "Farmers Market", "20"),
		tx(t, 3, "Rent", "1500"),
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := tt.filters.toFilterFunc()
			require.NoError(t, err)
			for i, tx := range txs {
				assert.Equal(t, tt.keep[i], f == nil || f(tx), tx.Payee())
			}
		})
	}
}

func TestFiltersInvalid(t *testing.T) {
	for _, f := range []filters{
		{startDate: "03/01/2024"},
		{endDate: "soon"},
		{minAmount: "ten"},
		{maxAmount: "1,000"},
	} {
		_, err := f.toFilterFunc()
		assert.Error(t, err, "%+v", f)
	}
}
