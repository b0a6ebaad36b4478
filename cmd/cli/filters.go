package main

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yurifrl/ledgeru/pkg/csv"
	"github.com/yurifrl/ledgeru/pkg/models"
)

type filters struct {
	startDate string
	endDate   string
	minAmount string
	maxAmount string
	payee     string
}

// magnitude is the total of the positive postings of a transaction, the
// amount that moved regardless of direction.
func magnitude(t *models.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, p := range t.Postings() {
		if w, _ := p.Weight(); w.IsPositive() {
			total = total.Add(w)
		}
	}
	return total
}

func (f *filters) toFilterFunc() (csv.FilterFunc[*models.Transaction], error) {
	var preds []csv.FilterFunc[*models.Transaction]

	if f.startDate != "" {
		start, err := models.ParseDate(f.startDate, models.DateFormat)
		if err != nil {
			return nil, fmt.Errorf("--start: %w", err)
		}
		preds = append(preds, func(t *models.Transaction) bool { return !t.Date().Before(start) })
	}
	if f.endDate != "" {
		end, err := models.ParseDate(f.endDate, models.DateFormat)
		if err != nil {
			return nil, fmt.Errorf("--end: %w", err)
		}
		preds = append(preds, func(t *models.Transaction) bool { return !t.Date().After(end) })
	}
	if f.minAmount != "" {
		lo, err := decimal.NewFromString(f.minAmount)
		if err != nil {
			return nil, fmt.Errorf("--min: %w", err)
		}
		preds = append(preds, func(t *models.Transaction) bool { return !magnitude(t).LessThan(lo) })
	}
	if f.maxAmount != "" {
		hi, err := decimal.NewFromString(f.maxAmount)
		if err != nil {
			return nil, fmt.Errorf("--max: %w", err)
		}
		preds = append(preds, func(t *models.Transaction) bool { return !magnitude(t).GreaterThan(hi) })
	}
	if f.payee != "" {
		payee := strings.ToLower(f.payee)
		preds = append(preds, func(t *models.Transaction) bool {
			return strings.Contains(strings.ToLower(t.Payee()), payee)
		})
	}

	if len(preds) == 0 {
		return nil, nil
	}
	return csv.And(preds...), nil
}
