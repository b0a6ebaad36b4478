package adapter

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yurifrl/ledgeru/pkg/models"
	"github.com/yurifrl/ledgeru/pkg/reader"
)

var boaDateLayouts = []string{"01/02/06", "01/02/2006", "1/2/06", "1/2/2006"}

type boaSettings struct {
	PaymentAccount  string `yaml:"payment_account"`
	LoanAccount     string `yaml:"loan_account"`
	InterestAccount string `yaml:"interest_account"`
	EscrowAccount   string `yaml:"escrow_account"`
	FeesAccount     string `yaml:"fees_account"`
}

// boaMortgage reads the payment activity CSV of a Bank of America mortgage.
// Each row splits one payment into principal, interest, escrow and fees.
type boaMortgage struct {
	*base
	s boaSettings
}

func newBoAMortgage(b *base, cfg Config) (*boaMortgage, error) {
	s := boaSettings{
		InterestAccount: models.UnclassifiedAccount,
		EscrowAccount:   models.UnclassifiedAccount,
		FeesAccount:     models.UnclassifiedAccount,
	}
	if err := decodeSettings(cfg.Settings, &s); err != nil {
		return nil, err
	}
	if s.PaymentAccount == "" || s.LoanAccount == "" {
		return nil, errors.New("settings: payment_account and loan_account are required")
	}
	return &boaMortgage{base: b, s: s}, nil
}

func (a *boaMortgage) ReadRaw(data []byte, filename string) ([]reader.Record, error) {
	records, err := reader.ReadCSV(data, reader.CSVOptions{})
	if err != nil {
		return nil, decodeError(filename, err)
	}
	return tagFile(records, filename), nil
}

func (a *boaMortgage) ToCanonical(rec reader.Record) (*models.Transaction, error) {
	date, err := models.ParseDate(rec.First("Date", "Transaction Date", "Effective Date"), boaDateLayouts...)
	if err != nil {
		return nil, err
	}
	description := rec.String("Description")
	kind := rec.First("Type", "Transaction Type")

	format := models.AmountFormat{BlankIsZero: true}
	amounts := make(map[string]decimal.Decimal, 5)
	for _, col := range []struct {
		key     string
		aliases []string
	}{
		{"payment", []string{"Payment Amount", "Amount", "Total"}},
		{"principal", []string{"Principal"}},
		{"interest", []string{"Interest"}},
		{"escrow", []string{"Escrow"}},
		{"fees", []string{"Fees", "Late Fees/Other", "Other"}},
	} {
		v, err := models.ParseAmount(rec.First(col.aliases...), format)
		if err != nil {
			return nil, err
		}
		amounts[col.key] = v
	}

	if amounts["payment"].IsZero() && amounts["principal"].IsZero() && amounts["interest"].IsZero() &&
		amounts["escrow"].IsZero() && amounts["fees"].IsZero() {
		return nil, nil
	}

	b := a.newTransaction(rec, strings.Join([]string{date.String(), description, kind}, "|")).
		SetDate(date).
		SetPayee("Bank of America").
		SetNarration(description).
		SetMeta("boa_type", kind).
		AddPosting(models.NewPosting(a.s.PaymentAccount, amounts["payment"].Neg(), "USD"))
	for _, p := range []struct {
		account string
		amount  decimal.Decimal
	}{
		{a.s.LoanAccount, amounts["principal"]},
		{a.s.InterestAccount, amounts["interest"]},
		{a.s.EscrowAccount, amounts["escrow"]},
		{a.s.FeesAccount, amounts["fees"]},
	} {
		if !p.amount.IsZero() {
			b.AddPosting(models.NewPosting(p.account, p.amount, "USD"))
		}
	}
	return b.Build()
}
