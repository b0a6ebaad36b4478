package adapter

import (
	"errors"
	"strings"

	"github.com/yurifrl/ledgeru/pkg/models"
	"github.com/yurifrl/ledgeru/pkg/reader"
	"github.com/yurifrl/ledgeru/pkg/rules"
)

// Metadata set on Cash App transactions.
const (
	MetaCashAppType        = "cashapp_type"
	MetaCashAppPayee       = "cashapp_payee"
	MetaCashAppDescription = "cashapp_description"
)

const (
	legField    = "_leg"
	legTransfer = "transfer"
	legPayment  = "payment"
	legFunding  = "funding"

	cashAppTimeLayout = "2006-01-02 15:04:05"
	cashAppOwnBalance = "Your Cash"
)

type cashAppSettings struct {
	Account         string `yaml:"account"`
	FeesAccount     string `yaml:"fees_account"`
	TransferAccount string `yaml:"transfer_account"`
}

// cashApp reads the activity CSV exported from cash.app.
type cashApp struct {
	*base
	s cashAppSettings
}

func newCashApp(b *base, cfg Config) (*cashApp, error) {
	s := cashAppSettings{FeesAccount: "Expenses:Fees:CashApp"}
	if err := decodeSettings(cfg.Settings, &s); err != nil {
		return nil, err
	}
	if s.Account == "" {
		return nil, errors.New("settings: account is required")
	}
	if s.TransferAccount != "" {
		err := b.withRules(rules.Rule{
			Account: s.TransferAccount,
			Meta:    map[string]string{MetaCashAppType: "^" + legTransfer + "$"},
		})
		if err != nil {
			return nil, err
		}
	}
	return &cashApp{base: b, s: s}, nil
}

// ReadRaw expands P2P payments funded from (or paid out to) an external
// account into a transfer leg followed by the payment leg.
func (a *cashApp) ReadRaw(data []byte, filename string) ([]reader.Record, error) {
	rows, err := reader.ReadCSV(data, reader.CSVOptions{})
	if err != nil {
		return nil, decodeError(filename, err)
	}

	var records []reader.Record
	for _, row := range rows {
		switch kind := row.String("Transaction Type"); {
		case strings.EqualFold(kind, "Cash out"), strings.EqualFold(kind, "Cash in"):
			records = append(records, row.With(legField, legTransfer))
		case isP2P(kind) && fundedExternally(row):
			records = append(records, row.With(legField, legFunding), row.With(legField, legPayment))
		default:
			records = append(records, row.With(legField, legPayment))
		}
	}
	return tagFile(records, filename), nil
}

func isP2P(kind string) bool {
	return strings.EqualFold(kind, "Received P2P") || strings.EqualFold(kind, "Sent P2P")
}

func fundedExternally(row reader.Record) bool {
	account := row.String("Account")
	return account != "" && !strings.EqualFold(account, cashAppOwnBalance)
}

func (a *cashApp) ToCanonical(rec reader.Record) (*models.Transaction, error) {
	if status := rec.String("Status"); status != "" && !strings.EqualFold(status, "COMPLETE") {
		a.logger.Debug("dropping incomplete transaction", "record", rec.Index, "status", status)
		return nil, nil
	}

	date, err := a.timestamp(rec.String("Date"), cashAppTimeLayout)
	if err != nil {
		return nil, err
	}
	amount, err := models.ParseAmount(rec.String("Amount"), models.AmountFormat{})
	if err != nil {
		return nil, err
	}
	fee, err := models.ParseAmount(rec.String("Fee"), models.AmountFormat{BlankIsZero: true})
	if err != nil {
		return nil, err
	}
	net := amount.Add(fee)
	if rec.Has("Net Amount") {
		if net, err = models.ParseAmount(rec.String("Net Amount"), models.AmountFormat{}); err != nil {
			return nil, err
		}
	}

	id := rec.String("Transaction ID")
	currency := rec.First("Currency")
	if currency == "" {
		currency = "USD"
	}
	notes := sanitize(rec.String("Notes"))
	payee := sanitize(rec.String("Name of sender/receiver"))
	kind := rec.String("Transaction Type")

	switch rec.String(legField) {
	case legTransfer:
		// Cash in and cash out move money between the balance and a bank.
		// The bank only sees the amount; the fee stays on the Cash App side.
		b := a.newTransaction(rec, id).
			SetDate(date).
			SetNarration("CashApp transfer to/from bank").
			SetMeta(MetaCashAppType, legTransfer).
			AddPosting(models.NewPosting(a.s.Account, net, currency))
		if !fee.IsZero() {
			b.AddPosting(models.NewPosting(a.s.FeesAccount, fee.Neg(), currency))
		}
		return b.AddPosting(models.NewPosting(models.UnclassifiedAccount, amount.Neg(), currency)).Build()
	case legFunding:
		return a.newTransaction(rec, id+"/"+legTransfer).
			SetDate(date).
			SetNarration("CashApp transfer to/from "+rec.String("Account")).
			SetMeta(MetaCashAppType, legTransfer).
			SetMeta(MetaCashAppPayee, payee).
			SetMeta(MetaCashAppDescription, notes).
			AddPosting(models.NewPosting(a.s.Account, net.Neg(), currency)).
			AddPosting(models.NewPosting(models.UnclassifiedAccount, net, currency)).
			Build()
	}

	b := a.newTransaction(rec, id).
		SetDate(date).
		SetPayee(payee).
		SetNarration("CashApp payment: "+notes).
		SetMeta(MetaCashAppType, kind).
		SetMeta(MetaCashAppPayee, payee).
		SetMeta(MetaCashAppDescription, notes).
		AddPosting(models.NewPosting(a.s.Account, net, currency))
	if !fee.IsZero() {
		b.AddPosting(models.NewPosting(a.s.FeesAccount, fee.Neg(), currency))
	}
	return b.AddPosting(models.NewPosting(models.UnclassifiedAccount, amount.Neg(), currency)).Build()
}
