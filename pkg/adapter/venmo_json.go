package adapter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yurifrl/ledgeru/pkg/models"
	"github.com/yurifrl/ledgeru/pkg/reader"
	"github.com/yurifrl/ledgeru/pkg/rules"
)

// Metadata set on Venmo transactions.
const (
	MetaVenmoType        = "venmo_type"
	MetaVenmoPayee       = "venmo_payee"
	MetaVenmoDescription = "venmo_description"
)

const (
	venmoSelector   = "$.data.transactions"
	venmoTimeLayout = "2006-01-02T15:04:05"
	venmoUnknown    = "(unknown)"
)

type venmoSettings struct {
	SelfUsername    string `yaml:"self_username"`
	Account         string `yaml:"account"`
	TransferAccount string `yaml:"transfer_account"`
}

// venmo reads the transaction history JSON of the Venmo API.
type venmo struct {
	*base
	s venmoSettings
}

func newVenmo(b *base, cfg Config) (*venmo, error) {
	var s venmoSettings
	if err := decodeSettings(cfg.Settings, &s); err != nil {
		return nil, err
	}
	if s.SelfUsername == "" || s.Account == "" {
		return nil, errors.New("settings: self_username and account are required")
	}
	if s.TransferAccount != "" {
		err := b.withRules(rules.Rule{
			Account: s.TransferAccount,
			Meta:    map[string]string{MetaVenmoType: "^" + legTransfer + "$"},
		})
		if err != nil {
			return nil, err
		}
	}
	return &venmo{base: b, s: s}, nil
}

// ReadRaw splits payments funded by a bank or transfer into a funding leg
// and the payment itself.
func (a *venmo) ReadRaw(data []byte, filename string) ([]reader.Record, error) {
	txs, err := reader.ReadJSON(data, venmoSelector)
	if err != nil {
		return nil, decodeError(filename, err)
	}

	var records []reader.Record
	for _, tx := range txs {
		switch tx.String("type") {
		case "payment", "refund":
			if funding := tx.PathString("$.funding_source.type"); funding == "bank" || funding == "transfer" {
				records = append(records, tx.With(legField, legFunding))
			}
			records = append(records, tx.With(legField, legPayment))
		case "transfer":
			records = append(records, tx.With(legField, legTransfer))
		default:
			records = append(records, tx.With(legField, legPayment))
		}
	}
	return tagFile(records, filename), nil
}

func (a *venmo) ToCanonical(rec reader.Record) (*models.Transaction, error) {
	switch strings.ToLower(rec.String("status")) {
	case "pending", "cancelled", "canceled", "failed":
		a.logger.Debug("dropping unsettled transaction", "record", rec.Index, "status", rec.String("status"))
		return nil, nil
	}

	date, err := a.timestamp(rec.String("datetime_created"), venmoTimeLayout)
	if err != nil {
		return nil, err
	}
	id := rec.String("id")
	kind := rec.String("type")

	switch kind {
	case "payment", "refund":
		// A refund nests the payment it reverses.
		expr := "$.payment"
		if kind == "refund" {
			expr = "$.refund.payment"
		}
		payment := nested(rec, expr)
		if len(payment) == 0 {
			return nil, fmt.Errorf("venmo %s %s has no payment", kind, id)
		}
		p := payment[0]
		coef, payee, err := a.direction(p)
		if err != nil {
			return nil, err
		}
		if kind == "refund" {
			coef = coef.Neg()
		}
		if rec.String(legField) == legFunding {
			amount, err := models.ParseAmount(rec.String("amount"), models.AmountFormat{})
			if err != nil {
				return nil, err
			}
			return a.transfer(rec, id+"/"+legTransfer, date, rec.PathString("$.funding_source.name"), coef.Neg().Mul(amount)).
				SetMeta(MetaVenmoPayee, userInfo(payee, "username", "display_name")).
				SetMeta(MetaVenmoDescription, sanitize(p.String("note"))).
				Build()
		}
		amount, err := models.ParseAmount(p.String("amount"), models.AmountFormat{})
		if err != nil {
			return nil, err
		}
		return a.payment(rec, id, date, kind, p.String("action"), p.String("note"), payee, coef.Mul(amount))

	case "transfer":
		amount, err := models.ParseAmount(rec.String("amount"), models.AmountFormat{})
		if err != nil {
			return nil, err
		}
		return a.transfer(rec, id, date, rec.PathString("$.transfer.destination.name"), amount.Neg()).Build()

	case "disbursement":
		amount, err := models.ParseAmount(rec.String("amount"), models.AmountFormat{})
		if err != nil {
			return nil, err
		}
		merchant := nested(rec, "$.disbursement.merchant")
		var payee reader.Record
		if len(merchant) > 0 {
			payee = merchant[0]
		}
		return a.payment(rec, id, date, kind, "disbursement", rec.String("note"), payee, amount)

	default:
		return nil, fmt.Errorf("unknown venmo transaction type %q", kind)
	}
}

// direction returns +1 when money flows to us and the counterparty.
func (a *venmo) direction(p reader.Record) (decimal.Decimal, reader.Record, error) {
	actor, target := party(p, "actor"), party(p, "target")
	action := p.String("action")
	switch {
	case userInfo(target, "username") == a.s.SelfUsername:
		switch action {
		case "pay":
			return decimal.NewFromInt(1), actor, nil
		case "charge":
			return decimal.NewFromInt(-1), actor, nil
		}
	case userInfo(actor, "username") == a.s.SelfUsername:
		switch action {
		case "pay":
			return decimal.NewFromInt(-1), target, nil
		case "charge":
			return decimal.NewFromInt(1), target, nil
		}
	default:
		return decimal.Zero, reader.Record{}, fmt.Errorf("payment does not involve %s", a.s.SelfUsername)
	}
	return decimal.Zero, reader.Record{}, fmt.Errorf("unknown payment action %q", action)
}

func (a *venmo) payment(rec reader.Record, id string, date models.Date, kind, action, note string, payee reader.Record, amount decimal.Decimal) (*models.Transaction, error) {
	note = sanitize(note)
	return a.newTransaction(rec, id).
		SetDate(date).
		SetPayee(userInfo(payee, "display_name")).
		SetNarration(fmt.Sprintf("Venmo %s: %s", kind, note)).
		SetMeta(MetaVenmoType, action).
		SetMeta(MetaVenmoPayee, userInfo(payee, "username", "display_name")).
		SetMeta(MetaVenmoDescription, note).
		AddPosting(models.NewPosting(a.s.Account, amount, "USD")).
		AddPosting(models.NewPosting(models.UnclassifiedAccount, amount.Neg(), "USD")).
		Build()
}

func (a *venmo) transfer(rec reader.Record, id string, date models.Date, to string, amount decimal.Decimal) *models.Builder {
	return a.newTransaction(rec, id).
		SetDate(date).
		SetNarration("Venmo transfer to "+to).
		SetMeta(MetaVenmoType, legTransfer).
		AddPosting(models.NewPosting(a.s.Account, amount, "USD")).
		AddPosting(models.NewPosting(models.UnclassifiedAccount, amount.Neg(), "USD"))
}

// nested returns the object at expr as a one-element slice, or nil.
func nested(rec reader.Record, expr string) []reader.Record {
	v, err := rec.Path(expr)
	if err != nil {
		return nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return []reader.Record{reader.FromMap(0, obj)}
}

// party returns a payment participant, unwrapping the optional user object.
func party(p reader.Record, role string) reader.Record {
	obj := nested(p, "$."+role)
	if len(obj) == 0 {
		return reader.Record{}
	}
	if user := nested(obj[0], "$.user"); len(user) > 0 {
		return user[0]
	}
	return obj[0]
}

func userInfo(user reader.Record, attrs ...string) string {
	for _, attr := range attrs {
		if v := user.String(attr); v != "" {
			return v
		}
	}
	return venmoUnknown
}
