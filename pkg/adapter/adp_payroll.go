package adapter

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/yurifrl/ledgeru/pkg/models"
	"github.com/yurifrl/ledgeru/pkg/reader"
	"github.com/yurifrl/ledgeru/pkg/rules"
)

// MetaPayrollDescription names the pay statement line a posting came from.
const MetaPayrollDescription = "payroll_description"

type payrollSettings struct {
	CompanyName string `yaml:"company_name"`
}

// adp reads one pay statement per JSON file as served by the ADP API.
//
// Accounts maps "Earning: <code>" and "<category>: <code>" deduction names to
// one account, and memo code values to an [income, expense] pair. Memos
// without a pair are ignored; unmapped lines stay on the placeholder.
type adp struct {
	*base
	s        payrollSettings
	accounts map[string][]string
}

func newADP(b *base, cfg Config) (*adp, error) {
	var s payrollSettings
	if err := decodeSettings(cfg.Settings, &s); err != nil {
		return nil, err
	}
	return &adp{base: b, s: s, accounts: cfg.Accounts}, nil
}

func (a *adp) ReadRaw(data []byte, filename string) ([]reader.Record, error) {
	records, err := reader.ReadJSON(data, "$.payStatement")
	if err != nil {
		return nil, decodeError(filename, err)
	}
	return tagFile(records, filename), nil
}

func (a *adp) ToCanonical(rec reader.Record) (*models.Transaction, error) {
	date, err := models.ParseDate(rec.String("payDate"), models.DateFormat)
	if err != nil {
		return nil, err
	}

	b := a.newTransaction(rec, date.String()+"/"+stem(rec.String(FileField))).
		SetDate(date).
		SetPayee(a.s.CompanyName).
		SetNarration("Payroll")
	postings := 0

	for _, earning := range rec.Records("earnings") {
		if !earning.Has("earningAmount") {
			continue
		}
		desc := "Earning: " + earning.String("earningCodeName")
		amount, currency, err := adpAmount(earning, "earningAmount")
		if err != nil {
			return nil, err
		}
		// Earnings are reported positive; income is negative.
		b.AddPosting(a.posting(desc, date, amount.Neg(), currency))
		postings++
	}

	for _, deduction := range rec.Records("deductions") {
		if !deduction.Has("deductionAmount") {
			continue
		}
		code := deduction.First("CodeName", "codeName")
		if code == "" {
			code = deduction.PathString("$.deductionCode.shortName")
		}
		desc := deduction.String("deductionCategoryCodeName") + ": " + code
		amount, currency, err := adpAmount(deduction, "deductionAmount")
		if err != nil {
			return nil, err
		}
		// Deductions are reported negative; expenses are positive.
		b.AddPosting(a.posting(desc, date, amount.Neg(), currency))
		postings++
	}

	for _, memo := range rec.Records("memos") {
		pair := a.accounts[memo.PathString("$.nameCode.codeValue")]
		if len(pair) != 2 || !memo.Has("memoAmount") {
			continue
		}
		desc := memo.PathString("$.nameCode.shortName")
		amount, currency, err := adpAmount(memo, "memoAmount")
		if err != nil {
			return nil, err
		}
		b.AddPosting(models.NewPosting(rules.ExpandAccount(pair[0], date), amount.Neg(), currency).WithMeta(MetaPayrollDescription, desc))
		b.AddPosting(models.NewPosting(rules.ExpandAccount(pair[1], date), amount, currency).WithMeta(MetaPayrollDescription, desc))
		postings += 2
	}

	if postings == 0 {
		a.logger.Debug("pay statement has no lines", "date", date)
		return nil, nil
	}
	return b.Build()
}

func (a *adp) posting(desc string, date models.Date, amount decimal.Decimal, currency string) models.Posting {
	account := models.UnclassifiedAccount
	if accounts := a.accounts[desc]; len(accounts) > 0 {
		account = rules.ExpandAccount(accounts[0], date)
	}
	return models.NewPosting(account, amount, currency).WithMeta(MetaPayrollDescription, desc)
}

func adpAmount(line reader.Record, field string) (decimal.Decimal, string, error) {
	value := line.PathString(fmt.Sprintf("$.%s.amountValue", field))
	amount, err := models.ParseAmount(value, models.AmountFormat{})
	if err != nil {
		return decimal.Zero, "", err
	}
	currency := line.PathString(fmt.Sprintf("$.%s.currencyCode", field))
	if currency == "" {
		currency = "USD"
	}
	return amount, currency, nil
}
