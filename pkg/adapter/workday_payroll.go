package adapter

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yurifrl/ledgeru/pkg/models"
	"github.com/yurifrl/ledgeru/pkg/reader"
	"github.com/yurifrl/ledgeru/pkg/rules"
)

const (
	workdayInfoTable = "Payslip Information"
	workdayCheckDate = "Check Date"
	tablesField      = "_tables"
)

var workdayDateLayouts = []string{"01/02/2006", "1/2/2006", models.DateFormat}

type workdaySettings struct {
	CompanyName string   `yaml:"company_name"`
	Sections    []string `yaml:"sections"`
}

// workday reads a payslip exported from Workday as a workbook of stacked
// tables. Accounts maps "<section>: <item>" to one or more accounts; every
// account of a line receives the line amount, signed by the account class.
type workday struct {
	*base
	s        workdaySettings
	accounts map[string][]string
}

func newWorkday(b *base, cfg Config) (*workday, error) {
	var s workdaySettings
	if err := decodeSettings(cfg.Settings, &s); err != nil {
		return nil, err
	}
	if len(s.Sections) == 0 {
		return nil, errors.New("settings: sections is required")
	}
	return &workday{base: b, s: s, accounts: cfg.Accounts}, nil
}

func (a *workday) ReadRaw(data []byte, filename string) ([]reader.Record, error) {
	rows, err := reader.ReadXLSXRows(data, "")
	if err != nil {
		return nil, decodeError(filename, err)
	}
	tables := reader.SplitTables(rows)
	info, ok := reader.Lookup(tables, workdayInfoTable)
	if !ok || len(info.Records) == 0 || !info.Records[0].Has(workdayCheckDate) {
		return nil, decodeError(filename, fmt.Errorf("missing %s / %s", workdayInfoTable, workdayCheckDate))
	}

	rec := reader.NewRecord(0,
		[]string{workdayCheckDate, tablesField},
		[]any{info.Records[0].String(workdayCheckDate), tables})
	return tagFile([]reader.Record{rec}, filename), nil
}

func (a *workday) ToCanonical(rec reader.Record) (*models.Transaction, error) {
	date, err := models.ParseDate(rec.String(workdayCheckDate), workdayDateLayouts...)
	if err != nil {
		return nil, err
	}
	v, _ := rec.Get(tablesField)
	tables, _ := v.([]reader.Table)

	b := a.newTransaction(rec, date.String()+"/"+stem(rec.String(FileField))).
		SetDate(date).
		SetPayee(a.s.CompanyName).
		SetNarration("Payroll")
	postings := 0

	for _, section := range a.s.Sections {
		table, ok := reader.Lookup(tables, section)
		if !ok {
			continue
		}
		for _, line := range table.Records {
			names := line.Names()
			if len(names) == 0 {
				continue
			}
			desc := section + ": " + line.String(names[0])
			raw, currency := line.String("Amount"), "USD"
			if raw == "" && line.Has("Amount in Pay Group Currency") {
				raw = line.String("Amount in Pay Group Currency")
				currency = line.First("Pay Group Currency")
			}
			if raw == "" {
				continue
			}
			amount, err := models.ParseAmount(raw, models.AmountFormat{})
			if err != nil {
				return nil, err
			}
			amount = models.RoundToCurrency(amount, strings.ToUpper(currency))

			accounts := a.accounts[desc]
			if len(accounts) == 0 {
				accounts = []string{models.UnclassifiedAccount}
			}
			for _, account := range accounts {
				account = rules.ExpandAccount(account, date)
				b.AddPosting(models.NewPosting(account, signByClass(account, amount), currency).
					WithMeta(MetaPayrollDescription, desc))
				postings++
			}
		}
	}

	if postings == 0 {
		return nil, nil
	}
	return b.Build()
}

var (
	creditClasses = []string{"Income", "Equity", "Liabilities"}
	debitClasses  = []string{"Expenses", "Assets"}
)

// signByClass makes amounts negative on credit-normal accounts and positive
// on debit-normal ones. The placeholder keeps the reported sign.
func signByClass(account string, amount decimal.Decimal) decimal.Decimal {
	if account == models.UnclassifiedAccount {
		return amount
	}
	class, _, _ := strings.Cut(account, ":")
	switch {
	case slices.Contains(creditClasses, class) && amount.IsPositive():
		return amount.Neg()
	case slices.Contains(debitClasses, class) && amount.IsNegative():
		return amount.Neg()
	default:
		return amount
	}
}
