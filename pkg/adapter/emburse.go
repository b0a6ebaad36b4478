package adapter

import (
	"errors"

	"github.com/yurifrl/ledgeru/pkg/models"
	"github.com/yurifrl/ledgeru/pkg/reader"
)

// Posting metadata set on expense report items.
const (
	MetaEmburseExpenseType     = "emburse_expense_type"
	MetaEmburseBusinessPurpose = "emburse_business_purpose"
	MetaEmburseTransactionDate = "emburse_transaction_date"
)

const (
	emburseReportID = "Report ID"
	emburseItems    = "_items"
)

var emburseDateLayouts = []string{"01/02/06", "01/02/2006", "1/2/06", "1/2/2006", models.DateFormat}

type emburseSettings struct {
	ReceivableAccount string `yaml:"receivable_account"`
	CompanyName       string `yaml:"company_name"`
}

// emburse reads the expense item export of Emburse Chrome River. Items are
// grouped into one transaction per expense report that turns the original
// expenses into a receivable.
type emburse struct {
	*base
	s emburseSettings
}

func newEmburse(b *base, cfg Config) (*emburse, error) {
	var s emburseSettings
	if err := decodeSettings(cfg.Settings, &s); err != nil {
		return nil, err
	}
	if s.ReceivableAccount == "" {
		return nil, errors.New("settings: receivable_account is required")
	}
	return &emburse{base: b, s: s}, nil
}

// ReadRaw accepts the XLSX export or its CSV conversion and returns one
// record per report. Footer rows without a report ID are skipped.
func (a *emburse) ReadRaw(data []byte, filename string) ([]reader.Record, error) {
	format, err := reader.FormatFromFilename(filename)
	if err != nil {
		return nil, err
	}

	var items []reader.Record
	switch format {
	case reader.FormatXLSX:
		items, err = reader.ReadXLSX(data, reader.SheetOptions{
			HeaderRow:       -1,
			RequiredHeaders: []string{emburseReportID, "Amount"},
		})
	default:
		items, err = reader.ReadCSV(data, reader.CSVOptions{})
	}
	if err != nil {
		return nil, decodeError(filename, err)
	}

	var (
		order  []string
		groups = map[string][]reader.Record{}
	)
	for _, item := range items {
		id := item.String(emburseReportID)
		if id == "" {
			continue
		}
		if _, ok := groups[id]; !ok {
			order = append(order, id)
		}
		groups[id] = append(groups[id], item)
	}

	records := make([]reader.Record, 0, len(order))
	for i, id := range order {
		first := groups[id][0]
		records = append(records, reader.NewRecord(i,
			[]string{emburseReportID, "Report Name", "Approval Date", emburseItems},
			[]any{id, first.String("Report Name"), first.String("Approval Date"), groups[id]}))
	}
	return tagFile(records, filename), nil
}

func (a *emburse) ToCanonical(rec reader.Record) (*models.Transaction, error) {
	date, err := models.ParseDate(rec.String("Approval Date"), emburseDateLayouts...)
	if err != nil {
		return nil, err
	}
	items := rec.Records(emburseItems)

	b := a.newTransaction(rec, rec.String(emburseReportID)).
		SetDate(date).
		SetPayee(a.s.CompanyName).
		SetNarration("Expense report: "+rec.String("Report Name")).
		SetMeta("emburse_report_name", rec.String("Report Name"))
	for _, item := range items {
		amount, err := models.ParseAmount(item.String("Amount"), models.AmountFormat{BlankIsZero: true})
		if err != nil {
			return nil, err
		}
		currency := item.String("Currency")
		if currency == "" {
			currency = "USD"
		}
		// The expense turned out reimbursable, so it is cancelled against
		// the receivable.
		b.AddPosting(models.NewPosting(models.UnclassifiedAccount, amount.Neg(), currency).
			WithMeta(MetaEmburseExpenseType, item.String("Expense Type")).
			WithMeta(MetaEmburseBusinessPurpose, item.String("Business Purpose")).
			WithMeta(MetaEmburseTransactionDate, item.String("Transaction Date")))
		b.AddPosting(models.NewPosting(a.s.ReceivableAccount, amount, currency))
	}
	return b.Build()
}
