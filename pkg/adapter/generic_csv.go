package adapter

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/yurifrl/ledgeru/pkg/models"
	"github.com/yurifrl/ledgeru/pkg/reader"
)

// MetaCategory carries a vendor category code through to the rules.
const MetaCategory = "category"

type genericCSVSettings struct {
	Account         string   `yaml:"account"`
	Currency        string   `yaml:"currency"`
	DateColumn      string   `yaml:"date_column"`
	PayeeColumn     string   `yaml:"payee_column"`
	NarrationColumn string   `yaml:"narration_column"`
	AmountColumn    string   `yaml:"amount_column"`
	CurrencyColumn  string   `yaml:"currency_column"`
	CategoryColumn  string   `yaml:"category_column"`
	IDColumn        string   `yaml:"id_column"`
	DateLayouts     []string `yaml:"date_layouts"`
	DecimalComma    bool     `yaml:"decimal_comma"`
	Delimiter       string   `yaml:"delimiter"`
	Headerless      bool     `yaml:"headerless"`
	Columns         []string `yaml:"columns"`
	SkipRows        int      `yaml:"skip_rows"`
	SkipFooter      int      `yaml:"skip_footer"`
	Sheet           string   `yaml:"sheet"`
}

// genericCSV reads a one-row-per-transaction bank style export whose columns
// are declared in the settings. Each row becomes a cash posting and a
// placeholder posting for the rules. Spreadsheet statements (.xls, .xlsx) are
// read with the same columns; their header row is found by the date and
// amount column names. OFX statements need no columns and are identified by
// their FITID.
type genericCSV struct {
	*base
	s     genericCSVSettings
	opts  reader.CSVOptions
	sheet reader.SheetOptions
}

func newGenericCSV(b *base, cfg Config) (*genericCSV, error) {
	s := genericCSVSettings{
		Currency:        "USD",
		DateColumn:      "date",
		PayeeColumn:     "payee",
		NarrationColumn: "narration",
		AmountColumn:    "amount",
		DateLayouts:     []string{models.DateFormat},
	}
	if err := decodeSettings(cfg.Settings, &s); err != nil {
		return nil, err
	}
	if s.Account == "" {
		return nil, errors.New("settings: account is required")
	}

	opts := reader.CSVOptions{
		Headerless: s.Headerless,
		Columns:    s.Columns,
		SkipRows:   s.SkipRows,
		SkipFooter: s.SkipFooter,
	}
	if s.Delimiter != "" {
		r, size := utf8.DecodeRuneInString(s.Delimiter)
		if size != len(s.Delimiter) {
			return nil, fmt.Errorf("settings: delimiter %q is not a single character", s.Delimiter)
		}
		opts.Delimiter = r
	}
	sheet := reader.SheetOptions{
		Sheet:           s.Sheet,
		HeaderRow:       -1,
		RequiredHeaders: []string{s.DateColumn, s.AmountColumn},
	}
	return &genericCSV{base: b, s: s, opts: opts, sheet: sheet}, nil
}

func (a *genericCSV) ReadRaw(data []byte, filename string) ([]reader.Record, error) {
	var (
		records []reader.Record
		err     error
	)
	switch format, _ := reader.FormatFromFilename(filename); format {
	case reader.FormatXLSX:
		records, err = reader.ReadXLSX(data, a.sheet)
	case reader.FormatXLS:
		records, err = reader.ReadXLS(data, a.sheet)
	case reader.FormatOFX:
		records, err = reader.ReadOFX(data)
	default:
		records, err = reader.ReadCSV(data, a.opts)
	}
	if err != nil {
		return nil, decodeError(filename, err)
	}
	return tagFile(records, filename), nil
}

func (a *genericCSV) ToCanonical(rec reader.Record) (*models.Transaction, error) {
	date, err := models.ParseDate(rec.String(a.s.DateColumn), a.s.DateLayouts...)
	if err != nil {
		return nil, err
	}
	amount, err := models.ParseAmount(rec.String(a.s.AmountColumn), models.AmountFormat{DecimalComma: a.s.DecimalComma})
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		a.logger.Debug("dropping zero amount row", "record", rec.Index)
		return nil, nil
	}

	currency := a.s.Currency
	if a.s.CurrencyColumn != "" && rec.Has(a.s.CurrencyColumn) {
		currency = rec.String(a.s.CurrencyColumn)
	}

	docID := fmt.Sprintf("row:%d", rec.Index)
	switch {
	case a.s.IDColumn != "" && rec.Has(a.s.IDColumn):
		docID = rec.String(a.s.IDColumn)
	case rec.Has(reader.OFXID) && isOFX(rec.String(FileField)):
		docID = rec.String(reader.OFXID)
	}

	b := a.newTransaction(rec, docID).
		SetDate(date).
		SetPayee(rec.String(a.s.PayeeColumn)).
		SetNarration(rec.String(a.s.NarrationColumn)).
		AddPosting(models.NewPosting(a.s.Account, amount, currency)).
		AddPosting(models.NewPosting(models.UnclassifiedAccount, amount.Neg(), currency))
	if a.s.CategoryColumn != "" {
		b.SetMeta(MetaCategory, rec.String(a.s.CategoryColumn))
	}
	return b.Build()
}

func isOFX(filename string) bool {
	format, _ := reader.FormatFromFilename(filename)
	return format == reader.FormatOFX
}
