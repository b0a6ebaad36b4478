// Package adapter converts vendor exports into canonical transactions.
//
// Every vendor is one Adapter. The set of vendors is closed: New is the only
// place that maps a Kind to its implementation.
package adapter

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"github.com/yurifrl/ledgeru/pkg/models"
	"github.com/yurifrl/ledgeru/pkg/reader"
	"github.com/yurifrl/ledgeru/pkg/rules"
)

// Adapter reads one vendor format.
type Adapter interface {
	// Name is the configured adapter name, used as the identity prefix.
	Name() string
	Kind() Kind
	// ReadRaw decodes a whole file. A failure here is a *models.DecodeError
	// and fails only that file.
	ReadRaw(data []byte, filename string) ([]reader.Record, error)
	// ToCanonical converts one record. A nil transaction with a nil error
	// means the record is intentionally dropped (pending, cancelled, zero).
	ToCanonical(rec reader.Record) (*models.Transaction, error)
	// Classify assigns accounts to placeholder postings.
	Classify(tx *models.Transaction) *models.Transaction
}

// Kind identifies a vendor format.
type Kind string

const (
	KindCSV         Kind = "csv"
	KindCashApp     Kind = "cashapp_csv"
	KindVenmo       Kind = "venmo_json"
	KindCostco      Kind = "costco_receipt"
	KindADP         Kind = "adp_payroll"
	KindWorkday     Kind = "workday_payroll"
	KindBoAMortgage Kind = "boa_mortgage_csv"
	KindEmburse     Kind = "emburse"
)

// Kinds lists every supported kind.
func Kinds() []Kind {
	return []Kind{KindCSV, KindCashApp, KindVenmo, KindCostco, KindADP, KindWorkday, KindBoAMortgage, KindEmburse}
}

var (
	ErrUnknownKind    = errors.New("unknown adapter kind")
	ErrUnknownAdapter = errors.New("unknown adapter")
)

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Kinds(), k) {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Settings decodes adapter specific settings into a tagged struct.
// *yaml.Node satisfies it.
type Settings interface {
	Decode(v any) error
}

// Config configures one adapter instance.
type Config struct {
	// Name defaults to the kind.
	Name string
	Kind Kind
	// Location is the vendor's time zone; timestamps are resolved to dates
	// there. Defaults to UTC.
	Location *time.Location
	// Reporting is the zone dates are reported in. Defaults to UTC.
	Reporting *time.Location
	// Tolerance is the largest residual a balanced transaction may carry.
	// Nil means models.DefaultTolerance; an explicit zero is kept.
	Tolerance *decimal.Decimal
	// Accounts maps vendor item names to one or more accounts.
	Accounts map[string][]string
	// Rules are applied after the adapter's built-in rules.
	Rules    []rules.Rule
	Settings Settings
}

// New builds the adapter for cfg.Kind.
func New(cfg Config, logger *log.Logger) (Adapter, error) {
	b, err := newBase(cfg, logger)
	if err != nil {
		return nil, err
	}

	var a Adapter
	switch cfg.Kind {
	case KindCSV:
		a, err = newGenericCSV(b, cfg)
	case KindCashApp:
		a, err = newCashApp(b, cfg)
	case KindVenmo:
		a, err = newVenmo(b, cfg)
	case KindCostco:
		a, err = newCostco(b, cfg)
	case KindADP:
		a, err = newADP(b, cfg)
	case KindWorkday:
		a, err = newWorkday(b, cfg)
	case KindBoAMortgage:
		a, err = newBoAMortgage(b, cfg)
	case KindEmburse:
		a, err = newEmburse(b, cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("adapter %s: %w", b.name, err)
	}
	return a, nil
}

// FileField is attached to every raw record and holds the base name of the
// file it was read from.
const FileField = "_source_file"

// base carries what every adapter shares.
type base struct {
	name      string
	kind      Kind
	loc       *time.Location
	reporting *time.Location
	tolerance decimal.Decimal
	user      []rules.Rule
	rules     *rules.Set
	logger    *log.Logger
}

func newBase(cfg Config, logger *log.Logger) (*base, error) {
	name := cfg.Name
	if name == "" {
		name = string(cfg.Kind)
	}
	if logger == nil {
		logger = log.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	reporting := cfg.Reporting
	if reporting == nil {
		reporting = time.UTC
	}
	tol := models.DefaultTolerance
	if cfg.Tolerance != nil {
		tol = *cfg.Tolerance
	}
	b := &base{
		name:      name,
		kind:      cfg.Kind,
		loc:       loc,
		reporting: reporting,
		tolerance: tol,
		user:      cfg.Rules,
		logger:    logger.With("adapter", name),
	}
	if err := b.withRules(); err != nil {
		return nil, err
	}
	return b, nil
}

// withRules compiles the built-in rules followed by the configured ones.
func (b *base) withRules(builtin ...rules.Rule) error {
	set, err := rules.Compile(append(slices.Clone(builtin), b.user...)...)
	if err != nil {
		return fmt.Errorf("compile rules: %w", err)
	}
	b.rules = set
	return nil
}

func (b *base) Name() string { return b.name }
func (b *base) Kind() Kind   { return b.kind }

func (b *base) Classify(tx *models.Transaction) *models.Transaction {
	return b.rules.Apply(tx)
}

// timestamp parses a vendor-local timestamp and returns its reporting day.
func (b *base) timestamp(value string, layouts ...string) (models.Date, error) {
	t, err := models.ParseTimestamp(value, b.loc, layouts...)
	if err != nil {
		return models.Date{}, err
	}
	return models.DateIn(t, b.reporting), nil
}

// newTransaction starts a transaction for rec identified by docID.
func (b *base) newTransaction(rec reader.Record, docID string) *models.Builder {
	return models.NewTransaction(b.name).
		SetDocument(docID).
		SetRecordIndex(rec.Index).
		SetMeta(models.MetaFile, rec.String(FileField)).
		SetTolerance(b.tolerance)
}

// tagFile attaches the file name to each record.
func tagFile(records []reader.Record, filename string) []reader.Record {
	name := filepath.Base(filename)
	for i := range records {
		records[i] = records[i].With(FileField, name)
	}
	return records
}

// decodeError wraps err as a DecodeError for filename.
func decodeError(filename string, err error) error {
	var de *models.DecodeError
	if errors.As(err, &de) {
		if de.File == "" {
			de.File = filename
		}
		return de
	}
	return &models.DecodeError{File: filename, Err: err}
}

func decodeSettings(s Settings, v any) error {
	if s == nil {
		return nil
	}
	if err := s.Decode(v); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	return nil
}

// stem returns the file name without directory and extension.
func stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

var nonPrintable = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ")

// sanitize drops control characters from free text.
func sanitize(s string) string {
	s = nonPrintable.Replace(s)
	return strings.Map(func(r rune) rune {
		if r < ' ' || r == 0x7f {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
