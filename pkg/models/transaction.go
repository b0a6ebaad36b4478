package models

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// UnclassifiedAccount is the placeholder account of postings no rule matched.
const UnclassifiedAccount = "Expenses:FIXME"

// Metadata keys set on every transaction.
const (
	MetaSource   = "source"
	MetaDocument = "source_document"
	MetaFile     = "source_file"
	MetaRecord   = "source_record"
)

// DefaultTolerance is the largest residual accepted when balancing.
var DefaultTolerance = decimal.New(5, -3)

// Price converts a posting into the transaction's common currency.
type Price struct {
	Amount   decimal.Decimal
	Currency string
}

// Posting is one leg of a transaction.
type Posting struct {
	account  string
	amount   decimal.Decimal
	currency string
	price    *Price
	meta     map[string]string
}

func NewPosting(account string, amount decimal.Decimal, currency string) Posting {
	if account == "" {
		account = UnclassifiedAccount
	}
	return Posting{account: account, amount: amount, currency: currency}
}

// WithPrice returns a copy of p priced in another currency.
func (p Posting) WithPrice(rate decimal.Decimal, currency string) Posting {
	p.price = &Price{Amount: rate, Currency: currency}
	return p
}

// WithMeta returns a copy of p with an extra metadata entry.
func (p Posting) WithMeta(key, value string) Posting {
	meta := make(map[string]string, len(p.meta)+1)
	maps.Copy(meta, p.meta)
	meta[key] = value
	p.meta = meta
	return p
}

func (p Posting) Account() string         { return p.account }
func (p Posting) Amount() decimal.Decimal { return p.amount }
func (p Posting) Currency() string        { return p.currency }
func (p Posting) IsUnclassified() bool    { return p.account == UnclassifiedAccount }

// Price returns the conversion price, if any.
func (p Posting) Price() (Price, bool) {
	if p.price == nil {
		return Price{}, false
	}
	return *p.price, true
}

// Meta returns the value of a posting metadata key.
func (p Posting) Meta(key string) (string, bool) {
	v, ok := p.meta[key]
	return v, ok
}

// MetaKeys returns the posting metadata keys in sorted order.
func (p Posting) MetaKeys() []string {
	return slices.Sorted(maps.Keys(p.meta))
}

// Weight returns the posting value in the currency it balances in.
func (p Posting) Weight() (decimal.Decimal, string) {
	if p.price != nil {
		return p.amount.Mul(p.price.Amount), p.price.Currency
	}
	return p.amount, p.currency
}

func (p Posting) String() string {
	return fmt.Sprintf("%s %s %s", p.account, p.amount.String(), p.currency)
}

// Transaction is the canonical, immutable output of an adapter.
type Transaction struct {
	date      Date
	payee     string
	narration string
	postings  []Posting
	meta      map[string]string
	source    string
	document  string
	record    int
}

func (t *Transaction) Date() Date            { return t.date }
func (t *Transaction) Payee() string         { return t.payee }
func (t *Transaction) Narration() string     { return t.narration }
func (t *Transaction) Source() string        { return t.source }
func (t *Transaction) DocumentID() string    { return t.document }
func (t *Transaction) RecordIndex() int      { return t.record }
func (t *Transaction) PostingCount() int     { return len(t.postings) }
func (t *Transaction) Posting(i int) Posting { return t.postings[i] }

// Postings returns a copy of the postings.
func (t *Transaction) Postings() []Posting { return slices.Clone(t.postings) }

// Meta returns a copy of the transaction metadata.
func (t *Transaction) Meta() map[string]string { return maps.Clone(t.meta) }

// MetaValue returns a single metadata value.
func (t *Transaction) MetaValue(key string) (string, bool) {
	v, ok := t.meta[key]
	return v, ok
}

// Unclassified returns the indexes of postings still on the placeholder account.
func (t *Transaction) Unclassified() []int {
	var idx []int
	for i, p := range t.postings {
		if p.IsUnclassified() {
			idx = append(idx, i)
		}
	}
	return idx
}

// WithAccounts returns a copy of t whose posting accounts are replaced by
// account(i, p). Returning "" keeps the current account. Amounts never change,
// so the copy stays balanced.
func (t *Transaction) WithAccounts(account func(i int, p Posting) string) *Transaction {
	out := *t
	out.postings = slices.Clone(t.postings)
	for i, p := range out.postings {
		if a := account(i, p); a != "" {
			out.postings[i].account = a
		}
	}
	return &out
}

func (t *Transaction) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %q %q", t.date, t.payee, t.narration)
	for _, p := range t.postings {
		b.WriteString("\n  ")
		b.WriteString(p.String())
	}
	return b.String()
}

// Builder assembles a Transaction and keeps the first error it meets.
type Builder struct {
	tx        Transaction
	tolerance decimal.Decimal
	err       error
}

// NewTransaction starts a transaction produced by the named adapter.
func NewTransaction(source string) *Builder {
	return &Builder{
		tx: Transaction{
			source: source,
			meta:   map[string]string{MetaSource: source},
		},
		tolerance: DefaultTolerance,
	}
}

func (b *Builder) SetDate(d Date) *Builder {
	b.tx.date = d
	return b
}

func (b *Builder) SetPayee(payee string) *Builder {
	b.tx.payee = strings.TrimSpace(payee)
	return b
}

func (b *Builder) SetNarration(narration string) *Builder {
	b.tx.narration = strings.TrimSpace(narration)
	return b
}

// SetDocument sets the vendor document the transaction came from.
func (b *Builder) SetDocument(id string) *Builder {
	b.tx.document = id
	b.tx.meta[MetaDocument] = id
	return b
}

func (b *Builder) SetRecordIndex(i int) *Builder {
	b.tx.record = i
	b.tx.meta[MetaRecord] = strconv.Itoa(i)
	return b
}

func (b *Builder) SetMeta(key, value string) *Builder {
	if value != "" {
		b.tx.meta[key] = value
	}
	return b
}

func (b *Builder) SetTolerance(t decimal.Decimal) *Builder {
	b.tolerance = t.Abs()
	return b
}

// AddPosting appends p after normalizing its currency.
func (b *Builder) AddPosting(p Posting) *Builder {
	if b.err != nil {
		return b
	}
	cur, err := NormalizeCurrency(p.currency)
	if err != nil {
		b.err = err
		return b
	}
	p.currency = cur
	if p.price != nil {
		pc, err := NormalizeCurrency(p.price.Currency)
		if err != nil {
			b.err = err
			return b
		}
		p.price = &Price{Amount: p.price.Amount, Currency: pc}
	}
	b.tx.postings = append(b.tx.postings, p)
	return b
}

// Fail records err as the build error unless one is already set.
func (b *Builder) Fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// Build validates and returns the transaction.
func (b *Builder) Build() (*Transaction, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.tx.date.IsZero() {
		return nil, errors.New("transaction has no date")
	}
	if err := checkBalance(b.tx.postings, b.tolerance); err != nil {
		return nil, err
	}
	tx := b.tx
	tx.postings = slices.Clone(b.tx.postings)
	tx.meta = maps.Clone(b.tx.meta)
	return &tx, nil
}

func checkBalance(postings []Posting, tolerance decimal.Decimal) error {
	if len(postings) == 0 {
		return &BalanceError{Reason: "no postings"}
	}
	residual := map[string]decimal.Decimal{}
	for _, p := range postings {
		w, cur := p.Weight()
		residual[cur] = residual[cur].Add(w)
	}
	for _, cur := range slices.Sorted(maps.Keys(residual)) {
		if r := residual[cur]; r.Abs().GreaterThan(tolerance) {
			return &BalanceError{Residual: r, Currency: cur}
		}
	}
	return nil
}
