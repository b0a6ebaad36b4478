// Package csv writes canonical transactions as one CSV row per posting.
package csv

import (
	"bytes"
	"encoding/csv"
	"io"
	"iter"

	"github.com/yurifrl/ledgeru/pkg/identity"
	"github.com/yurifrl/ledgeru/pkg/models"
)

// Header is the first row of every export.
var Header = []string{"Date", "Payee", "Narration", "Account", "Amount", "Currency", "Key"}

// FilterFunc reports whether a record is written. A nil filter keeps
// everything.
type FilterFunc[T any] func(T) bool

// And combines filters; the result keeps records all of them keep.
func And[T any](filters ...FilterFunc[T]) FilterFunc[T] {
	return func(v T) bool {
		for _, f := range filters {
			if f != nil && !f(v) {
				return false
			}
		}
		return true
	}
}

// Rows returns the rows of a transaction, one per posting.
func Rows(tx *models.Transaction) [][]string {
	key := identity.Compute(tx).String()
	rows := make([][]string, 0, tx.PostingCount())
	for _, p := range tx.Postings() {
		rows = append(rows, []string{
			tx.Date().String(),
			tx.Payee(),
			tx.Narration(),
			p.Account(),
			p.Amount().String(),
			p.Currency(),
			key,
		})
	}
	return rows
}

// Write writes the header and the rows of every transaction filter keeps.
func Write(w io.Writer, txs iter.Seq[*models.Transaction], filter FilterFunc[*models.Transaction]) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for tx := range txs {
		if filter != nil && !filter(tx) {
			continue
		}
		if err := cw.WriteAll(Rows(tx)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Create is Write into a buffer.
func Create(txs iter.Seq[*models.Transaction], filter FilterFunc[*models.Transaction]) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, txs, filter); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
