package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnclassifiedPosting marks a posting left on UnclassifiedAccount. It is
// surfaced to the reviewer and is never counted as a failure.
var ErrUnclassifiedPosting = errors.New("unclassified posting")

// DecodeError means a whole file could not be decoded.
type DecodeError struct {
	File string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("decode: %v", e.Err)
	}
	return fmt.Sprintf("decode %s: %v", e.File, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DateParseError means a single record carried an unusable date.
type DateParseError struct {
	Value   string
	Layouts []string
	Reason  string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("invalid date %q (layouts %s): %s", e.Value, strings.Join(e.Layouts, ", "), e.Reason)
}

// AmountParseError means a single record carried an unusable amount or currency.
type AmountParseError struct {
	Value  string
	Reason string
}

func (e *AmountParseError) Error() string {
	return fmt.Sprintf("invalid amount %q: %s", e.Value, e.Reason)
}

// BalanceError means the postings of a transaction do not sum to zero.
type BalanceError struct {
	Residual decimal.Decimal
	Currency string
	Reason   string
}

func (e *BalanceError) Error() string {
	if e.Reason != "" {
		return "unbalanced transaction: " + e.Reason
	}
	return fmt.Sprintf("unbalanced transaction: residual %s %s", e.Residual.String(), e.Currency)
}

// RecordError locates a failure inside a batch.
type RecordError struct {
	Vendor string
	File   string
	Index  int
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s: %s record %d: %v", e.Vendor, e.File, e.Index, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// Error kinds reported in the end-of-run summary.
const (
	KindDecode  = "decode"
	KindDate    = "date"
	KindAmount  = "amount"
	KindBalance = "balance"
	KindOther   = "other"
)

// Kind classifies err into one of the reporting kinds.
func Kind(err error) string {
	var (
		decodeErr  *DecodeError
		dateErr    *DateParseError
		amountErr  *AmountParseError
		balanceErr *BalanceError
	)
	switch {
	case errors.As(err, &decodeErr):
		return KindDecode
	case errors.As(err, &dateErr):
		return KindDate
	case errors.As(err, &amountErr):
		return KindAmount
	case errors.As(err, &balanceErr):
		return KindBalance
	default:
		return KindOther
	}
}
