package models

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// AmountFormat describes how a vendor writes numbers.
type AmountFormat struct {
	// DecimalComma means "1.234,56" instead of "1,234.56".
	DecimalComma bool
	// BlankIsZero accepts "", "-" and "--" as zero.
	BlankIsZero bool
}

var currencySymbols = strings.NewReplacer("R$", "", "US$", "", "$", "", "€", "", "£", "", "\u00a0", "", " ", "")

// ParseAmount parses a vendor amount into an exact decimal.
func ParseAmount(s string, f AmountFormat) (decimal.Decimal, error) {
	raw := s
	s = strings.TrimSpace(s)
	if s == "" || s == "-" || s == "--" {
		if f.BlankIsZero {
			return decimal.Zero, nil
		}
		return decimal.Zero, &AmountParseError{Value: raw, Reason: "empty amount"}
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.ReplaceAll(s, "\u2212", "-")
	if strings.HasSuffix(s, "-") {
		negative = !negative
		s = strings.TrimSuffix(s, "-")
	}
	s = currencySymbols.Replace(s)
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = s[1:]
	}
	s = strings.TrimPrefix(s, "+")
	s = currencySymbols.Replace(s)

	if f.DecimalComma {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}

	if s == "" || strings.ContainsAny(s, "+-eE") {
		return decimal.Zero, &AmountParseError{Value: raw, Reason: "not a decimal number"}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &AmountParseError{Value: raw, Reason: err.Error()}
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// NormalizeCurrency maps a vendor currency to its ISO-4217 code.
func NormalizeCurrency(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c == "$" || c == "US$" {
		c = money.USD
	}
	cur := money.GetCurrency(c)
	if cur == nil || len(cur.Code) != 3 {
		return "", &AmountParseError{Value: code, Reason: "unknown currency"}
	}
	return cur.Code, nil
}

// RoundToCurrency rounds d to the minor unit of the currency.
func RoundToCurrency(d decimal.Decimal, code string) decimal.Decimal {
	cur := money.GetCurrency(code)
	if cur == nil {
		return d.Round(2)
	}
	return d.Round(int32(cur.Fraction))
}
