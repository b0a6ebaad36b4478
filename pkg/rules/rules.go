// Package rules assigns accounts to unclassified postings.
package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yurifrl/ledgeru/pkg/models"
)

// Sign restricts a rule to postings of one direction.
type Sign string

const (
	SignAny    Sign = ""
	SignDebit  Sign = "debit"
	SignCredit Sign = "credit"
)

// Rule maps postings whose transaction matches every predicate to Account.
// Predicates are regular expressions; empty predicates always match.
type Rule struct {
	Account   string            `yaml:"account"`
	Payee     string            `yaml:"payee,omitempty"`
	Narration string            `yaml:"narration,omitempty"`
	Meta      map[string]string `yaml:"meta,omitempty"`
	Sign      Sign              `yaml:"sign,omitempty"`
}

type compiled struct {
	account   string
	payee     *regexp.Regexp
	narration *regexp.Regexp
	meta      map[string]*regexp.Regexp
	sign      Sign
}

// Set is an ordered, immutable list of compiled rules.
type Set struct {
	rules []compiled
}

// Compile validates rules and compiles their predicates once.
func Compile(rules ...Rule) (*Set, error) {
	s := &Set{rules: make([]compiled, 0, len(rules))}
	for i, r := range rules {
		c, err := compile(r)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, r.Account, err)
		}
		s.rules = append(s.rules, c)
	}
	return s, nil
}

// MustCompile is Compile for built-in rules known to be valid.
func MustCompile(rules ...Rule) *Set {
	s, err := Compile(rules...)
	if err != nil {
		panic(err)
	}
	return s
}

func compile(r Rule) (compiled, error) {
	if strings.TrimSpace(r.Account) == "" {
		return compiled{}, errors.New("rule has no account")
	}
	c := compiled{account: r.Account, sign: r.Sign}
	switch r.Sign {
	case SignAny, SignDebit, SignCredit:
	default:
		return compiled{}, fmt.Errorf("unknown sign %q", r.Sign)
	}

	var err error
	if c.payee, err = optional(r.Payee); err != nil {
		return compiled{}, fmt.Errorf("payee: %w", err)
	}
	if c.narration, err = optional(r.Narration); err != nil {
		return compiled{}, fmt.Errorf("narration: %w", err)
	}
	if len(r.Meta) > 0 {
		c.meta = make(map[string]*regexp.Regexp, len(r.Meta))
		for key, expr := range r.Meta {
			re, err := regexp.Compile(expr)
			if err != nil {
				return compiled{}, fmt.Errorf("meta %s: %w", key, err)
			}
			c.meta[key] = re
		}
	}
	return c, nil
}

func optional(expr string) (*regexp.Regexp, error) {
	if expr == "" {
		return nil, nil
	}
	return regexp.Compile(expr)
}

// Concat joins sets, keeping their order. Nil sets are skipped.
func Concat(sets ...*Set) *Set {
	out := &Set{}
	for _, s := range sets {
		if s != nil {
			out.rules = append(out.rules, s.rules...)
		}
	}
	return out
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// Apply returns tx with every placeholder posting assigned to the account of
// the first matching rule. Postings no rule matches keep the placeholder and
// postings that already have an account are never revisited.
func (s *Set) Apply(tx *models.Transaction) *models.Transaction {
	if tx == nil || s.Len() == 0 || len(tx.Unclassified()) == 0 {
		return tx
	}
	return tx.WithAccounts(func(_ int, p models.Posting) string {
		if !p.IsUnclassified() {
			return ""
		}
		for _, r := range s.rules {
			if r.match(tx, p) {
				return ExpandAccount(r.account, tx.Date())
			}
		}
		return ""
	})
}

func (r compiled) match(tx *models.Transaction, p models.Posting) bool {
	switch r.sign {
	case SignDebit:
		if !p.Amount().IsPositive() {
			return false
		}
	case SignCredit:
		if !p.Amount().IsNegative() {
			return false
		}
	}
	if r.payee != nil && !r.payee.MatchString(tx.Payee()) {
		return false
	}
	if r.narration != nil && !r.narration.MatchString(tx.Narration()) {
		return false
	}
	for key, re := range r.meta {
		v, ok := tx.MetaValue(key)
		if !ok {
			v, ok = p.Meta(key)
		}
		if !ok || !re.MatchString(v) {
			return false
		}
	}
	return true
}

// ExpandAccount substitutes {year} with the year of d.
func ExpandAccount(account string, d models.Date) string {
	return strings.ReplaceAll(account, "{year}", strconv.Itoa(d.Year()))
}
