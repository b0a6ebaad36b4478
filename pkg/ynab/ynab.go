// Package ynab reads the identity keys already imported into a YNAB account.
// Imported transactions carry the key as the first comma separated field of
// their memo. The client is only used to read.
package ynab

import (
	"fmt"
	"strings"

	"github.com/brunomvsouza/ynab.go"
	"github.com/brunomvsouza/ynab.go/api/transaction"

	"github.com/yurifrl/ledgeru/pkg/identity"
)

// TransactionLister is the part of the YNAB transaction service KeySource
// needs.
type TransactionLister interface {
	GetTransactionsByAccount(budgetID, accountID string, f *transaction.Filter) ([]*transaction.Transaction, error)
}

// KeySource lists the keys found in one YNAB account.
type KeySource struct {
	transactions TransactionLister
	budgetID     string
	accountID    string
}

// New connects to YNAB with a personal access token.
func New(token, budgetID, accountID string) *KeySource {
	return NewKeySource(ynab.NewClient(token).Transaction(), budgetID, accountID)
}

func NewKeySource(transactions TransactionLister, budgetID, accountID string) *KeySource {
	return &KeySource{transactions: transactions, budgetID: budgetID, accountID: accountID}
}

// Keys fetches the account transactions and returns the keys in their memos.
// Deleted transactions are ignored.
func (s *KeySource) Keys() (identity.Set, error) {
	txs, err := s.transactions.GetTransactionsByAccount(s.budgetID, s.accountID, nil)
	if err != nil {
		return identity.Set{}, fmt.Errorf("ynab: list transactions of account %s: %w", s.accountID, err)
	}
	var keys []identity.Key
	for _, tx := range txs {
		if tx == nil || tx.Deleted {
			continue
		}
		if key := memoKey(tx.Memo); key != "" {
			keys = append(keys, key)
		}
	}
	return identity.NewSet(keys...), nil
}

// memoKey extracts the key from a memo such as "venmo:9f86...,Dinner".
func memoKey(memo *string) identity.Key {
	if memo == nil {
		return ""
	}
	first, _, _ := strings.Cut(strings.Trim(*memo, "\""), ",")
	first = strings.TrimSpace(first)
	if source, hash, ok := strings.Cut(first, ":"); !ok || source == "" || hash == "" {
		return ""
	}
	return identity.Key(first)
}
