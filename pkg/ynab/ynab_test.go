package ynab

import (
	"errors"
	"testing"

	"github.com/brunomvsouza/ynab.go/api/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurifrl/ledgeru/pkg/identity"
)

type fakeLister struct {
	txs []*transaction.Transaction
	err error
}

func (f fakeLister) GetTransactionsByAccount(_, _ string, _ *transaction.Filter) ([]*transaction.Transaction, error) {
	return f.txs, f.err
}

func memo(s string) *string { return &s }

func TestKeys(t *testing.T) {
	source := NewKeySource(fakeLister{txs: []*transaction.Transaction{
		{Memo: memo("venmo:abc,Dinner")},
		{Memo: memo(`"checking:def"`)},
		{Memo: memo("just a note")},
		{Memo: nil},
		{Memo: memo("venmo:gone,x"), Deleted: true},
		nil,
	}}, "budget", "account")

	keys, err := source.Keys()
	require.NoError(t, err)
	assert.Equal(t, []identity.Key{"checking:def", "venmo:abc"}, keys.Keys())
}

func TestKeysError(t *testing.T) {
	source := NewKeySource(fakeLister{err: errors.New("401 unauthorized")}, "budget", "account")
	_, err := source.Keys()
	assert.ErrorContains(t, err, "401 unauthorized")
}
