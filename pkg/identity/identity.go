// Package identity derives the stable key that recognizes a transaction across
// runs, and holds the set of keys the ledger already knows.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"

	"github.com/yurifrl/ledgeru/pkg/models"
)

// Key identifies a canonical transaction: "<adapter>:<hex sha256>".
type Key string

// Source returns the adapter name the key was computed for. The digest
// never holds a colon, so the name is everything before the last one.
func (k Key) Source() string {
	i := strings.LastIndex(string(k), ":")
	if i < 0 {
		return string(k)
	}
	return string(k[:i])
}

func (k Key) String() string { return string(k) }

// Compute returns the key of tx. It depends only on the adapter name, the
// source document ID, the date and the multiset of posting amounts, so the
// same record produces the same key in every run no matter how it was
// classified.
func Compute(tx *models.Transaction) Key {
	amounts := make([]string, 0, tx.PostingCount())
	for _, p := range tx.Postings() {
		amounts = append(amounts, p.Amount().String()+" "+p.Currency())
	}
	slices.Sort(amounts)

	input := strings.Join([]string{
		tx.Source(),
		tx.DocumentID(),
		tx.Date().String(),
		strings.Join(amounts, ","),
	}, "|")
	sum := sha256.Sum256([]byte(input))
	return Key(tx.Source() + ":" + hex.EncodeToString(sum[:]))
}

// Set is an immutable set of known keys. It is built once before a run and
// only read while files are processed, so it is safe to share between
// workers.
type Set struct {
	keys map[Key]struct{}
}

func NewSet(keys ...Key) Set {
	s := Set{keys: make(map[Key]struct{}, len(keys))}
	for _, k := range keys {
		if k != "" {
			s.keys[k] = struct{}{}
		}
	}
	return s
}

// Has reports whether k is known. The zero Set knows nothing.
func (s Set) Has(k Key) bool {
	_, ok := s.keys[k]
	return ok
}

func (s Set) Len() int { return len(s.keys) }

// Keys returns the keys in sorted order.
func (s Set) Keys() []Key {
	keys := make([]Key, 0, len(s.keys))
	for k := range s.keys {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// ForSource returns the known keys computed for one adapter.
func (s Set) ForSource(source string) []Key {
	var keys []Key
	for _, k := range s.Keys() {
		if k.Source() == source {
			keys = append(keys, k)
		}
	}
	return keys
}

// Union returns a set holding the keys of every set.
func Union(sets ...Set) Set {
	var keys []Key
	for _, s := range sets {
		keys = append(keys, s.Keys()...)
	}
	return NewSet(keys...)
}
