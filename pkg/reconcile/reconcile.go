// Package reconcile decides which canonical transactions are new to the
// ledger. It holds no state between runs: the known keys come from the
// caller and the report only lives for one run.
package reconcile

import (
	"github.com/yurifrl/ledgeru/pkg/identity"
	"github.com/yurifrl/ledgeru/pkg/models"
)

// Status is the outcome for one transaction.
//
//   - Emitted:    unknown to the ledger, handed to the output.
//   - Suppressed: its key is already known to the ledger.
//   - Duplicate:  an earlier transaction of the same run had the same key,
//     as happens with overlapping exports.
type Status int

const (
	Emitted Status = iota
	Suppressed
	Duplicate
)

func (s Status) String() string {
	switch s {
	case Emitted:
		return "emitted"
	case Suppressed:
		return "suppressed"
	case Duplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// Entry links a transaction with its key and status.
type Entry struct {
	Tx     *models.Transaction
	Key    identity.Key
	Status Status
}

// Report is the result of filtering one run. Items keep the input order.
type Report struct {
	Items []Entry

	emitted []*models.Transaction
	counts  [3]int
	seen    map[identity.Key]struct{}
}

// Filter computes the key of every transaction and checks it against the
// known set.
func Filter(known identity.Set, txs []*models.Transaction) *Report {
	r := NewReport()
	for _, tx := range txs {
		r.Add(known, tx)
	}
	return r
}

// NewReport returns an empty report for incremental use.
func NewReport() *Report {
	return &Report{seen: map[identity.Key]struct{}{}}
}

// Add classifies tx and records it. Transactions must be added in output
// order since the first occurrence of a key wins.
func (r *Report) Add(known identity.Set, tx *models.Transaction) Entry {
	key := identity.Compute(tx)
	status := Emitted
	switch _, dup := r.seen[key]; {
	case known.Has(key):
		status = Suppressed
	case dup:
		status = Duplicate
	}
	r.seen[key] = struct{}{}

	e := Entry{Tx: tx, Key: key, Status: status}
	r.Items = append(r.Items, e)
	r.counts[status]++
	if status == Emitted {
		r.emitted = append(r.emitted, tx)
	}
	return e
}

// Emitted returns the transactions to hand to the ledger.
func (r *Report) Emitted() []*models.Transaction { return r.emitted }

func (r *Report) EmittedCount() int    { return r.counts[Emitted] }
func (r *Report) SuppressedCount() int { return r.counts[Suppressed] }
func (r *Report) DuplicateCount() int  { return r.counts[Duplicate] }

// Orphans returns the known keys of source that this run did not produce.
// They point at ledger entries whose source record disappeared or changed.
// Only meaningful when the run covered every export of that source.
func (r *Report) Orphans(source string, known identity.Set) []identity.Key {
	var orphans []identity.Key
	for _, k := range known.ForSource(source) {
		if _, ok := r.seen[k]; !ok {
			orphans = append(orphans, k)
		}
	}
	return orphans
}
