package executors

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/yurifrl/ledgeru/pkg/identity"
	"github.com/yurifrl/ledgeru/pkg/models"
	"github.com/yurifrl/ledgeru/pkg/reconcile"
	"github.com/yurifrl/ledgeru/pkg/service"
)

// Problem is one failure counted in the summary. Record is -1 when the whole
// file failed.
type Problem struct {
	Adapter string
	File    string
	Record  int
	Kind    string
	Err     error
}

func (p Problem) String() string {
	if p.Record < 0 {
		return fmt.Sprintf("%s %s: [%s] %v", p.Adapter, p.File, p.Kind, p.Err)
	}
	return fmt.Sprintf("%s %s record %d: [%s] %v", p.Adapter, p.File, p.Record, p.Kind, p.Err)
}

// FileSummary counts what one file produced.
type FileSummary struct {
	Adapter      string
	File         string
	Failed       bool
	Records      int
	Dropped      int
	Transactions int
	Errors       int
}

// Summary is the end-of-run report. Every record that did not become a
// transaction is either counted as dropped or listed as a problem.
type Summary struct {
	RunID    string
	Files    []FileSummary
	Problems []Problem

	Emitted    int
	Suppressed int
	Duplicates int
	// Unclassified counts emitted transactions that still carry a
	// placeholder posting for the reviewer.
	Unclassified int
	// Orphans lists, per adapter, known keys the run did not produce.
	Orphans map[string][]identity.Key
}

func newSummary() *Summary {
	return &Summary{RunID: uuid.NewString(), Orphans: map[string][]identity.Key{}}
}

func (s *Summary) addFailure(in Input, err error) {
	s.Files = append(s.Files, FileSummary{Adapter: in.Adapter, File: in.Path, Failed: true})
	s.Problems = append(s.Problems, Problem{
		Adapter: in.Adapter,
		File:    in.Path,
		Record:  -1,
		Kind:    models.Kind(err),
		Err:     err,
	})
}

func (s *Summary) addFile(res *service.FileResult) {
	s.Files = append(s.Files, FileSummary{
		Adapter:      res.Adapter,
		File:         res.File,
		Records:      res.Records,
		Dropped:      res.Dropped,
		Transactions: len(res.Transactions),
		Errors:       len(res.Errors),
	})
	for _, recErr := range res.Errors {
		s.Problems = append(s.Problems, Problem{
			Adapter: recErr.Vendor,
			File:    recErr.File,
			Record:  recErr.Index,
			Kind:    models.Kind(recErr),
			Err:     recErr.Err,
		})
	}
}

func (s *Summary) addEntry(e reconcile.Entry) {
	switch e.Status {
	case reconcile.Emitted:
		s.Emitted++
		if len(e.Tx.Unclassified()) > 0 {
			s.Unclassified++
		}
	case reconcile.Suppressed:
		s.Suppressed++
	case reconcile.Duplicate:
		s.Duplicates++
	}
}

func (s *Summary) addOrphans(r *reconcile.Report, known identity.Set, inputs []Input) {
	for _, in := range inputs {
		if _, done := s.Orphans[in.Adapter]; done {
			continue
		}
		if orphans := r.Orphans(in.Adapter, known); len(orphans) > 0 {
			s.Orphans[in.Adapter] = orphans
		}
	}
}

// ByKind counts problems per error kind.
func (s *Summary) ByKind() map[string]int {
	counts := map[string]int{}
	for _, p := range s.Problems {
		counts[p.Kind]++
	}
	return counts
}

// Err returns every problem as one error, or nil when the run was clean.
// Unclassified postings are not errors.
func (s *Summary) Err() error {
	var result *multierror.Error
	for _, p := range s.Problems {
		result = multierror.Append(result, errors.New(p.String()))
	}
	return result.ErrorOrNil()
}

// Print writes a human readable summary.
func (s *Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "Run %s\n", s.RunID)
	for _, f := range s.Files {
		if f.Failed {
			fmt.Fprintf(w, "  %-12s %s: failed\n", f.Adapter, f.File)
			continue
		}
		fmt.Fprintf(w, "  %-12s %s: %d records, %d transactions, %d dropped, %d errors\n",
			f.Adapter, f.File, f.Records, f.Transactions, f.Dropped, f.Errors)
	}
	fmt.Fprintf(w, "Emitted %d, suppressed %d, duplicates %d\n", s.Emitted, s.Suppressed, s.Duplicates)
	if s.Unclassified > 0 {
		fmt.Fprintf(w, "%d transaction(s) have postings on %s to review\n", s.Unclassified, models.UnclassifiedAccount)
	}
	for _, adapter := range slices.Sorted(maps.Keys(s.Orphans)) {
		fmt.Fprintf(w, "%s: %d known key(s) not produced by this run\n", adapter, len(s.Orphans[adapter]))
	}
	if len(s.Problems) == 0 {
		return
	}
	counts := s.ByKind()
	fmt.Fprintf(w, "Problems: %d", len(s.Problems))
	for _, kind := range slices.Sorted(maps.Keys(counts)) {
		fmt.Fprintf(w, ", %s %d", kind, counts[kind])
	}
	fmt.Fprintln(w)
	for _, p := range s.Problems {
		fmt.Fprintf(w, "  %s\n", p)
	}
}
