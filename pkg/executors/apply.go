package executors

import (
	"context"
	"iter"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/yurifrl/ledgeru/pkg/identity"
	"github.com/yurifrl/ledgeru/pkg/models"
	"github.com/yurifrl/ledgeru/pkg/reconcile"
	"github.com/yurifrl/ledgeru/pkg/service"
)

// Result is the outcome of a run.
type Result struct {
	Report  *reconcile.Report
	Summary *Summary
}

// Transactions yields the emitted transactions in input order. The sequence
// can be ranged over any number of times.
func (r *Result) Transactions() iter.Seq[*models.Transaction] {
	return slices.Values(r.Report.Emitted())
}

// Run processes every input and filters the result against known.
//
// Files are processed concurrently but collected by input position, so the
// output only depends on the inputs and known. A file that fails to decode
// or a record that fails to convert ends up in the summary; only a cancelled
// ctx or an unknown adapter aborts the run.
func (e *Executor) Run(ctx context.Context, inputs []Input, known identity.Set) (*Result, error) {
	adapters, err := e.resolve(inputs)
	if err != nil {
		return nil, err
	}

	results := make([]*service.FileResult, len(inputs))
	failures := make([]error, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers())
	for i, in := range inputs {
		g.Go(func() error {
			res, err := e.processor.ProcessFile(gctx, adapters[i], in.Path)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				e.logger.Warn("failed to process file", "adapter", in.Adapter, "file", in.Path, "error", err)
				failures[i] = err
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := newSummary()
	report := reconcile.NewReport()
	for i, in := range inputs {
		if failures[i] != nil {
			summary.addFailure(in, failures[i])
			continue
		}
		summary.addFile(results[i])
		for _, tx := range results[i].Transactions {
			summary.addEntry(report.Add(known, tx))
		}
	}
	summary.addOrphans(report, known, inputs)

	e.logger.Info("run finished",
		"run", summary.RunID,
		"files", len(inputs),
		"emitted", report.EmittedCount(),
		"suppressed", report.SuppressedCount(),
		"duplicates", report.DuplicateCount(),
		"problems", len(summary.Problems))
	return &Result{Report: report, Summary: summary}, nil
}

// Stream processes the inputs one file at a time and yields emitted
// transactions as soon as their file is done. File and record failures are
// yielded as errors without stopping the stream; cancellation yields
// ctx.Err() and ends it. Each iteration starts a fresh run.
func (e *Executor) Stream(ctx context.Context, inputs []Input, known identity.Set) iter.Seq2[*models.Transaction, error] {
	return func(yield func(*models.Transaction, error) bool) {
		adapters, err := e.resolve(inputs)
		if err != nil {
			yield(nil, err)
			return
		}

		report := reconcile.NewReport()
		for i, in := range inputs {
			res, err := e.processor.ProcessFile(ctx, adapters[i], in.Path)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					yield(nil, ctxErr)
					return
				}
				if !yield(nil, err) {
					return
				}
				continue
			}
			for _, recErr := range res.Errors {
				if !yield(nil, recErr) {
					return
				}
			}
			for _, tx := range res.Transactions {
				if report.Add(known, tx).Status != reconcile.Emitted {
					continue
				}
				if !yield(tx, nil) {
					return
				}
			}
		}
	}
}
