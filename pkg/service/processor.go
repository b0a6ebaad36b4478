// Package service runs one adapter over one export file.
package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/yurifrl/ledgeru/pkg/adapter"
	"github.com/yurifrl/ledgeru/pkg/models"
)

// FileResult is what one file produced. Transactions keep record order.
type FileResult struct {
	Adapter      string
	File         string
	Records      int
	Dropped      int
	Transactions []*models.Transaction
	Errors       []*models.RecordError
}

type Processor struct {
	logger *log.Logger
}

func NewProcessor(logger *log.Logger) *Processor {
	if logger == nil {
		logger = log.Default()
	}
	return &Processor{logger: logger}
}

// ProcessFile reads path and processes it with a.
func (p *Processor) ProcessFile(ctx context.Context, a adapter.Adapter, path string) (*FileResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.DecodeError{File: path, Err: fmt.Errorf("read file: %w", err)}
	}
	return p.ProcessBytes(ctx, a, data, path)
}

// ProcessBytes decodes the file and converts every record. A file that
// cannot be decoded fails as a whole; a record that cannot be converted is
// reported in the result and the rest of the file goes on. When ctx is
// cancelled the partial result is discarded.
func (p *Processor) ProcessBytes(ctx context.Context, a adapter.Adapter, data []byte, filename string) (*FileResult, error) {
	logger := p.logger.With("adapter", a.Name(), "file", filepath.Base(filename))

	records, err := a.ReadRaw(data, filename)
	if err != nil {
		return nil, err
	}
	logger.Debug("decoded file", "records", len(records))

	result := &FileResult{Adapter: a.Name(), File: filename, Records: len(records)}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tx, err := a.ToCanonical(rec)
		if err != nil {
			logger.Debug("skipping record", "record", rec.Index, "error", err)
			result.Errors = append(result.Errors, &models.RecordError{
				Vendor: a.Name(),
				File:   filename,
				Index:  rec.Index,
				Err:    err,
			})
			continue
		}
		if tx == nil {
			result.Dropped++
			continue
		}
		result.Transactions = append(result.Transactions, a.Classify(tx))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger.Info("processed file", "transactions", len(result.Transactions), "dropped", result.Dropped, "errors", len(result.Errors))
	return result, nil
}
