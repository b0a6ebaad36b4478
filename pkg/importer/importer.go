// Package importer writes the emitted transactions of a run in the
// configured output format.
package importer

import (
	"fmt"
	"io"
	"iter"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/ledgeru/pkg/config"
	"github.com/yurifrl/ledgeru/pkg/csv"
	"github.com/yurifrl/ledgeru/pkg/models"
)

// Importer is decoupled from the command line so any front end can reuse it.
type Importer struct {
	cfg    *config.Config
	logger *log.Logger
}

// New returns a new Importer instance.
func New(cfg *config.Config, logger *log.Logger) *Importer {
	if logger == nil {
		logger = log.Default()
	}
	return &Importer{cfg: cfg, logger: logger}
}

// Import writes the transactions filter keeps to w.
func (i *Importer) Import(w io.Writer, txs iter.Seq[*models.Transaction], filter csv.FilterFunc[*models.Transaction]) error {
	var written int
	counted := func(yield func(*models.Transaction) bool) {
		for tx := range txs {
			if filter != nil && !filter(tx) {
				continue
			}
			written++
			if !yield(tx) {
				return
			}
		}
	}

	var err error
	switch i.cfg.OutputFormat {
	case config.FormatCSV:
		err = csv.Write(w, counted, nil)
	case config.FormatBeancount, "":
		err = WriteBeancount(w, counted)
	default:
		return fmt.Errorf("unsupported output format %q", i.cfg.OutputFormat)
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", i.cfg.OutputFormat, err)
	}
	i.logger.Debug("transactions written", "format", i.cfg.OutputFormat, "count", written)
	return nil
}
