package executors

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/yurifrl/ledgeru/pkg/identity"
	"github.com/yurifrl/ledgeru/pkg/reconcile"
)

var (
	emittedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	suppressedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
	duplicateStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
)

var marks = map[reconcile.Status]struct {
	mark  string
	style lipgloss.Style
}{
	reconcile.Emitted:    {"+", emittedStyle},
	reconcile.Suppressed: {"=", suppressedStyle},
	reconcile.Duplicate:  {"~", duplicateStyle},
}

// Plan runs the inputs without producing output and prints what an import
// would do with every transaction.
func (e *Executor) Plan(ctx context.Context, inputs []Input, known identity.Set, w io.Writer) (*Result, error) {
	e.logger.Debug("planning run", "inputs", len(inputs), "known", known.Len())

	result, err := e.Run(ctx, inputs, known)
	if err != nil {
		return nil, err
	}

	for _, entry := range result.Report.Items {
		m := marks[entry.Status]
		tx := entry.Tx
		amount := ""
		if tx.PostingCount() > 0 {
			p := tx.Posting(0)
			amount = p.Amount().StringFixed(2) + " " + p.Currency()
		}
		line := fmt.Sprintf("%s | %-30s | %-40s | %14s | %s",
			tx.Date(), truncate(tx.Payee(), 30), truncate(tx.Narration(), 40), amount, entry.Key)
		fmt.Fprintln(w, m.style.Render(m.mark+" "+line))
	}

	r := result.Report
	if r.EmittedCount() == 0 {
		fmt.Fprintf(w, "\nPlan: nothing to import, %d transaction(s) already known\n", r.SuppressedCount())
	} else {
		fmt.Fprintf(w, "\nPlan: %d transaction(s) will be imported, %d already known, %d duplicate(s)\n",
			r.EmittedCount(), r.SuppressedCount(), r.DuplicateCount())
	}
	return result, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
