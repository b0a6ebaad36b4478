package importer

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"maps"
	"slices"
	"strings"

	"github.com/yurifrl/ledgeru/pkg/identity"
	"github.com/yurifrl/ledgeru/pkg/ledger"
	"github.com/yurifrl/ledgeru/pkg/models"
)

var quoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", " ")

func quote(s string) string { return `"` + quoter.Replace(s) + `"` }

// WriteBeancount writes txs as beancount entries separated by blank lines.
// Every entry carries its identity key so a later run can skip it.
func WriteBeancount(w io.Writer, txs iter.Seq[*models.Transaction]) error {
	bw := bufio.NewWriter(w)
	first := true
	for tx := range txs {
		if !first {
			bw.WriteByte('\n')
		}
		first = false
		writeEntry(bw, tx)
	}
	return bw.Flush()
}

func writeEntry(w *bufio.Writer, tx *models.Transaction) {
	fmt.Fprintf(w, "%s * %s %s\n", tx.Date(), quote(tx.Payee()), quote(tx.Narration()))
	fmt.Fprintf(w, "  %s: %s\n", ledger.KeyMeta, quote(identity.Compute(tx).String()))

	meta := tx.Meta()
	for _, k := range slices.Sorted(maps.Keys(meta)) {
		fmt.Fprintf(w, "  %s: %s\n", k, quote(meta[k]))
	}

	postings := tx.Postings()
	accountWidth, amountWidth := 0, 0
	for _, p := range postings {
		accountWidth = max(accountWidth, len(p.Account()))
		amountWidth = max(amountWidth, len(p.Amount().String()))
	}
	for _, p := range postings {
		fmt.Fprintf(w, "  %-*s  %*s %s", accountWidth, p.Account(), amountWidth, p.Amount().String(), p.Currency())
		if price, ok := p.Price(); ok {
			fmt.Fprintf(w, " @ %s %s", price.Amount.String(), price.Currency)
		}
		w.WriteByte('\n')
		for _, k := range p.MetaKeys() {
			v, _ := p.Meta(k)
			fmt.Fprintf(w, "    %s: %s\n", k, quote(v))
		}
	}
}
