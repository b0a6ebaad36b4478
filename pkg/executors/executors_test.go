package executors

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yurifrl/ledgeru/pkg/adapter"
	"github.com/yurifrl/ledgeru/pkg/config"
	"github.com/yurifrl/ledgeru/pkg/identity"
	"github.com/yurifrl/ledgeru/pkg/models"
	"github.com/yurifrl/ledgeru/pkg/rules"
	"gopkg.in/yaml.v3"
)

const (
	january = "date,payee,amount,id\n" +
		"2024-01-05,GroceryStore,-54.32,t1\n" +
		"2024-01-06,Refund,12.00,t2\n" +
		"2024-01-07,Broken,abc,t3\n"
	// Overlaps january on t2.
	february = "date,payee,amount,id\n" +
		"2024-01-06,Refund,12.00,t2\n" +
		"2024-02-01,Coffee,-3.50,t4\n"
)

func setup(t *testing.T, workers int) (*Executor, []Input) {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("account: Assets:Checking\nid_column: id"), &node))
	a, err := adapter.New(adapter.Config{
		Name:     "checking",
		Kind:     adapter.KindCSV,
		Settings: &node,
		Rules:    []rules.Rule{{Account: "Expenses:Groceries", Payee: "Grocery"}},
	}, log.Default())
	require.NoError(t, err)

	registry := adapter.NewRegistry()
	require.NoError(t, registry.Register(a))

	e := New(log.Default(), &config.Config{Workers: workers}, registry, nil)
	inputs := []Input{
		{Adapter: "checking", Path: write("2024-01.csv", january)},
		{Adapter: "checking", Path: filepath.Join(dir, "missing.csv")},
		{Adapter: "checking", Path: write("2024-02.csv", february)},
	}
	return e, inputs
}

func payees(seq func(func(*models.Transaction) bool)) []string {
	var out []string
	for tx := range seq {
		out = append(out, tx.Payee())
	}
	return out
}

func TestRun(t *testing.T) {
	e, inputs := setup(t, 4)

	result, err := e.Run(context.Background(), inputs, identity.NewSet())
	require.NoError(t, err)

	assert.Equal(t, []string{"GroceryStore", "Refund", "Coffee"}, payees(result.Transactions()))
	// The sequence is restartable.
	assert.Equal(t, payees(result.Transactions()), payees(result.Transactions()))

	s := result.Summary
	assert.NotEmpty(t, s.RunID)
	assert.Equal(t, 3, s.Emitted)
	assert.Equal(t, 1, s.Duplicates)
	assert.Equal(t, 2, s.Unclassified)
	require.Len(t, s.Files, 3)
	assert.True(t, s.Files[1].Failed)
	assert.Equal(t, map[string]int{models.KindAmount: 1, models.KindDecode: 1}, s.ByKind())
	assert.Error(t, s.Err())

	var buf bytes.Buffer
	s.Print(&buf)
	assert.Contains(t, buf.String(), "Emitted 3, suppressed 0, duplicates 1")
}

func TestRunIdempotent(t *testing.T) {
	e, inputs := setup(t, 2)
	ctx := context.Background()

	first, err := e.Run(ctx, inputs, identity.NewSet())
	require.NoError(t, err)

	var keys []identity.Key
	for _, entry := range first.Report.Items {
		keys = append(keys, entry.Key)
	}
	known := identity.NewSet(append(keys, "checking:deleted")...)

	second, err := e.Run(ctx, inputs, known)
	require.NoError(t, err)
	assert.Empty(t, payees(second.Transactions()))
	assert.Equal(t, 4, second.Summary.Suppressed)
	assert.Equal(t, []identity.Key{"checking:deleted"}, second.Summary.Orphans["checking"])
}

func TestRunDeterministic(t *testing.T) {
	e, inputs := setup(t, 1)
	ctx := context.Background()

	keysOf := func(r *Result) []identity.Key {
		var keys []identity.Key
		for tx := range r.Transactions() {
			keys = append(keys, identity.Compute(tx))
		}
		return keys
	}

	sequential, err := e.Run(ctx, inputs, identity.NewSet())
	require.NoError(t, err)

	e.config.Workers = 8
	for range 5 {
		parallel, err := e.Run(ctx, inputs, identity.NewSet())
		require.NoError(t, err)
		if diff := cmp.Diff(keysOf(sequential), keysOf(parallel)); diff != "" {
			t.Errorf("parallel run differs (-sequential +parallel):\n%s", diff)
		}
	}
}

func TestRunUnknownAdapter(t *testing.T) {
	e, inputs := setup(t, 1)
	inputs = append(inputs, Input{Adapter: "savings", Path: "x.csv"})
	_, err := e.Run(context.Background(), inputs, identity.NewSet())
	assert.ErrorIs(t, err, adapter.ErrUnknownAdapter)
}

func TestRunCancelled(t *testing.T) {
	e, inputs := setup(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Run(ctx, inputs, identity.NewSet())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStream(t *testing.T) {
	e, inputs := setup(t, 1)

	var (
		got  []string
		errs []error
	)
	for tx, err := range e.Stream(context.Background(), inputs, identity.NewSet()) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		got = append(got, tx.Payee())
	}
	assert.Equal(t, []string{"GroceryStore", "Refund", "Coffee"}, got)
	require.Len(t, errs, 2)
	assert.Equal(t, models.KindAmount, models.Kind(errs[0]))
	assert.Equal(t, models.KindDecode, models.Kind(errs[1]))

	// Stopping early is honoured.
	var first []string
	for tx, err := range e.Stream(context.Background(), inputs, identity.NewSet()) {
		if err == nil {
			first = append(first, tx.Payee())
			break
		}
	}
	assert.Equal(t, []string{"GroceryStore"}, first)
}

func TestPlan(t *testing.T) {
	e, inputs := setup(t, 2)
	first, err := e.Run(context.Background(), inputs, identity.NewSet())
	require.NoError(t, err)
	known := identity.NewSet(first.Report.Items[0].Key)

	var buf bytes.Buffer
	result, err := e.Plan(context.Background(), inputs, known, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Report.EmittedCount())

	out := buf.String()
	assert.Contains(t, out, "= 2024-01-05")
	assert.Contains(t, out, "~ 2024-01-06")
	assert.Contains(t, out, "+ 2024-02-01")
	assert.Contains(t, out, "Plan: 2 transaction(s) will be imported, 1 already known, 1 duplicate(s)")
	assert.True(t, slices.Contains(result.Summary.Files, FileSummary{
		Adapter: "checking", File: inputs[0].Path, Records: 3, Transactions: 2, Errors: 1,
	}))
}
