package config

import (
	"os"
	"path/filepath"
	"testing"
	_ "time/tzdata"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Build("", nil)
	require.NoError(t, err)
	assert.Equal(t, "ledgeru.yaml", cfg.Manifest)
	assert.Equal(t, "UTC", cfg.ReportingTimezone)
	assert.Equal(t, FormatBeancount, cfg.OutputFormat)
	assert.GreaterOrEqual(t, cfg.Workers, 1)
	assert.Equal(t, log.InfoLevel, cfg.Level())

	tol, err := cfg.ToleranceAmount()
	require.NoError(t, err)
	assert.Equal(t, "0.005", tol.String())
}

func TestBuildPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
workers: 2
journal: main.beancount
output_format: csv
ynab:
  budget_id: budget-from-file
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LEDGERU_YNAB_ACCOUNT_ID=account-from-dotenv\n"), 0o644))
	t.Setenv("LEDGERU_JOURNAL", "env.beancount")
	t.Cleanup(func() { os.Unsetenv("LEDGERU_YNAB_ACCOUNT_ID") })

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("workers", 1, "")
	flags.String("timezone", "UTC", "")
	require.NoError(t, flags.Parse([]string{"--workers", "8", "--timezone", "America/Sao_Paulo"}))

	cfg, err := Build(path, flags)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "America/Sao_Paulo", cfg.ReportingTimezone)
	assert.Equal(t, "env.beancount", cfg.Journal)
	assert.Equal(t, FormatCSV, cfg.OutputFormat)
	assert.Equal(t, "budget-from-file", cfg.YNAB.BudgetID)
	assert.Equal(t, "account-from-dotenv", cfg.YNAB.AccountID)
}

func TestBuildInvalid(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	for name, content := range map[string]string{
		"timezone":  "reporting_timezone: Mars/Olympus",
		"tolerance": "tolerance: lots",
		"format":    "output_format: xml",
		"workers":   "workers: 0",
		"level":     "log_level: loud",
	} {
		path := filepath.Join(dir, name+".yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		_, err := Build(path, nil)
		assert.Error(t, err, name)
	}

	_, err := Build(filepath.Join(dir, "missing.yaml"), nil)
	assert.Error(t, err)
}
