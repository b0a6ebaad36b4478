package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/yurifrl/ledgeru/pkg/config"
	"github.com/yurifrl/ledgeru/pkg/executors"
	"github.com/yurifrl/ledgeru/pkg/identity"
	"github.com/yurifrl/ledgeru/pkg/importer"
	"github.com/yurifrl/ledgeru/pkg/ledger"
	"github.com/yurifrl/ledgeru/pkg/plan"
	"github.com/yurifrl/ledgeru/pkg/reader"
)

var (
	cliFilters filters
	cfgFile    string
)

// session is what every command needs after the flags are parsed.
type session struct {
	cfg      *config.Config
	logger   *log.Logger
	manifest *plan.Manifest
	exec     *executors.Executor
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Build(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "ledgeru-cli",
		Level:           cfg.Level(),
	})

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	tolerance, err := cfg.ToleranceAmount()
	if err != nil {
		return nil, err
	}
	manifest, err := plan.Load(cfg.Manifest)
	if err != nil {
		return nil, err
	}
	registry, err := manifest.Registry(logger, loc, tolerance)
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:      cfg,
		logger:   logger,
		manifest: manifest,
		exec:     executors.New(logger, cfg, registry, nil),
	}, nil
}

// prepare lists the inputs and loads the known keys.
func (s *session) prepare() ([]executors.Input, identity.Set, error) {
	inputs, err := s.manifest.Inputs()
	if err != nil {
		return nil, identity.Set{}, err
	}
	if len(inputs) == 0 {
		return nil, identity.Set{}, fmt.Errorf("no files match the sources of %s", s.cfg.Manifest)
	}
	known, err := ledger.Known(s.cfg, s.logger)
	if err != nil {
		return nil, identity.Set{}, err
	}
	return inputs, known, nil
}

func output(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

var rootCmd = &cobra.Command{
	Use:           "ledgeru-cli",
	Short:         "Turn financial exports into deduplicated ledger transactions",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Show help when no subcommand is provided
		return cmd.Help()
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Convert the manifest sources and write the new transactions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		filter, err := cliFilters.toFilterFunc()
		if err != nil {
			return err
		}
		inputs, known, err := s.prepare()
		if err != nil {
			return err
		}

		result, err := s.exec.Run(cmd.Context(), inputs, known)
		if err != nil {
			return err
		}

		w, err := output(s.cfg.Output)
		if err != nil {
			return err
		}
		if err := importer.New(s.cfg, s.logger).Import(w, result.Transactions(), filter); err != nil {
			w.Close()
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}

		result.Summary.Print(os.Stderr)
		if strict, _ := cmd.Flags().GetBool("strict"); strict {
			return result.Summary.Err()
		}
		return nil
	},
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Preview what an import would write (dry-run)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		inputs, known, err := s.prepare()
		if err != nil {
			return err
		}

		fmt.Printf("Plan preview for %s\n", s.cfg.Manifest)
		s.manifest.Print(os.Stdout)
		fmt.Println()
		result, err := s.exec.Plan(cmd.Context(), inputs, known, os.Stdout)
		if err != nil {
			return err
		}
		result.Summary.Print(os.Stderr)
		return nil
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Dump the raw records of an export file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		var records []reader.Record
		if name, _ := cmd.Flags().GetString("adapter"); name != "" {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			a, err := s.exec.Adapter(name)
			if err != nil {
				return err
			}
			records, err = a.ReadRaw(data, filepath.Base(path))
			if err != nil {
				return err
			}
		} else {
			format, err := reader.FormatFromFilename(path)
			if err != nil {
				return err
			}
			records, err = reader.Read(data, format)
			if err != nil {
				return err
			}
		}

		for _, rec := range records {
			fields := make(map[string]any, rec.Len())
			for _, name := range rec.Names() {
				fields[name], _ = rec.Get(name)
			}
			fmt.Printf("record %d\n", rec.Index)
			pp.Println(fields)
		}
		return nil
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Print the identity keys of a run, or the known keys with --known",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		inputs, known, err := s.prepare()
		if err != nil {
			return err
		}

		if onlyKnown, _ := cmd.Flags().GetBool("known"); onlyKnown {
			for _, k := range known.Keys() {
				fmt.Println(k)
			}
			return nil
		}

		result, err := s.exec.Run(cmd.Context(), inputs, known)
		if err != nil {
			return err
		}
		for _, e := range result.Report.Items {
			fmt.Printf("%s\t%s\t%s\t%s\n", e.Key, e.Status, e.Tx.Date(), e.Tx.Payee())
		}
		for _, source := range slices.Sorted(maps.Keys(result.Summary.Orphans)) {
			for _, k := range result.Summary.Orphans[source] {
				fmt.Printf("%s\torphan\n", k)
			}
		}
		return nil
	},
}

func init() {
	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "Config file (default is ledgeru-config.yaml)")
	flags.StringP("manifest", "m", "", "Manifest of sources (default is ledgeru.yaml)")
	flags.String("timezone", "", "Reporting time zone (default UTC)")
	flags.String("tolerance", "", "Largest residual accepted when balancing (default 0.005)")
	flags.Int("workers", 0, "Files processed concurrently (default number of CPUs)")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("known-keys", "", "File of identity keys already imported")
	flags.String("journal", "", "Beancount journal scanned for identity_key metadata")
	flags.String("ynab-budget", "", "YNAB budget whose account memos hold known keys")
	flags.String("ynab-account", "", "YNAB account whose memos hold known keys")
	flags.String("ynab-token-env", "", "Environment variable holding the YNAB token")

	// Filter flags (global)
	flags.StringVar(&cliFilters.startDate, "start", "", "Start date (YYYY-MM-DD)")
	flags.StringVar(&cliFilters.endDate, "end", "", "End date (YYYY-MM-DD)")
	flags.StringVar(&cliFilters.minAmount, "min", "", "Minimum amount")
	flags.StringVar(&cliFilters.maxAmount, "max", "", "Maximum amount")
	flags.StringVar(&cliFilters.payee, "payee", "", "Filter by payee (case insensitive)")

	importCmd.Flags().StringP("format", "f", "", "Output format: beancount or csv")
	importCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	importCmd.Flags().Bool("strict", false, "Exit with an error when any record failed")
	inspectCmd.Flags().String("adapter", "", "Read the file with a manifest source instead of the default reader")
	keysCmd.Flags().Bool("known", false, "Print the known keys instead of running")

	rootCmd.AddCommand(importCmd, planCmd, inspectCmd, keysCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
