package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/yurifrl/ledgeru/pkg/config"
	"github.com/yurifrl/ledgeru/pkg/executors"
	"github.com/yurifrl/ledgeru/pkg/importer"
	"github.com/yurifrl/ledgeru/pkg/ledger"
	"github.com/yurifrl/ledgeru/pkg/plan"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "ledgeru",
	})

	var cfgFile, outputPath, format, journal string
	var strict bool
	flag.StringVar(&cfgFile, "c", "", "Config file (default ledgeru-config.yaml)")
	flag.StringVar(&outputPath, "o", "", "Output file (default stdout)")
	flag.StringVar(&format, "f", "", "Output format: beancount or csv")
	flag.StringVar(&journal, "j", "", "Beancount journal holding the imported keys")
	flag.BoolVar(&strict, "strict", false, "Exit with status 1 when any record failed")
	flag.Parse()

	args := flag.Args()
	if len(args) > 1 {
		logger.Error("invalid usage", "args", args)
		fmt.Fprintf(os.Stderr, "Usage: ledgeru [-c config] [-o output] [-f format] [-j journal] [manifest]\n")
		os.Exit(2)
	}

	cfg, err := config.Build(cfgFile, nil)
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	if len(args) == 1 {
		cfg.Manifest = args[0]
	}
	if outputPath != "" {
		cfg.Output = outputPath
	}
	if format != "" {
		cfg.OutputFormat = format
	}
	if journal != "" {
		cfg.Journal = journal
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	logger.SetLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	failed, err := run(ctx, cfg, logger)
	if err != nil {
		stop()
		logger.Fatal("import failed", "error", err)
	}
	if failed && strict {
		stop()
		os.Exit(1)
	}
}

// run imports every source of the manifest once and reports whether any
// file or record failed.
func run(ctx context.Context, cfg *config.Config, logger *log.Logger) (bool, error) {
	loc, err := cfg.Location()
	if err != nil {
		return false, err
	}
	tolerance, err := cfg.ToleranceAmount()
	if err != nil {
		return false, err
	}

	manifest, err := plan.Load(cfg.Manifest)
	if err != nil {
		return false, err
	}
	registry, err := manifest.Registry(logger, loc, tolerance)
	if err != nil {
		return false, err
	}
	inputs, err := manifest.Inputs()
	if err != nil {
		return false, err
	}
	known, err := ledger.Known(cfg, logger)
	if err != nil {
		return false, err
	}

	result, err := executors.New(logger, cfg, registry, nil).Run(ctx, inputs, known)
	if err != nil {
		return false, err
	}

	out := os.Stdout
	if cfg.Output != "" && cfg.Output != "-" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return false, err
		}
		defer f.Close()
		out = f
	}
	if err := importer.New(cfg, logger).Import(out, result.Transactions(), nil); err != nil {
		return false, err
	}

	result.Summary.Print(os.Stderr)
	return result.Summary.Err() != nil, nil
}
