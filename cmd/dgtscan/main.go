// dgtscan processes DGT vehicle-report text blobs: it extracts structured
// history records, evaluates eligibility and mileage rules, and emits the
// fixed-column results CSV.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/caeworks/dgtscan/internal/batch"
	"github.com/caeworks/dgtscan/internal/config"
	"github.com/caeworks/dgtscan/internal/mcpserver"
	"github.com/caeworks/dgtscan/internal/observe"
	"github.com/caeworks/dgtscan/internal/parse"
	"github.com/caeworks/dgtscan/internal/rules"
)

const version = "0.3.0"

var flags struct {
	configPath     string
	client         string
	input          string
	out            string
	logLevel       string
	leaseMinMonths string
	changeCutoff   string
}

func main() {
	root := &cobra.Command{
		Use:           "dgtscan",
		Short:         "DGT vehicle report extraction and mileage rule engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ~/.dgtscan/config.yaml)")
	pf.StringVar(&flags.client, "client", "", "client identifier for eligibility filtering")
	pf.StringVar(&flags.input, "input", "", "default input directory for process")
	pf.StringVar(&flags.out, "out", "", "output CSV path (default resultados.csv)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&flags.leaseMinMonths, "lease-min-months", "", "historical lease duration threshold in months")
	pf.StringVar(&flags.changeCutoff, "change-cutoff", "", "regulatory change cutoff date (DD/MM/YYYY)")

	root.AddCommand(newProcessCmd(), newWatchCmd(), newMCPCmd(), newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newProcessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process [dir|file...]",
		Short: "Process report text files and write the results CSV",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			paths := args
			if len(paths) == 0 {
				if cfg.InputDir.Value == "" {
					return fmt.Errorf("no input: pass paths or configure input_dir")
				}
				paths = []string{cfg.InputDir.Value}
			}

			runner, err := newRunner(cfg, log)
			if err != nil {
				return err
			}

			rep, err := runner.Run(cmd.Context(), paths...)
			if err != nil {
				return err
			}

			outPath := cfg.OutputCSV.Value
			if err := batch.WriteCSVFile(outPath, rep.Results); err != nil {
				return fmt.Errorf("writing %s: %w", outPath, err)
			}

			fmt.Printf("Processed %d document(s), %d failed. Results: %s\n",
				rep.Processed, rep.Failed, outPath)
			return nil
		},
	}
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <dir>",
		Short: "Watch a directory and process report files as they arrive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			runner, err := newRunner(cfg, log)
			if err != nil {
				return err
			}
			return runner.Watch(cmd.Context(), args[0], cfg.OutputCSV.Value)
		},
	}
}

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the pipeline as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup()
			if err != nil {
				return err
			}
			pol, err := cfg.Policy()
			if err != nil {
				return err
			}

			s := mcpserver.NewServer(mcpserver.ServerConfig{
				Version:       version,
				DefaultClient: cfg.Client.Value,
				Policy:        pol,
			})
			return mcpserver.ServeStdio(s)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dgtscan %s\n", version)
		},
	}
}

// setup resolves configuration and builds the logger.
func setup() (config.ResolvedConfig, *zap.Logger, error) {
	cfg, err := config.Resolve(config.ResolveOptions{
		ConfigPath:        flags.configPath,
		CLIClient:         flags.client,
		CLIInputDir:       flags.input,
		CLIOutputCSV:      flags.out,
		CLILogLevel:       flags.logLevel,
		CLILeaseMinMonths: flags.leaseMinMonths,
		CLIChangeCutoff:   flags.changeCutoff,
	})
	if err != nil {
		return cfg, nil, err
	}

	log, err := buildLogger(cfg.LogLevel.Value)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}

func newRunner(cfg config.ResolvedConfig, log *zap.Logger) (*batch.Runner, error) {
	pol, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	sink := observe.NewLogSink(log)
	parser := parse.New(parse.WithSink(sink))
	engine := rules.NewEngine(cfg.Client.Value,
		rules.WithPolicy(pol),
		rules.WithSink(sink),
	)
	return batch.NewRunner(parser, engine, log), nil
}

func buildLogger(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
