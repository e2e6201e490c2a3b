// Package config resolves the dgtscan configuration surface from three
// layers, lowest to highest precedence: YAML config file, DGTSCAN_*
// environment variables, CLI flags. Every resolved value remembers where it
// came from so `--log-level debug` runs can explain the effective setup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/caeworks/dgtscan/internal/rules"
)

type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

// ResolvedValue is one configuration value plus its provenance.
type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

// ResolveOptions carries the CLI-level overrides into resolution.
type ResolveOptions struct {
	ConfigPath string

	CLIClient         string
	CLIInputDir       string
	CLIOutputCSV      string
	CLILogLevel       string
	CLILeaseMinMonths string
	CLIChangeCutoff   string
}

// ResolvedConfig is the full resolved surface.
type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	// Client is the optional client identifier; empty means "process every
	// vehicle, no eligibility filtering".
	Client         ResolvedValue `json:"client"`
	InputDir       ResolvedValue `json:"input_dir"`
	OutputCSV      ResolvedValue `json:"output_csv"`
	LogLevel       ResolvedValue `json:"log_level"`
	LeaseMinMonths ResolvedValue `json:"lease_min_months"`
	ChangeCutoff   ResolvedValue `json:"change_cutoff"`
}

type fileConfig struct {
	Client    string `yaml:"client"`
	InputDir  string `yaml:"input_dir"`
	OutputCSV string `yaml:"output_csv"`
	LogLevel  string `yaml:"log_level"`
	Policy    struct {
		LeaseMinMonths string `yaml:"lease_min_months"`
		ChangeCutoff   string `yaml:"change_cutoff"`
	} `yaml:"policy"`
}

// DefaultConfigPath is ~/.dgtscan/config.yaml.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".dgtscan", "config.yaml")
}

// Resolve loads the config file (a missing file is fine), then layers
// environment variables and CLI overrides on top, then fills defaults.
func Resolve(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{ConfigPath: path}

	cfg, err := loadFile(path)
	if err != nil {
		return out, err
	}
	if cfg != nil {
		apply(&out.Client, cfg.Client, SourceConfig, path)
		apply(&out.InputDir, cfg.InputDir, SourceConfig, path)
		apply(&out.OutputCSV, cfg.OutputCSV, SourceConfig, path)
		apply(&out.LogLevel, cfg.LogLevel, SourceConfig, path)
		apply(&out.LeaseMinMonths, cfg.Policy.LeaseMinMonths, SourceConfig, path)
		apply(&out.ChangeCutoff, cfg.Policy.ChangeCutoff, SourceConfig, path)
	}

	applyEnv(&out.Client, "DGTSCAN_CLIENT")
	applyEnv(&out.InputDir, "DGTSCAN_INPUT")
	applyEnv(&out.OutputCSV, "DGTSCAN_OUTPUT")
	applyEnv(&out.LogLevel, "DGTSCAN_LOG_LEVEL")
	applyEnv(&out.LeaseMinMonths, "DGTSCAN_LEASE_MIN_MONTHS")
	applyEnv(&out.ChangeCutoff, "DGTSCAN_CHANGE_CUTOFF")

	apply(&out.Client, opts.CLIClient, SourceCLI, "--client")
	apply(&out.InputDir, opts.CLIInputDir, SourceCLI, "--input")
	apply(&out.OutputCSV, opts.CLIOutputCSV, SourceCLI, "--out")
	apply(&out.LogLevel, opts.CLILogLevel, SourceCLI, "--log-level")
	apply(&out.LeaseMinMonths, opts.CLILeaseMinMonths, SourceCLI, "--lease-min-months")
	apply(&out.ChangeCutoff, opts.CLIChangeCutoff, SourceCLI, "--change-cutoff")

	applyDefault(&out.OutputCSV, "resultados.csv")
	applyDefault(&out.LogLevel, "info")

	if out.InputDir.Value != "" {
		out.InputDir.Value = expandUserPath(out.InputDir.Value)
	}
	if out.OutputCSV.Value != "" {
		out.OutputCSV.Value = expandUserPath(out.OutputCSV.Value)
	}

	return out, nil
}

// Policy builds the rule constants from the resolved overrides; unset values
// keep the production defaults.
func (r ResolvedConfig) Policy() (rules.Policy, error) {
	p := rules.DefaultPolicy()

	if v := strings.TrimSpace(r.LeaseMinMonths.Value); v != "" {
		months, err := strconv.ParseFloat(v, 64)
		if err != nil || months <= 0 {
			return p, fmt.Errorf("invalid lease_min_months %q (%s)", v, r.LeaseMinMonths.From)
		}
		p.LeaseMinMonths = months
	}
	if v := strings.TrimSpace(r.ChangeCutoff.Value); v != "" {
		cutoff, err := time.Parse("02/01/2006", v)
		if err != nil {
			return p, fmt.Errorf("invalid change_cutoff %q, want DD/MM/YYYY (%s)", v, r.ChangeCutoff.From)
		}
		p.ChangeCutoff = cutoff
	}
	return p, nil
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func applyDefault(dst *ResolvedValue, value string) {
	if dst.Value == "" {
		*dst = ResolvedValue{Value: value, Source: SourceDefault, From: "built-in default"}
	}
}

func loadFile(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
