// Package batch runs the extraction and rule pipeline over directories of
// pre-extracted report text files and renders the results as the fixed
// 11-column CSV. Documents are independent: a failure in one never aborts the
// batch, it is recorded next to the other results and processing continues.
package batch

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/caeworks/dgtscan/internal/parse"
	"github.com/caeworks/dgtscan/internal/report"
	"github.com/caeworks/dgtscan/internal/rules"
)

// Runner wires a parser and a rule engine into a sequential document loop.
type Runner struct {
	Parser *parse.Parser
	Engine *rules.Engine
	Log    *zap.Logger
}

// NewRunner builds a Runner. A nil logger is replaced with a no-op one.
func NewRunner(p *parse.Parser, e *rules.Engine, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{Parser: p, Engine: e, Log: log}
}

// DocumentResult is the outcome for one file: either a processed result or
// the per-document error that was isolated.
type DocumentResult struct {
	File   string
	Result report.ProcessedResult
	Err    error
}

// Report summarizes a batch run.
type Report struct {
	RunID     string
	Results   []DocumentResult
	Processed int
	Failed    int
}

// Run processes every .txt file directly under each given path (a path may
// also be a single file) in sorted name order. The context is checked between
// documents; each document itself is a pure, bounded computation.
func (r *Runner) Run(ctx context.Context, paths ...string) (*Report, error) {
	files, err := collectFiles(paths)
	if err != nil {
		return nil, err
	}

	rep := &Report{RunID: uuid.NewString()}
	r.Log.Info("batch started",
		zap.String("run_id", rep.RunID),
		zap.Int("files", len(files)),
	)

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		res, err := r.ProcessFile(file)
		rep.Results = append(rep.Results, DocumentResult{File: file, Result: res, Err: err})
		if err != nil {
			rep.Failed++
			r.Log.Warn("document failed",
				zap.String("run_id", rep.RunID),
				zap.String("file", file),
				zap.Error(err),
			)
			continue
		}
		rep.Processed++
		r.Log.Info("document processed",
			zap.String("run_id", rep.RunID),
			zap.String("file", file),
			zap.String("plate", res.Plate),
			zap.Int("annual_km", res.AnnualKm),
		)
	}

	r.Log.Info("batch finished",
		zap.String("run_id", rep.RunID),
		zap.Int("processed", rep.Processed),
		zap.Int("failed", rep.Failed),
	)
	return rep, nil
}

// ProcessFile runs the full pipeline for one document file. Any failure —
// unreadable file, empty blob, or an unexpected panic out of the parsing
// internals — is returned as this document's error and goes no further.
func (r *Runner) ProcessFile(path string) (res report.ProcessedResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("processing %s: panic: %v", path, rec)
		}
	}()

	b, err := os.ReadFile(path)
	if err != nil {
		return report.ProcessedResult{}, fmt.Errorf("reading %s: %w", path, err)
	}

	data, err := r.Parser.Parse(string(b))
	if err != nil {
		return report.ProcessedResult{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	data.SourceName = filepath.Base(path)

	return r.Engine.Process(data), nil
}

// WriteCSV renders the fixed header plus one row per successfully processed
// document. Failed documents have no row; the run report carries them.
func WriteCSV(w io.Writer, results []DocumentResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(report.CSVHeader); err != nil {
		return err
	}
	for _, dr := range results {
		if dr.Err != nil {
			continue
		}
		if err := cw.Write(dr.Result.Row()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the batch CSV to path, creating parent directories.
func WriteCSVFile(path string, results []DocumentResult) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WriteCSV(f, results); err != nil {
		return err
	}
	return f.Close()
}

// collectFiles expands the given paths into a sorted list of .txt documents.
// A directory contributes its direct .txt children; a file is taken as-is.
func collectFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", p, err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
				continue
			}
			files = append(files, filepath.Join(p, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
