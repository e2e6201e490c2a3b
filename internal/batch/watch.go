package batch

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/caeworks/dgtscan/internal/report"
)

// Watch processes report text files as they appear in dir, appending one CSV
// row per processed document to outPath. It blocks until the context is
// cancelled or the watcher fails. Files already present when the watch starts
// are processed first, so a restart never skips pending documents.
func (r *Runner) Watch(ctx context.Context, dir, outPath string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	out, err := openAppendCSV(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	// Catch up on whatever is already there.
	existing, err := collectFiles([]string{dir})
	if err != nil {
		return err
	}
	for _, file := range existing {
		r.handleWatched(file, out)
	}

	r.Log.Info("watching for reports", zap.String("dir", dir), zap.String("out", outPath))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(ev.Name), ".txt") {
				continue
			}
			r.handleWatched(ev.Name, out)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.Log.Warn("watch error", zap.Error(err))
		}
	}
}

// handleWatched runs one document through the pipeline and appends its row.
// Per-document failures are logged and swallowed, same isolation as Run.
func (r *Runner) handleWatched(file string, out *appendCSV) {
	res, err := r.ProcessFile(file)
	if err != nil {
		r.Log.Warn("document failed", zap.String("file", file), zap.Error(err))
		return
	}
	if err := out.writeRow(res.Row()); err != nil {
		r.Log.Warn("writing result row", zap.String("file", file), zap.Error(err))
		return
	}
	r.Log.Info("document processed",
		zap.String("file", file),
		zap.String("plate", res.Plate),
	)
}

// appendCSV appends rows to a CSV file, writing the header only when the file
// starts empty.
type appendCSV struct {
	f *os.File
	w *csv.Writer
}

func openAppendCSV(path string) (*appendCSV, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	a := &appendCSV{f: f, w: csv.NewWriter(f)}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() == 0 {
		if err := a.writeRow(report.CSVHeader); err != nil {
			f.Close()
			return nil, err
		}
	}
	return a, nil
}

func (a *appendCSV) writeRow(row []string) error {
	if err := a.w.Write(row); err != nil {
		return err
	}
	a.w.Flush()
	return a.w.Error()
}

func (a *appendCSV) Close() error {
	a.w.Flush()
	return a.f.Close()
}
