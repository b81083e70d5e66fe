package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/jonathanvajda/ontology-curation-manager/evaluate"
	"github.com/jonathanvajda/ontology-curation-manager/export"
)

func watchCmd(configPath *string) *cobra.Command {
	var (
		manifestSource string
		format         string
		output         string
		debounce       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch <document>",
		Short: "Re-grade a document whenever it changes on disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if format != "" {
				cfg.Export.Format = format
			}
			if output != "" {
				cfg.Export.Output = output
			}
			exportFormat, err := export.ParseFormat(cfg.Export.Format)
			if err != nil {
				return err
			}

			runner, err := buildRunner(cmd.Context(), cfg, manifestSource)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			w := &documentWatcher{
				runner:   runner,
				path:     args[0],
				format:   exportFormat,
				output:   cfg.Export.Output,
				debounce: debounce,
				logger:   slog.Default(),
			}
			return w.run(ctx)
		},
	}

	cmd.Flags().StringVarP(&manifestSource, "manifest", "m", "", "Manifest path or URL (overrides config)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format (csv, json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().DurationVar(&debounce, "debounce", 250*time.Millisecond, "Delay before re-evaluating after a change")

	return cmd
}

// documentWatcher re-evaluates one document on change. Editors typically
// produce bursts of events (write, chmod, rename-into-place), so changes are
// debounced before triggering a run.
type documentWatcher struct {
	runner   *evaluate.Runner
	path     string
	format   export.Format
	output   string
	debounce time.Duration
	logger   *slog.Logger

	pendingMu sync.Mutex
	pending   bool
}

func (w *documentWatcher) run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	// Watch the directory, not the file: rename-into-place saves replace the
	// inode and a file watch would go stale.
	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	// Initial evaluation before waiting for changes.
	w.evaluateOnce(ctx)

	w.logger.Info("Watching document",
		"path", w.path,
		"debounce", w.debounce)

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	target, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Watch stopped")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || name != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.pendingMu.Lock()
				w.pending = true
				w.pendingMu.Unlock()
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.pendingMu.Lock()
			trigger := w.pending
			w.pending = false
			w.pendingMu.Unlock()
			if trigger {
				w.evaluateOnce(ctx)
			}
		}
	}
}

// evaluateOnce runs one evaluation and writes the report. Failures are logged
// rather than terminating the watch: the document may simply be mid-save.
func (w *documentWatcher) evaluateOnce(ctx context.Context) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		w.logger.Error("Failed to read document", "path", w.path, "error", err)
		return
	}

	result, err := w.runner.Run(ctx, string(data), w.path)
	if err != nil {
		w.logger.Error("Evaluation failed", "path", w.path, "error", err)
		return
	}

	if err := writeResult(result, w.format, w.output); err != nil {
		w.logger.Error("Failed to write report", "path", w.path, "error", err)
		return
	}

	w.logger.Info("Document graded",
		"path", w.path,
		"status", result.Document.Status,
		"records", len(result.Records))
}
