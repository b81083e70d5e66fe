package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/jonathanvajda/ontology-curation-manager/config"
	"github.com/jonathanvajda/ontology-curation-manager/evaluate"
	"github.com/jonathanvajda/ontology-curation-manager/export"
	"github.com/jonathanvajda/ontology-curation-manager/manifest"
)

// buildRunner loads the manifest named by the config (or the override) and
// constructs the evaluation runner from the config's evaluation settings.
func buildRunner(ctx context.Context, cfg *config.Config, manifestOverride string) (*evaluate.Runner, error) {
	source := cfg.Manifest.Source
	if manifestOverride != "" {
		source = manifestOverride
	}
	if source == "" {
		return nil, fmt.Errorf("no manifest configured; set manifest.source or pass --manifest")
	}

	loadCtx, cancel := context.WithTimeout(ctx, cfg.Manifest.Timeout)
	defer cancel()

	m, err := manifest.NewLoader(slog.Default()).Load(loadCtx, source)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}

	return evaluate.NewRunner(m,
		evaluate.WithLogger(slog.Default()),
		evaluate.WithParallelism(cfg.Evaluation.Parallelism),
		evaluate.WithQueryTimeout(cfg.Evaluation.QueryTimeout),
		evaluate.WithEntitySeeding(cfg.Evaluation.SeedEntities),
	), nil
}

// writeResult serializes one run result to the configured destination.
func writeResult(result *evaluate.RunResult, format export.Format, output string) error {
	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return export.WriteResult(w, result, format)
}

func evaluateCmd(configPath *string) *cobra.Command {
	var (
		manifestSource string
		format         string
		output         string
		entitiesOut    string
	)

	cmd := &cobra.Command{
		Use:   "evaluate <document>",
		Short: "Grade a single ontology document",
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

			result, err := evaluateFile(cmd.Context(), runner, args[0])
			if err != nil {
				return err
			}

			if entitiesOut != "" {
				if err := writeEntityReport(result, entitiesOut); err != nil {
					return err
				}
			}

			return writeResult(result, exportFormat, cfg.Export.Output)
		},
	}

	cmd.Flags().StringVarP(&manifestSource, "manifest", "m", "", "Manifest path or URL (overrides config)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format (csv, json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&entitiesOut, "entities", "", "Also write per-entity report CSV to this file")

	return cmd
}

func evaluateFile(ctx context.Context, runner *evaluate.Runner, path string) (*evaluate.RunResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	result, err := runner.Run(ctx, string(data), path)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", path, err)
	}
	return result, nil
}

func writeEntityReport(result *evaluate.RunResult, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create entity report file: %w", err)
	}
	defer f.Close()
	return export.WriteEntities(f, result.Entities)
}

func batchCmd(configPath *string) *cobra.Command {
	var (
		manifestSource string
		format         string
		outputDir      string
		workers        int
	)

	cmd := &cobra.Command{
		Use:   "batch <glob>",
		Short: "Grade every document matching a glob pattern",
		Long: `Grade every document matching a doublestar glob pattern, for example
"ontologies/**/*.ttl". Documents are evaluated independently with a bounded
worker pool; one failing document does not abort the others.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if format != "" {
				cfg.Export.Format = format
			}
			if workers > 0 {
				cfg.Evaluation.Workers = workers
			}
			exportFormat, err := export.ParseFormat(cfg.Export.Format)
			if err != nil {
				return err
			}

			paths, err := doublestar.FilepathGlob(args[0])
			if err != nil {
				return fmt.Errorf("glob %s: %w", args[0], err)
			}
			if len(paths) == 0 {
				return fmt.Errorf("glob %s matched no files", args[0])
			}

			runner, err := buildRunner(cmd.Context(), cfg, manifestSource)
			if err != nil {
				return err
			}

			inputs := make([]evaluate.BatchInput, 0, len(paths))
			for _, p := range paths {
				data, err := os.ReadFile(p)
				if err != nil {
					return fmt.Errorf("read document %s: %w", p, err)
				}
				inputs = append(inputs, evaluate.BatchInput{Name: p, Text: string(data)})
			}

			results := runner.RunBatch(cmd.Context(), inputs, cfg.Evaluation.Workers)

			failed := 0
			for _, res := range results {
				if res.Err != nil {
					failed++
					slog.Error("Document evaluation failed", "document", res.Name, "error", res.Err)
					continue
				}
				if err := writeBatchResult(res, exportFormat, outputDir); err != nil {
					return err
				}
			}

			slog.Info("Batch complete",
				"documents", len(results),
				"failed", failed)
			if failed > 0 {
				return fmt.Errorf("%d of %d documents failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&manifestSource, "manifest", "m", "", "Manifest path or URL (overrides config)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format (csv, json)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Write one report per document into this directory (default stdout)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Worker pool size (overrides config)")

	return cmd
}

// writeBatchResult writes one document's report: to stdout when no output
// directory is set, otherwise to <dir>/<document-base>.<ext>.
func writeBatchResult(res evaluate.BatchResult, format export.Format, outputDir string) error {
	if outputDir == "" {
		return export.WriteResult(os.Stdout, res.Result, format)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	info, _ := export.GetFormatInfo(format)
	base := strings.TrimSuffix(filepath.Base(res.Name), filepath.Ext(res.Name))
	path := filepath.Join(outputDir, base+info.Extension)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()
	return export.WriteResult(f, res.Result, format)
}
