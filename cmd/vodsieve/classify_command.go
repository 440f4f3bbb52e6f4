package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"vodsieve/internal/classify"
	"vodsieve/internal/logging"
	"vodsieve/internal/lookupcache"
	"vodsieve/internal/media"
	"vodsieve/internal/services"
	"vodsieve/internal/tmdb"
)

type classifySummary struct {
	RunID      string            `json:"run_id"`
	DurationMS int64             `json:"duration_ms"`
	Cache      string            `json:"cache"`
	Stats      classify.RunStats `json:"stats"`
	Cancelled  bool              `json:"cancelled,omitempty"`
}

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var inputPath string
	var formatFlag string
	var outputPath string
	var jsonSummary bool

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify playlist entries and write one result per entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireTMDB(); err != nil {
				return err
			}
			format, err := media.ParseFormat(formatFlag)
			if err != nil {
				return err
			}
			entries, err := readEntries(cmd, inputPath, format)
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			runID := uuid.NewString()
			runCtx = services.WithRunID(runCtx, runID)

			store := lookupcache.OpenResilient(runCtx, cfg.Cache, logger)
			defer store.Close()

			client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language,
				tmdb.WithTimeout(cfg.TMDB.RequestTimeout()))
			if err != nil {
				return err
			}
			pipeline, err := classify.NewFromConfig(cfg, store, client, logger)
			if err != nil {
				return err
			}

			report, runErr := pipeline.Run(runCtx, entries)
			if runErr != nil && !errors.Is(runErr, context.Canceled) {
				return runErr
			}

			results, closeResults, err := openOutput(cmd, outputPath)
			if err != nil {
				return err
			}
			if err := writeJSONLines(results, report.Results); err != nil {
				closeResults()
				return fmt.Errorf("write results: %w", err)
			}
			if err := closeResults(); err != nil {
				return fmt.Errorf("write results: %w", err)
			}

			// Keep stdout machine readable when it carries the results.
			summaryOut := cmd.OutOrStdout()
			if strings.TrimSpace(outputPath) == "" || outputPath == "-" {
				summaryOut = cmd.ErrOrStderr()
			}
			if jsonSummary {
				if err := writeJSON(summaryOut, classifySummary{
					RunID:      report.RunID,
					DurationMS: report.Duration.Milliseconds(),
					Cache:      lookupcache.Describe(cfg.Cache),
					Stats:      report.Stats,
					Cancelled:  runErr != nil,
				}); err != nil {
					return err
				}
			} else {
				printSummary(summaryOut, report)
			}
			if runErr != nil {
				logging.WarnWithContext(logging.WithContext(runCtx, logger), "classification interrupted", "run_cancelled",
					logging.Int("unresolved", report.Stats.Unresolved),
					logging.String(logging.FieldErrorHint, "rerun to resolve remaining entries; cached lookups are reused"),
					logging.String(logging.FieldImpact, "unreached entries were reported as unresolved"),
				)
			}
			return runErr
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "-", "Entry file to classify (- for stdin)")
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "jsonl", "Input format (jsonl or tsv)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write results to this file instead of stdout")
	cmd.Flags().BoolVar(&jsonSummary, "json", false, "Print the run summary as JSON")
	return cmd
}

func readEntries(cmd *cobra.Command, path string, format media.Format) ([]media.Entry, error) {
	path = strings.TrimSpace(path)
	if path == "" || path == "-" {
		entries, err := media.Decode(cmd.InOrStdin(), format)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return entries, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()
	entries, err := media.Decode(file, format)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return entries, nil
}

func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	path = strings.TrimSpace(path)
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return file, file.Close, nil
}
