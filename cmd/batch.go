package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/QuartzBytes/sheetquery-cli/internal/engine"
	"github.com/QuartzBytes/sheetquery-cli/internal/events"
)

var (
	batchSheet         string
	batchWorkers       int
	batchOutput        string
	batchBatchSize     int
	batchMaxIterations int
)

var batchCmd = &cobra.Command{
	Use:   "batch <file> <questions-file>",
	Short: "Answer many questions about one spreadsheet",
	Long: `Batch reads one question per line from the questions file, runs each through
the full analysis pipeline with a bounded worker pool, and writes one JSON
result per line in input order. Blank lines and lines starting with # are
skipped. A failed question produces a Success=false result and never aborts
the rest of the batch.`,
	Args: cobra.ExactArgs(2),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().StringVar(&batchSheet, "sheet", "", "sheet name (default is the first sheet)")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "concurrent questions (overrides config)")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "write JSONL results to file instead of stdout")
	batchCmd.Flags().IntVar(&batchBatchSize, "batch-size", 0, "rows per evidence batch (overrides config)")
	batchCmd.Flags().IntVar(&batchMaxIterations, "max-iterations", 0, "evidence batch cap (overrides config)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	path, questionsFile := args[0], args[1]

	queries, err := readQuestions(questionsFile)
	if err != nil {
		return err
	}
	if len(queries) == 0 {
		return fmt.Errorf("no questions found in %s", questionsFile)
	}

	client, err := newOracle()
	if err != nil {
		return err
	}
	logger := newLogger()

	opts := engine.Options{
		SheetName:     batchSheet,
		BatchSize:     resolveInt(batchBatchSize, cfg.BatchSize),
		MaxIterations: resolveInt(batchMaxIterations, cfg.MaxIterations),
	}

	workers := resolveInt(batchWorkers, cfg.BatchWorkers)
	if workers < 1 {
		workers = 1
	}

	results := make([]*engine.Result, len(queries))
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(workers)

	for i, q := range queries {
		g.Go(func() error {
			runID := uuid.New().String()
			emitter, err := events.New(logger, cfg.AuditLogDir, runID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "⚠ Warning: audit log unavailable: %v\n", err)
			}
			defer emitter.Close()

			p := &engine.Pipeline{Oracle: client, Emitter: emitter, Options: opts}
			results[i] = p.Run(ctx, path, q)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := os.Stdout
	if batchOutput != "" {
		f, err := os.Create(batchOutput)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	for _, res := range results {
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
	}

	failures := 0
	for _, res := range results {
		if !res.Success {
			failures++
		}
	}
	fmt.Fprintf(os.Stderr, "%d questions answered, %d failed\n", len(results), failures)
	return nil
}

func readQuestions(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open questions file: %w", err)
	}
	defer f.Close()

	var queries []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read questions file: %w", err)
	}
	return queries, nil
}
