package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/QuartzBytes/sheetquery-cli/internal/engine"
	"github.com/QuartzBytes/sheetquery-cli/internal/events"
	"github.com/QuartzBytes/sheetquery-cli/internal/utils"
)

var (
	askSheet         string
	askBatchSize     int
	askMaxIterations int
)

var askCmd = &cobra.Command{
	Use:   "ask <file> <question>",
	Short: "Ask one natural-language question about a spreadsheet",
	Long: `Ask analyzes the workbook, gathers evidence in row batches, synthesizes an
execution plan, and prints a structured JSON result to stdout. A failed
analysis still prints a result with Success=false; the command only errors on
setup problems such as a missing API key.`,
	Args: cobra.ExactArgs(2),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVar(&askSheet, "sheet", "", "sheet name (default is the first sheet)")
	askCmd.Flags().IntVar(&askBatchSize, "batch-size", 0, "rows per evidence batch (overrides config)")
	askCmd.Flags().IntVar(&askMaxIterations, "max-iterations", 0, "evidence batch cap (overrides config)")
}

func runAsk(cmd *cobra.Command, args []string) error {
	path, query := args[0], args[1]

	client, err := newOracle()
	if err != nil {
		return err
	}

	logger := newLogger()
	runID := uuid.New().String()
	emitter, err := events.New(logger, cfg.AuditLogDir, runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: audit log unavailable: %v\n", err)
	}
	defer emitter.Close()

	p := &engine.Pipeline{
		Oracle:  client,
		Emitter: emitter,
		Options: engine.Options{
			SheetName:     askSheet,
			BatchSize:     resolveInt(askBatchSize, cfg.BatchSize),
			MaxIterations: resolveInt(askMaxIterations, cfg.MaxIterations),
		},
	}

	res := p.Run(context.Background(), path, query)

	out, err := utils.PrettyJSON(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func resolveInt(flagVal, cfgVal int) int {
	if flagVal > 0 {
		return flagVal
	}
	return cfgVal
}
