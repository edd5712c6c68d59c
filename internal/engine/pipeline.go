package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/QuartzBytes/sheetquery-cli/internal/events"
	"github.com/QuartzBytes/sheetquery-cli/internal/oracle"
	"github.com/QuartzBytes/sheetquery-cli/internal/synth"
	"github.com/QuartzBytes/sheetquery-cli/internal/workbook"
)

// Options tunes one pipeline run.
type Options struct {
	SheetName     string
	BatchSize     int
	MaxIterations int
}

// Pipeline answers one natural-language question over one source file. Each
// query owns its own metadata, loop state, plan, and synthetic workbook.
type Pipeline struct {
	Oracle  oracle.Oracle
	Emitter *events.Emitter
	Options Options
}

// Run executes the full pipeline. Errors never propagate: every exit path
// yields a structured Result, and the error event fires on failures.
func (p *Pipeline) Run(ctx context.Context, path, query string) *Result {
	res := p.run(ctx, path, query)
	if res.Success {
		p.Emitter.Emit(events.Completed, map[string]any{"answer": res.Answer})
	} else {
		p.Emitter.Emit(events.Failed, map[string]any{"error": res.Error})
	}
	return res
}

func (p *Pipeline) run(ctx context.Context, path, query string) *Result {
	sheet, err := workbook.Open(path, p.Options.SheetName)
	if err != nil {
		return failure(query, err)
	}

	md, err := ExtractMetadata(ctx, p.Oracle, sheet, p.Emitter)
	if err != nil {
		return failure(query, err)
	}

	ev, err := RunLoop(ctx, p.Oracle, sheet, md, query, p.Options.BatchSize, p.Options.MaxIterations, p.Emitter)
	if err != nil {
		return failure(query, err)
	}

	plan, err := Synthesize(ctx, p.Oracle, md, query, ev, p.Emitter)
	if err != nil {
		return failure(query, err)
	}

	res := &Result{
		Success:             true,
		Query:               query,
		Reasoning:           reasoningText(plan.Reasoning, plan.HumanExplanation, ev),
		RequiredCalculation: plan.NeedFormula,
		DatasetContext: &DatasetContext{
			HeaderRowIndex: md.HeaderRowIndex,
			DataStartRow:   md.DataStartRow,
			DataEndRow:     md.LastDataRow(),
			TotalDataRows:  md.DataRowCount,
		},
	}

	if !plan.NeedFormula {
		res.Answer = firstNonEmpty(plan.MachineAnswer, plan.SimpleAnswer)
		return res
	}

	wb, err := synth.Build(plan.MinimalDataset)
	if err != nil {
		return failure(query, fmt.Errorf("build synthetic workbook: %w", err))
	}
	defer wb.Close()
	p.Emitter.Emit(events.CellsAssigned, map[string]any{
		"cells": len(wb.Assignments),
		"rows":  wb.RowCount,
	})

	exec := synth.Evaluate(wb, plan.Formula)
	p.Emitter.Emit(events.FormulaExecuted, map[string]any{
		"cell":    exec.FormulaCell,
		"success": exec.Success,
		"raw":     exec.RawValue,
	})
	if !exec.Success {
		res.Success = false
		res.Error = exec.Error
		res.Answer = exec.Formatted
		res.Formula = plan.Formula
		return res
	}

	res.Answer = exec.Formatted
	res.Formula = plan.Formula
	res.DataUsed = &DataUsed{
		Rows:    len(plan.MinimalDataset) - 1,
		Columns: len(plan.MinimalDataset[0]),
		Headers: append([]string(nil), plan.MinimalDataset[0]...),
	}
	return res
}

func reasoningText(reasoning, explanation string, ev *Evidence) string {
	out := firstNonEmpty(explanation, reasoning)
	if ev.Truncated {
		note := fmt.Sprintf("Evidence gathering stopped at the iteration cap after %d batches; the answer may not reflect all rows.", ev.Iterations)
		if out == "" {
			return note
		}
		return out + " " + note
	}
	return out
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
