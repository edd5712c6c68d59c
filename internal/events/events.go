// Package events emits the pipeline's activity stream: one structured event
// per phase boundary, delivered to slog and optionally appended to a per-run
// JSONL audit file.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/QuartzBytes/sheetquery-cli/internal/utils"
)

// Type identifies a phase-boundary event.
type Type string

const (
	FormatDetected    Type = "format-detected"
	HeadersExtracted  Type = "headers-extracted"
	MetadataExtracted Type = "metadata-extracted"
	BatchComplete     Type = "batch-complete"
	PlanGenerated     Type = "plan-generated"
	CellsAssigned     Type = "cells-assigned"
	FormulaExecuted   Type = "formula-executed"
	Completed         Type = "completed"
	Failed            Type = "error"
)

// Event is one audit record.
type Event struct {
	RunID   string         `json:"runId"`
	Type    Type           `json:"eventType"`
	Time    time.Time      `json:"time"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Emitter fans events out to slog and, when configured, a JSONL audit file.
// A nil Emitter is a no-op, so callers can thread it through unconditionally.
type Emitter struct {
	logger *slog.Logger
	runID  string

	mu    sync.Mutex
	audit *os.File
}

// New creates an emitter for one query run. auditDir may be empty to disable
// the file sink; otherwise one `<runID>.jsonl` file is created inside it.
func New(logger *slog.Logger, auditDir, runID string) (*Emitter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Emitter{logger: logger, runID: runID}
	if auditDir != "" {
		if err := utils.EnsureDir(auditDir); err != nil {
			return nil, fmt.Errorf("create audit dir: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(auditDir, runID+".jsonl"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open audit file: %w", err)
		}
		e.audit = f
	}
	return e, nil
}

// Emit records one event. Marshal failures are logged, never fatal; the
// pipeline's outcome must not depend on the audit sink.
func (e *Emitter) Emit(t Type, payload map[string]any) {
	if e == nil {
		return
	}
	ev := Event{RunID: e.runID, Type: t, Time: time.Now().UTC(), Payload: payload}

	attrs := make([]any, 0, 2+2*len(payload))
	attrs = append(attrs, "run_id", e.runID)
	for k, v := range payload {
		attrs = append(attrs, k, v)
	}
	e.logger.Info(string(t), attrs...)

	if e.audit == nil {
		return
	}
	line, err := json.Marshal(ev)
	if err != nil {
		e.logger.Warn("audit event marshal failed", "run_id", e.runID, "error", err)
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.audit.Write(append(line, '\n')); err != nil {
		e.logger.Warn("audit event write failed", "run_id", e.runID, "error", err)
	}
}

// Close releases the audit file, if any.
func (e *Emitter) Close() error {
	if e == nil || e.audit == nil {
		return nil
	}
	return e.audit.Close()
}
