package events

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNilEmitterIsNoOp(t *testing.T) {
	var e *Emitter
	e.Emit(Completed, map[string]any{"x": 1}) // must not panic
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestEmitLogsToSlog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	e, err := New(logger, "", "run-1")
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	e.Emit(FormatDetected, map[string]any{"format": "Columnar"})
	out := buf.String()
	if !strings.Contains(out, "format-detected") || !strings.Contains(out, "run-1") {
		t.Errorf("log output missing fields: %s", out)
	}
}

func TestEmitWritesAuditJSONL(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	e, err := New(logger, dir, "run-2")
	if err != nil {
		t.Fatal(err)
	}

	e.Emit(BatchComplete, map[string]any{"batch": 1})
	e.Emit(Completed, nil)
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(filepath.Join(dir, "run-2.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var lines int
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ev Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("line %d not valid JSON: %v", lines+1, err)
		}
		if ev.RunID != "run-2" {
			t.Errorf("runId=%s", ev.RunID)
		}
		lines++
	}
	if lines != 2 {
		t.Errorf("lines=%d, want 2", lines)
	}
}
