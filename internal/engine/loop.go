package engine

import (
	"context"
	"strings"

	"github.com/QuartzBytes/sheetquery-cli/internal/events"
	"github.com/QuartzBytes/sheetquery-cli/internal/oracle"
	"github.com/QuartzBytes/sheetquery-cli/internal/workbook"
)

const (
	// DefaultBatchSize is the evidence window height in rows.
	DefaultBatchSize = 50
	// DefaultMaxIterations caps the loop; together with the batch size it
	// bounds the rows visited per query. Larger sheets proceed with partial
	// evidence and the truncation is flagged on the result.
	DefaultMaxIterations = 10
	// recentArtifacts is how many prior artifacts each batch call sees.
	recentArtifacts = 3
)

// LoopState is the immutable evidence-loop state. Step produces a successor
// state; nothing is mutated in place, which keeps the loop replayable and
// testable without a live oracle.
type LoopState struct {
	Cursor        int
	Iteration     int
	Artifacts     []string
	IntentContext string
	Continue      bool
}

// NewLoopState positions the cursor at the first data row.
func NewLoopState(dataStartRow int) LoopState {
	return LoopState{Cursor: dataStartRow, Continue: true}
}

// Step applies one completed oracle response: appends new artifacts, replaces
// the intent context when a non-empty one arrives, takes the continue flag,
// and advances the cursor by one batch.
func (s LoopState) Step(resp *oracle.BatchAnalysis, batchSize int) LoopState {
	next := LoopState{
		Cursor:        s.Cursor + batchSize,
		Iteration:     s.Iteration + 1,
		IntentContext: s.IntentContext,
		Continue:      resp.Continue,
	}
	next.Artifacts = append(append([]string(nil), s.Artifacts...), nonEmpty(resp.NewArtifacts)...)
	if strings.TrimSpace(resp.IntentContext) != "" {
		next.IntentContext = resp.IntentContext
	}
	return next
}

func nonEmpty(in []string) []string {
	out := in[:0:0]
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// Done reports whether the loop should stop: oracle said stop, rows are
// exhausted, or the iteration cap is reached.
func (s LoopState) Done(lastDataRow, maxIterations int) bool {
	return !s.Continue || s.Cursor > lastDataRow || s.Iteration >= maxIterations
}

// Recent returns up to n of the most recently appended artifacts.
func (s LoopState) Recent(n int) []string {
	if len(s.Artifacts) <= n {
		return s.Artifacts
	}
	return s.Artifacts[len(s.Artifacts)-n:]
}

// Evidence is the loop's product: the concatenated artifact document plus the
// final intent context.
type Evidence struct {
	Document      string
	IntentContext string
	Iterations    int
	Truncated     bool
}

// RunLoop walks the data rows batch by batch, calling analyze-batch once per
// window, until the oracle stops it, the rows run out, or the iteration cap
// hits. Cancellation is checked between iterations; artifacts append only
// after a completed oracle call, so cancellation never half-applies a batch.
func RunLoop(ctx context.Context, orc oracle.Oracle, sheet *workbook.Sheet, md *Metadata, query string, batchSize, maxIterations int, em *events.Emitter) (*Evidence, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	summary := md.Summary()
	lastDataRow := md.LastDataRow()
	state := NewLoopState(md.DataStartRow)

	for !state.Done(lastDataRow, maxIterations) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		windowEnd := state.Cursor + batchSize - 1
		if windowEnd > lastDataRow {
			windowEnd = lastDataRow
		}
		resp, err := orc.AnalyzeBatch(ctx, oracle.BatchRequest{
			Query:          query,
			DatasetSummary: summary,
			Window:         workbook.AnnotatedWindow(sheet, md.HeaderNames(), state.Cursor, windowEnd),
			PriorArtifacts: state.Recent(recentArtifacts),
			IntentContext:  state.IntentContext,
			BatchNumber:    state.Iteration + 1,
		})
		if err != nil {
			return nil, err
		}
		state = state.Step(resp, batchSize)
		em.Emit(events.BatchComplete, map[string]any{
			"batch":     state.Iteration,
			"rows":      windowEnd - (state.Cursor - batchSize) + 1,
			"artifacts": len(state.Artifacts),
			"continue":  state.Continue,
		})
	}

	return &Evidence{
		Document:      strings.Join(state.Artifacts, "\n---\n"),
		IntentContext: state.IntentContext,
		Iterations:    state.Iteration,
		Truncated:     state.Continue && state.Cursor <= lastDataRow,
	}, nil
}
