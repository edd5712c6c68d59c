package engine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/QuartzBytes/sheetquery-cli/internal/oracle"
	"github.com/QuartzBytes/sheetquery-cli/internal/workbook"
)

func TestLoopStateStepIsPure(t *testing.T) {
	initial := NewLoopState(1)
	resp := &oracle.BatchAnalysis{
		NewArtifacts:  []string{"a1"},
		Continue:      true,
		IntentContext: "count cash rows",
	}
	next := initial.Step(resp, 50)

	if initial.Iteration != 0 || len(initial.Artifacts) != 0 || initial.IntentContext != "" {
		t.Errorf("initial state mutated: %+v", initial)
	}
	if next.Cursor != 51 || next.Iteration != 1 {
		t.Errorf("advance wrong: %+v", next)
	}
	if len(next.Artifacts) != 1 || next.Artifacts[0] != "a1" {
		t.Errorf("artifacts wrong: %+v", next.Artifacts)
	}
	if next.IntentContext != "count cash rows" {
		t.Errorf("intent context not applied: %+v", next)
	}
}

func TestLoopStateIntentContextKeptWhenEmpty(t *testing.T) {
	s := NewLoopState(1).Step(&oracle.BatchAnalysis{IntentContext: "first", Continue: true}, 50)
	s = s.Step(&oracle.BatchAnalysis{IntentContext: "", Continue: true}, 50)
	if s.IntentContext != "first" {
		t.Errorf("empty intent context should not clear the running one: %q", s.IntentContext)
	}
}

func TestLoopStateArtifactsAppendOnly(t *testing.T) {
	s := NewLoopState(1)
	s = s.Step(&oracle.BatchAnalysis{NewArtifacts: []string{"a", ""}, Continue: true}, 10)
	s = s.Step(&oracle.BatchAnalysis{NewArtifacts: []string{"b"}, Continue: true}, 10)
	if len(s.Artifacts) != 2 || s.Artifacts[0] != "a" || s.Artifacts[1] != "b" {
		t.Errorf("artifacts=%v, want [a b] (blank entries dropped)", s.Artifacts)
	}
}

func TestLoopStateDone(t *testing.T) {
	s := NewLoopState(1)
	if s.Done(100, 10) {
		t.Error("fresh state should not be done")
	}
	stopped := s.Step(&oracle.BatchAnalysis{Continue: false}, 50)
	if !stopped.Done(100, 10) {
		t.Error("continue=false should stop the loop")
	}
	past := LoopState{Cursor: 101, Continue: true}
	if !past.Done(100, 10) {
		t.Error("cursor past last data row should stop the loop")
	}
	capped := LoopState{Cursor: 5, Iteration: 10, Continue: true}
	if !capped.Done(100, 10) {
		t.Error("iteration cap should stop the loop")
	}
}

func TestLoopStateRecent(t *testing.T) {
	s := LoopState{Artifacts: []string{"1", "2", "3", "4", "5"}}
	got := s.Recent(3)
	if len(got) != 3 || got[0] != "3" {
		t.Errorf("recent=%v", got)
	}
}

func dataSheet(dataRows int) (*workbook.Sheet, *Metadata) {
	s := &workbook.Sheet{Name: "t", Rows: [][]string{{"Name", "Amount"}}}
	for i := 0; i < dataRows; i++ {
		s.Rows = append(s.Rows, []string{fmt.Sprintf("item%d", i), strconv.Itoa(i)})
	}
	md := &Metadata{
		Format:         oracle.FormatColumnar,
		TotalRows:      s.TotalRows(),
		TotalColumns:   2,
		HeaderRowIndex: 0,
		Headers:        []HeaderInfo{{Name: "Name"}, {Name: "Amount"}},
		DataStartRow:   1,
		DataRowCount:   dataRows,
	}
	return s, md
}

var windowRowPattern = regexp.MustCompile(`(?m)^row (\d+):`)

func visitedRows(t *testing.T, reqs []oracle.BatchRequest) []int {
	t.Helper()
	var rows []int
	for _, req := range reqs {
		for _, m := range windowRowPattern.FindAllStringSubmatch(req.Window, -1) {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				t.Fatal(err)
			}
			rows = append(rows, n)
		}
	}
	return rows
}

func TestRunLoopVisitsEveryRowExactlyOnce(t *testing.T) {
	sheet, md := dataSheet(100)
	orc := &fakeOracle{}
	ev, err := RunLoop(context.Background(), orc, sheet, md, "q", 50, 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ev.Iterations != 2 {
		t.Errorf("iterations=%d, want 2", ev.Iterations)
	}
	if ev.Truncated {
		t.Error("loop that exhausted all rows must not be flagged truncated")
	}

	rows := visitedRows(t, orc.batchRequests)
	if len(rows) != 100 {
		t.Fatalf("visited %d rows, want 100", len(rows))
	}
	seen := map[int]bool{}
	for _, r := range rows {
		if seen[r] {
			t.Fatalf("row %d visited twice", r)
		}
		seen[r] = true
	}
	for r := md.DataStartRow; r <= md.LastDataRow(); r++ {
		if !seen[r] {
			t.Fatalf("row %d skipped", r)
		}
	}
}

func TestRunLoopIterationCapFlagsTruncation(t *testing.T) {
	sheet, md := dataSheet(100)
	orc := &fakeOracle{}
	ev, err := RunLoop(context.Background(), orc, sheet, md, "q", 10, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ev.Iterations != 3 {
		t.Errorf("iterations=%d, want cap 3", ev.Iterations)
	}
	if !ev.Truncated {
		t.Error("cap exhaustion with rows remaining should flag truncation")
	}
}

func TestRunLoopEarlyStop(t *testing.T) {
	sheet, md := dataSheet(500)
	orc := &fakeOracle{
		analyzeFn: func(n int, _ oracle.BatchRequest) *oracle.BatchAnalysis {
			return &oracle.BatchAnalysis{
				NewArtifacts: []string{fmt.Sprintf("artifact %d", n)},
				Continue:     n < 2,
			}
		},
	}
	ev, err := RunLoop(context.Background(), orc, sheet, md, "q", 50, 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ev.Iterations != 2 {
		t.Errorf("iterations=%d, want 2 after early stop", ev.Iterations)
	}
	if ev.Truncated {
		t.Error("oracle-requested stop is not truncation")
	}
	if want := "artifact 1\n---\nartifact 2"; ev.Document != want {
		t.Errorf("document=%q, want %q", ev.Document, want)
	}
}

func TestRunLoopPassesRecentArtifactsOnly(t *testing.T) {
	sheet, md := dataSheet(300)
	orc := &fakeOracle{
		analyzeFn: func(n int, _ oracle.BatchRequest) *oracle.BatchAnalysis {
			return &oracle.BatchAnalysis{NewArtifacts: []string{fmt.Sprintf("a%d", n)}, Continue: true}
		},
	}
	if _, err := RunLoop(context.Background(), orc, sheet, md, "q", 50, 10, nil); err != nil {
		t.Fatal(err)
	}
	last := orc.batchRequests[len(orc.batchRequests)-1]
	if len(last.PriorArtifacts) != 3 {
		t.Errorf("prior artifacts=%d, want 3", len(last.PriorArtifacts))
	}
	if last.PriorArtifacts[0] != "a3" {
		t.Errorf("prior artifacts should be the most recent three: %v", last.PriorArtifacts)
	}
}

func TestRunLoopCancellation(t *testing.T) {
	sheet, md := dataSheet(100)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := RunLoop(ctx, &fakeOracle{}, sheet, md, "q", 50, 10, nil); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestRunLoopEmptyDataRows(t *testing.T) {
	sheet, md := dataSheet(0)
	orc := &fakeOracle{}
	ev, err := RunLoop(context.Background(), orc, sheet, md, "q", 50, 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(orc.batchRequests) != 0 {
		t.Error("no data rows means no oracle calls")
	}
	if ev.Document != "" || ev.Iterations != 0 {
		t.Errorf("evidence should be empty: %+v", ev)
	}
}

func TestRunLoopWindowIsAnnotated(t *testing.T) {
	sheet, md := dataSheet(10)
	orc := &fakeOracle{}
	if _, err := RunLoop(context.Background(), orc, sheet, md, "q", 50, 10, nil); err != nil {
		t.Fatal(err)
	}
	win := orc.batchRequests[0].Window
	if !strings.Contains(win, "A=Name | B=Amount") {
		t.Errorf("window missing column annotations: %s", win)
	}
}
