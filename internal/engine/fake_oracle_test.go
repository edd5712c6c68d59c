package engine

import (
	"context"
	"errors"

	"github.com/QuartzBytes/sheetquery-cli/internal/oracle"
)

// fakeOracle scripts the four capabilities with canned responses and records
// every request it receives.
type fakeOracle struct {
	format  oracle.Format
	headers oracle.HeaderExtraction

	// analyzeFn produces the response for batch n (1-based); when nil, a
	// default always-continue response is used.
	analyzeFn func(n int, req oracle.BatchRequest) *oracle.BatchAnalysis
	plan      *oracle.ExecutionPlan

	classifyErr error
	analyzeErr  error

	batchRequests []oracle.BatchRequest
	planRequests  []oracle.PlanRequest
}

func (f *fakeOracle) ClassifyFormat(_ context.Context, _ []string) (*oracle.FormatClassification, error) {
	if f.classifyErr != nil {
		return nil, f.classifyErr
	}
	format := f.format
	if format == "" {
		format = oracle.FormatColumnar
	}
	return &oracle.FormatClassification{Format: format, Confidence: 0.9}, nil
}

func (f *fakeOracle) ExtractHeaders(_ context.Context, _ string) (*oracle.HeaderExtraction, error) {
	h := f.headers
	if len(h.Headers) == 0 {
		h = oracle.HeaderExtraction{HeaderRowIndex: 0, Headers: []string{"Name", "Amount"}, Confidence: 0.9}
	}
	return &h, nil
}

func (f *fakeOracle) AnalyzeBatch(_ context.Context, req oracle.BatchRequest) (*oracle.BatchAnalysis, error) {
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	f.batchRequests = append(f.batchRequests, req)
	if f.analyzeFn != nil {
		return f.analyzeFn(len(f.batchRequests), req), nil
	}
	return &oracle.BatchAnalysis{Continue: true}, nil
}

func (f *fakeOracle) SynthesizePlan(_ context.Context, req oracle.PlanRequest) (*oracle.ExecutionPlan, error) {
	f.planRequests = append(f.planRequests, req)
	if f.plan == nil {
		return nil, errors.New("no plan scripted")
	}
	return f.plan, nil
}
