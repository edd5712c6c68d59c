// Package oracle defines the four reasoning capabilities the pipeline depends
// on — format classification, header extraction, batch analysis, and plan
// synthesis — and a chat-completion backed client implementing them. Each
// capability is independently mockable.
package oracle

import (
	"context"
	"fmt"
)

// Format is the oracle's layout classification of a sheet.
type Format string

const (
	FormatColumnar Format = "Columnar"
	FormatRowBased Format = "RowBased"
	FormatNested   Format = "Nested"
	FormatMatrix   Format = "Matrix"
	FormatMixed    Format = "Mixed"
	FormatUnknown  Format = "Unknown"
)

// FormatClassification is the classify-format response.
type FormatClassification struct {
	Format     Format  `json:"format"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// HeaderExtraction is the extract-headers response.
type HeaderExtraction struct {
	HeaderRowIndex int      `json:"headerRowIndex"`
	Headers        []string `json:"headers"`
	Confidence     float64  `json:"confidence"`
}

// BatchRequest carries one analyze-batch call.
type BatchRequest struct {
	Query          string
	DatasetSummary string
	Window         string
	PriorArtifacts []string
	IntentContext  string
	BatchNumber    int
}

// BatchAnalysis is the analyze-batch response.
type BatchAnalysis struct {
	NewArtifacts  []string `json:"newArtifacts"`
	Continue      bool     `json:"continueAnalysis"`
	IntentContext string   `json:"intentContext"`
	Reasoning     string   `json:"reasoning"`
}

// PlanRequest carries the single synthesize-plan call made per query.
type PlanRequest struct {
	Query          string
	IntentContext  string
	Evidence       string
	Headers        []string
	DatasetSummary string
}

// ExecutionPlan is the synthesize-plan response: either a direct answer or a
// minimal dataset plus the formula to run over it.
type ExecutionPlan struct {
	NeedFormula      bool       `json:"needFormula"`
	MinimalDataset   [][]string `json:"minimalDataset"`
	Formula          string     `json:"formula"`
	SimpleAnswer     string     `json:"simpleAnswer"`
	MachineAnswer    string     `json:"machineAnswer"`
	HumanExplanation string     `json:"humanExplanation"`
	Reasoning        string     `json:"reasoning"`
}

// Oracle is the external reasoning contract. Every call blocks until the
// response arrives; cancellation flows through ctx.
type Oracle interface {
	ClassifyFormat(ctx context.Context, samples []string) (*FormatClassification, error)
	ExtractHeaders(ctx context.Context, grid string) (*HeaderExtraction, error)
	AnalyzeBatch(ctx context.Context, req BatchRequest) (*BatchAnalysis, error)
	SynthesizePlan(ctx context.Context, req PlanRequest) (*ExecutionPlan, error)
}

// TransportError wraps any oracle call failure (network, API, or response
// parse). It is fatal for the query; no automatic retry happens above it.
type TransportError struct {
	Capability string
	Err        error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("oracle %s: %v", e.Capability, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
