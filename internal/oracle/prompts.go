package oracle

import (
	"fmt"
	"strings"

	"github.com/QuartzBytes/sheetquery-cli/internal/utils"
)

// Prompt budgets. Evidence and windows are truncated rather than failing the
// call; the loop already bounds window size, so these only guard pathological
// cell contents.
const (
	maxWindowTokens   = 6000
	maxEvidenceTokens = 8000
)

const classifySystem = `You classify the layout of tabular spreadsheet data.
Respond with JSON only: {"format": "Columnar"|"RowBased"|"Nested"|"Matrix"|"Mixed"|"Unknown", "confidence": 0.0-1.0, "reasoning": "..."}.
Columnar means one header row followed by uniform data rows.`

const extractSystem = `You locate the header row in a spreadsheet sample.
Respond with JSON only: {"headerRowIndex": <int>, "headers": ["...", ...], "confidence": 0.0-1.0}.
headerRowIndex is the literal row index shown in the sample. headers lists the
header cell texts in column order; leave a header empty if its cell is blank.`

const analyzeSystem = `You analyze one batch of spreadsheet rows to gather evidence for a question.
Respond with JSON only: {"newArtifacts": ["...", ...], "continueAnalysis": true|false, "intentContext": "...", "reasoning": "..."}.
newArtifacts are free-form evidence snippets (counts, candidate rows, partial
aggregates) worth carrying forward. Set continueAnalysis=false once enough
evidence exists to answer. intentContext is your current reading of what the
question needs; update it when it changes, else return it unchanged.`

const synthesizeSystem = `You turn accumulated evidence into an execution plan for a spreadsheet question.
Respond with JSON only:
{"needFormula": true|false, "minimalDataset": [["Header", ...], ["cell", ...], ...], "formula": "=...", "simpleAnswer": "...", "machineAnswer": "...", "humanExplanation": "...", "reasoning": "..."}.
If a calculation is required, set needFormula=true and supply minimalDataset
with the header row first and only the cells the formula needs. Column i of
minimalDataset is spreadsheet column i (0=A, 1=B, ...). The formula will be
placed in column A on the row directly below the dataset, so write all ranges
relative to the minimal dataset, not the original sheet. Prefer sample
variance (VAR.S) over population variance when variance is asked for.
If no calculation is needed, set needFormula=false and put the final answer in
machineAnswer and simpleAnswer.`

func classifyUser(samples []string) string {
	var b strings.Builder
	b.WriteString("Classify the layout of this sheet from the samples below.\n\n")
	used := utils.CountTokens(b.String())
	for _, s := range samples {
		cost := utils.CountTokens(s)
		if used+cost > maxWindowTokens {
			break
		}
		b.WriteString(s)
		b.WriteString("\n")
		used += cost
	}
	return b.String()
}

func extractUser(grid string) string {
	return "Find the header row in this sample. Row indices are literal.\n\n" +
		utils.TruncateToTokenLimit(grid, maxWindowTokens)
}

func analyzeUser(req BatchRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\n", req.Query)
	if req.IntentContext != "" {
		fmt.Fprintf(&b, "Current intent context: %s\n\n", req.IntentContext)
	}
	fmt.Fprintf(&b, "Dataset summary:\n%s\n", req.DatasetSummary)
	if len(req.PriorArtifacts) > 0 {
		b.WriteString("Evidence gathered so far:\n")
		for _, a := range req.PriorArtifacts {
			fmt.Fprintf(&b, "- %s\n", utils.TruncateToTokenLimit(a, maxEvidenceTokens/3))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Batch %d:\n%s", req.BatchNumber, utils.TruncateToTokenLimit(req.Window, maxWindowTokens))
	return b.String()
}

func synthesizeUser(req PlanRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\n", req.Query)
	if req.IntentContext != "" {
		fmt.Fprintf(&b, "Intent context: %s\n\n", req.IntentContext)
	}
	fmt.Fprintf(&b, "Headers: %s\n\n", strings.Join(req.Headers, " | "))
	fmt.Fprintf(&b, "Column statistics:\n%s\n", req.DatasetSummary)
	fmt.Fprintf(&b, "Evidence:\n%s\n", utils.TruncateToTokenLimit(req.Evidence, maxEvidenceTokens))
	return b.String()
}
