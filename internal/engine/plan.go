package engine

import (
	"context"

	"github.com/QuartzBytes/sheetquery-cli/internal/events"
	"github.com/QuartzBytes/sheetquery-cli/internal/oracle"
	"github.com/QuartzBytes/sheetquery-cli/internal/stats"
)

// Synthesize makes the single synthesize-plan call, handing the oracle the
// query, the final intent context, the combined evidence document, and the
// dataset schema/statistics.
func Synthesize(ctx context.Context, orc oracle.Oracle, md *Metadata, query string, ev *Evidence, em *events.Emitter) (*oracle.ExecutionPlan, error) {
	plan, err := orc.SynthesizePlan(ctx, oracle.PlanRequest{
		Query:          query,
		IntentContext:  ev.IntentContext,
		Evidence:       ev.Document,
		Headers:        md.HeaderNames(),
		DatasetSummary: stats.Describe(md.Columns),
	})
	if err != nil {
		return nil, err
	}
	em.Emit(events.PlanGenerated, map[string]any{
		"needFormula": plan.NeedFormula,
		"formula":     plan.Formula,
		"datasetRows": len(plan.MinimalDataset),
	})
	return plan, nil
}
