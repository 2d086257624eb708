package planner

import (
	"context"
	"log/slog"

	"eventweave.app/planner/internal/budget"
	"eventweave.app/planner/internal/model"
)

// budgetHandler implements the distributor side of the bus round trip:
// infer category priority weights, blend them with the user's
// preference history, scan the knowledge graph for price bounds, and
// anneal an allocation. Never returns an error reply — spec §7 item 4
// requires distribution failures to fall back to a weight-proportional
// split rather than propagate, so any problem here degrades silently to
// that fallback instead of erroring the task.
func (p *Planner) budgetHandler() func(model.Message) *model.Message {
	return func(msg model.Message) *model.Message {
		ctx := context.Background()
		taskID, _ := msg.Body["task_id"].(string)
		userID, _ := msg.Body["user_id"].(string)
		criteria, _ := msg.Body["criteria"].(model.Criteria)

		weights, err := budget.InferPriorities(ctx, criteria, p.deps.LLM)
		if err != nil {
			slog.WarnContext(ctx, "planner: priority inference failed, using defaults", "error", err)
			weights = budget.DefaultWeights()
		}

		if p.deps.Prefs != nil && userID != "" {
			if history := p.deps.Prefs.Get(userID); history != nil {
				weights = budget.MergeWithHistory(budget.Weights(history), weights)
			}
			if err := p.deps.Prefs.Put(userID, map[model.Category]float64(weights)); err != nil {
				slog.DebugContext(ctx, "planner: failed to persist preference history", "error", err)
			}
		}

		bounds := budget.ScanPriceBounds(p.deps.Graphs)
		alloc, cost := budget.Distribute(criteria, weights, bounds, nil)
		if sum := sumAllocation(alloc); criteria.TotalBudget > 0 && sum != criteria.TotalBudget {
			alloc = proportionalFallback(criteria.TotalBudget, weights)
		}

		return &model.Message{
			From:      msg.To,
			To:        msg.From,
			Kind:      model.KindAgentResponse,
			SessionID: msg.SessionID,
			Body: map[string]any{
				"task_id":    taskID,
				"allocation": alloc,
				"weights":    weights,
				"cost":       cost,
			},
		}
	}
}

func sumAllocation(alloc budget.Allocation) int {
	sum := 0
	for _, v := range alloc {
		sum += v
	}
	return sum
}

// proportionalFallback is spec §7 item 4's distribution-failure handler:
// an integer split proportional to weight, residue pushed onto the
// heaviest category.
func proportionalFallback(total int, weights budget.Weights) budget.Allocation {
	alloc := make(budget.Allocation, len(model.Categories))
	assigned := 0
	heaviest := model.Categories[0]
	for _, c := range model.Categories {
		if weights[c] > weights[heaviest] {
			heaviest = c
		}
		amt := int(weights[c] * float64(total))
		alloc[c] = amt
		assigned += amt
	}
	alloc[heaviest] += total - assigned
	return alloc
}
