package budget

import (
	"fmt"
	"strings"

	"eventweave.app/planner/internal/model"
)

// Explain renders a short, human-readable justification of an allocation,
// one line per category in model.Categories order. The Planner does not
// call it, and final_response messages do not carry its text.
func Explain(weights Weights, alloc Allocation, total int) string {
	var sb strings.Builder
	sb.WriteString("Budget split:\n")
	for _, c := range model.Categories {
		amt := alloc[c]
		pct := 0.0
		if total > 0 {
			pct = float64(amt) / float64(total) * 100
		}
		sb.WriteString(fmt.Sprintf("  %-9s $%-8d (%.0f%% priority weight %.2f)\n", c, amt, pct, weights[c]))
	}
	return sb.String()
}
