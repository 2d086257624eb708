package budget

import (
	"context"
	"fmt"

	"eventweave.app/planner/common/llm"
	"eventweave.app/planner/internal/model"
)

// priorityResponse is the LLM's structured guess at how a couple's stated
// style and guest count should weight their budget across categories.
type priorityResponse struct {
	Venue    float64 `json:"venue" jsonschema_description:"Relative importance of venue, 0-1"`
	Catering float64 `json:"catering" jsonschema_description:"Relative importance of catering, 0-1"`
	Decor    float64 `json:"decor" jsonschema_description:"Relative importance of decor, 0-1"`
}

// InferPriorities asks the configured LLM to weight the three categories
// against the couple's criteria, falling back to DefaultWeights on any
// failure or a nonsensical (negative or all-zero) response.
func InferPriorities(ctx context.Context, criteria model.Criteria, client llm.Client) (Weights, error) {
	if client == nil {
		return DefaultWeights(), nil
	}

	prompt := fmt.Sprintf(
		"A couple planning a %d-guest wedding with a %s style and a total budget of %d "+
			"needs their budget split across venue, catering, and decor. "+
			"Estimate the relative importance (0-1 each, roughly summing to 1) of each category "+
			"given their style and guest count.",
		criteria.GuestCount, orUnspecified(criteria.Style), criteria.TotalBudget,
	)

	var resp priorityResponse
	_, err := client.Chat(ctx, llm.Request{
		SystemPrompt: "You help allocate event budgets. Respond only with the requested weights.",
		UserPrompt:   prompt,
		SchemaName:   "budget_priorities",
		Schema:       llm.GenerateSchema[priorityResponse](),
		MaxTokens:    200,
		Temperature:  llm.Temp(0.2),
	}, &resp)
	if err != nil {
		return DefaultWeights(), nil
	}

	w := Weights{
		model.CategoryVenue:    resp.Venue,
		model.CategoryCatering: resp.Catering,
		model.CategoryDecor:    resp.Decor,
	}
	var sum float64
	for _, v := range w {
		if v < 0 {
			return DefaultWeights(), nil
		}
		sum += v
	}
	if sum <= 0 {
		return DefaultWeights(), nil
	}
	return w.normalize(), nil
}

func orUnspecified(s string) string {
	if s == "" {
		return "unspecified"
	}
	return s
}
