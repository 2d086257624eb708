package planner

import (
	"time"

	"eventweave.app/planner/internal/model"
)

// Summary is the final_response.body.summary shape of spec §6.
type Summary struct {
	Completed   map[model.Category]bool `json:"completed"`
	Conflicts   int                      `json:"conflicts"`
	UsedBudget  float64                  `json:"used_budget"`
	State       model.SessionState       `json:"state"`
	LastUpdated time.Time                `json:"last_updated"`
}

// FinalResponse is the Planner's synchronous answer to a planning
// request or correction.
type FinalResponse struct {
	Summary      Summary                              `json:"summary"`
	Results      map[model.Category]*model.VendorRecord `json:"results"`
	SessionID    string                               `json:"session_id"`
	IsCorrection bool                                 `json:"is_correction"`
}

// ToMessage renders the response as the bus envelope spec §6 describes,
// for callers that want to treat the user as a bus peer rather than call
// the Planner directly.
func (r *FinalResponse) ToMessage() model.Message {
	return model.Message{
		From:      "Planner",
		To:        "user",
		Kind:      model.KindFinalResponse,
		SessionID: r.SessionID,
		Body: map[string]any{
			"summary":       r.Summary,
			"results":       r.Results,
			"session_id":    r.SessionID,
			"is_correction": r.IsCorrection,
		},
	}
}

func buildFinalResponse(s *session, isCorrection bool) *FinalResponse {
	results := make(map[model.Category]*model.VendorRecord, len(model.Categories))
	for _, c := range model.Categories {
		list := s.beliefs.CandidateOf(c)
		if len(list) > 0 {
			top := list[0]
			results[c] = &top
		}
	}
	return &FinalResponse{
		Summary: Summary{
			Completed:   s.beliefs.Completed,
			Conflicts:   s.beliefs.Conflicts,
			UsedBudget:  s.beliefs.UsedBudget,
			State:       s.beliefs.State,
			LastUpdated: s.beliefs.LastUpdated,
		},
		Results:      results,
		SessionID:    s.id,
		IsCorrection: isCorrection,
	}
}
