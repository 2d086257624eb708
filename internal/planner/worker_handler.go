package planner

import (
	"context"
	"log/slog"

	"eventweave.app/planner/internal/model"
)

// workerHandler wraps one category's Worker.Search as a bus endpoint.
// Search errors (only compile failures on malformed predicates) become
// error replies; an empty result set is a normal agent_response — the
// Planner, not the worker, decides whether that warrants a correction.
func (p *Planner) workerHandler(category model.Category) func(model.Message) *model.Message {
	return func(msg model.Message) *model.Message {
		ctx := context.Background()
		taskID, _ := msg.Body["task_id"].(string)
		criteria, _ := msg.Body["criteria"].(model.CategoryCriteria)
		style, _ := msg.Body["style"].(string)
		seedURLs, _ := msg.Body["seed_urls"].([]string)

		w, ok := p.deps.Workers[category]
		if !ok {
			return errReply(msg, taskID, "no worker configured for category")
		}
		g, ok := p.deps.Graphs[category]
		if !ok {
			return errReply(msg, taskID, "no graph configured for category")
		}

		results, err := w.Search(ctx, g, criteria, style, seedURLs)
		if err != nil {
			slog.WarnContext(ctx, "planner: worker search failed", "category", category, "error", err)
			return errReply(msg, taskID, err.Error())
		}

		return &model.Message{
			From:      msg.To,
			To:        msg.From,
			Kind:      model.KindAgentResponse,
			SessionID: msg.SessionID,
			Body: map[string]any{
				"task_id": taskID,
				"results": results,
			},
		}
	}
}

func errReply(msg model.Message, taskID, errText string) *model.Message {
	return &model.Message{
		From:      msg.To,
		To:        msg.From,
		Kind:      model.KindError,
		SessionID: msg.SessionID,
		Body: map[string]any{
			"task_id": taskID,
			"error":   errText,
		},
	}
}
