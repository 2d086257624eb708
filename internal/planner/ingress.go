package planner

import (
	"context"
	"fmt"

	"eventweave.app/planner/internal/model"
)

// receive is the Planner's bus-registered handler for spec §6's
// user_request/correction_request envelopes. A BDI cycle runs a bus
// round trip of its own (dispatchBudget/dispatchSearch via
// SendAndWait), and the single-goroutine dispatch loop can only run one
// handler invocation at a time — so receive never runs the cycle inline.
// It returns nil synchronously and hands the work to deliverFinal on its
// own goroutine, which reports the result back through DeliverResponse
// once the cycle completes.
func (p *Planner) receive(msg model.Message) *model.Message {
	taskID, _ := msg.Body["task_id"].(string)
	ctx := context.Background()

	switch msg.Kind {
	case model.KindUserRequest:
		criteria, ok := msg.Body["criteria"].(model.Criteria)
		if !ok {
			return errorReply(msg, taskID, fmt.Errorf("planner: user_request missing criteria"))
		}
		go p.deliverFinal(ctx, taskID, func() (*FinalResponse, error) {
			return p.HandleRequest(ctx, msg.SessionID, criteria)
		})
		return nil
	case model.KindCorrectionRequest:
		criteria, _ := msg.Body["criteria"].(model.Criteria)
		userID, _ := msg.Body["user_id"].(string)
		go p.deliverFinal(ctx, taskID, func() (*FinalResponse, error) {
			return p.HandleCorrection(ctx, msg.SessionID, userID, criteria)
		})
		return nil
	default:
		return errorReply(msg, taskID, fmt.Errorf("planner: unrecognized message kind %q", msg.Kind))
	}
}

// deliverFinal runs a BDI cycle to completion and reports its outcome
// back onto the bus, correlated by taskID, via Bus.DeliverResponse.
func (p *Planner) deliverFinal(ctx context.Context, taskID string, run func() (*FinalResponse, error)) {
	resp, err := run()

	var out model.Message
	if err != nil {
		out = model.Message{
			From: EndpointPlanner,
			To:   "user",
			Kind: model.KindError,
			Body: map[string]any{"task_id": taskID, "error": err.Error()},
		}
	} else {
		out = resp.ToMessage()
		out.Body["task_id"] = taskID
	}

	p.deps.Bus.DeliverResponse(ctx, out)
}

func errorReply(msg model.Message, taskID string, err error) *model.Message {
	return &model.Message{
		From:      EndpointPlanner,
		To:        msg.From,
		Kind:      model.KindError,
		SessionID: msg.SessionID,
		Body:      map[string]any{"task_id": taskID, "error": err.Error()},
	}
}
