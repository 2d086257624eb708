package planner

import (
	"context"
	"fmt"
	"time"

	"eventweave.app/planner/common/id"
	"eventweave.app/planner/internal/budget"
	"eventweave.app/planner/internal/model"
	"eventweave.app/planner/internal/retriever"
	"eventweave.app/planner/internal/store"
)

// taskTimeout bounds every bus round trip; exceeding it is a critical
// failure per spec §7 item 2 (task timeouts trigger intention
// reconsideration, i.e. a correction attempt or giving up on the
// category rather than blocking the session forever).
const taskTimeout = 10 * time.Second

// HandleRequest runs one full BDI cycle against an existing session
// (created earlier via CreateSession): update beliefs with criteria,
// generate desires, commit to an intention, distribute the budget, then
// search each category in turn, applying correction strategies on
// failure up to the configured retry budget.
func (p *Planner) HandleRequest(ctx context.Context, sessionID string, criteria model.Criteria) (*FinalResponse, error) {
	s, ok := p.lookupSession(sessionID)
	if !ok {
		return nil, fmt.Errorf("planner: unknown session %q", sessionID)
	}

	s.beliefs.Criteria = criteria
	s.desires = generateDesires()
	s.intentions = generateIntentions(s.desires)
	s.beliefs.State = model.StateInProgress

	alloc, err := p.dispatchBudget(ctx, s)
	if err != nil {
		p.recordError(s, model.TaskBudgetDistribution, err, 0)
		p.reconsiderIntentions(s, model.TaskBudgetDistribution)
		p.planCorrectionIntentions(s)
		alloc = proportionalFallback(criteria.TotalBudget, budget.DefaultWeights())
	}
	s.beliefs.AssignedBudget = alloc
	synthesizeCategoryTasks(s)

	for _, c := range model.Categories {
		p.searchCategory(ctx, s, c, alloc[c])
	}

	p.finalizeState(s)
	p.persist(s)

	return buildFinalResponse(s, false), nil
}

// HandleCorrection implements spec's handle_correction(original_session_id,
// user_id) -> new_session_id: it forks a fresh session, carrying over
// only the beliefs not in conflict with updates (the categories the
// caller is not re-submitting), then re-dispatches the conflicting
// categories against the original per-category budget.
func (p *Planner) HandleCorrection(ctx context.Context, originalSessionID, userID string, updates model.Criteria) (*FinalResponse, error) {
	orig, ok := p.lookupSession(originalSessionID)
	if !ok {
		return nil, fmt.Errorf("planner: unknown session %q", originalSessionID)
	}

	newID := newSessionID()
	beliefs := model.NewBeliefState()
	beliefs.Criteria = orig.beliefs.Criteria
	beliefs.AssignedBudget = orig.beliefs.AssignedBudget
	if beliefs.Criteria.Categories == nil {
		beliefs.Criteria.Categories = map[model.Category]model.CategoryCriteria{}
	}

	for _, c := range model.Categories {
		if _, conflicted := updates.Categories[c]; conflicted {
			continue
		}
		if orig.beliefs.Completed[c] {
			beliefs.SetCandidates(c, orig.beliefs.CandidateOf(c))
		}
	}

	s := &session{id: newID, userID: userID, beliefs: beliefs}
	if err := p.deps.Sessions.Put(newID, store.SessionRecord{
		UserID:       userID,
		Beliefs:      *beliefs,
		CreatedAt:    time.Now().UTC(),
		LastActivity: time.Now().UTC(),
		Status:       store.SessionActive,
	}); err != nil {
		return nil, fmt.Errorf("planner: persist forked session: %w", err)
	}
	p.registerSession(s)

	s.beliefs.State = model.StateInProgress
	for c, cc := range updates.Categories {
		s.beliefs.Criteria.Categories[c] = cc
		desire := correctionDesire(c, orig.beliefs.Conflicts > 0)
		s.desires = append(s.desires, desire)
		s.intentions = append(s.intentions, model.Intention{
			ID:       newIntentionID(),
			DesireID: desire.ID,
			Tasks:    []string{string(model.SearchTaskFor(c))},
			Status:   model.IntentionActive,
		})
		s.beliefs.Completed[c] = false

		assigned := 0
		if s.beliefs.AssignedBudget != nil {
			assigned = s.beliefs.AssignedBudget[c]
		}
		p.searchCategory(ctx, s, c, assigned)
	}

	p.finalizeState(s)
	p.persist(s)

	return buildFinalResponse(s, true), nil
}

func (p *Planner) finalizeState(s *session) {
	if s.beliefs.AllCompleted() {
		s.beliefs.State = model.StateCompleted
	} else {
		s.beliefs.State = model.StateErrorRecovery
	}
	s.beliefs.Touch()
}

func (p *Planner) persist(s *session) {
	if err := p.deps.Sessions.Touch(s.id, *s.beliefs); err != nil {
		p.recordError(s, "", err, 0)
	}
}

func (p *Planner) dispatchBudget(ctx context.Context, s *session) (budget.Allocation, error) {
	taskID := fmt.Sprintf("task-%d", id.New())
	msg := model.Message{
		From:      "Planner",
		To:        EndpointBudgetDistributor,
		Kind:      model.KindTask,
		SessionID: s.id,
		Body: map[string]any{
			"task_id": taskID,
			"user_id": s.userID,
			"criteria": s.beliefs.Criteria,
		},
	}
	resp, err := p.deps.Bus.SendAndWait(ctx, msg, taskTimeout)
	if err != nil {
		return nil, retryable(err)
	}
	if resp == nil {
		return nil, retryable(fmt.Errorf("budget distribution timed out"))
	}
	if resp.Kind == model.KindError {
		return nil, permanent(fmt.Errorf("budget distribution: %v", resp.Body["error"]))
	}
	alloc, ok := resp.Body["allocation"].(budget.Allocation)
	if !ok {
		return nil, permanent(fmt.Errorf("budget distribution: malformed allocation in response"))
	}
	return alloc, nil
}

// searchCategory dispatches one category's search task, applying
// correction strategies (spec §4.6's substring-keyed catalogue) on an
// empty result, an error reply, or a timeout, up to MaxRetries retries
// (MaxRetries+1 attempts in all).
func (p *Planner) searchCategory(ctx context.Context, s *session, category model.Category, assignedBudget int) {
	criteria := cloneCategoryCriteria(s.beliefs.Criteria.Categories[category])
	injectBudget(&criteria, assignedBudget)
	style := s.beliefs.Criteria.Style

	maxRetries := p.deps.Config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 2
	}

	for attempt := 0; ; attempt++ {
		taskType := model.SearchTaskFor(category)
		if attempt > 0 {
			taskType = model.CorrectionTaskType(taskType)
		}

		results, failure := p.dispatchSearch(ctx, s, category, criteria, style)
		if failure == nil && len(results) > 0 {
			s.beliefs.SetCandidates(category, results)
			s.beliefs.SelectTop(category)
			if top := s.beliefs.CandidateOf(category); len(top) > 0 {
				s.beliefs.UsedBudget += top[0].Price
			}
			return
		}

		errMsg := "worker returned no results"
		if failure != nil {
			errMsg = failure.Error()
		}
		p.recordError(s, taskType, fmt.Errorf("%s", errMsg), attempt)

		if isCritical(failure) {
			p.reconsiderIntentions(s, taskType)
			p.planCorrectionIntentions(s)
		}

		if attempt >= maxRetries {
			s.beliefs.Completed[category] = false
			s.beliefs.Conflicts++
			return
		}

		strategies := retriever.SuggestErrorCorrection(errMsg, attempt)
		if len(strategies) == 0 {
			s.beliefs.Completed[category] = false
			s.beliefs.Conflicts++
			return
		}
		for _, strat := range strategies {
			applyStrategy(&criteria, &assignedBudget, strat)
		}
		s.beliefs.CorrectionStrategies = append(s.beliefs.CorrectionStrategies, strategies[0].Name)
	}
}

func (p *Planner) dispatchSearch(ctx context.Context, s *session, category model.Category, criteria model.CategoryCriteria, style string) ([]model.VendorRecord, error) {
	taskID := fmt.Sprintf("task-%d", id.New())
	msg := model.Message{
		From:      "Planner",
		To:        endpointFor(category),
		Kind:      model.KindTask,
		SessionID: s.id,
		Body: map[string]any{
			"task_id":  taskID,
			"criteria": criteria,
			"style":    style,
		},
	}
	resp, err := p.deps.Bus.SendAndWait(ctx, msg, taskTimeout)
	if err != nil {
		return nil, critical(err)
	}
	if resp == nil {
		return nil, critical(fmt.Errorf("%s search timed out", category))
	}
	if resp.Kind == model.KindError {
		errText, _ := resp.Body["error"].(string)
		return nil, retryable(fmt.Errorf("%s", errText))
	}
	results, _ := resp.Body["results"].([]model.VendorRecord)
	return results, nil
}

func (p *Planner) recordError(s *session, taskType model.TaskType, err error, retryCount int) {
	s.beliefs.LastError = err.Error()
	s.beliefs.ErrorHistory = append(s.beliefs.ErrorHistory, model.ErrorRecord{
		TaskType:   string(taskType),
		Error:      err.Error(),
		Timestamp:  time.Now().UTC(),
		RetryCount: retryCount,
	})
	s.beliefs.Touch()
}

func cloneCategoryCriteria(cc model.CategoryCriteria) model.CategoryCriteria {
	out := model.CategoryCriteria{
		Mandatory:  append([]string{}, cc.Mandatory...),
		Attributes: make(map[string]any, len(cc.Attributes)),
	}
	for k, v := range cc.Attributes {
		out.Attributes[k] = v
	}
	return out
}

// injectBudget adds the assigned spending cap as a mandatory "price"
// constraint. "price" is the field name vendor records are stored under
// (internal/worker.toVendorRecord, internal/budget.ScanPriceBounds), so
// the worker's NumLE-direction predicate for that name filters out
// anything over budget.
func injectBudget(cc *model.CategoryCriteria, assignedBudget int) {
	if assignedBudget <= 0 {
		return
	}
	if cc.Attributes == nil {
		cc.Attributes = map[string]any{}
	}
	if _, ok := cc.Attributes["price"]; !ok {
		cc.Attributes["price"] = float64(assignedBudget)
	}
	for _, f := range cc.Mandatory {
		if f == "price" {
			return
		}
	}
	cc.Mandatory = append(cc.Mandatory, "price")
}

// applyStrategy mutates criteria/assignedBudget in place per the
// correction strategy's name, spec §4.6/§7.
func applyStrategy(cc *model.CategoryCriteria, assignedBudget *int, strat retriever.Strategy) {
	switch strat.Name {
	case "relax_constraints":
		factor, _ := strat.Parameters["relax_factor"].(float64)
		if factor <= 0 {
			factor = 0.8
		}
		if v, ok := cc.Attributes["price"]; ok {
			if n, ok := v.(float64); ok {
				cc.Attributes["price"] = n / factor
			}
		}
		if len(cc.Mandatory) > 1 {
			cc.Mandatory = cc.Mandatory[:len(cc.Mandatory)-1]
		}
	case "budget_increase":
		bump, _ := strat.Parameters["budget_increase"].(float64)
		if bump <= 0 {
			bump = 0.2
		}
		*assignedBudget = int(float64(*assignedBudget) * (1 + bump))
		cc.Attributes["price"] = float64(*assignedBudget)
	case "use_alternatives":
		cc.Mandatory = nil
	}
}
