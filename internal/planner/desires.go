package planner

import (
	"strings"
	"time"

	"eventweave.app/planner/internal/model"
)

// generateDesires builds the fixed desire set of spec §3 for a new
// session: one umbrella desire plus one per category, at the priorities
// the spec lists. Each per-category desire carries its category in
// Parameters so later stages (synthesizeCategoryTasks, reconsideration)
// can recover it without parsing Type strings.
func generateDesires() []model.Desire {
	now := time.Now().UTC()
	mk := func(desireType string, priority float64, category model.Category) model.Desire {
		d := model.Desire{
			ID:        newDesireID(),
			Type:      desireType,
			Priority:  priority,
			Status:    model.DesireActive,
			CreatedAt: now,
		}
		if category != "" {
			d.Parameters = map[string]any{"category": string(category)}
		}
		return d
	}
	return []model.Desire{
		mk("complete_event_planning", model.PriorityCompleteEventPlanning, ""),
		mk("find_venue", model.PriorityFindVenue, model.CategoryVenue),
		mk("find_catering", model.PriorityFindCatering, model.CategoryCatering),
		mk("find_decor", model.PriorityFindDecor, model.CategoryDecor),
	}
}

// generateIntentions commits to at most one intention per desire (spec
// §3: "each desire yields at most one intention"). The umbrella desire's
// intention plans the budget distribution task up front; the per-category
// desires' intentions start with no tasks at all — their search tasks are
// created only after the budget task completes, by synthesizeCategoryTasks.
func generateIntentions(desires []model.Desire) []model.Intention {
	intentions := make([]model.Intention, 0, len(desires))
	for _, d := range desires {
		var tasks []string
		if _, isCategory := categoryOfDesire(d); !isCategory {
			tasks = []string{string(model.TaskBudgetDistribution)}
		}
		intentions = append(intentions, model.Intention{
			ID:       newIntentionID(),
			DesireID: d.ID,
			Tasks:    tasks,
			Status:   model.IntentionActive,
		})
	}
	return intentions
}

// synthesizeCategoryTasks fills in the per-category intentions' task
// lists once the budget has been distributed, the deferred half of
// generateIntentions. Idempotent: an intention that already has its
// search task does nothing.
func synthesizeCategoryTasks(s *session) {
	for i := range s.intentions {
		intent := &s.intentions[i]
		d := desireByID(s.desires, intent.DesireID)
		category, ok := categoryOfDesire(d)
		if !ok {
			continue
		}
		task := string(model.SearchTaskFor(category))
		if !containsString(intent.Tasks, task) {
			intent.Tasks = append(intent.Tasks, task)
		}
	}
}

// categoryOfDesire recovers the category a desire is about from its
// Parameters, false for the umbrella desire and anything without one.
func categoryOfDesire(d model.Desire) (model.Category, bool) {
	raw, ok := d.Parameters["category"]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	if !ok {
		return "", false
	}
	return model.Category(s), true
}

func desireByID(desires []model.Desire, id string) model.Desire {
	for _, d := range desires {
		if d.ID == id {
			return d
		}
	}
	return model.Desire{}
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// correctionDesire models a re-dispatch of one category as a fresh,
// high-priority desire rather than mutating the original intention,
// matching spec §3's "a correction is itself a desire" framing.
func correctionDesire(category model.Category, highPriority bool) model.Desire {
	priority := model.PriorityCorrectionLow
	if highPriority {
		priority = model.PriorityCorrectionHigh
	}
	return model.Desire{
		ID:         newDesireID(),
		Type:       "correct_" + string(category),
		Priority:   priority,
		Parameters: map[string]any{"category": string(category)},
		Status:     model.DesireActive,
		CreatedAt:  time.Now().UTC(),
	}
}

// fixDesire is the desire intention reconsideration (spec §4.2)
// synthesizes for a category affected by a critical failure: a
// fix_<category> desire at correction-high priority.
func fixDesire(category model.Category) model.Desire {
	return model.Desire{
		ID:         newDesireID(),
		Type:       "fix_" + string(category),
		Priority:   model.PriorityCorrectionHigh,
		Parameters: map[string]any{"category": string(category)},
		Status:     model.DesireActive,
		CreatedAt:  time.Now().UTC(),
	}
}

// reconsiderIntentions implements spec §4.2's critical-failure path: every
// active intention whose task list contains the failed task type is
// suspended, and a fix_<category> desire is synthesized for each category
// left needing a redo. budget_distribution has no single category of its
// own, so its failure affects every category's intention in turn (none of
// their searches can proceed without an assigned budget).
func (p *Planner) reconsiderIntentions(s *session, taskType model.TaskType) {
	affected := map[model.Category]bool{}
	task := string(taskType)

	for i := range s.intentions {
		intent := &s.intentions[i]
		if intent.Status != model.IntentionActive || !containsString(intent.Tasks, task) {
			continue
		}
		intent.Status = model.IntentionSuspended
		if c, ok := categoryOfDesire(desireByID(s.desires, intent.DesireID)); ok {
			affected[c] = true
		}
	}

	if taskType == model.TaskBudgetDistribution {
		for _, c := range model.Categories {
			affected[c] = true
		}
	}

	for _, c := range model.Categories {
		if affected[c] {
			s.desires = append(s.desires, fixDesire(c))
		}
	}
}

// planCorrectionIntentions creates a correction intention for every
// fix_<category> desire that doesn't already have one, the redo half of
// reconsiderIntentions.
func (p *Planner) planCorrectionIntentions(s *session) {
	for _, d := range s.desires {
		if !strings.HasPrefix(d.Type, "fix_") {
			continue
		}
		if hasIntentionForDesire(s, d.ID) {
			continue
		}
		category, ok := categoryOfDesire(d)
		if !ok {
			continue
		}
		s.intentions = append(s.intentions, model.Intention{
			ID:       newIntentionID(),
			DesireID: d.ID,
			Tasks:    []string{string(model.SearchTaskFor(category))},
			Status:   model.IntentionActive,
		})
	}
}

func hasIntentionForDesire(s *session, desireID string) bool {
	for _, intent := range s.intentions {
		if intent.DesireID == desireID {
			return true
		}
	}
	return false
}
