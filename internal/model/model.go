// Package model holds the shared domain types passed across package
// boundaries: the bus message envelope, the belief state, and the
// task/desire/intention records that make up the BDI core's state.
package model

import (
	"encoding/json"
	"time"
)

// Category is one of the three planning verticals this system supports.
type Category string

const (
	CategoryVenue    Category = "venue"
	CategoryCatering Category = "catering"
	CategoryDecor    Category = "decor"
)

// Categories lists the fixed set in a stable order, used anywhere the code
// needs to iterate deterministically (budget seeding, synthesis, scoring).
var Categories = []Category{CategoryVenue, CategoryCatering, CategoryDecor}

// CategoryCriteria is the free-form per-category subrecord of an inbound
// request: a mandatory-field list plus whatever attributes the caller
// supplied (capacity, venue_type, meal_types, dietary_options, ...). On
// the wire, Attributes is flattened alongside "mandatory" rather than
// nested under its own key.
type CategoryCriteria struct {
	Mandatory  []string
	Attributes map[string]any
}

func (c CategoryCriteria) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Attributes)+1)
	for k, v := range c.Attributes {
		out[k] = v
	}
	out["mandatory"] = c.Mandatory
	return json.Marshal(out)
}

func (c *CategoryCriteria) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Attributes = make(map[string]any, len(raw))
	for k, v := range raw {
		if k == "mandatory" {
			continue
		}
		c.Attributes[k] = v
	}
	if m, ok := raw["mandatory"].([]any); ok {
		c.Mandatory = make([]string, 0, len(m))
		for _, item := range m {
			if s, ok := item.(string); ok {
				c.Mandatory = append(c.Mandatory, s)
			}
		}
	}
	return nil
}

// Attr returns an attribute by name, with a fallback lookup across the
// given synonym aliases (used for location/ubication/address-style
// field aliasing elsewhere in the system).
func (c CategoryCriteria) Attr(name string, aliases ...string) (any, bool) {
	if v, ok := c.Attributes[name]; ok {
		return v, true
	}
	for _, a := range aliases {
		if v, ok := c.Attributes[a]; ok {
			return v, true
		}
	}
	return nil, false
}

// Criteria is the inbound planning request. venue/catering/decor appear
// as top-level keys on the wire (spec §6), not nested under a
// "categories" field, so marshaling is hand-rolled.
type Criteria struct {
	TotalBudget int
	GuestCount  int
	Style       string
	Categories  map[Category]CategoryCriteria
}

func (c Criteria) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"total_budget": c.TotalBudget,
		"guest_count":  c.GuestCount,
		"style":        c.Style,
	}
	for cat, cc := range c.Categories {
		out[string(cat)] = cc
	}
	return json.Marshal(out)
}

func (c *Criteria) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["total_budget"]; ok {
		_ = json.Unmarshal(v, &c.TotalBudget)
	}
	if v, ok := raw["guest_count"]; ok {
		_ = json.Unmarshal(v, &c.GuestCount)
	}
	if v, ok := raw["style"]; ok {
		_ = json.Unmarshal(v, &c.Style)
	}
	c.Categories = make(map[Category]CategoryCriteria)
	for _, cat := range Categories {
		raw, ok := raw[string(cat)]
		if !ok {
			continue
		}
		var cc CategoryCriteria
		if err := json.Unmarshal(raw, &cc); err != nil {
			return err
		}
		c.Categories[cat] = cc
	}
	return nil
}

// SessionState is the Planner's state-machine value for a session.
type SessionState string

const (
	StateInitial       SessionState = "initial"
	StateInProgress    SessionState = "in_progress"
	StateErrorRecovery SessionState = "error_recovery"
	StateCompleted     SessionState = "completed"
)

// ErrorRecord is one entry of a session's error_history.
type ErrorRecord struct {
	TaskType   string    `json:"task_type"`
	Error      string    `json:"error"`
	Timestamp  time.Time `json:"timestamp"`
	RetryCount int       `json:"retry_count"`
}

// TaskProgress tallies the session's task queue.
type TaskProgress struct {
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Total     int `json:"total"`
}

// VendorRecord is a ranked candidate returned by a category worker, and
// the shape persisted into a belief once selected.
type VendorRecord struct {
	Type     Category       `json:"type"`
	Name     string         `json:"name"`
	URL      string         `json:"url"`
	Price    float64        `json:"price"`
	Capacity *float64       `json:"capacity,omitempty"`
	Location *string        `json:"location,omitempty"`
	Score    float64        `json:"score"`
	Raw      map[string]any `json:"-"`
}

// BeliefState is the per-session mapping of known facts plus derived
// fields. Candidate lists and selections for a category share the same
// slot: Venue/Catering/Decor holds either the candidate list (while the
// worker's reply is being recorded) or the single selected top record
// (once the Planner picks a winner in the completion check).
type BeliefState struct {
	Criteria      Criteria                `json:"criteria"`
	AssignedBudget map[Category]int       `json:"assigned_budget,omitempty"`
	UsedBudget    float64                 `json:"used_budget"`

	Venue    []VendorRecord `json:"venue,omitempty"`
	Catering []VendorRecord `json:"catering,omitempty"`
	Decor    []VendorRecord `json:"decor,omitempty"`

	Completed map[Category]bool `json:"completed"`
	Conflicts int               `json:"conflicts"`
	State     SessionState      `json:"state"`

	TaskProgress         TaskProgress        `json:"task_progress"`
	ErrorHistory         []ErrorRecord       `json:"error_history,omitempty"`
	LastError            string              `json:"last_error,omitempty"`
	CorrectionStrategies []string            `json:"correction_strategies,omitempty"`

	LastUpdated time.Time `json:"last_updated"`
}

// NewBeliefState returns a freshly initialized belief state for a new session.
func NewBeliefState() *BeliefState {
	return &BeliefState{
		Completed:   map[Category]bool{CategoryVenue: false, CategoryCatering: false, CategoryDecor: false},
		State:       StateInitial,
		LastUpdated: time.Now().UTC(),
	}
}

// Touch refreshes LastUpdated. Every belief-mutating method on the
// Planner's session wrapper calls this, matching spec's "updating any
// field refreshes last_updated" invariant.
func (b *BeliefState) Touch() {
	b.LastUpdated = time.Now().UTC()
}

// CandidateOf returns the record slice currently stored for a category,
// regardless of whether it still holds the full ranked list or has been
// collapsed to a single selection.
func (b *BeliefState) CandidateOf(c Category) []VendorRecord {
	switch c {
	case CategoryVenue:
		return b.Venue
	case CategoryCatering:
		return b.Catering
	case CategoryDecor:
		return b.Decor
	default:
		return nil
	}
}

// SetCandidates stores a worker's ranked result list for a category and
// marks it completed, matching the invariant completed[c] <=> beliefs[c] != nil.
func (b *BeliefState) SetCandidates(c Category, records []VendorRecord) {
	switch c {
	case CategoryVenue:
		b.Venue = records
	case CategoryCatering:
		b.Catering = records
	case CategoryDecor:
		b.Decor = records
	}
	if b.Completed == nil {
		b.Completed = map[Category]bool{}
	}
	b.Completed[c] = len(records) > 0
	b.Touch()
}

// SelectTop collapses a category's candidate list to its single top pick.
func (b *BeliefState) SelectTop(c Category) *VendorRecord {
	list := b.CandidateOf(c)
	if len(list) == 0 {
		return nil
	}
	top := list[0]
	switch c {
	case CategoryVenue:
		b.Venue = []VendorRecord{top}
	case CategoryCatering:
		b.Catering = []VendorRecord{top}
	case CategoryDecor:
		b.Decor = []VendorRecord{top}
	}
	return &top
}

// AllCompleted reports whether every category has a non-nil belief.
func (b *BeliefState) AllCompleted() bool {
	for _, c := range Categories {
		if !b.Completed[c] {
			return false
		}
	}
	return true
}

// TaskType enumerates the task kinds the Planner dispatches.
type TaskType string

const (
	TaskBudgetDistribution TaskType = "budget_distribution"
	TaskVenueSearch        TaskType = "venue_search"
	TaskCateringSearch     TaskType = "catering_search"
	TaskDecorSearch        TaskType = "decor_search"
)

// CorrectionTaskType suffixes a base task type with "_correction" the way
// spec §3 describes for retry tasks.
func CorrectionTaskType(base TaskType) TaskType {
	return base + "_correction"
}

// CategoryOf maps a search task type to its category, the empty string
// for non-search types (e.g. budget_distribution).
func (t TaskType) CategoryOf() (Category, bool) {
	switch t {
	case TaskVenueSearch:
		return CategoryVenue, true
	case TaskCateringSearch:
		return CategoryCatering, true
	case TaskDecorSearch:
		return CategoryDecor, true
	default:
		return "", false
	}
}

// SearchTaskFor returns the search task type for a category.
func SearchTaskFor(c Category) TaskType {
	switch c {
	case CategoryVenue:
		return TaskVenueSearch
	case CategoryCatering:
		return TaskCateringSearch
	case CategoryDecor:
		return TaskDecorSearch
	default:
		return ""
	}
}

type TaskStatus string

const (
	TaskPending      TaskStatus = "pending"
	TaskInFlight     TaskStatus = "in_flight"
	TaskCompleted    TaskStatus = "completed"
	TaskError        TaskStatus = "error"
	TaskRetryPending TaskStatus = "retry_pending"
)

// Task is owned by exactly one session; ID is globally unique.
type Task struct {
	ID         string         `json:"id"`
	Type       TaskType       `json:"type"`
	Parameters map[string]any `json:"parameters"`
	Status     TaskStatus     `json:"status"`
	Result     any            `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
	RetryCount int            `json:"retry_count"`
}

type DesireStatus string

const (
	DesireActive    DesireStatus = "active"
	DesireSuspended DesireStatus = "suspended"
	DesireDone      DesireStatus = "done"
)

// Desire priority constants, exactly as spec §3 lists them.
const (
	PriorityCompleteEventPlanning = 1.0
	PriorityFindVenue             = 0.9
	PriorityFindCatering          = 0.8
	PriorityFindDecor             = 0.7
	PriorityCorrectionLow         = 0.9
	PriorityCorrectionHigh        = 0.95
)

// Desire is a goal the Planner has committed to pursuing.
type Desire struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Priority   float64        `json:"priority"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Status     DesireStatus   `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
}

type IntentionStatus string

const (
	IntentionActive    IntentionStatus = "active"
	IntentionSuspended IntentionStatus = "suspended"
	IntentionDone      IntentionStatus = "done"
)

// Intention is the ordered task plan committed to for one desire.
type Intention struct {
	ID       string          `json:"id"`
	DesireID string          `json:"desire_id"`
	Tasks    []string        `json:"tasks"`
	Status   IntentionStatus `json:"status"`
}

// MessageKind enumerates the Bus envelope's kind field.
type MessageKind string

const (
	KindTask              MessageKind = "task"
	KindAgentResponse     MessageKind = "agent_response"
	KindError             MessageKind = "error"
	KindUserRequest       MessageKind = "user_request"
	KindCorrectionRequest MessageKind = "correction_request"
	KindAcknowledgment    MessageKind = "acknowledgment"
	KindFinalResponse     MessageKind = "final_response"
	KindBroadcast         MessageKind = "broadcast"
)

// Message is the Bus envelope. Body is intentionally `any`: spec treats
// it as duck-typed JSON at this boundary, so callers type-assert or
// re-marshal into the task-specific parameter type they expect.
type Message struct {
	From      string         `json:"from"`
	To        string         `json:"to"`
	Kind      MessageKind    `json:"kind"`
	Body      map[string]any `json:"body"`
	SessionID string         `json:"session_id"`
}

// TaskBody is the well-known shape of Message.Body for kind=task.
type TaskBody struct {
	TaskID    string         `json:"task_id"`
	Parameters map[string]any `json:"parameters"`
	GraphData  map[string]any `json:"graph_data,omitempty"`
}

// QualityReport is the per-node quality assessment from §3/§4.5.
type QualityReport struct {
	Complete         bool     `json:"complete"`
	Fresh            bool     `json:"fresh"`
	Accurate         bool     `json:"accurate"`
	CompletenessScore float64 `json:"completeness_score"`
	FreshnessScore    float64 `json:"freshness_score"`
	AccuracyScore     float64 `json:"accuracy_score"`
	OverallScore      float64 `json:"overall_score"`
	MissingFields     []string `json:"missing_fields"`
	InvalidFields     []string `json:"invalid_fields"`
	NeedsEnrichment   bool     `json:"needs_enrichment"`
	EnrichmentPriority int     `json:"enrichment_priority"`
}
