// Package planner implements the BDI core of spec §4.2: belief update,
// desire generation, intention formation, task dispatch over the bus,
// error-driven correction, and session state management.
//
// Grounded on the teacher's internal/brain orchestrator (deleted after
// its HandleEngagement -> runPlannerCycle -> validate/retry-with-feedback
// -> execute shape was absorbed here), re-themed from "validate and
// execute a generated action" to "update beliefs and dispatch a task."
package planner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"eventweave.app/planner/common/id"
	"eventweave.app/planner/common/llm"
	"eventweave.app/planner/core/config"
	"eventweave.app/planner/internal/bus"
	"eventweave.app/planner/internal/budget"
	"eventweave.app/planner/internal/graph"
	"eventweave.app/planner/internal/model"
	"eventweave.app/planner/internal/retriever"
	"eventweave.app/planner/internal/store"
	"eventweave.app/planner/internal/worker"
)

// Bus endpoint names. EndpointPlanner is the Planner's own inbound
// address: the HTTP layer submits user_request/correction_request onto
// the Bus rather than calling the Planner directly (spec §6), the others
// are downstream agents the Planner dispatches tasks to.
const (
	EndpointPlanner           = "Planner"
	EndpointVenueWorker       = "venue_worker"
	EndpointCateringWorker    = "catering_worker"
	EndpointDecorWorker       = "decor_worker"
	EndpointBudgetDistributor = "budget_distributor"
)

func endpointFor(c model.Category) string {
	switch c {
	case model.CategoryVenue:
		return EndpointVenueWorker
	case model.CategoryCatering:
		return EndpointCateringWorker
	case model.CategoryDecor:
		return EndpointDecorWorker
	default:
		return ""
	}
}

// Dependencies are the collaborators the Planner is wired against.
type Dependencies struct {
	Bus        *bus.Bus
	Sessions   *store.SessionMemory
	Prefs      *store.UserPrefMemory
	Graphs     map[model.Category]*graph.Graph
	Workers    map[model.Category]*worker.Worker
	Retrievers map[model.Category]*retriever.Store
	LLM        llm.Client
	Config     config.PlannerConfig
}

// session is the Planner's live working state for one in-flight
// conversation; SessionRecord is its durable projection.
type session struct {
	id         string
	userID     string
	beliefs    *model.BeliefState
	desires    []model.Desire
	intentions []model.Intention
}

// Planner owns the BDI cycle. One instance serves every session.
type Planner struct {
	deps Dependencies

	mu       sync.Mutex
	sessions map[string]*session
}

func New(deps Dependencies) *Planner {
	p := &Planner{deps: deps, sessions: make(map[string]*session)}
	p.registerEndpoints()
	return p
}

// registerEndpoints binds the category worker and budget distributor
// handlers to the bus. These are the Planner's "downstream agents" in
// spec §4.1's terms, reachable only through SendAndWait.
func (p *Planner) registerEndpoints() {
	for _, c := range model.Categories {
		category := c
		p.deps.Bus.Register(endpointFor(category), p.workerHandler(category))
	}
	p.deps.Bus.Register(EndpointBudgetDistributor, p.budgetHandler())
	p.deps.Bus.Register(EndpointPlanner, p.receive)
}

// CreateSession implements spec's create_session(user_id) -> session_id:
// it initializes an empty belief state and records the session in the
// external session store before any request arrives.
func (p *Planner) CreateSession(ctx context.Context, userID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sessionID := newSessionID()
	beliefs := model.NewBeliefState()
	s := &session{id: sessionID, userID: userID, beliefs: beliefs}

	record := store.SessionRecord{
		UserID:       userID,
		Beliefs:      *beliefs,
		CreatedAt:    time.Now().UTC(),
		LastActivity: time.Now().UTC(),
		Status:       store.SessionActive,
	}
	if err := p.deps.Sessions.Put(sessionID, record); err != nil {
		return "", fmt.Errorf("planner: persist new session: %w", err)
	}

	p.sessions[sessionID] = s
	return sessionID, nil
}

func (p *Planner) lookupSession(sessionID string) (*session, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[sessionID]
	return s, ok
}

func (p *Planner) registerSession(s *session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[s.id] = s
}

func newSessionID() string { return uuid.NewString() }

func newDesireID() string { return fmt.Sprintf("desire-%d", id.New()) }

func newIntentionID() string { return fmt.Sprintf("intention-%d", id.New()) }
