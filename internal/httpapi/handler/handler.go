// Package handler implements the gin handlers backing the planning
// HTTP ingress, wiring inbound requests through schema validation into
// the BDI planner. Grounded on the teacher's
// internal/http/handler/event_ingest.go: bind/validate, call a single
// collaborator, map its sentinel errors to status codes.
package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"eventweave.app/planner/common/id"
	"eventweave.app/planner/internal/bus"
	"eventweave.app/planner/internal/httpapi/dto"
	"eventweave.app/planner/internal/model"
	"eventweave.app/planner/internal/planner"
	"eventweave.app/planner/internal/validation"
)

// requestTimeout bounds the HTTP layer's send_and_wait for a full BDI
// cycle: up to 3 categories, each up to MaxRetries+1 bus round trips at
// planner.taskTimeout, plus the budget distribution round trip.
const requestTimeout = 120 * time.Second

// PlanningHandler exposes the three planner operations spec §6 names
// over HTTP. Request/Correction submit onto the Bus and block for
// final_response via send_and_wait (spec §6), rather than calling the
// Planner directly, so the HTTP layer sees exactly the envelope any
// other bus peer would.
type PlanningHandler struct {
	planner   *planner.Planner
	bus       *bus.Bus
	validator *validation.CriteriaValidator
}

func New(p *planner.Planner, b *bus.Bus, v *validation.CriteriaValidator) *PlanningHandler {
	return &PlanningHandler{planner: p, bus: b, validator: v}
}

// CreateSession handles POST /sessions.
func (h *PlanningHandler) CreateSession(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionID, err := h.planner.CreateSession(c.Request.Context(), req.UserID)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "failed to create session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	c.JSON(http.StatusCreated, dto.CreateSessionResponse{SessionID: sessionID})
}

// Request handles POST /sessions/:id/request. It validates the inbound
// criteria against the published schema, then submits a user_request
// onto the Bus and blocks for final_response via send_and_wait (spec
// §6), the same envelope any other bus peer would use.
func (h *PlanningHandler) Request(c *gin.Context) {
	sessionID := c.Param("id")

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	if problems := h.validator.Validate(body); len(problems) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": strings.Join(problems, "; ")})
		return
	}

	var criteria model.Criteria
	if err := json.Unmarshal(body, &criteria); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg := model.Message{
		From:      "http",
		To:        planner.EndpointPlanner,
		Kind:      model.KindUserRequest,
		SessionID: sessionID,
		Body: map[string]any{
			"task_id":  fmt.Sprintf("task-%d", id.New()),
			"criteria": criteria,
		},
	}
	resp, err := h.bus.SendAndWait(c.Request.Context(), msg, requestTimeout)
	h.respondFinal(c, sessionID, "planning request", resp, err)
}

// Correction handles POST /sessions/:id/corrections.
func (h *PlanningHandler) Correction(c *gin.Context) {
	sessionID := c.Param("id")

	var req dto.CorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := model.Criteria{
		TotalBudget: req.TotalBudget,
		GuestCount:  req.GuestCount,
		Style:       req.Style,
		Categories:  map[model.Category]model.CategoryCriteria{},
	}
	for category, raw := range map[model.Category]map[string]any{
		model.CategoryVenue:    req.Venue,
		model.CategoryCatering: req.Catering,
		model.CategoryDecor:    req.Decor,
	} {
		if raw == nil {
			continue
		}
		cc, err := toCategoryCriteria(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		updates.Categories[category] = cc
	}

	msg := model.Message{
		From:      "http",
		To:        planner.EndpointPlanner,
		Kind:      model.KindCorrectionRequest,
		SessionID: sessionID,
		Body: map[string]any{
			"task_id":  fmt.Sprintf("task-%d", id.New()),
			"user_id":  req.UserID,
			"criteria": updates,
		},
	}
	resp, err := h.bus.SendAndWait(c.Request.Context(), msg, requestTimeout)
	h.respondFinal(c, sessionID, "correction", resp, err)
}

// respondFinal maps a send_and_wait outcome to an HTTP response: a
// transport error or context cancellation is a 500, a timeout (resp ==
// nil, err == nil) is a 504, an error reply is a 404 for an unknown
// session and a 500 otherwise, and anything else is the final_response
// body verbatim.
func (h *PlanningHandler) respondFinal(c *gin.Context, sessionID, op string, resp *model.Message, err error) {
	ctx := c.Request.Context()
	if err != nil {
		slog.ErrorContext(ctx, op+" failed", "session_id", sessionID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if resp == nil {
		slog.WarnContext(ctx, op+" timed out", "session_id", sessionID)
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": op + " timed out"})
		return
	}
	if resp.Kind == model.KindError {
		errText, _ := resp.Body["error"].(string)
		slog.WarnContext(ctx, op+" failed", "session_id", sessionID, "error", errText)
		status := http.StatusInternalServerError
		if strings.Contains(errText, "unknown session") {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": errText})
		return
	}
	c.JSON(http.StatusOK, resp.Body)
}

func toCategoryCriteria(raw map[string]any) (model.CategoryCriteria, error) {
	encoded, err := json.Marshal(raw)
	if err != nil {
		return model.CategoryCriteria{}, err
	}
	var cc model.CategoryCriteria
	if err := json.Unmarshal(encoded, &cc); err != nil {
		return model.CategoryCriteria{}, err
	}
	return cc, nil
}
