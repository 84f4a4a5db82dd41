package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"reservation-wizard-backend/internal/availability"
	"reservation-wizard-backend/internal/booking"
	"reservation-wizard-backend/internal/model"
)

const wizardTimeLayout = "2006-01-02 15:04"

// wizardStateResponse is the common reply for wizard endpoints.
type wizardStateResponse struct {
	SessionID string        `json:"session_id"`
	State     booking.State `json:"state"`
	Loaded    bool          `json:"loaded"`
}

func (h *Handler) wizardState(s *wizardSession) wizardStateResponse {
	_, loaded := s.Fetch.Snapshot()
	return wizardStateResponse{SessionID: s.ID, State: s.Wizard.State(), Loaded: loaded}
}

// CreateWizard handles POST /api/wizard: starts a session for a resource
// selection and fetches its reservation set.
func (h *Handler) CreateWizard(c *gin.Context) {
	var params selectionParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sel, query, err := buildSelection(c.Request.Context(), h.store, params)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session := h.sessions.create(h.fetch, h.classifier.Hours)
	session.Selection = sel

	if err := session.Fetch.Select(c.Request.Context(), query); err != nil {
		// The session is usable for browsing; confirmation stays blocked.
		c.JSON(http.StatusOK, gin.H{
			"session_id": session.ID,
			"state":      session.Wizard.State(),
			"loaded":     false,
			"warning":    "availability could not be verified; bookings are blocked until it is",
		})
		return
	}

	c.JSON(http.StatusCreated, h.wizardState(session))
}

// ChangeSelection handles POST /api/wizard/:id/selection: switches the
// session to a different resource selection, resetting the flow. An in-flight
// fetch for the old selection is superseded and its result discarded.
func (h *Handler) ChangeSelection(c *gin.Context) {
	session, ok := h.sessions.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	var params selectionParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sel, query, err := buildSelection(c.Request.Context(), h.store, params)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session.Selection = sel
	session.Wizard.Reset()
	if err := session.Fetch.Select(c.Request.Context(), query); err != nil {
		c.JSON(http.StatusOK, gin.H{
			"session_id": session.ID,
			"state":      session.Wizard.State(),
			"loaded":     false,
			"warning":    "availability could not be verified; bookings are blocked until it is",
		})
		return
	}

	c.JSON(http.StatusOK, h.wizardState(session))
}

type pickTimeRequest struct {
	Time string `json:"time" binding:"required"`
}

func (h *Handler) parseWizardTime(raw string) (time.Time, bool) {
	t, err := time.ParseInLocation(wizardTimeLayout, strings.TrimSpace(raw), h.loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// PickStart handles POST /api/wizard/:id/start.
func (h *Handler) PickStart(c *gin.Context) {
	h.pickTime(c, func(s *wizardSession, t time.Time) error {
		return s.Wizard.PickStart(t)
	})
}

// PickEnd handles POST /api/wizard/:id/end.
func (h *Handler) PickEnd(c *gin.Context) {
	h.pickTime(c, func(s *wizardSession, t time.Time) error {
		return s.Wizard.PickEnd(t)
	})
}

func (h *Handler) pickTime(c *gin.Context, apply func(*wizardSession, time.Time) error) {
	session, ok := h.sessions.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	var req pickTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, ok := h.parseWizardTime(req.Time)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "time must be formatted as YYYY-MM-DD HH:MM"})
		return
	}

	if err := apply(session, t); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "state": session.Wizard.State()})
		return
	}
	c.JSON(http.StatusOK, h.wizardState(session))
}

// Validate handles POST /api/wizard/:id/validate: runs client-side conflict
// detection (and, for equipment, quantity arithmetic) against the fetched
// interval set. An empty conflict list means "no known client-visible
// conflict"; the server remains the final authority at submission time.
func (h *Handler) Validate(c *gin.Context) {
	session, ok := h.sessions.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	ivs, loaded := session.Fetch.Snapshot()
	report, err := session.Wizard.Validate(ivs, loaded)
	switch {
	case errors.Is(err, booking.ErrNotFetched):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case errors.Is(err, booking.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "report": report})
		return
	case err != nil:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if eq, isEquipment := session.Selection.Kind.(availability.EquipmentSelection); isEquipment {
		win := session.Wizard.Proposed().AsInterval()
		remaining, err := h.classifier.CheckQuantity(win, eq, ivs)
		if err != nil {
			session.Wizard.Reset()
			c.JSON(http.StatusConflict, gin.H{
				"error":              err.Error(),
				"available_quantity": remaining,
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"state": session.Wizard.State(), "report": report})
}

// Confirm handles POST /api/wizard/:id/confirm: finalizes the attempt,
// records it, and emits the window for the external booking workflow.
func (h *Handler) Confirm(c *gin.Context) {
	session, ok := h.sessions.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	start, end, err := session.Wizard.Confirm()
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	attempt := &model.BookingAttempt{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Kind:      string(session.Selection.ResourceKind()),
		StartTime: start,
		EndTime:   end,
		Outcome:   model.AttemptSubmitted,
		CreatedAt: time.Now().UTC(),
	}
	switch sel := session.Selection.Kind.(type) {
	case availability.VenueSelection:
		attempt.ResourceIDs = sel.VenueID
	case availability.VehicleSelection:
		attempt.ResourceIDs = strings.Join(sel.VehicleIDs, ",")
	case availability.EquipmentSelection:
		attempt.ResourceIDs = sel.EquipmentID
		attempt.Quantity = sel.Requested
	}

	if err := h.store.CreateAttempt(c.Request.Context(), attempt); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"attempt_id": attempt.ID,
		"start":      start.Format(wizardTimeLayout),
		"end":        end.Format(wizardTimeLayout),
		"state":      session.Wizard.State(),
	})
}

type outcomeRequest struct {
	AttemptID string `json:"attempt_id" binding:"required"`
	Outcome   string `json:"outcome" binding:"required"`
}

// ReportOutcome handles POST /api/wizard/:id/outcome: the external workflow
// reports whether the server accepted the booking. A rejection means another
// client won the race, so the local interval set is known-stale; it is
// invalidated and must be re-fetched before another attempt.
func (h *Handler) ReportOutcome(c *gin.Context) {
	session, ok := h.sessions.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	var req outcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Outcome != model.AttemptAccepted && req.Outcome != model.AttemptRejected {
		c.JSON(http.StatusBadRequest, gin.H{"error": "outcome must be accepted or rejected"})
		return
	}

	if err := h.store.UpdateAttemptOutcome(c.Request.Context(), req.AttemptID, req.Outcome); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "attempt not found"})
		return
	}

	if req.Outcome == model.AttemptRejected {
		session.Fetch.Invalidate()
		session.Wizard.Reset()
		if err := session.Fetch.Refresh(c.Request.Context()); err != nil {
			c.JSON(http.StatusOK, gin.H{
				"state":   session.Wizard.State(),
				"loaded":  false,
				"warning": "re-fetch after rejection failed; retry blocked until availability is verified",
			})
			return
		}
	} else {
		h.sessions.drop(session.ID)
	}

	c.JSON(http.StatusOK, h.wizardState(session))
}

// CancelWizard handles DELETE /api/wizard/:id.
func (h *Handler) CancelWizard(c *gin.Context) {
	h.sessions.drop(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// GetWizard handles GET /api/wizard/:id.
func (h *Handler) GetWizard(c *gin.Context) {
	session, ok := h.sessions.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	resp := h.wizardState(session)
	c.JSON(http.StatusOK, gin.H{
		"session_id": resp.SessionID,
		"state":      resp.State,
		"loaded":     resp.Loaded,
		"proposed":   session.Wizard.Proposed(),
		"report":     session.Wizard.LastReport(),
	})
}

// ValidateBooking handles POST /api/bookings/validate: a stateless conflict
// check for a proposed window against a fresh fetch, outside any session.
func (h *Handler) ValidateBooking(c *gin.Context) {
	var req struct {
		selectionParams
		Start string `json:"start" binding:"required"`
		End   string `json:"end" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, query, err := buildSelection(c.Request.Context(), h.store, req.selectionParams)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start, okS := h.parseWizardTime(req.Start)
	end, okE := h.parseWizardTime(req.End)
	if !okS || !okE || !start.Before(end) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start and end must be YYYY-MM-DD HH:MM with start < end"})
		return
	}

	ivs, err := h.fetch.Fetch(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "availability could not be verified"})
		return
	}

	report := booking.DetectConflicts(booking.Proposed{Start: start, End: end}, ivs)
	status := http.StatusOK
	if report.HasConflicts() {
		status = http.StatusConflict
	}
	c.JSON(status, report)
}
