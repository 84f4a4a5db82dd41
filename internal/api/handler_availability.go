package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"reservation-wizard-backend/internal/calendar"
	"reservation-wizard-backend/internal/interval"
)

const anchorLayout = "2006-01-02"

// availabilityResponse wraps a grid with whether it was computed from a
// verified (successfully fetched) interval set. Unverified grids render
// optimistically but must never be used to gate a confirmation.
type availabilityResponse struct {
	Mode     calendar.ViewMode   `json:"mode"`
	Anchor   string              `json:"anchor"`
	Verified bool                `json:"verified"`
	Days     []calendar.DayCell  `json:"days,omitempty"`
	Hours    []calendar.HourCell `json:"hours,omitempty"`
}

// GetAvailability handles GET /api/availability/:mode for month, week and
// day grids.
func (h *Handler) GetAvailability(c *gin.Context) {
	mode := calendar.ViewMode(c.Param("mode"))
	switch mode {
	case calendar.ModeMonth, calendar.ModeWeek, calendar.ModeDay:
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "mode must be month, week or day"})
		return
	}

	var params selectionParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sel, query, err := buildSelection(c.Request.Context(), h.store, params)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	anchor := time.Now().In(h.loc)
	if raw := c.Query("anchor"); raw != "" {
		parsed, err := time.ParseInLocation(anchorLayout, raw, h.loc)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "anchor must be YYYY-MM-DD"})
			return
		}
		anchor = parsed
	}

	verified := true
	ivs, err := h.fetch.Fetch(c.Request.Context(), query)
	if err != nil {
		// Serve the last persisted snapshot, marked unverified, rather than a
		// blank grid. The wizard still blocks confirmation until a live fetch
		// succeeds.
		log.Printf("Warning: availability fetch failed for %s grid: %v", mode, err)
		verified = false
		ivs, err = h.store.LoadSnapshot(c.Request.Context(), query.IDs)
		if err != nil {
			log.Printf("Warning: snapshot load failed for %s grid: %v", mode, err)
			ivs = []interval.Interval{}
		}
	}

	view := calendar.NewView(anchor).WithMode(mode)
	resp := availabilityResponse{
		Mode:     mode,
		Anchor:   anchor.Format(anchorLayout),
		Verified: verified,
	}
	switch mode {
	case calendar.ModeMonth:
		resp.Days = calendar.MonthGrid(view, h.classifier, sel, ivs)
	case calendar.ModeWeek:
		resp.Hours = calendar.WeekGrid(view, h.classifier, sel, ivs)
	case calendar.ModeDay:
		resp.Hours = calendar.DayGrid(view, h.classifier, sel, ivs)
	}

	c.JSON(http.StatusOK, resp)
}
