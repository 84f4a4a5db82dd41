// Package booking owns the proposed-booking side of the wizard: conflict
// detection against the fetched interval set and the selection-flow state
// machine that gates submission.
package booking

import (
	"time"

	"reservation-wizard-backend/internal/interval"
)

// Proposed is the candidate window the user is considering. It exists only
// for the duration of one selection/validation cycle.
type Proposed struct {
	Start time.Time
	End   time.Time
}

// AsInterval adapts the proposal to the shared overlap primitive.
func (p Proposed) AsInterval() interval.Interval {
	return interval.Interval{Start: p.Start, End: p.End}
}

// ConflictReport lists the existing blocking reservations a proposal would
// collide with, in the order they appear in the fetched set, together with an
// echo of the attempted booking for display.
type ConflictReport struct {
	Conflicts        []interval.Interval `json:"conflicts"`
	AttemptedBooking Proposed            `json:"attemptedBooking"`
}

// HasConflicts reports whether the proposal collides with anything known.
// Note the asymmetry: false means "no client-visible conflict", not
// "guaranteed free" — the server is still the final authority at commit time.
func (r ConflictReport) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

// DetectConflicts filters the blocking intervals that overlap the proposal.
// It is a stable filter: result order preserves input order, and
// non-blocking (pending, cancelled) intervals never appear.
func DetectConflicts(p Proposed, ivs []interval.Interval) ConflictReport {
	report := ConflictReport{AttemptedBooking: p}
	candidate := p.AsInterval()
	for _, iv := range ivs {
		if iv.Blocking() && interval.Overlaps(candidate, iv) {
			report.Conflicts = append(report.Conflicts, iv)
		}
	}
	return report
}
