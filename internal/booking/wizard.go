package booking

import (
	"errors"
	"fmt"
	"time"

	"reservation-wizard-backend/internal/interval"
)

// State enumerates the wizard's selection-flow states.
type State string

const (
	StateIdle        State = "idle"
	StateStartPicked State = "start-selected"
	StateEndPicked   State = "end-selected"
	StateValidated   State = "validated"
	// StateConfirmed is terminal for one booking attempt; a fresh cycle
	// always restarts at idle.
	StateConfirmed State = "confirmed"
)

// Input errors are user-caused and return the wizard to idle without losing
// unrelated session data.
var (
	ErrOutsideBusinessHours = errors.New("selected time is outside business hours")
	ErrEndBeforeStart       = errors.New("end time must be after start time")
	ErrTooShort             = errors.New("booking is shorter than the minimum duration")
	ErrNotValidated         = errors.New("booking has not been validated")
	ErrNotFetched           = errors.New("availability has not been fetched for the current selection")
	ErrConflict             = errors.New("proposed window conflicts with existing reservations")
)

// MinDuration is the shortest bookable window.
const MinDuration = 30 * time.Minute

// Wizard is the per-session selection state machine:
//
//	idle -> start-selected -> end-selected -> validated -> confirmed
//
// Any conflict, invalid input or cancellation returns it to idle. It is not
// safe for concurrent use; each wizard belongs to exactly one session.
type Wizard struct {
	hours    interval.BusinessHours
	state    State
	proposed Proposed
	report   ConflictReport
}

// NewWizard starts a wizard at idle over the given business window.
func NewWizard(hours interval.BusinessHours) *Wizard {
	return &Wizard{hours: hours, state: StateIdle}
}

// State returns the current flow state.
func (w *Wizard) State() State { return w.state }

// Proposed returns the candidate window accumulated so far.
func (w *Wizard) Proposed() Proposed { return w.proposed }

// LastReport returns the conflict report from the most recent validation.
func (w *Wizard) LastReport() ConflictReport { return w.report }

// Reset returns the wizard to idle, discarding the proposal.
func (w *Wizard) Reset() {
	w.state = StateIdle
	w.proposed = Proposed{}
	w.report = ConflictReport{}
}

// PickStart records the candidate start time. Valid from idle or as a
// revision of an earlier pick.
func (w *Wizard) PickStart(t time.Time) error {
	if w.state == StateConfirmed {
		return fmt.Errorf("booking already confirmed: %w", ErrNotValidated)
	}
	if !w.hours.Contains(t.Hour()) {
		w.Reset()
		return ErrOutsideBusinessHours
	}
	w.proposed = Proposed{Start: t}
	w.state = StateStartPicked
	return nil
}

// PickEnd records the candidate end time. The end instant itself is
// exclusive, so an end exactly at the closing hour is valid.
func (w *Wizard) PickEnd(t time.Time) error {
	if w.state != StateStartPicked && w.state != StateEndPicked {
		return ErrNotValidated
	}
	if !w.endWithinHours(t) {
		w.Reset()
		return ErrOutsideBusinessHours
	}
	if !t.After(w.proposed.Start) {
		w.Reset()
		return ErrEndBeforeStart
	}
	if t.Sub(w.proposed.Start) < MinDuration {
		w.Reset()
		return ErrTooShort
	}
	w.proposed.End = t
	w.state = StateEndPicked
	return nil
}

func (w *Wizard) endWithinHours(t time.Time) bool {
	if w.hours.Contains(t.Hour()) {
		return true
	}
	// [start, close:00) is a legal window even though close itself is not a
	// bookable hour.
	return t.Hour() == w.hours.Close && t.Minute() == 0 && t.Second() == 0
}

// Validate runs conflict detection against the fetched interval set. fetched
// reports whether at least one successful fetch has completed for the current
// resource selection; without it the proposal is unverifiable and must not
// proceed, even when ivs happens to be empty.
func (w *Wizard) Validate(ivs []interval.Interval, fetched bool) (ConflictReport, error) {
	if w.state != StateEndPicked && w.state != StateValidated {
		return ConflictReport{}, ErrNotValidated
	}
	if !fetched {
		return ConflictReport{}, ErrNotFetched
	}
	w.report = DetectConflicts(w.proposed, ivs)
	if w.report.HasConflicts() {
		report := w.report
		w.Reset()
		w.report = report
		return report, ErrConflict
	}
	w.state = StateValidated
	return w.report, nil
}

// Confirm finalizes the attempt and emits the window for the external
// submission workflow. The wizard does not perform the create-reservation
// call itself.
func (w *Wizard) Confirm() (start, end time.Time, err error) {
	if w.state != StateValidated {
		return time.Time{}, time.Time{}, ErrNotValidated
	}
	w.state = StateConfirmed
	return w.proposed.Start, w.proposed.End, nil
}
