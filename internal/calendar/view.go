// Package calendar tracks the displayed month/week/day window and builds the
// status grids the UI renders. It holds pure view state and delegates every
// availability decision to the classifier.
package calendar

import "time"

// ViewMode selects which grid the UI is showing.
type ViewMode string

const (
	ModeMonth ViewMode = "month"
	ModeWeek  ViewMode = "week"
	ModeDay   ViewMode = "day"
)

// View is the navigation state: a mode plus the anchor date the window is
// built around.
type View struct {
	Mode   ViewMode
	Anchor time.Time
}

// NewView starts a month view anchored on the given date.
func NewView(anchor time.Time) View {
	return View{Mode: ModeMonth, Anchor: anchor}
}

// WithMode switches the view mode, keeping the anchor.
func (v View) WithMode(m ViewMode) View {
	v.Mode = m
	return v
}

// Next advances the window by one unit of the current mode.
func (v View) Next() View {
	switch v.Mode {
	case ModeMonth:
		v.Anchor = v.Anchor.AddDate(0, 1, 0)
	case ModeWeek:
		v.Anchor = v.Anchor.AddDate(0, 0, 7)
	case ModeDay:
		v.Anchor = v.Anchor.AddDate(0, 0, 1)
	}
	return v
}

// Prev moves the window back by one unit of the current mode.
func (v View) Prev() View {
	switch v.Mode {
	case ModeMonth:
		v.Anchor = v.Anchor.AddDate(0, -1, 0)
	case ModeWeek:
		v.Anchor = v.Anchor.AddDate(0, 0, -7)
	case ModeDay:
		v.Anchor = v.Anchor.AddDate(0, 0, -1)
	}
	return v
}

// Goto re-anchors the view on a specific date.
func (v View) Goto(anchor time.Time) View {
	v.Anchor = anchor
	return v
}

// MonthStart returns the first day of the anchor's month.
func (v View) MonthStart() time.Time {
	return time.Date(v.Anchor.Year(), v.Anchor.Month(), 1, 0, 0, 0, 0, v.Anchor.Location())
}

// WeekStart returns the Monday of the anchor's week.
func (v View) WeekStart() time.Time {
	day := time.Date(v.Anchor.Year(), v.Anchor.Month(), v.Anchor.Day(), 0, 0, 0, 0, v.Anchor.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// DaysInMonth returns the number of days of the anchor's month.
func (v View) DaysInMonth() int {
	start := v.MonthStart()
	return start.AddDate(0, 1, -1).Day()
}
