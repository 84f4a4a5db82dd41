package interval

import "time"

// ResourceKind identifies the category of bookable resource.
type ResourceKind string

const (
	KindVenue     ResourceKind = "venue"
	KindVehicle   ResourceKind = "vehicle"
	KindEquipment ResourceKind = "equipment"
)

// StatusType is the lifecycle class of a reservation. Only StatusConfirmed
// blocks availability; pending and cancelled reservations are visible in the
// raw feed but never count toward occupancy.
type StatusType string

const (
	StatusConfirmed StatusType = "confirmed"
	StatusPending   StatusType = "pending"
	StatusCancelled StatusType = "cancelled"
	StatusUnknown   StatusType = "unknown"
)

// BusinessHours is the half-open operating window [Open, Close) in local
// hours. The 08:00 slot start is included, anything at or past 17:00 is not.
type BusinessHours struct {
	Open  int
	Close int
}

// DefaultBusinessHours is the standard operating window.
var DefaultBusinessHours = BusinessHours{Open: 8, Close: 17}

// Interval is a half-open reservation window [Start, End) tagged with the
// resource it blocks. Start and End carry local wall-clock semantics; all
// comparisons are on local date/hour/minute fields, never UTC-converted.
type Interval struct {
	ID         string
	Kind       ResourceKind
	ResourceID string
	Quantity   int
	Start      time.Time
	End        time.Time
	StatusCode int
	Status     StatusType
}

// Blocking reports whether this interval counts toward occupancy.
func (iv Interval) Blocking() bool {
	return iv.Status == StatusConfirmed
}

// Overlaps is the single shared overlap primitive. Two half-open intervals
// [a.Start, a.End) and [b.Start, b.End) intersect iff
// a.Start < b.End && b.Start < a.End. Every higher-level check (day
// full/partial, hour blocked, conflict detection) must be built on this, so
// that < vs <= boundary decisions live in exactly one place.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// SameDay reports whether two timestamps fall on the same local calendar day
// (year, month and day-of-month all match).
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// HourSlot returns the half-open slot [h:00, h+1:00) on date's calendar day.
func HourSlot(date time.Time, hour int) Interval {
	start := time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, date.Location())
	return Interval{Start: start, End: start.Add(time.Hour)}
}

// Window returns the business window [Open:00, Close:00) on date's day.
func (bh BusinessHours) Window(date time.Time) Interval {
	day := func(h int) time.Time {
		return time.Date(date.Year(), date.Month(), date.Day(), h, 0, 0, 0, date.Location())
	}
	return Interval{Start: day(bh.Open), End: day(bh.Close)}
}

// Contains reports whether the local hour falls inside the business window.
func (bh BusinessHours) Contains(hour int) bool {
	return hour >= bh.Open && hour < bh.Close
}

// IsFullDay reports whether iv is the canonical full-day block on date: it
// must start exactly at the opening hour and end exactly at the closing hour
// of that day. Exact boundary comparison is required here because a full-day
// block has distinct display semantics from a partial block covering similar
// hours, so overlap alone is not enough.
func (bh BusinessHours) IsFullDay(iv Interval, date time.Time) bool {
	win := bh.Window(date)
	return iv.Start.Equal(win.Start) && iv.End.Equal(win.End)
}
