// Package availability reduces normalized reservation intervals into the
// three-state day statuses and four-state hour statuses the calendar views
// render. All functions here are pure: the interval set and the business
// window come in as arguments and nothing is cached, because a status is only
// meaningful for the exact interval set it was computed from.
package availability

import (
	"errors"
	"time"

	"reservation-wizard-backend/internal/interval"
)

// DayStatus is the day-granularity availability classification.
type DayStatus string

const (
	DayAvailable DayStatus = "available"
	DayPartial   DayStatus = "partial"
	DayFull      DayStatus = "full"
	// DayUnknown is reported when no snapshot has been loaded for the current
	// selection. Callers must surface it as "not yet available", never treat
	// it as bookable.
	DayUnknown DayStatus = "unknown"
)

// HourStatus is the hour-granularity classification for day/week grids.
type HourStatus string

const (
	HourOutside   HourStatus = "outside"
	HourAvailable HourStatus = "available"
	HourReserved  HourStatus = "reserved"
	HourFull      HourStatus = "full"
)

// ErrInsufficientStock is returned when a requested equipment quantity
// exceeds what remains available in the window. The request is rejected, not
// clamped; silently shrinking the quantity would hide the shortage from the
// caller.
var ErrInsufficientStock = errors.New("requested quantity exceeds available stock")

// Selection is the tagged variant describing which resource(s) the wizard is
// currently booking. Exactly one of the kind-specific fields is meaningful,
// discriminated by Kind.
type Selection struct {
	Kind ResourceKindSelection
}

// ResourceKindSelection holds the per-kind selection payloads.
type ResourceKindSelection interface {
	kind() interval.ResourceKind
}

// VenueSelection selects a single venue.
type VenueSelection struct {
	VenueID string
}

func (VenueSelection) kind() interval.ResourceKind { return interval.KindVenue }

// VehicleSelection selects one or more vehicles that must all be free
// simultaneously for the trip to run.
type VehicleSelection struct {
	VehicleIDs []string
}

func (VehicleSelection) kind() interval.ResourceKind { return interval.KindVehicle }

// EquipmentSelection selects a quantity of a fungible equipment item.
type EquipmentSelection struct {
	EquipmentID string
	Requested   int
	TotalStock  int
}

func (EquipmentSelection) kind() interval.ResourceKind { return interval.KindEquipment }

// NewSelection wraps a kind-specific selection.
func NewSelection(k ResourceKindSelection) Selection { return Selection{Kind: k} }

// ResourceKind returns the discriminator of the wrapped selection.
func (s Selection) ResourceKind() interval.ResourceKind {
	if s.Kind == nil {
		return ""
	}
	return s.Kind.kind()
}

// Classifier evaluates availability for one business window.
type Classifier struct {
	Hours interval.BusinessHours
}

// NewClassifier builds a Classifier over the given business window.
func NewClassifier(hours interval.BusinessHours) *Classifier {
	return &Classifier{Hours: hours}
}

// ClassifyDay reduces the interval set to a day status for the selection.
//
// The reduction rule is kind-specific:
//   - venue: the canonical full-day interval yields full; any other blocking
//     overlap of the business window yields partial.
//   - vehicles: full only when EVERY selected vehicle is fully blocked that
//     day (the trip is impossible); partial the moment ANY selected vehicle
//     has a blocking interval. The AND/OR asymmetry is deliberate.
//   - equipment: full when nothing is left in stock for the whole window,
//     partial when some overlapping quantity is reserved.
//
// A nil interval set (selection not yet fetched) yields DayUnknown; an empty
// but loaded set yields DayAvailable.
func (c *Classifier) ClassifyDay(date time.Time, sel Selection, ivs []interval.Interval) DayStatus {
	if ivs == nil {
		return DayUnknown
	}
	switch k := sel.Kind.(type) {
	case VenueSelection:
		return c.classifyVenueDay(date, k, ivs)
	case VehicleSelection:
		return c.classifyVehicleDay(date, k, ivs)
	case EquipmentSelection:
		return c.classifyEquipmentDay(date, k, ivs)
	default:
		return DayUnknown
	}
}

func (c *Classifier) classifyVenueDay(date time.Time, sel VenueSelection, ivs []interval.Interval) DayStatus {
	mine := interval.FilterResource(ivs, sel.VenueID)
	if c.Hours.HasFullDayBlock(date, mine) {
		return DayFull
	}
	if c.Hours.DayOccupied(date, mine) {
		return DayPartial
	}
	return DayAvailable
}

func (c *Classifier) classifyVehicleDay(date time.Time, sel VehicleSelection, ivs []interval.Interval) DayStatus {
	if len(sel.VehicleIDs) == 0 {
		return DayAvailable
	}
	allFull := true
	anyOccupied := false
	for _, id := range sel.VehicleIDs {
		mine := interval.FilterResource(ivs, id)
		if c.Hours.DayOccupied(date, mine) {
			anyOccupied = true
		}
		if !c.Hours.DayFullyBlocked(date, mine) {
			allFull = false
		}
	}
	if anyOccupied && allFull {
		return DayFull
	}
	if anyOccupied {
		return DayPartial
	}
	return DayAvailable
}

func (c *Classifier) classifyEquipmentDay(date time.Time, sel EquipmentSelection, ivs []interval.Interval) DayStatus {
	win := c.Hours.Window(date)
	remaining := c.availableQuantity(win, sel, ivs)
	switch {
	case remaining <= 0:
		return DayFull
	case remaining < sel.TotalStock:
		return DayPartial
	default:
		return DayAvailable
	}
}

// ClassifyHour mirrors the day-level reduction per business hour, feeding the
// week and day grid views. Hours outside the business window are HourOutside
// and never participate in blocking logic.
func (c *Classifier) ClassifyHour(date time.Time, hour int, sel Selection, ivs []interval.Interval) HourStatus {
	if !c.Hours.Contains(hour) {
		return HourOutside
	}
	if ivs == nil {
		return HourAvailable
	}
	slot := interval.HourSlot(date, hour)
	switch k := sel.Kind.(type) {
	case VenueSelection:
		if slotBlocked(slot, interval.FilterResource(ivs, k.VenueID)) {
			return HourReserved
		}
		return HourAvailable
	case VehicleSelection:
		return c.classifyVehicleHour(slot, k, ivs)
	case EquipmentSelection:
		remaining := c.availableQuantity(slot, k, ivs)
		switch {
		case remaining <= 0:
			return HourFull
		case remaining < k.TotalStock:
			return HourReserved
		default:
			return HourAvailable
		}
	default:
		return HourAvailable
	}
}

func (c *Classifier) classifyVehicleHour(slot interval.Interval, sel VehicleSelection, ivs []interval.Interval) HourStatus {
	if len(sel.VehicleIDs) == 0 {
		return HourAvailable
	}
	allBlocked := true
	anyBlocked := false
	for _, id := range sel.VehicleIDs {
		if slotBlocked(slot, interval.FilterResource(ivs, id)) {
			anyBlocked = true
		} else {
			allBlocked = false
		}
	}
	switch {
	case anyBlocked && allBlocked:
		return HourFull
	case anyBlocked:
		return HourReserved
	default:
		return HourAvailable
	}
}

func slotBlocked(slot interval.Interval, ivs []interval.Interval) bool {
	for _, iv := range ivs {
		if iv.Blocking() && interval.Overlaps(slot, iv) {
			return true
		}
	}
	return false
}

// availableQuantity sums the quantities of blocking reservations for the
// selected equipment item that overlap the window and subtracts them from
// total stock, floored at zero.
func (c *Classifier) availableQuantity(win interval.Interval, sel EquipmentSelection, ivs []interval.Interval) int {
	reserved := 0
	for _, iv := range interval.FilterResource(ivs, sel.EquipmentID) {
		if iv.Blocking() && interval.Overlaps(win, iv) {
			reserved += iv.Quantity
		}
	}
	remaining := sel.TotalStock - reserved
	if remaining < 0 {
		return 0
	}
	return remaining
}

// AvailableQuantity reports how many units of the selected equipment remain
// free across the proposed window.
func (c *Classifier) AvailableQuantity(win interval.Interval, sel EquipmentSelection, ivs []interval.Interval) int {
	return c.availableQuantity(win, sel, ivs)
}

// CheckQuantity validates a requested equipment quantity against what is
// free in the window. It returns the remaining quantity alongside
// ErrInsufficientStock when the request cannot be met.
func (c *Classifier) CheckQuantity(win interval.Interval, sel EquipmentSelection, ivs []interval.Interval) (int, error) {
	remaining := c.availableQuantity(win, sel, ivs)
	if sel.Requested > remaining {
		return remaining, ErrInsufficientStock
	}
	return remaining, nil
}
