package interval

import "time"

// HourOccupancy computes, for each business hour h in [Open, Close), whether
// any blocking interval in ivs overlaps the slot [h:00, h+1:00) on date.
// The returned map is keyed by hour-of-day.
func (bh BusinessHours) HourOccupancy(date time.Time, ivs []Interval) map[int]bool {
	occ := make(map[int]bool, bh.Close-bh.Open)
	for h := bh.Open; h < bh.Close; h++ {
		slot := HourSlot(date, h)
		for _, iv := range ivs {
			if iv.Blocking() && Overlaps(slot, iv) {
				occ[h] = true
				break
			}
		}
	}
	return occ
}

// DayOccupied reports whether any blocking interval touches the business
// window on date.
func (bh BusinessHours) DayOccupied(date time.Time, ivs []Interval) bool {
	win := bh.Window(date)
	for _, iv := range ivs {
		if iv.Blocking() && Overlaps(win, iv) {
			return true
		}
	}
	return false
}

// DayFullyBlocked reports whether date is blocked for the whole business
// window: either a single canonical full-day interval exists, or every
// business hour is covered by some blocking interval. The second clause makes
// a day assembled out of back-to-back bookings equivalent to a full-day block
// for aggregation purposes.
func (bh BusinessHours) DayFullyBlocked(date time.Time, ivs []Interval) bool {
	for _, iv := range ivs {
		if iv.Blocking() && bh.IsFullDay(iv, date) {
			return true
		}
	}
	occ := bh.HourOccupancy(date, ivs)
	for h := bh.Open; h < bh.Close; h++ {
		if !occ[h] {
			return false
		}
	}
	return true
}

// HasFullDayBlock reports whether date carries the canonical full-day
// interval itself, as opposed to hours that merely add up to one. Venue day
// classification distinguishes the two.
func (bh BusinessHours) HasFullDayBlock(date time.Time, ivs []Interval) bool {
	for _, iv := range ivs {
		if iv.Blocking() && bh.IsFullDay(iv, date) {
			return true
		}
	}
	return false
}

// FilterResource returns the intervals whose ResourceID matches id.
func FilterResource(ivs []Interval, id string) []Interval {
	var out []Interval
	for _, iv := range ivs {
		if iv.ResourceID == id {
			out = append(out, iv)
		}
	}
	return out
}
