package interval

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FlexID tolerates the upstream's habit of emitting the same identifier as a
// JSON number on one code path and a quoted string on another.
type FlexID string

// UnmarshalJSON accepts numbers, strings and null.
func (f *FlexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexID(n.String())
		return nil
	}
	if string(data) == "null" {
		*f = ""
		return nil
	}
	return fmt.Errorf("id is neither string nor number: %s", data)
}

// RawRecord is a single reservation as delivered by the upstream API. The
// feed is loosely typed: ids arrive as numbers or strings depending on the
// upstream code path, timestamps may be absent, and the vehicle id field is
// only populated for vehicle reservations.
type RawRecord struct {
	ID         FlexID `json:"id"`
	ItemType   string `json:"itemType"`
	ItemID     FlexID `json:"itemId"`
	VehicleID  FlexID `json:"vehicleId"`
	Quantity   int    `json:"quantity"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	StatusCode int    `json:"status"`
}

// timeLayouts are the timestamp formats the upstream is known to emit.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
}

func parseLocalTime(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

// Canonical flattens the upstream's mixed numeric/string identifiers to a
// plain string so that downstream equality checks never miss a match on
// representation alone ("3" vs 3).
func (f FlexID) Canonical() string {
	s := strings.TrimSpace(string(f))
	if v, err := strconv.ParseFloat(s, 64); err == nil && v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return s
}

func coerceID(n FlexID) string { return n.Canonical() }

// Normalize converts a raw upstream record into an Interval. It returns
// false for records that cannot participate in availability: missing or
// unparseable start/end, or a window where start >= end. Such records are
// skipped by the caller, never propagated as errors.
func Normalize(raw RawRecord, loc *time.Location, classify func(int) StatusType) (Interval, bool) {
	start, ok := parseLocalTime(raw.StartTime, loc)
	if !ok {
		return Interval{}, false
	}
	end, ok := parseLocalTime(raw.EndTime, loc)
	if !ok {
		return Interval{}, false
	}
	if !start.Before(end) {
		return Interval{}, false
	}

	kind := ResourceKind(strings.ToLower(strings.TrimSpace(raw.ItemType)))
	switch kind {
	case KindVenue, KindVehicle, KindEquipment:
	default:
		return Interval{}, false
	}

	resourceID := coerceID(raw.ItemID)
	if kind == KindVehicle {
		// One record per vehicle-reservation pairing; the vehicle id is the
		// aggregation key, not the booking's item id.
		if v := coerceID(raw.VehicleID); v != "" {
			resourceID = v
		}
	}
	if resourceID == "" {
		return Interval{}, false
	}

	return Interval{
		ID:         coerceID(raw.ID),
		Kind:       kind,
		ResourceID: resourceID,
		Quantity:   raw.Quantity,
		Start:      start,
		End:        end,
		StatusCode: raw.StatusCode,
		Status:     classify(raw.StatusCode),
	}, true
}

// NormalizeAll maps Normalize over a feed, dropping invalid records.
func NormalizeAll(raws []RawRecord, loc *time.Location, classify func(int) StatusType) []Interval {
	out := make([]Interval, 0, len(raws))
	for _, raw := range raws {
		if iv, ok := Normalize(raw, loc, classify); ok {
			out = append(out, iv)
		}
	}
	return out
}
