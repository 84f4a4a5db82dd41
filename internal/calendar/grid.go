package calendar

import (
	"time"

	"reservation-wizard-backend/internal/availability"
	"reservation-wizard-backend/internal/interval"
)

// DayCell is one day of a month grid.
type DayCell struct {
	Date   time.Time              `json:"date"`
	Status availability.DayStatus `json:"status"`
}

// HourCell is one hour of a day or week grid.
type HourCell struct {
	Date   time.Time               `json:"date"`
	Hour   int                     `json:"hour"`
	Status availability.HourStatus `json:"status"`
}

// MonthGrid classifies every day of the view's month for the selection.
func MonthGrid(v View, c *availability.Classifier, sel availability.Selection, ivs []interval.Interval) []DayCell {
	start := v.MonthStart()
	days := v.DaysInMonth()
	cells := make([]DayCell, 0, days)
	for d := 0; d < days; d++ {
		date := start.AddDate(0, 0, d)
		cells = append(cells, DayCell{Date: date, Status: c.ClassifyDay(date, sel, ivs)})
	}
	return cells
}

// WeekGrid classifies every hour of the view's week, Monday through Sunday.
// Each day contributes all 24 hours so the UI can grey out the ones outside
// business hours.
func WeekGrid(v View, c *availability.Classifier, sel availability.Selection, ivs []interval.Interval) []HourCell {
	start := v.WeekStart()
	var cells []HourCell
	for d := 0; d < 7; d++ {
		date := start.AddDate(0, 0, d)
		cells = append(cells, dayHours(date, c, sel, ivs)...)
	}
	return cells
}

// DayGrid classifies every hour of the view's anchor day.
func DayGrid(v View, c *availability.Classifier, sel availability.Selection, ivs []interval.Interval) []HourCell {
	date := time.Date(v.Anchor.Year(), v.Anchor.Month(), v.Anchor.Day(), 0, 0, 0, 0, v.Anchor.Location())
	return dayHours(date, c, sel, ivs)
}

func dayHours(date time.Time, c *availability.Classifier, sel availability.Selection, ivs []interval.Interval) []HourCell {
	cells := make([]HourCell, 0, 24)
	for h := 0; h < 24; h++ {
		cells = append(cells, HourCell{Date: date, Hour: h, Status: c.ClassifyHour(date, h, sel, ivs)})
	}
	return cells
}
