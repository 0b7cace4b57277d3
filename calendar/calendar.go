// Package calendar builds the rolling month timeline the forecast is laid out on.
package calendar

import (
	"time"

	"superforecaster/models"
)

const (
	// PastMonths is how many months before the current one are shown.
	PastMonths = 6
	// FutureMonths is how many months after the current one are projected.
	FutureMonths = 18
	// MonthsToForecast is the full length of the timeline.
	MonthsToForecast = PastMonths + 1 + FutureMonths

	// LabelLayout formats month labels, e.g. "Jan 2026".
	LabelLayout = "Jan 2006"
)

// GenerateMonths returns the timeline anchored at now's calendar month, in
// now's location. Months are first-of-month dates.
func GenerateMonths(now time.Time) []models.Month {
	months := make([]models.Month, 0, MonthsToForecast)
	year, month, _ := now.Date()

	for i := -PastMonths; i <= FutureMonths; i++ {
		// time.Date normalises month overflow across year boundaries.
		date := time.Date(year, month+time.Month(i), 1, 0, 0, 0, 0, now.Location())
		months = append(months, models.Month{
			Label:          date.Format(LabelLayout),
			Date:           date,
			Offset:         i,
			IsPastMonth:    i < 0,
			IsCurrentMonth: i == 0,
		})
	}

	return months
}

// Find returns the month with the given label.
func Find(months []models.Month, label string) (models.Month, bool) {
	for _, m := range months {
		if m.Label == label {
			return m, true
		}
	}
	return models.Month{}, false
}

// Current returns the current month of the timeline.
func Current(months []models.Month) (models.Month, bool) {
	for _, m := range months {
		if m.IsCurrentMonth {
			return m, true
		}
	}
	return models.Month{}, false
}
