package datetime

import (
	"fmt"
	"time"

	"github.com/tempus-app/tempus/internal/apperrors"
)

// Window is the month currently cached for calendar display
type Window struct {
	Month int
	Year  int
}

// WindowOf returns the window containing d
func WindowOf(d Date) Window {
	return Window{Month: int(d.Month), Year: d.Year}
}

// Validate checks for a 1-indexed month and a four digit year
func (w Window) Validate() error {
	if w.Month < 1 || w.Month > 12 {
		return apperrors.NewValidation("month", fmt.Sprintf("must be between 1 and 12, got %d", w.Month))
	}
	if w.Year < 1000 || w.Year > 9999 {
		return apperrors.NewValidation("year", fmt.Sprintf("must be a four digit year, got %d", w.Year))
	}
	return nil
}

// Key is the partition key, e.g. "2025-04"
func (w Window) Key() string {
	return fmt.Sprintf("%04d-%02d", w.Year, w.Month)
}

func (w Window) String() string { return w.Key() }

// Contains reports whether d falls inside the window's month
func (w Window) Contains(d Date) bool {
	return d.Year == w.Year && int(d.Month) == w.Month
}

// First is the first day of the window
func (w Window) First() Date {
	return Date{Year: w.Year, Month: time.Month(w.Month), Day: 1}
}

// Title is the English month name, used as the calendar header
func (w Window) Title() string {
	return time.Month(w.Month).String()
}

// Next is the following month
func (w Window) Next() Window {
	return WindowOf(DateOf(w.First().Time().AddDate(0, 1, 0)))
}

// Prev is the preceding month
func (w Window) Prev() Window {
	return WindowOf(DateOf(w.First().Time().AddDate(0, -1, 0)))
}
