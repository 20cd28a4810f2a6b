// Package datetime holds timezone-naive calendar helpers shared by the store
// and the view layer. Dates are YYYY-MM-DD, clock times HH:MM[:SS].
package datetime

import (
	"fmt"
	"strings"
	"time"

	"github.com/tempus-app/tempus/internal/apperrors"
)

const (
	// DateLayout is the wire and cache-key format for calendar dates
	DateLayout = "2006-01-02"
	// ClockLayout is the short clock format sent to the API
	ClockLayout = "15:04"
	// ClockLayoutSeconds is the long clock format accepted from the API
	ClockLayoutSeconds = "15:04:05"

	// DefaultMinDeltaMinutes is the gap enforced between start and end
	DefaultMinDeltaMinutes = 60
)

var monthAbbrev = [12]string{
	"JAN", "FEB", "MAR", "APR", "MAY", "JUN",
	"JUL", "AUG", "SEP", "OCT", "NOV", "DEC",
}

// Ordering is the result of comparing two instants
type Ordering int

const (
	Before Ordering = -1
	Equal  Ordering = 0
	After  Ordering = 1
)

func (o Ordering) String() string {
	switch o {
	case Before:
		return "before"
	case After:
		return "after"
	default:
		return "equal"
	}
}

// Date is a calendar day without time-of-day or zone
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Clock is a time of day
type Clock struct {
	Hour   int
	Minute int
	Second int
}

// Instant is a date plus a clock time, compared without zones
type Instant struct {
	Date  Date
	Clock Clock
}

// DateOf truncates t to its calendar day in t's own location
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// NewDate builds a date, normalising overflow the way time.Date does
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// ParseDate accepts YYYY-MM-DD or an ISO datetime that begins with one.
// Anything after the date part is ignored.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) < len(DateLayout) {
		return Date{}, &apperrors.ParseError{Value: s, Layout: "date"}
	}
	if len(s) > len(DateLayout) {
		if sep := s[len(DateLayout)]; sep != 'T' && sep != 't' && sep != ' ' {
			return Date{}, &apperrors.ParseError{Value: s, Layout: "date"}
		}
	}
	t, err := time.Parse(DateLayout, s[:len(DateLayout)])
	if err != nil {
		return Date{}, &apperrors.ParseError{Value: s, Layout: "date", Err: err}
	}
	return DateOf(t), nil
}

// ParseClock accepts HH:MM or HH:MM:SS. An empty string is midnight.
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Clock{}, nil
	}
	layout := ClockLayout
	if strings.Count(s, ":") == 2 {
		layout = ClockLayoutSeconds
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return Clock{}, &apperrors.ParseError{Value: s, Layout: "clock", Err: err}
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
}

// ParseInstant combines a date string and an optional clock string
func ParseInstant(date, clock string) (Instant, error) {
	d, err := ParseDate(date)
	if err != nil {
		return Instant{}, err
	}
	c, err := ParseClock(clock)
	if err != nil {
		return Instant{}, err
	}
	return Instant{Date: d, Clock: c}, nil
}

// Key returns the YYYY-MM-DD form of d
func (d Date) Key() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) String() string { return d.Key() }

// IsZero reports whether d is the zero date
func (d Date) IsZero() bool { return d == Date{} }

// Time returns midnight UTC of d
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays moves d by n days, rolling months and years
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// Before reports whether d is strictly earlier than o
func (d Date) Before(o Date) bool {
	return d.Time().Before(o.Time())
}

func (c Clock) String() string {
	if c.Second != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
	}
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Time returns the instant as a UTC time.Time
func (i Instant) Time() time.Time {
	return time.Date(i.Date.Year, i.Date.Month, i.Date.Day, i.Clock.Hour, i.Clock.Minute, i.Clock.Second, 0, time.UTC)
}

// InstantOf drops the zone of t and keeps its wall clock
func InstantOf(t time.Time) Instant {
	return Instant{
		Date:  DateOf(t),
		Clock: Clock{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()},
	}
}

// AddMinutes moves i by n minutes, rolling days, months and years
func (i Instant) AddMinutes(n int) Instant {
	return InstantOf(i.Time().Add(time.Duration(n) * time.Minute))
}

func (i Instant) String() string {
	return i.Date.Key() + "T" + fmt.Sprintf("%02d:%02d:%02d", i.Clock.Hour, i.Clock.Minute, i.Clock.Second)
}

// ToDateKey normalises a date representation to YYYY-MM-DD. Strings may carry
// a time component, which is discarded.
func ToDateKey(v any) (string, error) {
	switch x := v.(type) {
	case Date:
		return x.Key(), nil
	case Instant:
		return x.Date.Key(), nil
	case time.Time:
		return DateOf(x).Key(), nil
	case *time.Time:
		if x == nil {
			return "", &apperrors.ParseError{Value: "<nil>", Layout: "date"}
		}
		return DateOf(*x).Key(), nil
	case string:
		d, err := ParseDate(x)
		if err != nil {
			return "", err
		}
		return d.Key(), nil
	default:
		return "", &apperrors.ParseError{Value: fmt.Sprintf("%v", v), Layout: "date"}
	}
}

// IsSameCalendarDay compares year, month and day of two date representations
func IsSameCalendarDay(a, b any) (bool, error) {
	ka, err := ToDateKey(a)
	if err != nil {
		return false, err
	}
	kb, err := ToDateKey(b)
	if err != nil {
		return false, err
	}
	return ka == kb, nil
}

// CompareInstant orders two instants by date then clock
func CompareInstant(a, b Instant) Ordering {
	ta, tb := a.Time(), b.Time()
	switch {
	case ta.Before(tb):
		return Before
	case ta.After(tb):
		return After
	default:
		return Equal
	}
}

// FormatShortLabel renders a section header such as "14 APR"
func FormatShortLabel(d Date) string {
	if d.Month < time.January || d.Month > time.December {
		return fmt.Sprintf("%d", d.Day)
	}
	return fmt.Sprintf("%d %s", d.Day, monthAbbrev[d.Month-1])
}

// ClampEndAfterStart returns end unchanged when it is after start, otherwise
// start plus minDeltaMinutes. A non-positive delta uses the default.
func ClampEndAfterStart(start, end Instant, minDeltaMinutes int) Instant {
	if minDeltaMinutes <= 0 {
		minDeltaMinutes = DefaultMinDeltaMinutes
	}
	if CompareInstant(end, start) == After {
		return end
	}
	return start.AddMinutes(minDeltaMinutes)
}

// FormatClock12h renders 14:05 as "2:05 PM"
func FormatClock12h(c Clock) string {
	suffix := "AM"
	if c.Hour >= 12 {
		suffix = "PM"
	}
	h := c.Hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, c.Minute, suffix)
}

// WeekDates returns the Monday-to-Sunday week containing d
func WeekDates(d Date) []Date {
	offset := (int(d.Time().Weekday()) + 6) % 7
	monday := d.AddDays(-offset)
	week := make([]Date, 7)
	for i := range week {
		week[i] = monday.AddDays(i)
	}
	return week
}

// PreviousDate is the day before d
func PreviousDate(d Date) Date { return d.AddDays(-1) }

// NextDate is the day after d
func NextDate(d Date) Date { return d.AddDays(1) }
