// Package dayoffset computes signed day offsets between calendar dates.
//
// All arithmetic is done on civil dates (year, month, day) so the result is
// independent of time-of-day, timezone and daylight-saving transitions.
package dayoffset

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cloudeng.io/datetime"
)

// Layout is the ISO calendar-date layout accepted from date-picker controls.
const Layout = time.DateOnly

const (
	minYear = 1
	maxYear = 9999

	secondsPerDay = 24 * 60 * 60
)

var (
	// ErrInvalidDate is returned when a CalendarDate does not denote a real date.
	ErrInvalidDate = errors.New("invalid calendar date")
	// ErrMalformed is returned for date text that is not a YYYY-MM-DD date.
	ErrMalformed = errors.New("malformed date text")
)

// CalendarDate is a date in the proleptic Gregorian calendar with no
// time-of-day or location. The zero value is invalid.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// NewCalendarDate returns the date for year, month and day, or ErrInvalidDate
// if they do not denote a real date. Out-of-range values are never normalized.
func NewCalendarDate(year int, month time.Month, day int) (CalendarDate, error) {
	cd := CalendarDate{Year: year, Month: month, Day: day}
	if !cd.Valid() {
		return CalendarDate{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, int(month), day)
	}
	return cd, nil
}

// FromTime returns the calendar date of t in t's own location.
func FromTime(t time.Time) CalendarDate {
	y, m, d := t.Date()
	return CalendarDate{Year: y, Month: m, Day: d}
}

// Valid reports whether cd denotes a real calendar date.
func (cd CalendarDate) Valid() bool {
	if cd.Year < minYear || cd.Year > maxYear {
		return false
	}
	if cd.Month < time.January || cd.Month > time.December {
		return false
	}
	return cd.Day >= 1 && cd.Day <= datetime.DaysInMonth(cd.Year, datetime.Month(cd.Month))
}

// Time returns midnight of cd in loc (UTC if loc is nil).
func (cd CalendarDate) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(cd.Year, cd.Month, cd.Day, 0, 0, 0, 0, loc)
}

// AddDays returns the date n days after cd (before it for negative n).
func (cd CalendarDate) AddDays(n int) CalendarDate {
	return FromTime(cd.Time(time.UTC).AddDate(0, 0, n))
}

// String formats cd as YYYY-MM-DD.
func (cd CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", cd.Year, int(cd.Month), cd.Day)
}

// dayNumber returns the number of days between 1970-01-01 and cd.
// Midnight UTC is always a whole multiple of a day, so the division is exact.
func (cd CalendarDate) dayNumber() int64 {
	return cd.Time(time.UTC).Unix() / secondsPerDay
}

// Kind classifies the text of a date field.
type Kind int

const (
	Empty Kind = iota
	Malformed
	Valid
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "empty"
	case Malformed:
		return "malformed"
	case Valid:
		return "valid"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Outcome is the result of parsing a date field. Date is only meaningful
// when Kind is Valid.
type Outcome struct {
	Kind Kind
	Date CalendarDate
}

// Err returns nil for valid and empty outcomes and ErrMalformed otherwise.
func (o Outcome) Err() error {
	if o.Kind == Malformed {
		return ErrMalformed
	}
	return nil
}

// Parse classifies text as Empty (blank), Valid (a real YYYY-MM-DD date)
// or Malformed (anything else). It never panics.
func Parse(text string) Outcome {
	text = strings.TrimSpace(text)
	if text == "" {
		return Outcome{Kind: Empty}
	}
	t, err := time.Parse(Layout, text)
	if err != nil {
		return Outcome{Kind: Malformed}
	}
	cd := FromTime(t)
	if !cd.Valid() {
		return Outcome{Kind: Malformed}
	}
	return Outcome{Kind: Valid, Date: cd}
}

// ParseDate is like Parse but returns an error for anything other than a
// valid date.
func ParseDate(text string) (CalendarDate, error) {
	o := Parse(text)
	switch o.Kind {
	case Valid:
		return o.Date, nil
	case Empty:
		return CalendarDate{}, fmt.Errorf("%w: empty", ErrMalformed)
	default:
		return CalendarDate{}, fmt.Errorf("%w: %q", ErrMalformed, text)
	}
}
