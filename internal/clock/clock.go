// Package clock provides the time source used to sample "today".
//
// Nothing else in medcalc calls time.Now directly; a Clock is passed in so
// that calculators, handlers and tests agree on the current date.
package clock

import (
	"errors"
	"fmt"
	"time"
)

// ErrClock reports that the current time could not be determined or is
// outside the range of representable calendar dates.
var ErrClock = errors.New("clock unavailable")

// Clock returns the current instant.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock and reports it in Location
// (time.Local if nil).
type System struct {
	Location *time.Location
}

// Now implements Clock.
func (s System) Now() time.Time {
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	return time.Now().In(loc)
}

// Fixed always returns the same instant.
type Fixed time.Time

// Now implements Clock.
func (f Fixed) Now() time.Time {
	return time.Time(f)
}

// Func adapts an ordinary function to a Clock.
type Func func() time.Time

// Now implements Clock.
func (f Func) Now() time.Time {
	return f()
}

// NewSystem returns a System clock for the named IANA zone. An empty name
// selects time.Local.
func NewSystem(zone string) (System, error) {
	if zone == "" {
		return System{Location: time.Local}, nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return System{}, fmt.Errorf("%w: load location %q: %w", ErrClock, zone, err)
	}
	return System{Location: loc}, nil
}

// Now samples c once and checks that the result is usable as a calendar
// date: non-zero and with a four digit year.
func Now(c Clock) (time.Time, error) {
	if c == nil {
		return time.Time{}, fmt.Errorf("%w: no clock configured", ErrClock)
	}
	t := c.Now()
	if t.IsZero() {
		return time.Time{}, fmt.Errorf("%w: zero time", ErrClock)
	}
	if y := t.Year(); y < 1 || y > 9999 {
		return time.Time{}, fmt.Errorf("%w: year %d out of range", ErrClock, y)
	}
	return t, nil
}
