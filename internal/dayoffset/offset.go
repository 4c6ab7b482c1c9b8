package dayoffset

import (
	"fmt"

	"medcalc/internal/clock"
)

// Mode selects the zero point of an offset.
type Mode int

const (
	// ZeroBased counts the start date as day 0.
	ZeroBased Mode = iota
	// OneBased counts the start date as day 1.
	OneBased
)

func (m Mode) String() string {
	switch m {
	case ZeroBased:
		return "zero-based"
	case OneBased:
		return "one-based"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func (m Mode) base() int {
	if m == OneBased {
		return 1
	}
	return 0
}

// ComputeOffset returns the number of calendar days from start to target,
// shifted by the zero point of mode. The result is negative when target
// precedes start. ErrInvalidDate is returned if either date is invalid.
func ComputeOffset(start, target CalendarDate, mode Mode) (int, error) {
	if !start.Valid() {
		return 0, fmt.Errorf("%w: start %v", ErrInvalidDate, start)
	}
	if !target.Valid() {
		return 0, fmt.Errorf("%w: target %v", ErrInvalidDate, target)
	}
	return int(target.dayNumber()-start.dayNumber()) + mode.base(), nil
}

// CalculateFunc is the calculation hook handed to a calculator page.
type CalculateFunc func(start, target CalendarDate) (int, error)

// Calculator binds a Mode to the clock used for the default target date.
type Calculator struct {
	Mode  Mode
	Clock clock.Clock
}

// SinceProcedure returns the day-0 calculator: the procedure day is day 0.
func SinceProcedure(c clock.Clock) Calculator {
	return Calculator{Mode: ZeroBased, Clock: c}
}

// TreatmentCycleDay returns the day-1 calculator: the first treatment is day 1.
func TreatmentCycleDay(c clock.Clock) Calculator {
	return Calculator{Mode: OneBased, Clock: c}
}

// Between returns the offset from start to target.
func (c Calculator) Between(start, target CalendarDate) (int, error) {
	return ComputeOffset(start, target, c.Mode)
}

// Offset returns the offset from start to today's date as reported by the
// calculator's clock.
func (c Calculator) Offset(start CalendarDate) (int, error) {
	today, err := Today(c.Clock)
	if err != nil {
		return 0, err
	}
	return c.Between(start, today)
}

// Today returns the current local date of c.
func Today(c clock.Clock) (CalendarDate, error) {
	now, err := clock.Now(c)
	if err != nil {
		return CalendarDate{}, err
	}
	return FromTime(now), nil
}

// Tomorrow returns the date after the current local date of c.
func Tomorrow(c clock.Clock) (CalendarDate, error) {
	today, err := Today(c)
	if err != nil {
		return CalendarDate{}, err
	}
	next := today.AddDays(1)
	if !next.Valid() {
		return CalendarDate{}, fmt.Errorf("%w: no date after %v", clock.ErrClock, today)
	}
	return next, nil
}
