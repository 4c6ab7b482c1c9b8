// Package coordinator turns the text of a calculator's two date fields into
// the single state a page renders: a placeholder, an error message or a
// day count.
package coordinator

import (
	"errors"
	"fmt"

	"medcalc/internal/clock"
	"medcalc/internal/dayoffset"
	appLog "medcalc/internal/log"
)

// State is what a calculator page shows.
type State int

const (
	NoStartDate State = iota
	InvalidInput
	ComputeError
	Result
)

func (s State) String() string {
	switch s {
	case NoStartDate:
		return "no_start_date"
	case InvalidInput:
		return "invalid_input"
	case ComputeError:
		return "compute_error"
	case Result:
		return "result"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// User-facing messages.
const (
	MsgEnterDate      = "Enter a date to see the result"
	MsgInvalidStart   = "Start date is invalid. Please use the YYYY-MM-DD format."
	MsgInvalidTarget  = "Target date is invalid. Please use the YYYY-MM-DD format."
	MsgCannotCompute  = "Unable to calculate days. Please check your dates."
	MsgClockUnhealthy = "Could not determine today's date. Please use the date picker instead."
)

// View is the render state of a calculator.
type View struct {
	State State
	// Message is the placeholder or error text; empty for Result.
	Message string
	// Offset and Unit are only set for Result.
	Offset int
	Unit   string
	// Notice reports an environment failure (e.g. the clock) independently
	// of the validation state.
	Notice string
}

// Label formats a Result as e.g. "8 Days".
func (v View) Label() string {
	if v.State != Result {
		return ""
	}
	return fmt.Sprintf("%d %s", v.Offset, v.Unit)
}

// Unit returns "Day" for exactly one and "Days" otherwise, including zero
// and negative counts.
func Unit(n int) string {
	if n == 1 {
		return "Day"
	}
	return "Days"
}

// Coordinator owns the start and target fields of one calculator.
type Coordinator struct {
	calc  dayoffset.Calculator
	clock clock.Clock

	start  string
	target string
	notice string
}

// New returns a Coordinator with an empty start field and the target field
// set to today's date as reported by clk.
func New(calc dayoffset.Calculator, clk clock.Clock) *Coordinator {
	c := &Coordinator{calc: calc, clock: clk}
	_ = c.SetTargetToday()
	return c
}

func (c *Coordinator) Start() string  { return c.start }
func (c *Coordinator) Target() string { return c.target }

func (c *Coordinator) SetStart(text string) {
	c.start = text
}

// SetTarget replaces the target field with user text and clears any notice
// left by an earlier failed clock sample.
func (c *Coordinator) SetTarget(text string) {
	c.target = text
	c.notice = ""
}

// SetTargetToday writes today's date into the target field.
func (c *Coordinator) SetTargetToday() error {
	return c.setTarget("today", dayoffset.Today)
}

// SetTargetTomorrow writes tomorrow's date into the target field.
func (c *Coordinator) SetTargetTomorrow() error {
	return c.setTarget("tomorrow", dayoffset.Tomorrow)
}

// setTarget leaves the field untouched on failure and records a notice
// instead; the returned error wraps clock.ErrClock.
func (c *Coordinator) setTarget(which string, sample func(clock.Clock) (dayoffset.CalendarDate, error)) error {
	d, err := sample(c.clock)
	if err == nil && !dayoffset.Parse(d.String()).Date.Valid() {
		err = fmt.Errorf("%w: formatted %s date %q does not parse", clock.ErrClock, which, d)
	}
	if err != nil {
		appLog.Error("failed to sample date for target field", err, "which", which)
		c.notice = MsgClockUnhealthy
		return fmt.Errorf("set target to %s: %w", which, err)
	}
	c.notice = ""
	c.target = d.String()
	return nil
}

// View computes the render state from the current field text.
func (c *Coordinator) View() View {
	v := c.view()
	if c.notice != "" {
		v.Notice = c.notice
	}
	return v
}

func (c *Coordinator) view() View {
	start := dayoffset.Parse(c.start)
	switch start.Kind {
	case dayoffset.Empty:
		return View{State: NoStartDate, Message: MsgEnterDate}
	case dayoffset.Malformed:
		return View{State: InvalidInput, Message: MsgInvalidStart}
	}

	target := dayoffset.Parse(c.target)
	var (
		offset int
		err    error
	)
	switch target.Kind {
	case dayoffset.Malformed:
		return View{State: InvalidInput, Message: MsgInvalidTarget}
	case dayoffset.Empty:
		offset, err = c.calc.Offset(start.Date)
	default:
		offset, err = c.calc.Between(start.Date, target.Date)
	}
	if err != nil {
		if errors.Is(err, clock.ErrClock) {
			appLog.Error("failed to sample default target date", err)
			return View{State: ComputeError, Message: MsgCannotCompute, Notice: MsgClockUnhealthy}
		}
		appLog.Error("day offset calculation failed", err, "start", c.start, "target", c.target)
		return View{State: ComputeError, Message: MsgCannotCompute}
	}
	return View{State: Result, Offset: offset, Unit: Unit(offset)}
}
