package coordinator

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"medcalc/internal/clock"
	"medcalc/internal/dayoffset"
	appLog "medcalc/internal/log"
)

// Fixed reference time: Sunday, 2026-02-22 10:00 UTC.
var testNow = clock.Fixed(time.Date(2026, 2, 22, 10, 0, 0, 0, time.UTC))

func init() {
	appLog.SetOutput(io.Discard)
}

func newTransplant(c clock.Clock) *Coordinator {
	return New(dayoffset.SinceProcedure(c), c)
}

func newChemo(c clock.Clock) *Coordinator {
	return New(dayoffset.TreatmentCycleDay(c), c)
}

func TestNewSetsTargetToToday(t *testing.T) {
	c := newTransplant(testNow)
	if got := c.Target(); got != "2026-02-22" {
		t.Errorf("Target() = %q, want 2026-02-22", got)
	}
	if got := c.Start(); got != "" {
		t.Errorf("Start() = %q, want empty", got)
	}
	v := c.View()
	if v.State != NoStartDate || v.Message != MsgEnterDate || v.Notice != "" {
		t.Errorf("View() = %+v", v)
	}
}

func TestEndToEnd(t *testing.T) {
	tests := []struct {
		name          string
		chemo         bool
		start, target string
		state         State
		message       string
		label         string
	}{
		{"transplant week", false, "2026-02-15", "2026-02-22", Result, "", "7 Days"},
		{"chemo week", true, "2026-02-15", "2026-02-22", Result, "", "8 Days"},
		{"transplant same day", false, "2026-02-15", "2026-02-15", Result, "", "0 Days"},
		{"chemo same day", true, "2026-02-15", "2026-02-15", Result, "", "1 Day"},
		{"transplant next day", false, "2026-02-15", "2026-02-16", Result, "", "1 Day"},
		{"transplant before", false, "2026-02-15", "2026-02-10", Result, "", "-5 Days"},
		{"chemo day before", true, "2026-02-15", "2026-02-14", Result, "", "0 Days"},
		{"transplant one before", false, "2026-02-15", "2026-02-14", Result, "", "-1 Days"},
		{"empty start", false, "", "2026-02-15", NoStartDate, MsgEnterDate, ""},
		{"empty start bad target", false, "", "garbage", NoStartDate, MsgEnterDate, ""},
		{"bad start", false, "not-a-date", "2026-02-15", InvalidInput, MsgInvalidStart, ""},
		{"impossible start", true, "2026-02-30", "2026-02-15", InvalidInput, MsgInvalidStart, ""},
		{"bad target", false, "2026-02-15", "2026-02-30", InvalidInput, MsgInvalidTarget, ""},
		{"both bad", true, "nope", "also nope", InvalidInput, MsgInvalidStart, ""},
		{"empty target uses today", false, "2026-02-15", "", Result, "", "7 Days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTransplant(testNow)
			if tt.chemo {
				c = newChemo(testNow)
			}
			c.SetStart(tt.start)
			c.SetTarget(tt.target)
			v := c.View()
			if v.State != tt.state {
				t.Fatalf("State = %v, want %v (%+v)", v.State, tt.state, v)
			}
			if v.Message != tt.message {
				t.Errorf("Message = %q, want %q", v.Message, tt.message)
			}
			if got := v.Label(); got != tt.label {
				t.Errorf("Label() = %q, want %q", got, tt.label)
			}
		})
	}
}

func TestComputeErrorIsHandled(t *testing.T) {
	// A calculator with a broken clock cannot resolve an empty target.
	broken := clock.Fixed(time.Time{})
	c := New(dayoffset.SinceProcedure(broken), testNow)
	c.SetStart("2026-02-15")
	c.SetTarget("")
	v := c.View()
	if v.State != ComputeError || v.Message != MsgCannotCompute {
		t.Fatalf("View() = %+v", v)
	}
	if v.Notice != MsgClockUnhealthy {
		t.Errorf("Notice = %q, want %q", v.Notice, MsgClockUnhealthy)
	}
}

func TestSetTargetTomorrow(t *testing.T) {
	c := newChemo(testNow)
	if err := c.SetTargetTomorrow(); err != nil {
		t.Fatal(err)
	}
	if got := c.Target(); got != "2026-02-23" {
		t.Errorf("Target() = %q, want 2026-02-23", got)
	}
	c.SetTarget("2020-01-01")
	if err := c.SetTargetToday(); err != nil {
		t.Fatal(err)
	}
	if got := c.Target(); got != "2026-02-22" {
		t.Errorf("Target() = %q, want 2026-02-22", got)
	}
}

func TestSetTargetClockFailure(t *testing.T) {
	var now time.Time
	clk := clock.Func(func() time.Time { return now })
	c := newTransplant(clk)
	if c.Target() != "" {
		t.Errorf("Target() = %q, want empty after failed initial sample", c.Target())
	}

	now = time.Date(2026, 2, 22, 0, 0, 0, 0, time.UTC)
	if err := c.SetTargetToday(); err != nil {
		t.Fatal(err)
	}
	c.SetStart("2026-02-15")

	now = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	err := c.SetTargetTomorrow()
	if !errors.Is(err, clock.ErrClock) {
		t.Fatalf("got %v, want ErrClock", err)
	}
	if got := c.Target(); got != "2026-02-22" {
		t.Errorf("Target() = %q, want unchanged 2026-02-22", got)
	}
	v := c.View()
	if v.State != Result || v.Label() != "7 Days" {
		t.Errorf("validation state changed by clock failure: %+v", v)
	}
	if v.Notice != MsgClockUnhealthy {
		t.Errorf("Notice = %q, want %q", v.Notice, MsgClockUnhealthy)
	}
	if strings.Contains(v.Message, "invalid") {
		t.Errorf("clock failure reported as validation error: %q", v.Message)
	}

	now = time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)
	if err := c.SetTargetToday(); err != nil {
		t.Fatal(err)
	}
	if v := c.View(); v.Notice != "" {
		t.Errorf("Notice not cleared: %q", v.Notice)
	}
}

func TestSetTargetClearsNotice(t *testing.T) {
	c := newTransplant(clock.Fixed(time.Time{}))
	if v := c.View(); v.Notice != MsgClockUnhealthy {
		t.Fatalf("Notice = %q, want %q after failed initial sample", v.Notice, MsgClockUnhealthy)
	}
	c.SetStart("2026-02-15")
	c.SetTarget("2026-02-22")
	v := c.View()
	if v.Notice != "" {
		t.Errorf("Notice = %q, want empty once the target is typed", v.Notice)
	}
	if v.State != Result || v.Label() != "7 Days" {
		t.Errorf("View() = %+v, want 7 Days", v)
	}
}

func TestUnit(t *testing.T) {
	for n, want := range map[int]string{-1: "Days", 0: "Days", 1: "Day", 2: "Days", 100: "Days"} {
		if got := Unit(n); got != want {
			t.Errorf("Unit(%d) = %q, want %q", n, got, want)
		}
	}
}
