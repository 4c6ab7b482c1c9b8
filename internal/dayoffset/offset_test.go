package dayoffset

import (
	"errors"
	"testing"
	"time"

	"medcalc/internal/clock"
)

func mustDate(t *testing.T, s string) CalendarDate {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func TestComputeOffset(t *testing.T) {
	tests := []struct {
		start, target string
		mode          Mode
		want          int
	}{
		{"2026-02-15", "2026-02-15", ZeroBased, 0},
		{"2026-02-15", "2026-02-15", OneBased, 1},
		{"2026-02-15", "2026-02-16", ZeroBased, 1},
		{"2026-02-15", "2026-02-22", ZeroBased, 7},
		{"2026-02-15", "2026-02-22", OneBased, 8},
		{"2026-02-15", "2026-02-10", ZeroBased, -5},
		{"2026-02-15", "2026-02-10", OneBased, -4},
		{"2026-02-15", "2026-02-14", OneBased, 0},
		{"2024-02-28", "2024-03-01", ZeroBased, 2},
		{"2024-02-28", "2024-03-01", OneBased, 3},
		{"2023-02-28", "2023-03-01", ZeroBased, 1},
		{"2020-01-01", "2026-02-15", ZeroBased, 2237},
		{"1969-12-31", "1970-01-01", ZeroBased, 1},
		{"0001-01-01", "9999-12-31", ZeroBased, 3652058},
	}
	for _, tt := range tests {
		got, err := ComputeOffset(mustDate(t, tt.start), mustDate(t, tt.target), tt.mode)
		if err != nil {
			t.Errorf("ComputeOffset(%s, %s, %v): unexpected error: %v", tt.start, tt.target, tt.mode, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ComputeOffset(%s, %s, %v) = %d, want %d", tt.start, tt.target, tt.mode, got, tt.want)
		}
	}
}

func TestComputeOffsetAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("zoneinfo unavailable: %v", err)
	}
	// 2026-03-08 is the spring-forward day in New York; the elapsed time
	// between the two midnights is 23 hours.
	start := FromTime(time.Date(2026, 3, 7, 0, 0, 0, 0, loc))
	target := FromTime(time.Date(2026, 3, 9, 0, 0, 0, 0, loc))
	got, err := ComputeOffset(start, target, ZeroBased)
	if err != nil {
		t.Fatal(err)
	}
	if got != 2 {
		t.Errorf("got %d, want 2", got)
	}
}

func TestComputeOffsetOneBasedInvariant(t *testing.T) {
	start := mustDate(t, "2024-01-01")
	for i := -400; i <= 400; i += 7 {
		target := start.AddDays(i)
		zero, err := ComputeOffset(start, target, ZeroBased)
		if err != nil {
			t.Fatal(err)
		}
		one, err := ComputeOffset(start, target, OneBased)
		if err != nil {
			t.Fatal(err)
		}
		if zero != i {
			t.Errorf("ZeroBased(%v, %v) = %d, want %d", start, target, zero, i)
		}
		if one != zero+1 {
			t.Errorf("OneBased(%v, %v) = %d, want %d", start, target, one, zero+1)
		}
	}
}

func TestComputeOffsetInvalid(t *testing.T) {
	valid := mustDate(t, "2026-02-15")
	invalid := []CalendarDate{
		{},
		{Year: 2026, Month: time.February, Day: 30},
		{Year: 2023, Month: time.February, Day: 29},
		{Year: 2026, Month: 13, Day: 1},
		{Year: 2026, Month: time.April, Day: 31},
		{Year: 10000, Month: time.January, Day: 1},
	}
	for _, mode := range []Mode{ZeroBased, OneBased} {
		for _, bad := range invalid {
			if _, err := ComputeOffset(bad, valid, mode); !errors.Is(err, ErrInvalidDate) {
				t.Errorf("ComputeOffset(%v, valid, %v): got %v, want ErrInvalidDate", bad, mode, err)
			}
			if _, err := ComputeOffset(valid, bad, mode); !errors.Is(err, ErrInvalidDate) {
				t.Errorf("ComputeOffset(valid, %v, %v): got %v, want ErrInvalidDate", bad, mode, err)
			}
			if _, err := ComputeOffset(bad, bad, mode); !errors.Is(err, ErrInvalidDate) {
				t.Errorf("ComputeOffset(%v, %v, %v): got %v, want ErrInvalidDate", bad, bad, mode, err)
			}
		}
	}
}

func TestCalculatorDefaultTarget(t *testing.T) {
	now := clock.Fixed(time.Date(2026, 10, 18, 23, 30, 0, 0, time.UTC))
	start := mustDate(t, "2026-10-08")

	since := SinceProcedure(now)
	got, err := since.Offset(start)
	if err != nil {
		t.Fatal(err)
	}
	explicit, err := since.Between(start, mustDate(t, "2026-10-18"))
	if err != nil {
		t.Fatal(err)
	}
	if got != 10 || got != explicit {
		t.Errorf("SinceProcedure.Offset = %d, Between = %d, want 10", got, explicit)
	}

	cycle := TreatmentCycleDay(now)
	got, err = cycle.Offset(start)
	if err != nil {
		t.Fatal(err)
	}
	if got != 11 {
		t.Errorf("TreatmentCycleDay.Offset = %d, want 11", got)
	}
}

func TestCalculatorClockFailure(t *testing.T) {
	broken := clock.Fixed(time.Time{})
	_, err := SinceProcedure(broken).Offset(mustDate(t, "2026-02-15"))
	if !errors.Is(err, clock.ErrClock) {
		t.Errorf("got %v, want ErrClock", err)
	}
}

func TestCalculateFunc(t *testing.T) {
	var fn CalculateFunc = TreatmentCycleDay(nil).Between
	got, err := fn(mustDate(t, "2026-02-15"), mustDate(t, "2026-02-20"))
	if err != nil {
		t.Fatal(err)
	}
	if got != 6 {
		t.Errorf("got %d, want 6", got)
	}
}

func TestTomorrow(t *testing.T) {
	c := clock.Fixed(time.Date(2024, 2, 28, 8, 0, 0, 0, time.UTC))
	got, err := Tomorrow(c)
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "2024-02-29" {
		t.Errorf("got %v, want 2024-02-29", got)
	}

	end := clock.Fixed(time.Date(9999, 12, 31, 8, 0, 0, 0, time.UTC))
	if _, err := Tomorrow(end); !errors.Is(err, clock.ErrClock) {
		t.Errorf("got %v, want ErrClock", err)
	}
}
