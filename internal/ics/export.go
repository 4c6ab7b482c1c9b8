// Package ics exports day-count schedules as iCalendar feeds so they can be
// subscribed to from a phone or desktop calendar.
package ics

import (
	"errors"
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"medcalc/internal/dayoffset"
	appLog "medcalc/internal/log"
)

const productID = "-//medcalc//day calculators//EN"

// maxCycles caps chemo schedules; no regimen is planned this far ahead.
const maxCycles = 100

// Milestones returns a calendar with one all-day event per transplant
// milestone day (e.g. Day +100). Non-positive days are skipped.
// stamp is used as DTSTAMP for every event.
func Milestones(start dayoffset.CalendarDate, days []int, stamp time.Time) (*ical.Calendar, error) {
	if !start.Valid() {
		return nil, fmt.Errorf("milestones: %w: %v", dayoffset.ErrInvalidDate, start)
	}
	since := dayoffset.SinceProcedure(nil)

	cal := newCalendar("Transplant milestones")
	for _, n := range days {
		if n <= 0 {
			continue
		}
		date := start.AddDays(n)
		if !date.Valid() {
			continue
		}
		// The event date must agree with the calculator shown on the page.
		got, err := since.Between(start, date)
		if err != nil {
			return nil, fmt.Errorf("milestones: day %d: %w", n, err)
		}
		if got != n {
			return nil, fmt.Errorf("milestones: day %d resolved to %v (offset %d)", n, date, got)
		}
		ev := cal.AddEvent(fmt.Sprintf("transplant-%s-day-%d@medcalc", start, n))
		ev.SetDtStampTime(stamp)
		ev.SetSummary(fmt.Sprintf("Transplant Day +%d", n))
		ev.SetDescription(fmt.Sprintf("Day +%d since transplant on %s.", n, start))
		setAllDay(ev, date)
	}
	appLog.Debug("ics milestones built", "start", start, "count", len(cal.Events()))
	return cal, nil
}

// ChemoCycles returns a calendar with an all-day event on day 1 of each of
// cycles treatment cycles that are cycleDays long, starting on first.
func ChemoCycles(first dayoffset.CalendarDate, cycleDays, cycles int, stamp time.Time) (*ical.Calendar, error) {
	if !first.Valid() {
		return nil, fmt.Errorf("chemo cycles: %w: %v", dayoffset.ErrInvalidDate, first)
	}
	if cycleDays <= 0 {
		return nil, errors.New("chemo cycles: cycle length must be positive")
	}
	if cycles <= 0 || cycles > maxCycles {
		return nil, fmt.Errorf("chemo cycles: cycle count must be between 1 and %d", maxCycles)
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:     rrule.DAILY,
		Interval: cycleDays,
		Count:    cycles,
		Dtstart:  first.Time(time.UTC),
	})
	if err != nil {
		return nil, fmt.Errorf("chemo cycles: %w", err)
	}

	treatment := dayoffset.TreatmentCycleDay(nil)
	cal := newCalendar("Chemotherapy cycles")
	for i, occ := range r.All() {
		date := dayoffset.FromTime(occ)
		if !date.Valid() {
			break
		}
		day, err := treatment.Between(first, date)
		if err != nil {
			return nil, fmt.Errorf("chemo cycles: %w", err)
		}
		ev := cal.AddEvent(fmt.Sprintf("chemo-%s-cycle-%d@medcalc", first, i+1))
		ev.SetDtStampTime(stamp)
		ev.SetSummary(fmt.Sprintf("Chemotherapy cycle %d: Day 1", i+1))
		ev.SetDescription(fmt.Sprintf("Treatment day %d counting from the first treatment on %s.", day, first))
		setAllDay(ev, date)
	}
	appLog.Debug("ics chemo cycles built", "first", first, "cycle_days", cycleDays, "count", len(cal.Events()))
	return cal, nil
}

func newCalendar(name string) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(name)
	return cal
}

// setAllDay marks ev as a single all-day event on d (DTEND is exclusive).
func setAllDay(ev *ical.VEvent, d dayoffset.CalendarDate) {
	ev.SetAllDayStartAt(d.Time(time.UTC))
	ev.SetAllDayEndAt(d.AddDays(1).Time(time.UTC))
}
