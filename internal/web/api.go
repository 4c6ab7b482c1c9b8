package web

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	ical "github.com/arran4/golang-ical"

	"medcalc/internal/clock"
	"medcalc/internal/coordinator"
	"medcalc/internal/dayoffset"
	"medcalc/internal/ics"
	appLog "medcalc/internal/log"
	"medcalc/internal/model"
)

type calculateResponse struct {
	Kind    string `json:"kind"`
	Start   string `json:"start"`
	Target  string `json:"target"`
	State   string `json:"state"`
	Offset  *int   `json:"offset,omitempty"`
	Unit    string `json:"unit,omitempty"`
	Label   string `json:"label,omitempty"`
	Message string `json:"message,omitempty"`
	Notice  string `json:"notice,omitempty"`
}

// handleCalculate is the JSON form of the calculator pages.
//
//	GET /api/calculate?kind=transplant&start=2026-02-15&target=2026-02-22
func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	page, ok := model.PageBySlug(kind)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown kind %q", kind))
		return
	}
	c := s.coordinatorFor(page, r)
	v := c.View()
	resp := calculateResponse{
		Kind:    page.Slug,
		Start:   c.Start(),
		Target:  c.Target(),
		State:   v.State.String(),
		Message: v.Message,
		Notice:  v.Notice,
	}
	if v.State == coordinator.Result {
		offset := v.Offset
		resp.Offset = &offset
		resp.Unit = v.Unit
		resp.Label = v.Label()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleTransplantICS exports milestone days after a transplant.
//
//	GET /api/transplant.ics?start=2026-02-15&days=7,14,100
func (s *Server) handleTransplantICS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := dayoffset.ParseDate(q.Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "start: "+err.Error())
		return
	}
	days := s.cfg.Milestones
	if raw := q.Get("days"); raw != "" {
		days, err = parseDayList(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "days: "+err.Error())
			return
		}
	}
	now, err := clock.Now(s.clock)
	if err != nil {
		appLog.Error("failed to read clock for DTSTAMP", err)
		writeError(w, http.StatusInternalServerError, "clock unavailable")
		return
	}
	cal, err := ics.Milestones(start, days, now)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeCalendar(w, "transplant-"+start.String()+".ics", cal)
}

// handleChemoICS exports the first day of each treatment cycle.
//
//	GET /api/chemo.ics?start=2026-02-15&cycle_days=21&cycles=6
func (s *Server) handleChemoICS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	first, err := dayoffset.ParseDate(q.Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "start: "+err.Error())
		return
	}
	cycleDays, err := parseIntParam("cycle_days", q.Get("cycle_days"), s.cfg.Chemo.CycleDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cycles, err := parseIntParam("cycles", q.Get("cycles"), s.cfg.Chemo.Cycles)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	now, err := clock.Now(s.clock)
	if err != nil {
		appLog.Error("failed to read clock for DTSTAMP", err)
		writeError(w, http.StatusInternalServerError, "clock unavailable")
		return
	}
	cal, err := ics.ChemoCycles(first, cycleDays, cycles, now)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeCalendar(w, "chemo-"+first.String()+".ics", cal)
}

func writeCalendar(w http.ResponseWriter, filename string, cal *ical.Calendar) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		appLog.Error("failed to write calendar", err, "file", filename)
	}
}

func parseDayList(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid day %q", p)
		}
		out = append(out, n)
	}
	return out, nil
}
