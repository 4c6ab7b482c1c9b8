package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"medcalc/internal/coordinator"
	"medcalc/internal/dayoffset"
	appLog "medcalc/internal/log"
	"medcalc/internal/model"
)

type navItem struct {
	Path  string
	Label string
}

var navItems = []navItem{
	{"/", "Home"},
	{"/transplant", "Transplant"},
	{"/chemo", "Chemotherapy"},
	{"/links", "Resources"},
}

type featureCard struct {
	Path        string
	Title       string
	Description string
}

var featureCards = []featureCard{
	{"/transplant", model.Transplant.Title, "Calculate the number of days since your transplant procedure"},
	{"/chemo", model.Chemo.Title, "Track which day of your chemotherapy cycle you're on"},
	{"/links", "Helpful Resources", "Links to helpful medical resources and references"},
}

// pageTemplate is a parsed page and the template executed to render it.
type pageTemplate struct {
	tmpl *template.Template
	root string
}

// pageFiles lists the files of each page. Pages other than card are
// wrapped in the site layout; card renders bare for capture.
var pageFiles = map[string][]string{
	"home":       {"templates/layout.html", "templates/home.html"},
	"calculator": {"templates/layout.html", "templates/calculator.html"},
	"links":      {"templates/layout.html", "templates/links.html"},
	"card":       {"templates/card.html"},
	"error":      {"templates/layout.html", "templates/error.html"},
}

func parseTemplates(fsys fs.FS) (map[string]*pageTemplate, error) {
	out := make(map[string]*pageTemplate, len(pageFiles))
	for name, files := range pageFiles {
		t, err := template.ParseFS(fsys, files...)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		root := "layout"
		if len(files) == 1 {
			root = name
		}
		out[name] = &pageTemplate{tmpl: t, root: root}
	}
	return out, nil
}

// layoutData is shared by every page.
type layoutData struct {
	Title  string
	Active string
	Nav    []navItem
	Body   any
}

// render executes into a buffer first so a template error never produces
// a half-written page.
func (s *Server) render(w http.ResponseWriter, name, title, active string, body any) {
	var buf bytes.Buffer
	if err := s.execute(&buf, name, title, active, body); err != nil {
		appLog.Error("failed to render page", err, "page", name)
		s.renderError(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) execute(buf *bytes.Buffer, name, title, active string, body any) error {
	pt, ok := s.pages[name]
	if !ok {
		return fmt.Errorf("no template %q", name)
	}
	data := layoutData{Title: title, Active: active, Nav: navItems, Body: body}
	return pt.tmpl.ExecuteTemplate(buf, pt.root, data)
}

// renderError writes the "Something went wrong" page with status 500.
func (s *Server) renderError(w http.ResponseWriter) {
	var buf bytes.Buffer
	if err := s.execute(&buf, "error", "Something went wrong", "", nil); err != nil {
		appLog.Error("failed to render error page", err)
		http.Error(w, "Something went wrong. Please refresh the page.", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleHome(w http.ResponseWriter, _ *http.Request) {
	s.render(w, "home", "MedCalc", "/", featureCards)
}

type calculatorData struct {
	Page   model.CalculatorPage
	Start  string
	Target string
	View   coordinator.View
}

// handleCalculator serves one calculator page. Query parameters:
//   - start:  start date field text
//   - target: target date field text; when absent the field shows today
//   - set:    "today" or "tomorrow" overwrites the target field
func (s *Server) handleCalculator(page model.CalculatorPage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := s.coordinatorFor(page, r)
		s.render(w, "calculator", page.Title, "/"+page.Slug, calculatorData{
			Page:   page,
			Start:  c.Start(),
			Target: c.Target(),
			View:   c.View(),
		})
	}
}

// coordinatorFor builds a fresh coordinator from the request's field text.
func (s *Server) coordinatorFor(page model.CalculatorPage, r *http.Request) *coordinator.Coordinator {
	q := r.URL.Query()
	c := coordinator.New(page.Calculator(s.clock), s.clock)
	c.SetStart(q.Get("start"))
	if q.Has("target") {
		c.SetTarget(q.Get("target"))
	}
	switch q.Get("set") {
	case "today":
		_ = c.SetTargetToday()
	case "tomorrow":
		_ = c.SetTargetTomorrow()
	}
	return c
}

func (s *Server) handleLinks(w http.ResponseWriter, _ *http.Request) {
	s.render(w, "links", "Helpful Resources", "/links", s.cfg.Links)
}

type cardData struct {
	Page  model.CalculatorPage
	Start string
	Today string
	View  coordinator.View
}

// handleCard renders the day count for the configured card start date,
// sized for capture by internal/capture.
func (s *Server) handleCard(w http.ResponseWriter, _ *http.Request) {
	page, ok := model.PageBySlug(s.cfg.Card.Kind)
	if !ok {
		page = model.Transplant
	}
	c := coordinator.New(page.Calculator(s.clock), s.clock)
	c.SetStart(s.cfg.Card.StartDate)
	data := cardData{Page: page, Start: s.cfg.Card.StartDate, View: c.View()}
	if today := dayoffset.Parse(c.Target()); today.Kind == dayoffset.Valid {
		data.Today = today.Date.Time(nil).Format("Monday, January 2, 2006")
	}
	s.render(w, "card", page.Title, "", data)
}
