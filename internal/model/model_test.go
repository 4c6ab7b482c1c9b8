package model

import (
	"testing"
	"time"

	"medcalc/internal/clock"
	"medcalc/internal/dayoffset"
)

func TestPageBySlug(t *testing.T) {
	for _, slug := range []string{"transplant", "chemo"} {
		p, ok := PageBySlug(slug)
		if !ok || p.Slug != slug {
			t.Errorf("PageBySlug(%q) = %+v, %v", slug, p, ok)
		}
	}
	if _, ok := PageBySlug("links"); ok {
		t.Errorf("PageBySlug(links) should not match a calculator")
	}
}

func TestPageCalculators(t *testing.T) {
	now := clock.Fixed(time.Date(2026, 2, 22, 12, 0, 0, 0, time.UTC))
	start, _ := dayoffset.ParseDate("2026-02-15")
	for _, tt := range []struct {
		page CalculatorPage
		want int
	}{
		{Transplant, 7},
		{Chemo, 8},
	} {
		got, err := tt.page.Calculator(now).Offset(start)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("%s: got %d, want %d", tt.page.Slug, got, tt.want)
		}
	}
}

func TestDefaultLinks(t *testing.T) {
	cats := DefaultLinks()
	if len(cats) != 3 {
		t.Fatalf("got %d categories, want 3", len(cats))
	}
	seen := map[string]bool{}
	for _, c := range cats {
		if len(c.Links) != 3 {
			t.Errorf("%s: got %d links, want 3", c.Name, len(c.Links))
		}
		for _, l := range c.Links {
			if seen[l.URL] {
				t.Errorf("duplicate link %s", l.URL)
			}
			seen[l.URL] = true
		}
	}
}
