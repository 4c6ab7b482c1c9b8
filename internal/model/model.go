package model

import (
	"medcalc/internal/clock"
	"medcalc/internal/dayoffset"
)

// CalculatorPage describes one day-count calculator page. Mode decides
// whether the start date counts as day 0 or day 1.
type CalculatorPage struct {
	Slug        string
	Title       string
	Description string

	StartLabel  string
	TargetLabel string
	ResultLabel string

	Mode dayoffset.Mode
}

// Transplant counts days since a transplant procedure (day of procedure = day 0).
var Transplant = CalculatorPage{
	Slug:        "transplant",
	Title:       "Transplant Day Calculator",
	Description: "Calculate the number of days since your transplant procedure.",
	StartLabel:  "Transplant date",
	TargetLabel: "Target date",
	ResultLabel: "Days since transplant",
	Mode:        dayoffset.ZeroBased,
}

// Chemo counts the day of a chemotherapy cycle (first treatment = day 1).
var Chemo = CalculatorPage{
	Slug:        "chemo",
	Title:       "Chemotherapy Day Calculator",
	Description: "Track which day of your chemotherapy cycle you're on.",
	StartLabel:  "First chemotherapy date",
	TargetLabel: "Target date",
	ResultLabel: "Chemotherapy day",
	Mode:        dayoffset.OneBased,
}

// Calculator returns the calculator for p bound to clk.
func (p CalculatorPage) Calculator(clk clock.Clock) dayoffset.Calculator {
	return dayoffset.Calculator{Mode: p.Mode, Clock: clk}
}

// Pages lists the calculators in navigation order.
var Pages = []CalculatorPage{Transplant, Chemo}

// PageBySlug returns the calculator registered under slug.
func PageBySlug(slug string) (CalculatorPage, bool) {
	for _, p := range Pages {
		if p.Slug == slug {
			return p, true
		}
	}
	return CalculatorPage{}, false
}

// Link is a single external resource in the links directory.
type Link struct {
	Title       string `yaml:"title" json:"title"`
	URL         string `yaml:"url" json:"url"`
	Description string `yaml:"description" json:"description"`
}

// LinkCategory groups links under a heading.
type LinkCategory struct {
	Name  string `yaml:"name" json:"name"`
	Links []Link `yaml:"links" json:"links"`
}

// DefaultLinks returns the built-in resource directory.
func DefaultLinks() []LinkCategory {
	return []LinkCategory{
		{
			Name: "Transplant Resources",
			Links: []Link{
				{"National Marrow Donor Program", "https://www.nmdp.org/", "Information about bone marrow and stem cell transplantation"},
				{"Blood and Marrow Transplant Information Network", "https://www.bmtinfonet.org/", "Patient resources and support for transplant recipients"},
				{"Leukemia & Lymphoma Society", "https://www.lls.org/", "Support and education for blood cancer patients"},
			},
		},
		{
			Name: "Chemotherapy Resources",
			Links: []Link{
				{"National Cancer Institute", "https://www.cancer.gov/", "Comprehensive cancer information and treatment guidelines"},
				{"American Cancer Society", "https://www.cancer.org/", "Cancer information, support, and resources"},
				{"CancerCare", "https://www.cancercare.org/", "Free support and assistance for cancer patients"},
			},
		},
		{
			Name: "General Medical",
			Links: []Link{
				{"PubMed", "https://pubmed.ncbi.nlm.nih.gov/", "Database of biomedical literature"},
				{"Medline Plus", "https://medlineplus.gov/", "Consumer health information from the National Library of Medicine"},
				{"Mayo Clinic", "https://www.mayoclinic.org/", "Medical information and patient resources"},
			},
		},
	}
}
