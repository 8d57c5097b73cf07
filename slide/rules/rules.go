// Package rules holds the keyword tables, placeholder markers and field defaults shared by
// every stage of the team slide pipeline. A Rules value is built once at startup and treated
// as read-only afterwards.
package rules

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Markers are the literal placeholder texts of a marker-text template.
type Markers struct {
	FirstName string `yaml:"firstName"`
	LastName  string `yaml:"lastName"`
	Office    string `yaml:"office"`
}

// Ordered returns the markers in the order a consultant group lists them.
func (m Markers) Ordered() []string {
	return []string{m.FirstName, m.LastName, m.Office}
}

// TemplateSlot names the placeholder person printed in one slot of an exact-format template.
type TemplateSlot struct {
	Name   string `yaml:"name"`
	Office string `yaml:"office"`
}

// Defaults are the per-field fallbacks applied when extraction finds nothing.
type Defaults struct {
	Role          string `yaml:"role"`
	Location      string `yaml:"location"`
	Years         int    `yaml:"years"`
	YearsTemplate string `yaml:"yearsTemplate"`
	Filler        string `yaml:"filler"`
}

// YearsPhrase renders the years-of-experience phrase for the given count.
func (d Defaults) YearsPhrase(years string) string {
	return strings.ReplaceAll(d.YearsTemplate, "{years}", years)
}

// DefaultYearsPhrase renders the phrase used when no years pattern was found.
func (d Defaults) DefaultYearsPhrase() string {
	return d.YearsPhrase(fmt.Sprintf("%d", d.Years))
}

// Rules is the immutable configuration record passed to each pipeline stage.
type Rules struct {
	RoleKeywords       []string       `yaml:"roleKeywords"`
	OfficeCities       []string       `yaml:"officeCities"`
	LocationWords      []string       `yaml:"locationWords"`
	ExperienceHeaders  []string       `yaml:"experienceHeaders"`
	InstructionMarkers []string       `yaml:"instructionMarkers"`
	DegreeKeywords     []string       `yaml:"degreeKeywords"`
	BulletGlyphs       []string       `yaml:"bulletGlyphs"`
	Markers            Markers        `yaml:"markers"`
	ImageMarkerText    string         `yaml:"imageMarkerText"`
	ImageNameHints     []string       `yaml:"imageNameHints"`
	ExperienceAnchor   string         `yaml:"experienceAnchor"`
	TemplateSlots      []TemplateSlot `yaml:"templateSlots"`
	Defaults           Defaults       `yaml:"defaults"`
	ExampleNames       []string       `yaml:"exampleNames"`
	Slots              int            `yaml:"slots"`
	HeadshotWidthPx    int            `yaml:"headshotWidthPx"`
	HeadshotHeightPx   int            `yaml:"headshotHeightPx"`
	MinBulletLength    int            `yaml:"minBulletLength"`
	MaxLocationLength  int            `yaml:"maxLocationLength"`
	MaxRoleLength      int            `yaml:"maxRoleLength"`
	MaxNameSegment     int            `yaml:"maxNameSegment"`
}

// Default returns the built-in rule set.
func Default() Rules {
	return Rules{
		RoleKeywords: []string{"consultant", "manager", "director", "analyst", "partner"},
		OfficeCities: []string{
			"zurich", "geneva", "basel", "bern", "munich", "berlin", "frankfurt", "hamburg",
			"dusseldorf", "düsseldorf", "cologne", "stuttgart", "vienna", "london", "paris",
			"new york", "amsterdam", "milan", "madrid", "stockholm", "copenhagen", "warsaw",
		},
		LocationWords:      []string{"position", "office", "location"},
		ExperienceHeaders:  []string{"consulting engagement experience", "consulting experience"},
		InstructionMarkers: []string{"take 3 bullet", "take "},
		DegreeKeywords: []string{
			"university", "universität", "college", "school", "institute", "academy",
			"bachelor", "master", "mba", "phd", "ph.d", "msc", "m.sc", "bsc", "b.sc",
			"degree", "diploma",
		},
		BulletGlyphs: []string{"•", "-", "▪", "◦", "→", "–"},
		Markers: Markers{
			FirstName: "First Name",
			LastName:  "Last Name",
			Office:    "Office",
		},
		ImageMarkerText:  "replace picture",
		ImageNameHints:   []string{"replace", "picture"},
		ExperienceAnchor: "years of consulting",
		TemplateSlots: []TemplateSlot{
			{Name: "Max Mustermann", Office: "Zurich"},
			{Name: "Erika Musterfrau", Office: "Munich"},
			{Name: "John Doe", Office: "Vienna"},
			{Name: "Jane Roe", Office: "Berlin"},
		},
		Defaults: Defaults{
			Role:          "Senior Consultant",
			Location:      "Global",
			Years:         3,
			YearsTemplate: "{years}+ years of consulting\nexperience, including:",
			Filler:        "Delivered strategic consulting engagements for leading clients",
		},
		ExampleNames:      []string{"Caledonia Trapp", "Benjamin Reinitzer", "Benedict Wolske", "Gregor Ledebur"},
		Slots:             4,
		HeadshotWidthPx:   400,
		HeadshotHeightPx:  500,
		MinBulletLength:   20,
		MaxLocationLength: 100,
		MaxRoleLength:     100,
		MaxNameSegment:    50,
	}
}

// Load overlays the YAML file at path onto the defaults. An empty path or a missing file
// yields the defaults unchanged.
func Load(path string) (Rules, error) {
	r := Default()
	if strings.TrimSpace(path) == "" {
		return r, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return r, nil
		}
		return Rules{}, fmt.Errorf("read rules %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rules{}, fmt.Errorf("parse rules %s: %w", path, err)
	}
	if err := r.Validate(); err != nil {
		return Rules{}, fmt.Errorf("rules %s: %w", path, err)
	}
	return r, nil
}

// Validate rejects rule sets the pipeline cannot operate with.
func (r Rules) Validate() error {
	if r.Slots < 1 {
		return errors.New("slots must be at least 1")
	}
	for _, m := range r.Markers.Ordered() {
		if strings.TrimSpace(m) == "" {
			return errors.New("markers must be non-empty")
		}
	}
	if strings.TrimSpace(r.Defaults.Filler) == "" {
		return errors.New("defaults.filler is required")
	}
	if strings.TrimSpace(r.Defaults.Role) == "" || strings.TrimSpace(r.Defaults.Location) == "" {
		return errors.New("defaults.role and defaults.location are required")
	}
	if !strings.Contains(r.Defaults.YearsTemplate, "{years}") {
		return errors.New("defaults.yearsTemplate must contain {years}")
	}
	if strings.TrimSpace(r.ExperienceAnchor) == "" {
		return errors.New("experienceAnchor is required")
	}
	return nil
}

// IsRoleLine reports whether text mentions one of the role titles.
func (r Rules) IsRoleLine(text string) bool {
	return ContainsAny(text, r.RoleKeywords)
}

// IsCityLine reports whether text mentions one of the office cities.
func (r Rules) IsCityLine(text string) bool {
	return ContainsAny(text, r.OfficeCities)
}

// ContainsAny reports whether text contains any keyword, ignoring case.
func ContainsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
