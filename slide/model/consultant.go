package model

import (
	"strings"

	"teamslide-backend/slide/rules"
)

// BulletCount is the number of experience bullets every record carries.
const BulletCount = 3

// ConsultantRecord is the extracted (or defaulted) data for one team slide slot.
type ConsultantRecord struct {
	Name            string              `json:"name"`
	FirstName       string              `json:"firstName"`
	LastName        string              `json:"lastName"`
	Role            string              `json:"role"`
	Location        string              `json:"location"`
	YearsExperience string              `json:"yearsExperience"`
	Bullets         [BulletCount]string `json:"bullets"`
	Headshot        []byte              `json:"-"`
	Source          string              `json:"source,omitempty"`
	Defaulted       bool                `json:"defaulted"`
}

// Fields are the raw values an extractor found. Empty values are defaulted by New.
type Fields struct {
	ProvidedName    string
	FirstName       string
	LastName        string
	Role            string
	Location        string
	YearsExperience string
	Bullets         []string
	Headshot        []byte
	Source          string
}

// New builds a record from extracted fields, applying the per-field defaults.
func New(f Fields, d rules.Defaults) ConsultantRecord {
	rec := ConsultantRecord{
		FirstName:       strings.TrimSpace(f.FirstName),
		LastName:        strings.TrimSpace(f.LastName),
		Role:            strings.TrimSpace(f.Role),
		Location:        strings.TrimSpace(f.Location),
		YearsExperience: strings.TrimSpace(f.YearsExperience),
		Headshot:        f.Headshot,
		Source:          f.Source,
	}

	if rec.FirstName == "" && rec.LastName == "" {
		rec.FirstName, rec.LastName = SplitName(f.ProvidedName)
	}
	rec.Name = strings.TrimSpace(rec.FirstName + " " + rec.LastName)
	if rec.Name == "" {
		rec.Name = strings.TrimSpace(f.ProvidedName)
	}

	if rec.Role == "" {
		rec.Role = d.Role
	}
	if rec.Location == "" {
		rec.Location = d.Location
	}
	if rec.YearsExperience == "" {
		rec.YearsExperience = d.DefaultYearsPhrase()
	}
	rec.Bullets = PadBullets(f.Bullets, d.Filler)
	return rec
}

// Placeholder returns the all-default record used when no CV could be read.
func Placeholder(name string, d rules.Defaults) ConsultantRecord {
	rec := New(Fields{ProvidedName: name}, d)
	rec.Defaulted = true
	return rec
}

// PadBullets truncates to BulletCount entries and pads short input with filler.
func PadBullets(in []string, filler string) [BulletCount]string {
	var out [BulletCount]string
	n := 0
	for _, b := range in {
		if n == BulletCount {
			break
		}
		if b = strings.TrimSpace(b); b == "" {
			continue
		}
		out[n] = b
		n++
	}
	for ; n < BulletCount; n++ {
		out[n] = filler
	}
	return out
}

// SplitName splits a display name into first name (first token) and last name (the rest).
func SplitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

// HasHeadshot reports whether the record carries photo bytes.
func (c ConsultantRecord) HasHeadshot() bool {
	return len(c.Headshot) > 0
}

// ExperienceLines returns the years phrase lines followed by the bullets.
func (c ConsultantRecord) ExperienceLines() []string {
	lines := strings.Split(c.YearsExperience, "\n")
	return append(lines, c.Bullets[:]...)
}

// RoleLocationLines returns role and location as separate lines.
func (c ConsultantRecord) RoleLocationLines() []string {
	return []string{c.Role, c.Location}
}
