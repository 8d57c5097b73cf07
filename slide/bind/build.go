package bind

import (
	"fmt"
	"sort"
	"strings"

	"teamslide-backend/slide/imaging"
	"teamslide-backend/slide/model"
	"teamslide-backend/slide/pptx"
	"teamslide-backend/slide/rules"
)

// NormalizeFunc resizes headshot bytes to width x height pixels.
type NormalizeFunc func(data []byte, width, height int) []byte

// Binder builds and applies binding plans with a fixed rule set.
type Binder struct {
	rules     rules.Rules
	normalize NormalizeFunc
}

// Option configures a Binder.
type Option func(*Binder)

// WithNormalizer replaces the headshot normaliser.
func WithNormalizer(fn NormalizeFunc) Option {
	return func(b *Binder) {
		if fn != nil {
			b.normalize = fn
		}
	}
}

// New returns a binder for r.
func New(r rules.Rules, opts ...Option) *Binder {
	b := &Binder{rules: r, normalize: imaging.Normalize}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Layout is the slide geometry used for quadrant assignment.
type Layout struct {
	Width  int64
	Height int64
}

// Quadrant returns the slot of the quadrant holding the shape's top-left corner.
func (l Layout) Quadrant(sh *pptx.Shape) int {
	col, row := 0, 0
	if sh.Left >= l.Width/2 {
		col = 1
	}
	if sh.Top >= l.Height/2 {
		row = 1
	}
	return row*2 + col
}

// Build collects the mutations binding records onto the shapes of a template slide. At most
// rules.Slots records are bound; extra records are ignored.
func (b *Binder) Build(shapes []*pptx.Shape, layout Layout, records []model.ConsultantRecord, strategy Strategy) (*Plan, error) {
	if len(records) > b.rules.Slots {
		records = records[:b.rules.Slots]
	}
	plan := &Plan{Strategy: strategy, Slots: b.rules.Slots}
	claimed := make(map[*pptx.Shape]bool)

	switch s := strategy.(type) {
	case MarkerText:
		b.buildMarkerText(plan, shapes, records, s, claimed)
	case TemplateSubstring:
		b.buildTemplateSubstring(plan, shapes, layout, records, s, claimed)
	case OrdinalIndex:
		b.buildOrdinalIndex(plan, shapes, layout, records, claimed)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownStrategy, strategy)
	}
	b.buildExperience(plan, shapes, layout, records, claimed)
	return plan, nil
}

func (b *Binder) buildMarkerText(plan *Plan, shapes []*pptx.Shape, records []model.ConsultantRecord, s MarkerText, claimed map[*pptx.Shape]bool) {
	if len(s.Markers) == 0 {
		return
	}
	var markers []*pptx.Shape
	for _, sh := range shapes {
		if markerOf(sh, s.Markers) != "" {
			markers = append(markers, sh)
		}
	}
	sortByRank(markers)

	for g, run := range markerRuns(markers, s.Markers) {
		if len(run) != len(s.Markers) {
			continue
		}
		plan.Groups++
		if g >= len(records) {
			continue
		}
		for _, sh := range run {
			field, value := b.markerField(markerOf(sh, s.Markers), records[g])
			plan.Mutations = append(plan.Mutations, Mutation{
				Op: OpSetText, Slot: g, Field: field, Target: sh, Lines: []string{value},
			})
			claimed[sh] = true
		}
	}

	var pictures []*pptx.Shape
	for _, sh := range shapes {
		if !claimed[sh] && b.isImagePlaceholder(sh) {
			pictures = append(pictures, sh)
		}
	}
	sortByRank(pictures)
	for i, sh := range pictures {
		if i >= len(records) {
			break
		}
		b.addHeadshot(plan, i, sh, records[i], claimed)
	}
}

// markerRuns splits rank-sorted markers into one run per consultant group. The order in which
// each marker first appears is the group layout; a run ends when the next marker does not
// come later in that layout. A group missing a marker yields a short run, so later groups
// keep their position.
func markerRuns(markers []*pptx.Shape, names []string) [][]*pptx.Shape {
	layout := make(map[string]int, len(names))
	for _, sh := range markers {
		m := markerOf(sh, names)
		if _, ok := layout[m]; !ok {
			layout[m] = len(layout)
		}
	}

	var (
		runs    [][]*pptx.Shape
		current []*pptx.Shape
		last    = -1
	)
	for _, sh := range markers {
		pos := layout[markerOf(sh, names)]
		if len(current) > 0 && pos <= last {
			runs = append(runs, current)
			current = nil
		}
		current = append(current, sh)
		last = pos
	}
	if len(current) > 0 {
		runs = append(runs, current)
	}
	return runs
}

func (b *Binder) markerField(marker string, rec model.ConsultantRecord) (string, string) {
	switch marker {
	case b.rules.Markers.FirstName:
		return "first_name", rec.FirstName
	case b.rules.Markers.LastName:
		return "last_name", rec.LastName
	default:
		return "office", rec.Location
	}
}

func (b *Binder) isImagePlaceholder(sh *pptx.Shape) bool {
	if b.rules.ImageMarkerText != "" && strings.Contains(strings.ToLower(sh.Text), strings.ToLower(b.rules.ImageMarkerText)) {
		return true
	}
	return rules.ContainsAny(sh.Name, b.rules.ImageNameHints)
}

func (b *Binder) buildTemplateSubstring(plan *Plan, shapes []*pptx.Shape, layout Layout, records []model.ConsultantRecord, s TemplateSubstring, claimed map[*pptx.Shape]bool) {
	for i, rec := range records {
		if i >= len(s.Slots) {
			break
		}
		slot := s.Slots[i]
		if slot.Name == "" {
			continue
		}

		var names []Mutation
		quadrants := make(map[int]bool)
		for _, sh := range textShapes(shapes) {
			if strings.Contains(sh.Text, slot.Name) {
				names = append(names, Mutation{
					Op: OpReplaceText, Slot: i, Field: "name", Target: sh, Old: slot.Name, New: rec.Name,
				})
				claimed[sh] = true
				quadrants[layout.Quadrant(sh)] = true
			}
		}
		if len(quadrants) == 0 {
			continue
		}
		plan.Groups++

		// Office swaps go first so a new name is never rewritten by them.
		if slot.Office != "" && slot.Office != rec.Location {
			for _, sh := range textShapes(shapes) {
				if !quadrants[layout.Quadrant(sh)] || b.isExperience(sh) {
					continue
				}
				for n, line := range sh.Lines() {
					if b.isOfficeLine(line, slot.Office) {
						plan.Mutations = append(plan.Mutations, Mutation{
							Op: OpReplaceLine, Slot: i, Field: "office", Target: sh, Line: n, Old: slot.Office, New: rec.Location,
						})
						claimed[sh] = true
					}
				}
			}
		}
		plan.Mutations = append(plan.Mutations, names...)
	}
	b.buildQuadrantPictures(plan, shapes, layout, records, claimed)
}

// isOfficeLine reports whether line is a role/office line such as "Sr Consultant, Zurich"
// carrying office as a whole token.
func (b *Binder) isOfficeLine(line, office string) bool {
	if !pptx.ContainsWord(line, office) {
		return false
	}
	return b.rules.IsRoleLine(line) || strings.Contains(line, ", "+office)
}

func (b *Binder) buildOrdinalIndex(plan *Plan, shapes []*pptx.Shape, layout Layout, records []model.ConsultantRecord, claimed map[*pptx.Shape]bool) {
	byQuadrant := make(map[int][]*pptx.Shape)
	for _, sh := range textShapes(shapes) {
		if b.isExperience(sh) || sh.Width > layout.Width/2 {
			continue
		}
		q := layout.Quadrant(sh)
		byQuadrant[q] = append(byQuadrant[q], sh)
	}

	for slot, rec := range records {
		group := byQuadrant[slot]
		if len(group) == 0 {
			continue
		}
		plan.Groups++
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].Top != group[j].Top {
				return group[i].Top < group[j].Top
			}
			return group[i].Left < group[j].Left
		})

		fields := []struct {
			name  string
			lines []string
		}{
			{name: "name", lines: []string{rec.Name}},
			{name: "role_location", lines: rec.RoleLocationLines()},
			{name: "experience", lines: rec.ExperienceLines()},
		}
		for i, sh := range group {
			if i >= len(fields) {
				break
			}
			plan.Mutations = append(plan.Mutations, Mutation{
				Op: OpSetText, Slot: slot, Field: fields[i].name, Target: sh, Lines: fields[i].lines,
			})
			claimed[sh] = true
		}
	}
	b.buildQuadrantPictures(plan, shapes, layout, records, claimed)
}

func (b *Binder) buildQuadrantPictures(plan *Plan, shapes []*pptx.Shape, layout Layout, records []model.ConsultantRecord, claimed map[*pptx.Shape]bool) {
	best := make(map[int]*pptx.Shape)
	for _, sh := range shapes {
		if sh.Kind != pptx.KindImage || claimed[sh] {
			continue
		}
		q := layout.Quadrant(sh)
		if current, ok := best[q]; !ok || rank(sh) < rank(current) {
			best[q] = sh
		}
	}
	for slot, rec := range records {
		if sh, ok := best[slot]; ok {
			b.addHeadshot(plan, slot, sh, rec, claimed)
		}
	}
}

func (b *Binder) addHeadshot(plan *Plan, slot int, sh *pptx.Shape, rec model.ConsultantRecord, claimed map[*pptx.Shape]bool) {
	if !rec.HasHeadshot() || sh.Width <= 0 || sh.Height <= 0 {
		return
	}
	plan.Mutations = append(plan.Mutations, Mutation{
		Op: OpReplaceImage, Slot: slot, Field: "headshot", Target: sh, Image: rec.Headshot,
	})
	claimed[sh] = true
}

func (b *Binder) buildExperience(plan *Plan, shapes []*pptx.Shape, layout Layout, records []model.ConsultantRecord, claimed map[*pptx.Shape]bool) {
	for _, sh := range textShapes(shapes) {
		if claimed[sh] || !b.isExperience(sh) {
			continue
		}
		slot := layout.Quadrant(sh)
		if slot >= len(records) {
			continue
		}
		plan.Mutations = append(plan.Mutations, Mutation{
			Op: OpSetText, Slot: slot, Field: "experience", Target: sh, Lines: records[slot].ExperienceLines(),
		})
		claimed[sh] = true
	}
}

func (b *Binder) isExperience(sh *pptx.Shape) bool {
	return rules.ContainsAny(sh.Text, []string{strings.ToLower(b.rules.ExperienceAnchor)})
}

func textShapes(shapes []*pptx.Shape) []*pptx.Shape {
	out := make([]*pptx.Shape, 0, len(shapes))
	for _, sh := range shapes {
		if sh.Kind == pptx.KindText {
			out = append(out, sh)
		}
	}
	return out
}

func rank(sh *pptx.Shape) int64 {
	return sh.Top + sh.Left
}

func sortByRank(shapes []*pptx.Shape) {
	sort.SliceStable(shapes, func(i, j int) bool {
		return rank(shapes[i]) < rank(shapes[j])
	})
}
