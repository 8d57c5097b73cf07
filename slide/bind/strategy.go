// Package bind maps consultant records onto the placeholder shapes of a team slide template.
//
// Binding runs in two phases. Build inspects the template and collects every text and image
// substitution into a Plan without touching the slide; Validate checks the plan as a whole;
// Apply then performs the mutations, recording per-mutation failures instead of stopping.
package bind

import (
	"strings"

	"teamslide-backend/slide/pptx"
	"teamslide-backend/slide/rules"
)

// StrategyKind names a binding strategy.
type StrategyKind int

const (
	KindMarkerText StrategyKind = iota
	KindTemplateSubstring
	KindOrdinalIndex
)

func (k StrategyKind) String() string {
	switch k {
	case KindMarkerText:
		return "marker_text"
	case KindTemplateSubstring:
		return "template_substring"
	case KindOrdinalIndex:
		return "ordinal_index"
	default:
		return "unknown"
	}
}

// Strategy is one of MarkerText, TemplateSubstring or OrdinalIndex.
type Strategy interface {
	Kind() StrategyKind
	strategy()
}

// MarkerText binds shapes whose whole text is a literal marker such as "First Name".
type MarkerText struct {
	Markers []string
}

// TemplateSubstring binds shapes containing the name of a known placeholder person.
type TemplateSubstring struct {
	Slots []rules.TemplateSlot
}

// OrdinalIndex binds text shapes by their order within each slide quadrant.
type OrdinalIndex struct{}

func (MarkerText) Kind() StrategyKind        { return KindMarkerText }
func (TemplateSubstring) Kind() StrategyKind { return KindTemplateSubstring }
func (OrdinalIndex) Kind() StrategyKind      { return KindOrdinalIndex }

func (MarkerText) strategy()        {}
func (TemplateSubstring) strategy() {}
func (OrdinalIndex) strategy()      {}

// Detect picks the strategy for a template by inspecting its shapes once.
func Detect(shapes []*pptx.Shape, r rules.Rules) Strategy {
	markers := r.Markers.Ordered()
	for _, sh := range shapes {
		if markerOf(sh, markers) != "" {
			return MarkerText{Markers: markers}
		}
	}
	for _, sh := range shapes {
		for _, slot := range r.TemplateSlots {
			if slot.Name != "" && strings.Contains(sh.Text, slot.Name) {
				return TemplateSubstring{Slots: r.TemplateSlots}
			}
		}
	}
	return OrdinalIndex{}
}

func markerOf(sh *pptx.Shape, markers []string) string {
	if sh.Kind != pptx.KindText {
		return ""
	}
	text := strings.TrimSpace(sh.Text)
	for _, m := range markers {
		if text == m {
			return m
		}
	}
	return ""
}
