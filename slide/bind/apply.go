package bind

import (
	"fmt"

	"teamslide-backend/slide/model"
	"teamslide-backend/slide/pptx"
)

// Failure is a mutation that could not be applied.
type Failure struct {
	Slot  int
	Field string
	Shape string
	Err   error
}

func (f Failure) Error() string {
	return fmt.Sprintf("slot %d %s (shape %q): %v", f.Slot, f.Field, f.Shape, f.Err)
}

// Report summarises an applied plan.
type Report struct {
	Strategy StrategyKind
	Groups   int
	Applied  int
	Failures []Failure
}

// Bind detects the strategy for the first slide of template, builds and validates the plan
// and applies it. Records beyond the slot count are ignored.
func (b *Binder) Bind(template *pptx.Package, records []model.ConsultantRecord) (Report, error) {
	slide, err := template.Slide(0)
	if err != nil {
		return Report{}, err
	}
	width, height := template.Size()
	shapes := slide.Shapes()

	plan, err := b.Build(shapes, Layout{Width: width, Height: height}, records, Detect(shapes, b.rules))
	if err != nil {
		return Report{}, err
	}
	if err := plan.Validate(); err != nil {
		return Report{Strategy: plan.Strategy.Kind()}, err
	}
	return b.Apply(slide, plan), nil
}

// Apply performs the mutations of a validated plan. A failing mutation is recorded and the
// remaining mutations still run. Headshots are added before the placeholder they replace
// is removed, so a failed insert leaves the template picture in place.
func (b *Binder) Apply(slide *pptx.Slide, plan *Plan) Report {
	report := Report{Strategy: plan.Strategy.Kind(), Groups: plan.Groups}
	for _, m := range plan.Mutations {
		if err := b.apply(slide, m); err != nil {
			report.Failures = append(report.Failures, Failure{Slot: m.Slot, Field: m.Field, Shape: m.Target.Name, Err: err})
			continue
		}
		report.Applied++
	}
	return report
}

func (b *Binder) apply(slide *pptx.Slide, m Mutation) error {
	switch m.Op {
	case OpSetText:
		return slide.SetText(m.Target, m.Lines)
	case OpReplaceText:
		_, err := slide.ReplaceText(m.Target, m.Old, m.New)
		return err
	case OpReplaceLine:
		_, err := slide.ReplaceToken(m.Target, m.Line, m.Old, m.New)
		return err
	case OpReplaceImage:
		width := pixels(m.Target.Width, b.rules.HeadshotWidthPx)
		height := pixels(m.Target.Height, b.rules.HeadshotHeightPx)
		data := b.normalize(m.Image, width, height)
		if _, err := slide.AddPicture(data, m.Target.Rect, m.Target, fmt.Sprintf("Headshot %d", m.Slot+1)); err != nil {
			return fmt.Errorf("add picture: %w", err)
		}
		if err := slide.RemoveShape(m.Target); err != nil {
			return fmt.Errorf("remove placeholder: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown op %s", m.Op)
	}
}

func pixels(emu int64, fallback int) int {
	if emu <= 0 {
		return fallback
	}
	return max(int(emu/pptx.EMUsPerPixel), 1)
}
