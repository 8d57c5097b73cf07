package bind

import (
	"errors"
	"fmt"

	"teamslide-backend/slide/pptx"
)

var (
	ErrInvalidPlan     = errors.New("invalid binding plan")
	ErrUnknownStrategy = errors.New("unknown binding strategy")
)

// Op is the kind of change a mutation makes.
type Op int

const (
	OpSetText Op = iota
	OpReplaceText
	OpReplaceLine
	OpReplaceImage
)

func (o Op) String() string {
	switch o {
	case OpSetText:
		return "set_text"
	case OpReplaceText:
		return "replace_text"
	case OpReplaceLine:
		return "replace_line"
	case OpReplaceImage:
		return "replace_image"
	default:
		return "unknown"
	}
}

// Mutation is one pending change to a template shape.
type Mutation struct {
	Op     Op
	Slot   int
	Field  string
	Target *pptx.Shape
	Lines  []string
	Line   int
	Old    string
	New    string
	Image  []byte
}

// Plan is the full set of mutations for one generation.
type Plan struct {
	Strategy  Strategy
	Slots     int
	Groups    int
	Mutations []Mutation
}

// Validate checks every mutation and rejects shapes with conflicting writers. Nothing is
// mutated when validation fails.
func (p *Plan) Validate() error {
	var errs []error
	exclusive := make(map[*pptx.Shape]int)
	replacements := make(map[*pptx.Shape]map[string]int)

	for i, m := range p.Mutations {
		if m.Target == nil {
			errs = append(errs, fmt.Errorf("mutation %d (%s): no target shape", i, m.Field))
			continue
		}
		if m.Slot < 0 || m.Slot >= p.Slots {
			errs = append(errs, fmt.Errorf("mutation %d (%s): slot %d out of range", i, m.Field, m.Slot))
		}

		switch m.Op {
		case OpSetText:
			if len(m.Lines) == 0 {
				errs = append(errs, fmt.Errorf("mutation %d (%s): no lines", i, m.Field))
			}
			if !m.Target.HasTextBody() {
				errs = append(errs, fmt.Errorf("mutation %d (%s): shape %q has no text body", i, m.Field, m.Target.Name))
			}
		case OpReplaceText, OpReplaceLine:
			if m.Old == "" {
				errs = append(errs, fmt.Errorf("mutation %d (%s): empty search text", i, m.Field))
			}
			if !m.Target.HasTextBody() {
				errs = append(errs, fmt.Errorf("mutation %d (%s): shape %q has no text body", i, m.Field, m.Target.Name))
			}
		case OpReplaceImage:
			if len(m.Image) == 0 {
				errs = append(errs, fmt.Errorf("mutation %d (%s): no image data", i, m.Field))
			}
			if m.Target.Width <= 0 || m.Target.Height <= 0 {
				errs = append(errs, fmt.Errorf("mutation %d (%s): shape %q has no frame", i, m.Field, m.Target.Name))
			}
		default:
			errs = append(errs, fmt.Errorf("mutation %d: unknown op %d", i, m.Op))
			continue
		}

		if m.Op == OpReplaceText || m.Op == OpReplaceLine {
			if _, ok := replacements[m.Target]; !ok {
				replacements[m.Target] = make(map[string]int)
			}
			key := m.Old
			if m.Op == OpReplaceLine {
				key = fmt.Sprintf("line %d: %s", m.Line, m.Old)
			}
			replacements[m.Target][key]++
		} else {
			exclusive[m.Target]++
		}
	}

	for target, n := range exclusive {
		if n > 1 || (n == 1 && len(replacements[target]) > 0) {
			errs = append(errs, fmt.Errorf("shape %q has conflicting writers", target.Name))
		}
	}
	for target, olds := range replacements {
		for old, n := range olds {
			if n > 1 {
				errs = append(errs, fmt.Errorf("shape %q replaces %q more than once", target.Name, old))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPlan, errors.Join(errs...))
	}
	return nil
}

// Count returns the number of mutations of the given op.
func (p *Plan) Count(op Op) int {
	n := 0
	for _, m := range p.Mutations {
		if m.Op == op {
			n++
		}
	}
	return n
}
