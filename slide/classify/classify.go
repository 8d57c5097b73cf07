// Package classify labels the shapes of a CV slide as headshot, name block or experience
// block using an ordered rule table. The first rule that matches an element decides its
// category; each category then keeps one element according to its selection policy.
package classify

import (
	"teamslide-backend/slide/rules"
)

// Element is the read-only view of a positioned shape the classifier needs.
type Element interface {
	Position() (top, left int64)
	TextContent() string
	HasImage() bool
}

// Category is the label assigned to an element.
type Category int

const (
	Unrelated Category = iota
	Headshot
	NameBlock
	Experience
)

func (c Category) String() string {
	switch c {
	case Headshot:
		return "headshot"
	case NameBlock:
		return "name_block"
	case Experience:
		return "experience"
	default:
		return "unrelated"
	}
}

// Selection decides which element wins when several share a category.
type Selection int

const (
	// LowestRank keeps the element with the smallest top+left.
	LowestRank Selection = iota
	// FirstSeen keeps the first element in slide order.
	FirstSeen
)

// Rule is one row of the classification table.
type Rule struct {
	Name     string
	Category Category
	Match    func(Element) bool
}

// Result holds the chosen element per category. Missing categories are nil.
type Result struct {
	Headshot   Element
	NameBlock  Element
	Experience Element
}

// Classifier evaluates the rule table against slide elements.
type Classifier struct {
	table     []Rule
	selection map[Category]Selection
}

// New builds the classifier for r.
func New(r rules.Rules) *Classifier {
	return &Classifier{
		table: []Rule{
			{
				Name:     "image payload",
				Category: Headshot,
				Match:    func(e Element) bool { return e.HasImage() },
			},
			{
				Name:     "experience header",
				Category: Experience,
				Match: func(e Element) bool {
					return rules.ContainsAny(e.TextContent(), r.ExperienceHeaders)
				},
			},
			{
				Name:     "role, city or location keyword",
				Category: NameBlock,
				Match: func(e Element) bool {
					text := e.TextContent()
					return r.IsRoleLine(text) || r.IsCityLine(text) || rules.ContainsAny(text, r.LocationWords)
				},
			},
		},
		selection: map[Category]Selection{
			Headshot:   LowestRank,
			NameBlock:  LowestRank,
			Experience: FirstSeen,
		},
	}
}

// Rules returns a copy of the rule table in evaluation order.
func (c *Classifier) Rules() []Rule {
	return append([]Rule(nil), c.table...)
}

// Categorize returns the category of the first rule matching e.
func (c *Classifier) Categorize(e Element) Category {
	for _, rule := range c.table {
		if rule.Match(e) {
			return rule.Category
		}
	}
	return Unrelated
}

// Classify labels every element once and selects one element per category.
func (c *Classifier) Classify(elements []Element) Result {
	chosen := make(map[Category]Element, 3)
	for _, e := range elements {
		if e == nil {
			continue
		}
		category := c.Categorize(e)
		if category == Unrelated {
			continue
		}
		current, ok := chosen[category]
		if !ok {
			chosen[category] = e
			continue
		}
		if c.selection[category] == LowestRank && rank(e) < rank(current) {
			chosen[category] = e
		}
	}
	return Result{
		Headshot:   chosen[Headshot],
		NameBlock:  chosen[NameBlock],
		Experience: chosen[Experience],
	}
}

// Elements adapts a slice of concrete shapes to the Element interface.
func Elements[T Element](in []T) []Element {
	out := make([]Element, len(in))
	for i, e := range in {
		out[i] = e
	}
	return out
}

func rank(e Element) int64 {
	top, left := e.Position()
	return top + left
}
