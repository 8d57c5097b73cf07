package pptx

import (
	"strconv"
	"strings"
)

// Kind classifies a shape by what it carries.
type Kind int

const (
	KindOther Kind = iota
	KindText
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	default:
		return "other"
	}
}

// MarshalText renders the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Rect is a shape frame in EMUs.
type Rect struct {
	Left   int64 `json:"left"`
	Top    int64 `json:"top"`
	Width  int64 `json:"width"`
	Height int64 `json:"height"`
}

// Shape is a snapshot of one drawable element of a slide. Group members are reported as
// individual shapes. Placeholders that inherit their frame from the layout report a zero Rect.
type Shape struct {
	Rect
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Kind        Kind   `json:"kind"`
	Text        string `json:"text,omitempty"`
	Image       []byte `json:"-"`
	ImagePart   string `json:"imagePart,omitempty"`

	node   *Node
	parent *Node
}

// Position returns the top and left offsets.
func (s *Shape) Position() (int64, int64) {
	return s.Top, s.Left
}

// TextContent returns the paragraphs of the shape joined by newlines.
func (s *Shape) TextContent() string {
	return s.Text
}

// HasImage reports whether the shape resolves to embedded image bytes.
func (s *Shape) HasImage() bool {
	return len(s.Image) > 0
}

// HasTextBody reports whether the shape can hold text.
func (s *Shape) HasTextBody() bool {
	return child(s.node, "txBody") != nil
}

// Lines returns the text of each paragraph.
func (s *Shape) Lines() []string {
	if s.Text == "" {
		return nil
	}
	return strings.Split(s.Text, "\n")
}

// Slide is one slide part of a package.
type Slide struct {
	Index int
	Path  string

	pkg       *Package
	doc       *document
	rels      *document
	relsPath  string
	dirty     bool
	relsDirty bool
}

// Shapes returns a fresh snapshot of the slide's shapes in document order.
func (s *Slide) Shapes() []*Shape {
	tree := s.shapeTree()
	var out []*Shape
	s.collect(tree, &out)
	return out
}

func (s *Slide) shapeTree() *Node {
	return descend(s.doc.root, "cSld", "spTree")
}

func (s *Slide) collect(parent *Node, out *[]*Shape) {
	for _, c := range parent.Children {
		switch {
		case isElement(c, "grpSp"):
			s.collect(c, out)
		case isElement(c, "sp"), isElement(c, "pic"), isElement(c, "graphicFrame"), isElement(c, "cxnSp"):
			*out = append(*out, s.shape(c, parent))
		}
	}
}

func (s *Slide) shape(node, parent *Node) *Shape {
	sh := &Shape{node: node, parent: parent}

	if props := nonVisualProps(node); props != nil {
		sh.ID, _ = strconv.Atoi(attrValue(props, "id"))
		sh.Name = attrValue(props, "name")
		sh.Description = attrValue(props, "descr")
	}

	xfrm := descend(node, "spPr", "xfrm")
	if isElement(node, "graphicFrame") {
		xfrm = child(node, "xfrm")
	}
	if xfrm != nil {
		if off := child(xfrm, "off"); off != nil {
			sh.Left = parseEMU(attrValue(off, "x"))
			sh.Top = parseEMU(attrValue(off, "y"))
		}
		if ext := child(xfrm, "ext"); ext != nil {
			sh.Width = parseEMU(attrValue(ext, "cx"))
			sh.Height = parseEMU(attrValue(ext, "cy"))
		}
	}

	if body := child(node, "txBody"); body != nil {
		sh.Kind = KindText
		sh.Text = bodyText(body)
	}

	if blip := descend(node, "blipFill", "blip"); blip != nil {
		sh.Kind = KindImage
		if target, ok := s.relTarget(attrValue(blip, "embed")); ok {
			sh.ImagePart = target
			sh.Image, _ = s.pkg.Part(target)
		}
	}
	return sh
}

func nonVisualProps(node *Node) *Node {
	for _, c := range node.Children {
		if !c.IsText && strings.HasPrefix(c.Name.Local, "nv") {
			return child(c, "cNvPr")
		}
	}
	return nil
}

func parseEMU(value string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func bodyText(body *Node) string {
	paragraphs := children(body, "p")
	lines := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		lines = append(lines, paragraphText(p))
	}
	return strings.Join(lines, "\n")
}

func paragraphText(p *Node) string {
	var builder strings.Builder
	for _, c := range p.Children {
		switch {
		case isElement(c, "r"), isElement(c, "fld"):
			if t := child(c, "t"); t != nil {
				builder.WriteString(nodeText(t))
			}
		case isElement(c, "br"):
			builder.WriteString("\n")
		}
	}
	return builder.String()
}

func (s *Slide) relationships() []*Node {
	if s.rels == nil {
		return nil
	}
	return children(s.rels.root, "Relationship")
}

func (s *Slide) relTarget(id string) (string, bool) {
	if id == "" {
		return "", false
	}
	for _, rel := range s.relationships() {
		if attrValue(rel, "Id") != id {
			continue
		}
		if strings.EqualFold(attrValue(rel, "TargetMode"), "External") {
			return "", false
		}
		return resolveTarget(s.Path, attrValue(rel, "Target")), true
	}
	return "", false
}
