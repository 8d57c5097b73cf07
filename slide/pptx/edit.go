package pptx

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

// SetText writes lines into the shape, one paragraph per line. Existing paragraphs keep
// their properties; extra lines clone the last paragraph and surplus paragraphs are dropped.
func (s *Slide) SetText(sh *Shape, lines []string) error {
	if err := s.owns(sh); err != nil {
		return err
	}
	body := child(sh.node, "txBody")
	if body == nil {
		return ErrNoTextBody
	}

	lines = splitLines(lines)
	paragraphs := children(body, "p")
	if len(paragraphs) == 0 {
		p := newElement(prefixFor(s.doc.root, nsDrawingML, "a"), "p")
		body.Children = append(body.Children, p)
		paragraphs = []*Node{p}
	}

	template := paragraphs[len(paragraphs)-1]
	last := template
	for i, line := range lines {
		var p *Node
		if i < len(paragraphs) {
			p = paragraphs[i]
		} else {
			p = cloneNode(template)
			insertAfter(body, last, p)
		}
		setParagraphText(p, line)
		last = p
	}
	if len(paragraphs) > len(lines) {
		for _, extra := range paragraphs[len(lines):] {
			removeChild(body, extra)
		}
	}

	sh.Text = bodyText(body)
	s.dirty = true
	return nil
}

// ReplaceText substitutes every occurrence of old within each line of the shape, keeping
// the formatting of the first run that carries the line. It reports whether anything changed.
func (s *Slide) ReplaceText(sh *Shape, old, replacement string) (bool, error) {
	if err := s.owns(sh); err != nil {
		return false, err
	}
	body := child(sh.node, "txBody")
	if body == nil {
		return false, ErrNoTextBody
	}
	if old == "" {
		return false, nil
	}

	changed := false
	for _, p := range children(body, "p") {
		for _, segment := range lineSegments(p) {
			if replaceInSegment(segment, old, replacement) {
				changed = true
			}
		}
	}
	if changed {
		sh.Text = bodyText(body)
		s.dirty = true
	}
	return changed, nil
}

// ReplaceToken substitutes old in line (an index into Lines) only where it stands as a whole
// token, that is not directly preceded or followed by a letter or digit. Other lines are left
// alone. It reports whether anything changed.
func (s *Slide) ReplaceToken(sh *Shape, line int, old, replacement string) (bool, error) {
	if err := s.owns(sh); err != nil {
		return false, err
	}
	body := child(sh.node, "txBody")
	if body == nil {
		return false, ErrNoTextBody
	}
	if old == "" || line < 0 {
		return false, nil
	}

	i := 0
	for _, p := range children(body, "p") {
		for _, segment := range lineSegments(p) {
			if i == line {
				if !replaceTokenInSegment(segment, old, replacement) {
					return false, nil
				}
				sh.Text = bodyText(body)
				s.dirty = true
				return true, nil
			}
			i++
		}
	}
	return false, nil
}

// RemoveShape detaches the shape from its parent.
func (s *Slide) RemoveShape(sh *Shape) error {
	if err := s.owns(sh); err != nil {
		return err
	}
	if !removeChild(sh.parent, sh.node) {
		return ErrShapeDetached
	}
	s.dirty = true
	return nil
}

// AddPicture embeds data as a new picture occupying frame. The picture is inserted directly
// after the anchor shape when one is given, so it keeps the anchor's z-order and group, and
// appended to the shape tree otherwise.
func (s *Slide) AddPicture(data []byte, frame Rect, anchor *Shape, name string) (*Shape, error) {
	if len(data) == 0 {
		return nil, ErrUnsupportedImage
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, mt.String())
	}
	parent := s.shapeTree()
	if anchor != nil {
		if err := s.owns(anchor); err != nil {
			return nil, err
		}
		parent = anchor.parent
	}

	ext := strings.TrimPrefix(mt.Extension(), ".")
	contentType := strings.SplitN(mt.String(), ";", 2)[0]
	media := s.pkg.nextMediaName(ext)
	s.pkg.putPart(media, data)
	s.pkg.ensureDefaultContentType(ext, contentType)
	relID := s.addRelationship(relTypeImage, s.relativeTarget(media))

	root := s.doc.root
	p := prefixFor(root, nsPresentationML, "p")
	a := prefixFor(root, nsDrawingML, "a")
	r := prefixFor(root, nsRelationships, "r")
	id := s.nextShapeID()
	if name == "" {
		name = "Picture " + strconv.Itoa(id)
	}

	pic := newElement(p, "pic")
	pic.Children = []*Node{
		withChildren(newElement(p, "nvPicPr"),
			newElement(p, "cNvPr", attr("", "id", strconv.Itoa(id)), attr("", "name", name)),
			withChildren(newElement(p, "cNvPicPr"), newElement(a, "picLocks", attr("", "noChangeAspect", "1"))),
			newElement(p, "nvPr"),
		),
		withChildren(newElement(p, "blipFill"),
			newElement(a, "blip", attr(r, "embed", relID)),
			withChildren(newElement(a, "stretch"), newElement(a, "fillRect")),
		),
		withChildren(newElement(p, "spPr"),
			withChildren(newElement(a, "xfrm"),
				newElement(a, "off", attr("", "x", formatEMU(frame.Left)), attr("", "y", formatEMU(frame.Top))),
				newElement(a, "ext", attr("", "cx", formatEMU(frame.Width)), attr("", "cy", formatEMU(frame.Height))),
			),
			withChildren(newElement(a, "prstGeom", attr("", "prst", "rect")), newElement(a, "avLst")),
		),
	}

	if anchor != nil {
		insertAfter(parent, anchor.node, pic)
	} else {
		parent.Children = append(parent.Children, pic)
	}
	s.dirty = true
	return s.shape(pic, parent), nil
}

func (s *Slide) owns(sh *Shape) error {
	if sh == nil || sh.node == nil || sh.parent == nil {
		return ErrShapeDetached
	}
	found := false
	walkXML(s.doc.root, func(n *Node) bool {
		if n == sh.node {
			found = true
		}
		return !found
	})
	if !found {
		return ErrShapeDetached
	}
	return nil
}

func (s *Slide) nextShapeID() int {
	maxID := 0
	walkXML(s.doc.root, func(n *Node) bool {
		if isElement(n, "cNvPr") {
			if id, err := strconv.Atoi(attrValue(n, "id")); err == nil && id > maxID {
				maxID = id
			}
		}
		return true
	})
	return maxID + 1
}

func (s *Slide) addRelationship(relType, target string) string {
	if s.rels == nil {
		s.rels = &document{
			header: `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`,
			root:   newElement("", "Relationships", attr("", "xmlns", nsPackageRels)),
		}
	}
	maxID := 0
	for _, rel := range s.relationships() {
		if n, err := strconv.Atoi(strings.TrimPrefix(attrValue(rel, "Id"), "rId")); err == nil && n > maxID {
			maxID = n
		}
	}
	id := "rId" + strconv.Itoa(maxID+1)
	root := s.rels.root
	root.Children = append(root.Children, newElement(root.Name.Space, "Relationship",
		attr("", "Id", id),
		attr("", "Type", relType),
		attr("", "Target", target),
	))
	s.relsDirty = true
	return id
}

func (s *Slide) relativeTarget(partName string) string {
	if path.Dir(s.Path) == "ppt/slides" && path.Dir(partName) == "ppt/media" {
		return "../media/" + path.Base(partName)
	}
	return "/" + partName
}

func withChildren(node *Node, kids ...*Node) *Node {
	node.Children = append(node.Children, kids...)
	return node
}

func formatEMU(v int64) string {
	return strconv.FormatInt(v, 10)
}

func splitLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, strings.Split(line, "\n")...)
	}
	if len(out) == 0 {
		out = append(out, "")
	}
	return out
}

func setParagraphText(p *Node, text string) {
	var run *Node
	for _, c := range p.Children {
		if isElement(c, "r") {
			run = c
			break
		}
	}
	if run == nil {
		run = newElement(p.Name.Space, "r")
		if end := child(p, "endParaRPr"); end != nil {
			props := cloneNode(end)
			props.Name.Local = "rPr"
			run.Children = append(run.Children, props)
		}
	}
	t := child(run, "t")
	if t == nil {
		t = newElement(run.Name.Space, "t")
		run.Children = append(run.Children, t)
	}
	setNodeText(t, text)

	kept := make([]*Node, 0, len(p.Children)+1)
	placed := false
	for _, c := range p.Children {
		inline := isElement(c, "r") || isElement(c, "br") || isElement(c, "fld")
		if inline && c != run {
			continue
		}
		if c == run {
			placed = true
		}
		if !placed && isElement(c, "endParaRPr") {
			kept = append(kept, run)
			placed = true
		}
		kept = append(kept, c)
	}
	if !placed {
		kept = append(kept, run)
	}
	p.Children = kept
}

// lineSegments groups the text nodes of a paragraph into the visual lines separated by breaks.
func lineSegments(p *Node) [][]*Node {
	var (
		segments [][]*Node
		current  []*Node
	)
	for _, c := range p.Children {
		switch {
		case isElement(c, "r"), isElement(c, "fld"):
			if t := child(c, "t"); t != nil {
				current = append(current, t)
			}
		case isElement(c, "br"):
			segments = append(segments, current)
			current = nil
		}
	}
	return append(segments, current)
}

func replaceTokenInSegment(texts []*Node, old, replacement string) bool {
	if len(texts) == 0 {
		return false
	}
	var builder strings.Builder
	for _, t := range texts {
		builder.WriteString(nodeText(t))
	}
	combined := builder.String()
	replaced := ReplaceWord(combined, old, replacement)
	if replaced == combined {
		return false
	}
	setNodeText(texts[0], replaced)
	for _, t := range texts[1:] {
		setNodeText(t, "")
	}
	return true
}

// ContainsWord reports whether word occurs in text as a whole token.
func ContainsWord(text, word string) bool {
	return tokenIndex(text, word, 0) >= 0
}

// ReplaceWord replaces every whole-token occurrence of old in text.
func ReplaceWord(text, old, replacement string) string {
	if old == "" {
		return text
	}
	var out strings.Builder
	from := 0
	for {
		i := tokenIndex(text, old, from)
		if i < 0 {
			break
		}
		out.WriteString(text[from:i])
		out.WriteString(replacement)
		from = i + len(old)
	}
	if from == 0 {
		return text
	}
	out.WriteString(text[from:])
	return out.String()
}

func tokenIndex(text, token string, from int) int {
	if token == "" {
		return -1
	}
	for from <= len(text)-len(token) {
		i := strings.Index(text[from:], token)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(token)
		before, _ := utf8.DecodeLastRuneInString(text[:i])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if !isWordRune(before) && !isWordRune(after) {
			return i
		}
		from = i + 1
	}
	return -1
}

func isWordRune(r rune) bool {
	return r != utf8.RuneError && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

func replaceInSegment(texts []*Node, old, replacement string) bool {
	if len(texts) == 0 {
		return false
	}
	var builder strings.Builder
	for _, t := range texts {
		builder.WriteString(nodeText(t))
	}
	combined := builder.String()
	if !strings.Contains(combined, old) {
		return false
	}
	setNodeText(texts[0], strings.ReplaceAll(combined, old, replacement))
	for _, t := range texts[1:] {
		setNodeText(t, "")
	}
	return true
}
