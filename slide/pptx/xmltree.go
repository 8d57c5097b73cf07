package pptx

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// Node is a mutable XML element or text node. Element names keep the prefix exactly as
// written in the part (Name.Space holds the prefix, not the namespace URI) so a part can be
// re-serialised without disturbing its namespace declarations.
type Node struct {
	Name     xml.Name
	Attr     []xml.Attr
	Children []*Node
	Text     string
	IsText   bool
}

type document struct {
	header string
	root   *Node
}

func parseDocument(data []byte) (*document, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	var (
		stack  []*Node
		root   *Node
		header string
	)

	for {
		token, err := decoder.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.ProcInst:
			if t.Target == "xml" && root == nil {
				header = "<?xml " + string(t.Inst) + "?>"
			}
		case xml.StartElement:
			node := &Node{Name: t.Name, Attr: append([]xml.Attr(nil), t.Attr...)}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("multiple root elements")
				}
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			text := string(t)
			if text == "" {
				continue
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, &Node{IsText: true, Text: text})
		}
	}

	if root == nil {
		return nil, errors.New("xml part has no root element")
	}
	return &document{header: header, root: root}, nil
}

func (d *document) bytes() []byte {
	var buf bytes.Buffer
	if d.header != "" {
		buf.WriteString(d.header)
		buf.WriteString("\r\n")
	}
	writeNode(&buf, d.root)
	return buf.Bytes()
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "\n", "&#xA;", "\r", "&#xD;", "\t", "&#x9;")
)

func writeNode(buf *bytes.Buffer, node *Node) {
	if node.IsText {
		textEscaper.WriteString(buf, node.Text)
		return
	}
	name := qualifiedName(node.Name)
	buf.WriteByte('<')
	buf.WriteString(name)
	for _, a := range node.Attr {
		buf.WriteByte(' ')
		buf.WriteString(qualifiedName(a.Name))
		buf.WriteString(`="`)
		attrEscaper.WriteString(buf, a.Value)
		buf.WriteByte('"')
	}
	if len(node.Children) == 0 {
		buf.WriteString("/>")
		return
	}
	buf.WriteByte('>')
	for _, c := range node.Children {
		writeNode(buf, c)
	}
	buf.WriteString("</")
	buf.WriteString(name)
	buf.WriteByte('>')
}

func qualifiedName(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

func newElement(prefix, local string, attrs ...xml.Attr) *Node {
	return &Node{Name: xml.Name{Space: prefix, Local: local}, Attr: attrs}
}

func attr(prefix, local, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Space: prefix, Local: local}, Value: value}
}

func walkXML(node *Node, visit func(*Node) bool) {
	if node == nil {
		return
	}
	if !visit(node) {
		return
	}
	for _, c := range node.Children {
		walkXML(c, visit)
	}
}

func isElement(node *Node, local string) bool {
	return node != nil && !node.IsText && node.Name.Local == local
}

func child(node *Node, local string) *Node {
	if node == nil {
		return nil
	}
	for _, c := range node.Children {
		if isElement(c, local) {
			return c
		}
	}
	return nil
}

func children(node *Node, local string) []*Node {
	if node == nil {
		return nil
	}
	var out []*Node
	for _, c := range node.Children {
		if isElement(c, local) {
			out = append(out, c)
		}
	}
	return out
}

func descend(node *Node, locals ...string) *Node {
	cur := node
	for _, local := range locals {
		cur = child(cur, local)
		if cur == nil {
			return nil
		}
	}
	return cur
}

func attrValue(node *Node, local string) string {
	if node == nil {
		return ""
	}
	for _, a := range node.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func setAttr(node *Node, prefix, local, value string) {
	for i, a := range node.Attr {
		if a.Name.Local == local && a.Name.Space == prefix {
			node.Attr[i].Value = value
			return
		}
	}
	node.Attr = append(node.Attr, attr(prefix, local, value))
}

func nodeText(node *Node) string {
	var builder strings.Builder
	for _, c := range node.Children {
		if c.IsText {
			builder.WriteString(c.Text)
		}
	}
	return builder.String()
}

func setNodeText(node *Node, text string) {
	node.Children = node.Children[:0]
	if text == "" {
		return
	}
	node.Children = append(node.Children, &Node{IsText: true, Text: text})
}

func cloneNode(node *Node) *Node {
	if node == nil {
		return nil
	}
	cloned := &Node{
		Name:   node.Name,
		Attr:   append([]xml.Attr(nil), node.Attr...),
		Text:   node.Text,
		IsText: node.IsText,
	}
	if len(node.Children) > 0 {
		cloned.Children = make([]*Node, 0, len(node.Children))
		for _, c := range node.Children {
			cloned.Children = append(cloned.Children, cloneNode(c))
		}
	}
	return cloned
}

func removeChild(parent, target *Node) bool {
	for i, c := range parent.Children {
		if c == target {
			parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
			return true
		}
	}
	return false
}

func insertAfter(parent, anchor, node *Node) {
	for i, c := range parent.Children {
		if c == anchor {
			parent.Children = append(parent.Children[:i+1], append([]*Node{node}, parent.Children[i+1:]...)...)
			return
		}
	}
	parent.Children = append(parent.Children, node)
}

// prefixFor returns the prefix the root element binds to uri, declaring fallback when the
// namespace is not yet declared.
func prefixFor(root *Node, uri, fallback string) string {
	for _, a := range root.Attr {
		if a.Name.Space == "xmlns" && a.Value == uri {
			return a.Name.Local
		}
	}
	root.Attr = append(root.Attr, attr("xmlns", fallback, uri))
	return fallback
}
