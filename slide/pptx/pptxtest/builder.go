// Package pptxtest builds small in-memory presentations for tests.
package pptxtest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

const (
	// Width and Height are the default 16:9 slide size in EMUs.
	Width  = 12192000
	Height = 6858000
)

type slide struct {
	shapes []string
	rels   []string
}

// Builder accumulates slides and shapes. Shapes are added to the most recent slide.
type Builder struct {
	width, height int64
	slides        []*slide
	media         map[string][]byte
	mediaOrder    []string
	nextID        int
}

// New returns a builder for a presentation with the default slide size.
func New() *Builder {
	return &Builder{width: Width, height: Height, media: map[string][]byte{}, nextID: 2}
}

// Size overrides the slide size.
func (b *Builder) Size(cx, cy int64) *Builder {
	b.width, b.height = cx, cy
	return b
}

// NewSlide starts another slide.
func (b *Builder) NewSlide() *Builder {
	b.slides = append(b.slides, &slide{})
	return b
}

func (b *Builder) current() *slide {
	if len(b.slides) == 0 {
		b.NewSlide()
	}
	return b.slides[len(b.slides)-1]
}

func (b *Builder) id() int {
	id := b.nextID
	b.nextID++
	return id
}

// Text adds a text box with one paragraph per line.
func (b *Builder) Text(name string, x, y, cx, cy int64, lines ...string) *Builder {
	b.current().shapes = append(b.current().shapes, b.textShape(name, x, y, cx, cy, lines))
	return b
}

// Placeholder adds a text shape with no frame of its own, as layout placeholders are.
func (b *Builder) Placeholder(name string, lines ...string) *Builder {
	sp := fmt.Sprintf(`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr/><p:nvPr><p:ph type="body" idx="1"/></p:nvPr></p:nvSpPr><p:spPr/>%s</p:sp>`,
		b.id(), escape(name), txBody(lines))
	b.current().shapes = append(b.current().shapes, sp)
	return b
}

// GroupedText adds a text box wrapped in a group shape.
func (b *Builder) GroupedText(name string, x, y, cx, cy int64, lines ...string) *Builder {
	inner := b.textShape(name, x, y, cx, cy, lines)
	grp := fmt.Sprintf(`<p:grpSp><p:nvGrpSpPr><p:cNvPr id="%d" name="Group %s"/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>%s</p:grpSp>`,
		b.id(), escape(name), inner)
	b.current().shapes = append(b.current().shapes, grp)
	return b
}

// Picture adds a picture shape embedding data.
func (b *Builder) Picture(name string, x, y, cx, cy int64, data []byte) *Builder {
	s := b.current()
	ext := "png"
	if bytes.HasPrefix(data, []byte{0xFF, 0xD8}) {
		ext = "jpeg"
	}
	media := fmt.Sprintf("fixture%d.%s", len(b.mediaOrder)+1, ext)
	b.media[media] = data
	b.mediaOrder = append(b.mediaOrder, media)

	relID := fmt.Sprintf("rId%d", len(s.rels)+2)
	s.rels = append(s.rels, fmt.Sprintf(`<Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="../media/%s"/>`, relID, media))

	pic := fmt.Sprintf(`<p:pic><p:nvPicPr><p:cNvPr id="%d" name="%s"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr><p:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></p:blipFill><p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`,
		b.id(), escape(name), relID, x, y, cx, cy)
	s.shapes = append(s.shapes, pic)
	return b
}

func (b *Builder) textShape(name string, x, y, cx, cy int64, lines []string) string {
	return fmt.Sprintf(`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr><p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>%s</p:sp>`,
		b.id(), escape(name), x, y, cx, cy, txBody(lines))
}

func txBody(lines []string) string {
	var sb strings.Builder
	sb.WriteString(`<p:txBody><a:bodyPr/><a:lstStyle/>`)
	for _, line := range lines {
		if line == "" {
			sb.WriteString(`<a:p><a:endParaRPr lang="en-US" sz="1200"/></a:p>`)
			continue
		}
		fmt.Fprintf(&sb, `<a:p><a:r><a:rPr lang="en-US" sz="1200" b="1"/><a:t>%s</a:t></a:r></a:p>`, escape(line))
	}
	if len(lines) == 0 {
		sb.WriteString(`<a:p><a:endParaRPr lang="en-US"/></a:p>`)
	}
	sb.WriteString(`</p:txBody>`)
	return sb.String()
}

// Bytes assembles the presentation archive.
func (b *Builder) Bytes(t testing.TB) []byte {
	t.Helper()
	if len(b.slides) == 0 {
		b.NewSlide()
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write := func(name, content string) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	var overrides, presRels, slideIDs strings.Builder
	for i := range b.slides {
		n := i + 1
		fmt.Fprintf(&overrides, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, n)
		fmt.Fprintf(&presRels, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, n, n)
		fmt.Fprintf(&slideIDs, `<p:sldId id="%d" r:id="rId%d"/>`, 255+n, n)
	}

	write("[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Default Extension="png" ContentType="image/png"/><Default Extension="jpeg" ContentType="image/jpeg"/><Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`+overrides.String()+`</Types>`)
	write("_rels/.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/></Relationships>`)
	write("ppt/_rels/presentation.xml.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+presRels.String()+`</Relationships>`)
	write("ppt/presentation.xml", fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:presentation xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:sldIdLst>%s</p:sldIdLst><p:sldSz cx="%d" cy="%d"/><p:notesSz cx="6858000" cy="9144000"/></p:presentation>`, slideIDs.String(), b.width, b.height))

	for i, s := range b.slides {
		n := i + 1
		write(fmt.Sprintf("ppt/slides/slide%d.xml", n), `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`+
			strings.Join(s.shapes, "")+`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)
		if len(s.rels) > 0 {
			write(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+strings.Join(s.rels, "")+`</Relationships>`)
		}
	}
	for _, name := range b.mediaOrder {
		w, err := zw.Create("ppt/media/" + name)
		if err != nil {
			t.Fatalf("create media %s: %v", name, err)
		}
		if _, err := w.Write(b.media[name]); err != nil {
			t.Fatalf("write media %s: %v", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	return buf.Bytes()
}

// PNG returns a solid-colour PNG of the given size.
func PNG(t testing.TB, w, h int, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, solid(w, h, c)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// JPEG returns a solid-colour JPEG of the given size.
func JPEG(t testing.TB, w, h int, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, solid(w, h, c), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
