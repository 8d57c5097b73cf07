// Package pptx reads and edits PresentationML packages. Parts are kept as raw bytes and only
// the slides, relationship parts and content types that are touched get re-serialised, so
// everything the editor does not understand survives a round trip unchanged.
package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidPackage   = errors.New("invalid pptx package")
	ErrNoSlides         = errors.New("presentation has no slides")
	ErrSlideIndex       = errors.New("slide index out of range")
	ErrNoTextBody       = errors.New("shape has no text body")
	ErrShapeDetached    = errors.New("shape is not part of the slide")
	ErrUnsupportedImage = errors.New("unsupported image data")
)

type part struct {
	header zip.FileHeader
	data   []byte
}

// Package is an opened presentation held in memory.
type Package struct {
	order        []string
	parts        map[string]*part
	width        int64
	height       int64
	slides       []*Slide
	contentTypes *document
	typesDirty   bool
}

// OpenFile reads and opens the presentation at filename.
func OpenFile(filename string) (*Package, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return Open(data)
}

// Open parses a presentation from its archive bytes.
func Open(data []byte) (*Package, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPackage, err)
	}

	pkg := &Package{parts: make(map[string]*part, len(reader.File))}
	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		content, err := readZipFile(file)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidPackage, file.Name, err)
		}
		name := normalizeZipName(file.Name)
		header := file.FileHeader
		header.Name = name
		if _, exists := pkg.parts[name]; !exists {
			pkg.order = append(pkg.order, name)
		}
		pkg.parts[name] = &part{header: header, data: content}
	}

	if err := pkg.validate(); err != nil {
		return nil, err
	}
	if err := pkg.parsePresentation(); err != nil {
		return nil, err
	}
	return pkg, nil
}

func (p *Package) validate() error {
	for _, name := range []string{contentTypesPart, presentationPart} {
		if _, ok := p.parts[name]; !ok {
			return fmt.Errorf("%w: missing required part %s", ErrInvalidPackage, name)
		}
	}
	doc, err := parseDocument(p.parts[contentTypesPart].data)
	if err != nil {
		return fmt.Errorf("%w: content types: %v", ErrInvalidPackage, err)
	}
	p.contentTypes = doc
	return nil
}

func (p *Package) parsePresentation() error {
	var pres presentationXML
	if err := xml.Unmarshal(p.parts[presentationPart].data, &pres); err != nil {
		return fmt.Errorf("%w: presentation: %v", ErrInvalidPackage, err)
	}
	p.width, p.height = defaultSlideWidth, defaultSlideHeight
	if pres.SlideSize != nil && pres.SlideSize.Cx > 0 && pres.SlideSize.Cy > 0 {
		p.width, p.height = pres.SlideSize.Cx, pres.SlideSize.Cy
	}

	paths := p.orderedSlidePaths(pres)
	if len(paths) == 0 {
		return ErrNoSlides
	}
	for i, slidePath := range paths {
		slide, err := p.loadSlide(slidePath, i)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidPackage, slidePath, err)
		}
		p.slides = append(p.slides, slide)
	}
	return nil
}

func (p *Package) orderedSlidePaths(pres presentationXML) []string {
	if pres.SlideIDList != nil {
		if relsPart, ok := p.parts[presentationRels]; ok {
			var rels relationshipsXML
			if err := xml.Unmarshal(relsPart.data, &rels); err == nil {
				targets := make(map[string]string, len(rels.Relationships))
				for _, rel := range rels.Relationships {
					if rel.Type == relTypeSlide {
						targets[rel.ID] = resolveTarget(presentationPart, rel.Target)
					}
				}
				var paths []string
				for _, id := range pres.SlideIDList.SlideID {
					target, ok := targets[id.RID]
					if !ok {
						continue
					}
					if _, exists := p.parts[target]; exists {
						paths = append(paths, target)
					}
				}
				if len(paths) > 0 {
					return paths
				}
			}
		}
	}

	var paths []string
	for _, name := range p.order {
		if strings.HasPrefix(name, "ppt/slides/slide") && strings.HasSuffix(name, ".xml") {
			paths = append(paths, name)
		}
	}
	sort.Slice(paths, func(i, j int) bool {
		return extractSlideNumber(paths[i]) < extractSlideNumber(paths[j])
	})
	return paths
}

func (p *Package) loadSlide(slidePath string, index int) (*Slide, error) {
	doc, err := parseDocument(p.parts[slidePath].data)
	if err != nil {
		return nil, err
	}
	if descend(doc.root, "cSld", "spTree") == nil {
		return nil, errors.New("slide has no shape tree")
	}

	slide := &Slide{
		Index:    index,
		Path:     slidePath,
		pkg:      p,
		doc:      doc,
		relsPath: relsPathFor(slidePath),
	}
	if relsPart, ok := p.parts[slide.relsPath]; ok {
		rels, err := parseDocument(relsPart.data)
		if err != nil {
			return nil, fmt.Errorf("relationships: %w", err)
		}
		slide.rels = rels
	}
	return slide, nil
}

// Slides returns the slides in presentation order.
func (p *Package) Slides() []*Slide {
	return p.slides
}

// Slide returns the slide at zero-based index i.
func (p *Package) Slide(i int) (*Slide, error) {
	if i < 0 || i >= len(p.slides) {
		return nil, fmt.Errorf("%w: %d of %d", ErrSlideIndex, i, len(p.slides))
	}
	return p.slides[i], nil
}

// Size returns the slide width and height in EMUs.
func (p *Package) Size() (int64, int64) {
	return p.width, p.height
}

// Part returns the raw bytes of the named part as currently held in memory.
func (p *Package) Part(name string) ([]byte, bool) {
	pt, ok := p.parts[name]
	if !ok {
		return nil, false
	}
	return pt.data, true
}

// Bytes serialises the package, flushing every edited part.
func (p *Package) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := p.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo writes the package archive to w.
func (p *Package) WriteTo(w io.Writer) (int64, error) {
	p.flush()

	counter := &countingWriter{w: w}
	writer := zip.NewWriter(counter)
	for _, name := range p.order {
		if err := writeZipFile(writer, p.parts[name]); err != nil {
			return counter.n, fmt.Errorf("write %s: %w", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return counter.n, err
	}
	return counter.n, nil
}

func (p *Package) flush() {
	for _, slide := range p.slides {
		if slide.dirty {
			p.putPart(slide.Path, slide.doc.bytes())
			slide.dirty = false
		}
		if slide.relsDirty && slide.rels != nil {
			p.putPart(slide.relsPath, slide.rels.bytes())
			slide.relsDirty = false
		}
	}
	if p.typesDirty {
		p.putPart(contentTypesPart, p.contentTypes.bytes())
		p.typesDirty = false
	}
}

func (p *Package) putPart(name string, data []byte) {
	if existing, ok := p.parts[name]; ok {
		existing.data = data
		return
	}
	p.order = append(p.order, name)
	p.parts[name] = &part{
		header: zip.FileHeader{Name: name, Method: zip.Deflate, Modified: time.Now().UTC()},
		data:   data,
	}
}

func (p *Package) nextMediaName(ext string) string {
	for n := 1; ; n++ {
		name := "ppt/media/image" + strconv.Itoa(n) + "." + ext
		if _, taken := p.parts[name]; !taken {
			return name
		}
	}
}

func (p *Package) ensureDefaultContentType(ext, contentType string) {
	root := p.contentTypes.root
	for _, def := range children(root, "Default") {
		if strings.EqualFold(attrValue(def, "Extension"), ext) {
			return
		}
	}
	root.Children = append(root.Children, newElement(root.Name.Space, "Default",
		attr("", "Extension", ext),
		attr("", "ContentType", contentType),
	))
	p.typesDirty = true
}

func readZipFile(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

func writeZipFile(writer *zip.Writer, source *part) error {
	header := source.header
	dst, err := writer.CreateHeader(&header)
	if err != nil {
		return err
	}
	_, err = dst.Write(source.data)
	return err
}

func normalizeZipName(name string) string {
	return strings.TrimPrefix(strings.ReplaceAll(name, "\\", "/"), "/")
}

func extractSlideNumber(name string) int {
	base := strings.TrimSuffix(strings.TrimPrefix(name, "ppt/slides/slide"), ".xml")
	num, err := strconv.Atoi(base)
	if err != nil {
		return 0
	}
	return num
}

func relsPathFor(partName string) string {
	return path.Join(path.Dir(partName), "_rels", path.Base(partName)+".rels")
}

func resolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Clean(path.Join(path.Dir(source), target))
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	return n, err
}
