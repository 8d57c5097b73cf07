// Package extract turns the classified text of a CV slide into a ConsultantRecord.
package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"teamslide-backend/slide/classify"
	"teamslide-backend/slide/model"
	"teamslide-backend/slide/pptx"
	"teamslide-backend/slide/rules"
)

var yearsPattern = regexp.MustCompile(`(?i)(\d+)\+?\s*years?\s*(?:of\s+)?(?:consulting|experience|industry)`)

// Input is the raw material for one record.
type Input struct {
	ProvidedName    string
	NameBlock       string
	ExperienceBlock string
	Headshot        []byte
	Source          string
}

// Extractor parses CV text with a fixed rule set.
type Extractor struct {
	rules      rules.Rules
	classifier *classify.Classifier
}

// New returns an extractor for r.
func New(r rules.Rules) *Extractor {
	return &Extractor{rules: r, classifier: classify.New(r)}
}

// Extract parses the blocks and applies the per-field defaults. It never fails.
func (x *Extractor) Extract(in Input) model.ConsultantRecord {
	fields := model.Fields{
		ProvidedName: in.ProvidedName,
		Headshot:     in.Headshot,
		Source:       in.Source,
	}

	lines := nonEmptyLines(in.NameBlock)
	nameLine := -1
	for i, line := range lines {
		if last, first, ok := x.splitName(line); ok {
			fields.FirstName, fields.LastName = first, last
			nameLine = i
			break
		}
	}
	for i, line := range lines {
		if i != nameLine && x.rules.IsRoleLine(line) && utf8.RuneCountInString(line) < x.rules.MaxRoleLength {
			fields.Role = keywordSegment(line, x.rules.RoleKeywords)
			break
		}
	}
	for i, line := range lines {
		if i != nameLine && x.rules.IsCityLine(line) && utf8.RuneCountInString(line) < x.rules.MaxLocationLength {
			fields.Location = keywordSegment(line, x.rules.OfficeCities)
			break
		}
	}

	if years := Years(in.NameBlock + "\n" + in.ExperienceBlock); years != "" {
		fields.YearsExperience = x.rules.Defaults.YearsPhrase(years)
	}
	fields.Bullets = x.Bullets(in.ExperienceBlock)

	return model.New(fields, x.rules.Defaults)
}

// FromSlide classifies the shapes of a CV slide and extracts the record.
func (x *Extractor) FromSlide(shapes []*pptx.Shape, providedName, source string) model.ConsultantRecord {
	result := x.classifier.Classify(classify.Elements(shapes))
	in := Input{ProvidedName: providedName, Source: source}
	if result.NameBlock != nil {
		in.NameBlock = result.NameBlock.TextContent()
	}
	if result.Experience != nil {
		in.ExperienceBlock = result.Experience.TextContent()
	}
	if shape, ok := result.Headshot.(*pptx.Shape); ok {
		in.Headshot = shape.Image
	}
	return x.Extract(in)
}

// FromPackage extracts from the first slide of a CV presentation.
func (x *Extractor) FromPackage(pkg *pptx.Package, providedName, source string) (model.ConsultantRecord, error) {
	slide, err := pkg.Slide(0)
	if err != nil {
		return model.ConsultantRecord{}, err
	}
	return x.FromSlide(slide.Shapes(), providedName, source), nil
}

// Bullets returns the candidate experience bullets of block in order, without the header,
// instruction lines or an unbulleted years sentence.
func (x *Extractor) Bullets(block string) []string {
	var bullets []string
	for _, line := range nonEmptyLines(block) {
		if x.isHeader(line) || rules.ContainsAny(line, x.rules.InstructionMarkers) {
			continue
		}
		// The bare years sentence is rendered from YearsExperience; a glyph-led bullet that
		// mentions years is still a bullet.
		if yearsPattern.MatchString(line) && x.stripGlyphs(line) == line {
			continue
		}
		if utf8.RuneCountInString(line) <= x.rules.MinBulletLength {
			continue
		}
		if cleaned := x.stripGlyphs(line); cleaned != "" {
			bullets = append(bullets, cleaned)
		}
	}
	return bullets
}

// Years returns the digit count of the first years-of-experience phrase in text.
func Years(text string) string {
	match := yearsPattern.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	return match[1]
}

// splitName reads a "Last, First" line.
func (x *Extractor) splitName(line string) (string, string, bool) {
	segments := strings.Split(line, ",")
	if len(segments) != 2 || !hasLetter(line) {
		return "", "", false
	}
	last := strings.TrimSpace(segments[0])
	first := strings.TrimSpace(segments[1])
	for _, segment := range []string{last, first} {
		if segment == "" || utf8.RuneCountInString(segment) >= x.rules.MaxNameSegment {
			return "", "", false
		}
		if rules.ContainsAny(segment, x.rules.DegreeKeywords) || x.rules.IsRoleLine(segment) {
			return "", "", false
		}
	}
	return last, first, true
}

func (x *Extractor) isHeader(line string) bool {
	candidate := strings.TrimSpace(strings.TrimSuffix(line, ":"))
	for _, header := range x.rules.ExperienceHeaders {
		if strings.EqualFold(candidate, header) {
			return true
		}
	}
	return false
}

func (x *Extractor) stripGlyphs(line string) string {
	for {
		line = strings.TrimSpace(line)
		stripped := false
		for _, glyph := range x.rules.BulletGlyphs {
			if glyph != "" && strings.HasPrefix(line, glyph) {
				line = strings.TrimPrefix(line, glyph)
				stripped = true
			}
		}
		if !stripped {
			return line
		}
	}
}

// keywordSegment keeps only the comma-separated segment that carries a keyword.
func keywordSegment(line string, keywords []string) string {
	line = strings.TrimSpace(line)
	if !strings.Contains(line, ",") {
		return line
	}
	for _, segment := range strings.Split(line, ",") {
		if rules.ContainsAny(segment, keywords) {
			return strings.TrimSpace(segment)
		}
	}
	return line
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
