package teamslides

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"teamslide-backend/internal/shared/metrics"
	"teamslide-backend/internal/shared/storage/object"
	"teamslide-backend/internal/shared/telemetry"
	"teamslide-backend/internal/shared/util"
	"teamslide-backend/slide/bind"
	"teamslide-backend/slide/extract"
	"teamslide-backend/slide/model"
	"teamslide-backend/slide/pptx"
	"teamslide-backend/slide/resolve"
	"teamslide-backend/slide/rules"
)

const suggestionCount = 3

// Paths locates the files a Service reads and writes.
type Paths struct {
	Template  string
	Example   string
	OutputDir string
}

// Service runs the team slide pipeline: resolve each consultant's CV, extract the record,
// bind the records into the template and stage the result.
type Service struct {
	rules     rules.Rules
	library   object.Store
	paths     Paths
	extractor *extract.Extractor
	binder    *bind.Binder
}

// NewService wires a pipeline around an immutable rule set and a CV library.
func NewService(r rules.Rules, library object.Store, paths Paths, opts ...bind.Option) *Service {
	if paths.OutputDir == "" {
		paths.OutputDir = os.TempDir()
	}
	return &Service{
		rules:     r,
		library:   library,
		paths:     paths,
		extractor: extract.New(r),
		binder:    bind.New(r, opts...),
	}
}

// Artifact is a generated (or example) presentation ready to be streamed. Close releases
// the staged file.
type Artifact struct {
	Path    string
	Size    int64
	Example bool
	Report  bind.Report
	Records []model.ConsultantRecord
	temp    bool
}

// Open opens the artifact for reading.
func (a *Artifact) Open() (io.ReadCloser, error) {
	return os.Open(a.Path)
}

// Close removes the staged file. The example slide is never removed.
func (a *Artifact) Close() error {
	if a == nil || !a.temp {
		return nil
	}
	a.temp = false
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Defaulted returns the number of consultants bound with placeholder values.
func (a *Artifact) Defaulted() int {
	n := 0
	for _, rec := range a.Records {
		if rec.Defaulted {
			n++
		}
	}
	return n
}

// Generate builds the team slide for names. The caller must Close the artifact.
func (s *Service) Generate(ctx context.Context, names []string) (*Artifact, error) {
	start := time.Now()
	artifact, err := s.generate(ctx, names)
	if err != nil {
		if !errors.Is(err, ErrInvalidInput) {
			metrics.IncSlidesFailed()
		}
		return nil, err
	}
	metrics.ObserveGenerationDurationMs(metrics.SinceMillis(start))
	return artifact, nil
}

func (s *Service) generate(ctx context.Context, names []string) (*Artifact, error) {
	if err := s.validateNames(names); err != nil {
		return nil, err
	}
	if s.isExample(names) {
		return s.example()
	}

	template, err := os.ReadFile(s.paths.Template)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, s.paths.Template)
		}
		return nil, fmt.Errorf("read template: %w", err)
	}
	pkg, err := pptx.Open(template)
	if err != nil {
		return nil, fmt.Errorf("open template: %w", err)
	}

	available, err := s.candidates(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]model.ConsultantRecord, 0, len(names))
	for _, name := range names {
		records = append(records, s.load(ctx, strings.TrimSpace(name), available))
	}

	report, err := s.binder.Bind(pkg, records)
	if err != nil {
		return nil, fmt.Errorf("bind template: %w", err)
	}
	for _, f := range report.Failures {
		telemetry.Warn("slide.binding.failed", map[string]any{
			"slot":  f.Slot,
			"field": f.Field,
			"shape": f.Shape,
			"err":   f.Err,
		})
	}

	data, err := pkg.Bytes()
	if err != nil {
		return nil, fmt.Errorf("serialize slide: %w", err)
	}
	artifact, err := s.stage(data)
	if err != nil {
		return nil, err
	}
	artifact.Report = report
	artifact.Records = records

	metrics.IncSlidesGenerated()
	metrics.IncSlidesByStrategy(report.Strategy.String())
	metrics.AddConsultantsDefaulted(artifact.Defaulted())
	metrics.AddBindingsFailed(len(report.Failures))
	telemetry.Info("slide.generated", map[string]any{
		"strategy":  report.Strategy.String(),
		"groups":    report.Groups,
		"applied":   report.Applied,
		"failures":  len(report.Failures),
		"defaulted": artifact.Defaulted(),
		"bytes":     artifact.Size,
		"sha256":    util.Digest(data),
	})
	return artifact, nil
}

// ListCVs returns the CV files a user can pick from.
func (s *Service) ListCVs(ctx context.Context) ([]string, error) {
	keys, err := s.library.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cvs: %w", err)
	}
	return resolve.Listable(keys), nil
}

// Inspect reports the record the pipeline would bind for name.
func (s *Service) Inspect(ctx context.Context, name string) (Inspection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Inspection{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	available, err := s.candidates(ctx)
	if err != nil {
		return Inspection{}, err
	}

	out := Inspection{Name: name}
	file, ok := resolve.Resolve(name, available)
	if !ok {
		out.Suggestions = resolve.Suggest(name, available, suggestionCount)
		out.Record = model.Placeholder(name, s.rules.Defaults)
		return out, nil
	}
	out.File = file
	out.Found = true

	rec, err := s.extractFile(ctx, name, file)
	if err != nil {
		out.Error = err.Error()
		rec = model.Placeholder(name, s.rules.Defaults)
	}
	out.Record = rec
	out.HeadshotBytes = len(rec.Headshot)
	return out, nil
}

func (s *Service) validateNames(names []string) error {
	if len(names) != s.rules.Slots {
		return fmt.Errorf("%w: exactly %d consultant names are required", ErrInvalidInput, s.rules.Slots)
	}
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			return fmt.Errorf("%w: all consultant names must be non-empty", ErrInvalidInput)
		}
	}
	return nil
}

// isExample reports whether names are the example consultants, ignoring case, spacing and
// order.
func (s *Service) isExample(names []string) bool {
	if len(s.rules.ExampleNames) == 0 || len(names) != len(s.rules.ExampleNames) {
		return false
	}
	got := foldAll(names)
	want := foldAll(s.rules.ExampleNames)
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func foldAll(names []string) []string {
	fold := cases.Fold()
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = fold.String(strings.Join(strings.Fields(n), " "))
	}
	sort.Strings(out)
	return out
}

func (s *Service) example() (*Artifact, error) {
	info, err := os.Stat(s.paths.Example)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrExampleNotFound, s.paths.Example)
		}
		return nil, fmt.Errorf("stat example: %w", err)
	}
	metrics.IncSlidesExample()
	telemetry.Info("slide.example", map[string]any{"path": s.paths.Example, "bytes": info.Size()})
	return &Artifact{Path: s.paths.Example, Size: info.Size(), Example: true}, nil
}

func (s *Service) candidates(ctx context.Context) ([]string, error) {
	keys, err := s.library.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cvs: %w", err)
	}
	return resolve.Candidates(keys), nil
}

// load returns the record for one consultant. Any failure degrades to the placeholder
// record.
func (s *Service) load(ctx context.Context, name string, available []string) model.ConsultantRecord {
	file, ok := resolve.Resolve(name, available)
	if !ok {
		telemetry.Warn("slide.consultant.defaulted", map[string]any{
			"name":        name,
			"reason":      "cv_not_found",
			"suggestions": resolve.Suggest(name, available, suggestionCount),
		})
		return model.Placeholder(name, s.rules.Defaults)
	}

	rec, err := s.extractFile(ctx, name, file)
	if err != nil {
		telemetry.Warn("slide.consultant.defaulted", map[string]any{
			"name":   name,
			"file":   file,
			"reason": "extract_failed",
			"err":    err,
		})
		return model.Placeholder(name, s.rules.Defaults)
	}
	telemetry.Debug("slide.consultant.extracted", map[string]any{
		"name":     name,
		"file":     file,
		"role":     rec.Role,
		"location": rec.Location,
		"headshot": rec.HasHeadshot(),
	})
	return rec
}

func (s *Service) extractFile(ctx context.Context, name, file string) (rec model.ConsultantRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract %s: panic: %v", file, r)
		}
	}()

	rc, err := s.library.Open(ctx, file)
	if err != nil {
		return model.ConsultantRecord{}, fmt.Errorf("open %s: %w", file, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return model.ConsultantRecord{}, fmt.Errorf("read %s: %w", file, err)
	}
	pkg, err := pptx.Open(data)
	if err != nil {
		return model.ConsultantRecord{}, fmt.Errorf("parse %s: %w", file, err)
	}
	return s.extractor.FromPackage(pkg, name, file)
}

// stage writes data to a uniquely named file in the output directory.
func (s *Service) stage(data []byte) (*Artifact, error) {
	if err := os.MkdirAll(s.paths.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(s.paths.OutputDir, "team_slide_"+uuid.NewString()+".pptx")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("write output: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("close output: %w", err)
	}
	return &Artifact{Path: path, Size: int64(len(data)), temp: true}, nil
}
