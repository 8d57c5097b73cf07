package teamslides

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamslide-backend/slide/bind"
	"teamslide-backend/slide/pptx"
	"teamslide-backend/slide/rules"
)

func TestGenerate_BindsResolvedAndDefaultedConsultants(t *testing.T) {
	f := newFixture(t)
	names := []string{"Jane Doe", " gregor  ledebur ", "Nobody Here", "Max Power"}

	artifact, err := f.svc.Generate(context.Background(), names)
	require.NoError(t, err)

	assert.False(t, artifact.Example)
	assert.Equal(t, bind.KindMarkerText, artifact.Report.Strategy)
	assert.Equal(t, 4, artifact.Report.Groups)
	assert.Empty(t, artifact.Report.Failures)
	assert.Equal(t, 2, artifact.Defaulted())
	require.Len(t, artifact.Records, 4)
	assert.Equal(t, "Jane_Doe.pptx", artifact.Records[0].Source)
	assert.Equal(t, "Ledebur_Gregor_CV.pptx", artifact.Records[1].Source)
	assert.True(t, artifact.Records[2].Defaulted)

	rc, err := artifact.Open()
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.EqualValues(t, len(data), artifact.Size)

	shapes := shapesByName(t, data)
	assert.Equal(t, "Jane", shapes["FN0"].Text)
	assert.Equal(t, "Doe", shapes["LN0"].Text)
	assert.Equal(t, "Munich", shapes["OF0"].Text)
	assert.Equal(t, "Gregor", shapes["FN1"].Text)
	assert.Equal(t, "Zurich", shapes["OF1"].Text)
	assert.Equal(t, "Nobody", shapes["FN2"].Text)
	assert.Equal(t, "Here", shapes["LN2"].Text)
	assert.Equal(t, "Global", shapes["OF2"].Text)
	assert.Equal(t, "Our Team", shapes["Title"].Text)

	require.Contains(t, shapes, "Headshot 1")
	assert.Equal(t, pptx.KindImage, shapes["Headshot 1"].Kind)
	assert.NotContains(t, shapes, "PH0")
	assert.Contains(t, shapes, "PH1", "consultants without a photo keep the template picture")

	require.Len(t, dirEntries(t, f.outDir), 1)
	require.NoError(t, artifact.Close())
	assert.Empty(t, dirEntries(t, f.outDir))
	assert.NoError(t, artifact.Close())

	defaulted := f.logs.FilterMessage("slide.consultant.defaulted").All()
	require.Len(t, defaulted, 2)
	assert.Equal(t, "cv_not_found", defaulted[0].ContextMap()["reason"])
	assert.Equal(t, 1, f.logs.FilterMessage("slide.generated").Len())
}

func TestGenerate_CorruptCVDegradesToPlaceholder(t *testing.T) {
	f := newFixture(t)

	artifact, err := f.svc.Generate(context.Background(), []string{"Broken Person", "Jane Doe", "A B", "C D"})
	require.NoError(t, err)
	defer artifact.Close()

	assert.True(t, artifact.Records[0].Defaulted)
	assert.Equal(t, "Broken Person", artifact.Records[0].Name)
	assert.False(t, artifact.Records[1].Defaulted)

	entries := f.logs.FilterMessage("slide.consultant.defaulted").All()
	require.NotEmpty(t, entries)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "extract_failed", ctx["reason"])
	assert.Equal(t, "Broken_Person.pptx", ctx["file"])
}

func TestGenerate_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		names []string
	}{
		{name: "too few", names: []string{"A", "B", "C"}},
		{name: "too many", names: []string{"A", "B", "C", "D", "E"}},
		{name: "nil", names: nil},
		{name: "blank name", names: []string{"A", " ", "C", "D"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Generate(context.Background(), tt.names)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
	assert.Empty(t, dirEntries(t, f.outDir))
}

func TestGenerate_ExampleShortCircuit(t *testing.T) {
	f := newFixture(t)
	// The template is removed to prove the example path never reads it.
	require.NoError(t, os.Remove(f.paths.Template))

	names := []string{"gregor LEDEBUR", "Caledonia  Trapp", " Benedict Wolske", "Benjamin Reinitzer"}
	artifact, err := f.svc.Generate(context.Background(), names)
	require.NoError(t, err)

	assert.True(t, artifact.Example)
	assert.Equal(t, f.paths.Example, artifact.Path)
	assert.EqualValues(t, len("example deck"), artifact.Size)
	require.NoError(t, artifact.Close())
	_, err = os.Stat(f.paths.Example)
	assert.NoError(t, err, "closing the example must not delete it")

	require.NoError(t, os.Remove(f.paths.Example))
	_, err = f.svc.Generate(context.Background(), names)
	assert.ErrorIs(t, err, ErrExampleNotFound)
}

func TestGenerate_TemplateErrors(t *testing.T) {
	f := newFixture(t)
	names := []string{"Jane Doe", "B", "C", "D"}

	require.NoError(t, os.Remove(f.paths.Template))
	_, err := f.svc.Generate(context.Background(), names)
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	writeFile(t, f.paths.Template, []byte("garbage"))
	_, err = f.svc.Generate(context.Background(), names)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTemplateNotFound)
	assert.ErrorIs(t, err, pptx.ErrInvalidPackage)
}

func TestListCVs(t *testing.T) {
	f := newFixture(t)

	files, err := f.svc.ListCVs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Broken_Person.pptx", "Jane_Doe.pptx", "Ledebur_Gregor_CV.pptx"}, files)
}

func TestInspect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.svc.Inspect(ctx, "Jane Doe")
	require.NoError(t, err)
	assert.True(t, got.Found)
	assert.Equal(t, "Jane_Doe.pptx", got.File)
	assert.Equal(t, "Senior Consultant", got.Record.Role)
	assert.Equal(t, "Munich", got.Record.Location)
	assert.Equal(t, rules.Default().Defaults.YearsPhrase("8"), got.Record.YearsExperience)
	assert.Equal(t, "Led a post-merger integration for a regional bank", got.Record.Bullets[0])
	assert.Equal(t, len(f.headshot), got.HeadshotBytes)

	missing, err := f.svc.Inspect(ctx, "Jane Smith")
	require.NoError(t, err)
	assert.False(t, missing.Found)
	assert.True(t, missing.Record.Defaulted)

	broken, err := f.svc.Inspect(ctx, "Broken Person")
	require.NoError(t, err)
	assert.True(t, broken.Found)
	assert.NotEmpty(t, broken.Error)
	assert.True(t, broken.Record.Defaulted)

	_, err = f.svc.Inspect(ctx, "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNewServiceDefaultsOutputDir(t *testing.T) {
	svc := NewService(rules.Default(), nil, Paths{})
	assert.Equal(t, os.TempDir(), svc.paths.OutputDir)
}
