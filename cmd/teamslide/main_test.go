package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamslide-backend/slide/pptx"
	"teamslide-backend/slide/pptx/pptxtest"
)

func setupLibrary(t *testing.T) (dir, template, example string) {
	t.Helper()
	dir = t.TempDir()
	cvs := filepath.Join(dir, "cvs")
	require.NoError(t, os.MkdirAll(cvs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cvs, "Doe_Jane.pptx"), pptxtest.New().
		Text("Name", 1000000, 100000, 3000000, 900000, "Doe, Jane", "Manager", "Vienna").
		Bytes(t), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cvs, "CV_Placeholder.pptx"), []byte("x"), 0o644))

	b := pptxtest.New()
	for g := 0; g < 4; g++ {
		x := int64(g)*2500000 + 100000
		b.Text(fmt.Sprintf("FN%d", g), x, 1000000, 1000000, 200000, "First Name").
			Text(fmt.Sprintf("LN%d", g), x, 1300000, 1000000, 200000, "Last Name").
			Text(fmt.Sprintf("OF%d", g), x, 1600000, 1000000, 200000, "Office")
	}
	template = filepath.Join(dir, "template.pptx")
	require.NoError(t, os.WriteFile(template, b.Bytes(t), 0o644))
	example = filepath.Join(dir, "example.pptx")
	return cvs, template, example
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestListCVs(t *testing.T) {
	cvs, template, example := setupLibrary(t)

	out, err := execute(t, "--cv-dir", cvs, "--template", template, "--example", example, "list-cvs")
	require.NoError(t, err)
	assert.Equal(t, "Doe_Jane.pptx\n", out)
}

func TestGenerateWritesOutput(t *testing.T) {
	cvs, template, example := setupLibrary(t)
	dest := filepath.Join(t.TempDir(), "team.pptx")

	out, err := execute(t, "--cv-dir", cvs, "--template", template, "--example", example,
		"generate", "Jane Doe", "Anna Berg", "Tom Kurz", "Eva Lang", "--out", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "strategy marker_text")
	assert.Contains(t, out, "Doe_Jane.pptx")
	assert.Contains(t, out, "placeholder")

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	pkg, err := pptx.Open(data)
	require.NoError(t, err)
	texts := map[string]string{}
	for _, sh := range pkg.Slides()[0].Shapes() {
		texts[sh.Name] = sh.Text
	}
	assert.Equal(t, "Jane", texts["FN0"])
	assert.Equal(t, "Vienna", texts["OF0"])
	assert.Equal(t, "Anna", texts["FN1"])

	entries, err := os.ReadDir(filepath.Dir(dest))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "staged file should be removed")
}

func TestGenerateRejectsWrongCount(t *testing.T) {
	cvs, template, example := setupLibrary(t)

	_, err := execute(t, "--cv-dir", cvs, "--template", template, "--example", example,
		"generate", "Jane Doe", "--out", filepath.Join(t.TempDir(), "x.pptx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly 4")
}

func TestInspectPrintsRecord(t *testing.T) {
	cvs, template, example := setupLibrary(t)

	out, err := execute(t, "--cv-dir", cvs, "--template", template, "--example", example, "inspect", "Jane Doe")
	require.NoError(t, err)

	var got struct {
		Found  bool   `json:"found"`
		File   string `json:"file"`
		Record struct {
			Role     string `json:"role"`
			Location string `json:"location"`
		} `json:"record"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, got.Found)
	assert.Equal(t, "Doe_Jane.pptx", got.File)
	assert.Equal(t, "Manager", got.Record.Role)
	assert.Equal(t, "Vienna", got.Record.Location)
}
