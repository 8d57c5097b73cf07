package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	r, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), r)
}

func TestLoad_OverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	body := `
officeCities: ["lisbon"]
defaults:
  role: "Consultant"
templateSlots:
  - name: "Alex Example"
    office: "Lisbon"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	r, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"lisbon"}, r.OfficeCities)
	assert.Equal(t, "Consultant", r.Defaults.Role)
	assert.Equal(t, "Global", r.Defaults.Location, "unset fields keep their defaults")
	assert.Equal(t, []TemplateSlot{{Name: "Alex Example", Office: "Lisbon"}}, r.TemplateSlots)
	assert.Equal(t, 4, r.Slots)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("slots: 0\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slots")
}

func TestYearsPhrase(t *testing.T) {
	d := Default().Defaults
	assert.Equal(t, "7+ years of consulting\nexperience, including:", d.YearsPhrase("7"))
	assert.Equal(t, "3+ years of consulting\nexperience, including:", d.DefaultYearsPhrase())
}

func TestContainsAny(t *testing.T) {
	r := Default()
	assert.True(t, r.IsRoleLine("Senior CONSULTANT"))
	assert.True(t, r.IsCityLine("Office New York"))
	assert.False(t, r.IsCityLine("Remote"))
}

func TestLoad_KeywordsMatchRegardlessOfCase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	body := `
officeCities: ["Zurich", "Lisbon"]
roleKeywords: ["Consultant"]
imageNameHints: ["Photo"]
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	r, err := Load(path)
	require.NoError(t, err)
	assert.True(t, r.IsCityLine("zurich office"))
	assert.True(t, r.IsCityLine("LISBON"))
	assert.True(t, r.IsRoleLine("Senior consultant"))
	assert.True(t, ContainsAny("photo 1", r.ImageNameHints))
	assert.False(t, r.IsRoleLine("Partner"))
}
