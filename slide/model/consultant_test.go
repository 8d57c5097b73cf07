package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"teamslide-backend/slide/rules"
)

func TestPadBullets_AlwaysThree(t *testing.T) {
	filler := "filler"
	cases := []struct {
		name string
		in   []string
		want [BulletCount]string
	}{
		{name: "none", in: nil, want: [BulletCount]string{filler, filler, filler}},
		{name: "one", in: []string{"a"}, want: [BulletCount]string{"a", filler, filler}},
		{name: "two", in: []string{"a", "b"}, want: [BulletCount]string{"a", "b", filler}},
		{name: "five", in: []string{"a", "b", "c", "d", "e"}, want: [BulletCount]string{"a", "b", "c"}},
		{name: "blank entries skipped", in: []string{" ", "a"}, want: [BulletCount]string{"a", filler, filler}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PadBullets(tc.in, filler))
		})
	}
}

func TestPlaceholder_UsesDefaults(t *testing.T) {
	d := rules.Default().Defaults
	rec := Placeholder("Jane Doe", d)

	assert.True(t, rec.Defaulted)
	assert.Equal(t, "Jane Doe", rec.Name)
	assert.Equal(t, "Jane", rec.FirstName)
	assert.Equal(t, "Doe", rec.LastName)
	assert.Equal(t, "Senior Consultant", rec.Role)
	assert.Equal(t, "Global", rec.Location)
	assert.Equal(t, d.DefaultYearsPhrase(), rec.YearsExperience)
	assert.Equal(t, [BulletCount]string{d.Filler, d.Filler, d.Filler}, rec.Bullets)
	assert.False(t, rec.HasHeadshot())
}

func TestNew_ParsedNameWins(t *testing.T) {
	rec := New(Fields{ProvidedName: "gregor ledebur", FirstName: "Gregor", LastName: "von Ledebur"}, rules.Default().Defaults)
	assert.Equal(t, "Gregor von Ledebur", rec.Name)
	assert.False(t, rec.Defaulted)
}

func TestSplitName(t *testing.T) {
	first, last := SplitName("  Anna  Maria  Schmidt ")
	assert.Equal(t, "Anna", first)
	assert.Equal(t, "Maria Schmidt", last)

	first, last = SplitName("Cher")
	assert.Equal(t, "Cher", first)
	assert.Empty(t, last)
}

func TestExperienceLines(t *testing.T) {
	rec := Placeholder("A B", rules.Default().Defaults)
	lines := rec.ExperienceLines()
	assert.Len(t, lines, 5)
	assert.Equal(t, "3+ years of consulting", lines[0])
	assert.Equal(t, rec.Bullets[2], lines[4])
}
