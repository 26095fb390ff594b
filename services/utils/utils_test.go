package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"My Film Co!!", "my-film-co"},
		{"A24", "a24"},
		{"  Spaced   Out  ", "spaced-out"},
		{"Über-Größe Films", "ber-gr-e-films"},
		{"---", ""},
		{"Already-Slugged", "already-slugged"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Slugify(tc.name), "Slugify(%q)", tc.name)
	}
}

func TestSlugifyCapsLength(t *testing.T) {
	long := ""
	for i := 0; i < 30; i++ {
		long += "abcde "
	}
	slug := Slugify(long)
	assert.LessOrEqual(t, len(slug), 50)
	assert.True(t, IsValidSlug(slug))
}

func TestIsValidSlug(t *testing.T) {
	valid := []string{"my-film-co", "a24", "x1", "studio-9-west"}
	for _, s := range valid {
		assert.True(t, IsValidSlug(s), "expected %q valid", s)
	}

	invalid := []string{"", "a", "My-Film", "double--dash", "-lead", "trail-", "has space", "ünicode"}
	for _, s := range invalid {
		assert.False(t, IsValidSlug(s), "expected %q invalid", s)
	}
}

func TestRandomToken(t *testing.T) {
	a, err := RandomToken(16)
	require.NoError(t, err)
	b, err := RandomToken(16)
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
