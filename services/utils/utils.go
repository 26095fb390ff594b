package utils

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"strings"
)

var (
	slugInvalid  = regexp.MustCompile(`[^a-z0-9]+`)
	slugHyphens  = regexp.MustCompile(`-{2,}`)
	slugValidate = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// Slugify derives a URL-safe candidate from a human-readable name:
// "My Film Co!!" becomes "my-film-co".
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugInvalid.ReplaceAllString(s, "-")
	s = slugHyphens.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 50 {
		s = strings.Trim(s[:50], "-")
	}
	return s
}

// IsValidSlug reports whether slug is lowercase, hyphenated and within the
// accepted length.
func IsValidSlug(slug string) bool {
	if len(slug) < 2 || len(slug) > 50 {
		return false
	}
	return slugValidate.MatchString(slug)
}

// RandomToken returns n random bytes hex-encoded.
func RandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", b), nil
}
