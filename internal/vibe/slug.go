package vibe

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	slugStrip     = regexp.MustCompile(`[^a-z0-9-]`)
)

// Slugify lowercases name, collapses whitespace runs into single hyphens and
// drops every character outside [a-z0-9-]. "Cozy Cabin!" becomes "cozy-cabin".
func Slugify(name string) string {
	slug := strings.ToLower(name)
	slug = whitespaceRun.ReplaceAllString(slug, "-")
	return slugStrip.ReplaceAllString(slug, "")
}
