// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug derives URL-friendly page identifiers from titles.
package slug

import (
	"regexp"
	"strings"
	"time"
)

var (
	// disallowed matches anything that isn't a lowercase letter, digit,
	// whitespace, or hyphen.
	disallowed = regexp.MustCompile(`[^a-z0-9\s-]`)
	// separators collapses runs of whitespace and hyphens into one hyphen.
	separators = regexp.MustCompile(`[\s-]+`)
)

// maxLen caps generated slugs so they stay usable in URLs and unique
// indexes. The slug column is 255 chars; the timestamp suffix needs room.
const maxLen = 200

// Generate creates a URL-friendly slug from a page title.
// Example: "API Design: Error Handling" → "api-design-error-handling"
func Generate(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = disallowed.ReplaceAllString(s, "")
	s = separators.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxLen {
		s = strings.Trim(s[:maxLen], "-")
	}
	return s
}

// Timestamped appends a compact timestamp to a slug. Used when the plain
// slug already exists within the project.
func Timestamped(s string, now time.Time) string {
	if s == "" {
		return now.Format("20060102150405")
	}
	return s + "-" + now.Format("20060102150405")
}
