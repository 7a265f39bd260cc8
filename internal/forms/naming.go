package forms

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/docketforge/mcp-form-filler/internal/forms/rowset"
)

var (
	nonAlnumPattern      = regexp.MustCompile(`[^A-Za-z0-9]`)
	whitespaceRunPattern = regexp.MustCompile(`\s+`)
)

const maxBaseNameLen = 50

// OutputName derives the archive entry name for one (row, descriptor) unit.
// The base comes from the template's identifying column, falling back to
// Row_<n> when the column is absent or empty. Names are unique per run
// because row numbers are unique and descriptor label slugs are unique
// within a template, which the registry enforces at construction.
func OutputName(row rowset.Row, rowIndex int, nameColumn string, descriptor OutputDescriptor, descriptorCount int) string {
	base, _ := row.Get(nameColumn)
	if base == "" {
		base = fmt.Sprintf("Row_%d", rowIndex+1)
	}
	base = sanitizeBaseName(base)

	if descriptorCount <= 1 {
		return fmt.Sprintf("%s_%d.pdf", base, rowIndex+1)
	}
	return fmt.Sprintf("%s_%d_%s.pdf", base, rowIndex+1, labelSlug(descriptor.Label))
}

// sanitizeBaseName replaces every character outside A-Za-z0-9 with an
// underscore and truncates to a fixed width. Sanitized names are pure ASCII,
// so byte truncation is rune safe.
func sanitizeBaseName(base string) string {
	sanitized := nonAlnumPattern.ReplaceAllString(base, "_")
	if len(sanitized) > maxBaseNameLen {
		sanitized = sanitized[:maxBaseNameLen]
	}
	return sanitized
}

// labelSlug lowers a descriptor label and collapses whitespace runs to
// single underscores.
func labelSlug(label string) string {
	return whitespaceRunPattern.ReplaceAllString(strings.ToLower(label), "_")
}
