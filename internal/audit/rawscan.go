package audit

import (
	"bytes"
	"regexp"
)

var (
	fieldNamePattern = regexp.MustCompile(`/T\s*\((.*?)\)`)
	fieldTypePattern = regexp.MustCompile(`/FT\s*/(\w+)`)

	acroFormMarker = []byte("/AcroForm")
)

// ScanFieldNames recovers form field names from raw PDF bytes without
// parsing the document. Only names stored as literal strings outside
// compressed object streams are visible, so an empty result does not prove
// the document has no fields.
func ScanFieldNames(data []byte) []string {
	matches := fieldNamePattern.FindAllSubmatch(data, -1)

	seen := make(map[string]bool, len(matches))
	var names []string
	for _, match := range matches {
		name := string(match[1])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// CountFieldTypes tallies the /FT markers visible in raw PDF bytes.
func CountFieldTypes(data []byte) map[string]int {
	counts := make(map[string]int)
	for _, match := range fieldTypePattern.FindAllSubmatch(data, -1) {
		counts[string(match[1])]++
	}
	return counts
}

// HasAcroFormMarker reports whether the bytes reference an AcroForm
// dictionary at all.
func HasAcroFormMarker(data []byte) bool {
	return bytes.Contains(data, acroFormMarker)
}
