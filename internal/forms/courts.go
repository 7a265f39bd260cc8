package forms

import (
	"sort"
	"strings"
)

// CourtRecord is the address of one county court.
type CourtRecord struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

// CompositeAddress renders the single-line, upper-cased address used on
// court forms, e.g. "1777 6TH ST., BOULDER, CO 80302".
func (r CourtRecord) CompositeAddress() string {
	return strings.ToUpper(r.Street) + ", " + strings.ToUpper(r.City) + ", " + r.State + " " + r.Zip
}

// CourtDirectory is a read-only lookup of county courts keyed by county
// name. Lookups are case-insensitive; a missing county is a normal outcome,
// never an error.
type CourtDirectory struct {
	records map[string]CourtRecord
}

// NewCourtDirectory builds a directory from county name to court record.
// Keys are normalized once at construction.
func NewCourtDirectory(records map[string]CourtRecord) *CourtDirectory {
	normalized := make(map[string]CourtRecord, len(records))
	for county, record := range records {
		normalized[normalizeCounty(county)] = record
	}
	return &CourtDirectory{records: normalized}
}

// Lookup resolves a county name to its court record.
func (d *CourtDirectory) Lookup(county string) (CourtRecord, bool) {
	record, ok := d.records[normalizeCounty(county)]
	return record, ok
}

// Counties returns the known county keys in sorted order.
func (d *CourtDirectory) Counties() []string {
	out := make([]string, 0, len(d.records))
	for county := range d.records {
		out = append(out, county)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of directory entries.
func (d *CourtDirectory) Len() int {
	return len(d.records)
}

func normalizeCounty(county string) string {
	return strings.ToLower(strings.TrimSpace(county))
}
