package forms

import (
	"fmt"

	"github.com/docketforge/mcp-form-filler/internal/forms/rowset"
)

// DefaultCourtDirectory returns the Colorado county court address table
// consulted by court-address enrichment steps.
func DefaultCourtDirectory() *CourtDirectory {
	return NewCourtDirectory(map[string]CourtRecord{
		"adams":      {Street: "1100 Judicial Center Dr.", City: "Brighton", State: "CO", Zip: "80601"},
		"arapahoe":   {Street: "7325 S. Potomac St.", City: "Centennial", State: "CO", Zip: "80112"},
		"boulder":    {Street: "1777 6th St.", City: "Boulder", State: "CO", Zip: "80302"},
		"broomfield": {Street: "17 DesCombes Dr.", City: "Broomfield", State: "CO", Zip: "80020"},
		"denver":     {Street: "1437 Bannock St.", City: "Denver", State: "CO", Zip: "80202"},
		"douglas":    {Street: "4000 Justice Way", City: "Castle Rock", State: "CO", Zip: "80109"},
		"el paso":    {Street: "270 S. Tejon St.", City: "Colorado Springs", State: "CO", Zip: "80903"},
		"jefferson":  {Street: "100 Jefferson County Pkwy", City: "Golden", State: "CO", Zip: "80419"},
		"larimer":    {Street: "201 La Porte Ave.", City: "Fort Collins", State: "CO", Zip: "80521"},
		"mesa":       {Street: "125 N. Spruce St.", City: "Grand Junction", State: "CO", Zip: "81501"},
		"pueblo":     {Street: "501 N. Elizabeth St.", City: "Pueblo", State: "CO", Zip: "81003"},
		"weld":       {Street: "901 9th Ave.", City: "Greeley", State: "CO", Zip: "80631"},
	})
}

// BuiltinTemplates returns the statically defined template catalog. Field
// names mirror the interactive fields on the Colorado FED (forcible entry
// and detainer) court forms, which label the parties with the symbolic
// plaintiff and defendant marks.
func BuiltinTemplates() []Template {
	return []Template{
		{
			ID:          "co-fed-packet",
			DisplayName: "Colorado Eviction Filing Packet (Complaint + Summons)",
			NameColumn:  "Tenant",
			Documents: []OutputDescriptor{
				{
					Source: "jdf99_complaint.pdf",
					Label:  "Complaint",
					Mapping: FieldMapping{
						MapField("Tenant", "∆"),
						MapField("Landlord", "π", "Plaintiff Signature Name"),
						MapField("PropertyAddress", "Property Address"),
						MapField("County", "County"),
						MapField("CaseNumber", "Case Number"),
						MapField("MonthlyRent", "Monthly Rent"),
						MapField("PossessionOnly", "Possession Only"),
					},
					Enrich: []EnrichStep{
						CourtAddress("County", "Court Address"),
						CopyAmount("AmountOwed", "Amount Due"),
						DateStamp("Date"),
						Custom("caption", captionStep),
					},
				},
				{
					Source: "jdf101_summons.pdf",
					Label:  "Summons",
					Mapping: FieldMapping{
						MapField("Tenant", "∆"),
						MapField("Landlord", "π"),
						MapField("County", "County"),
						MapField("CaseNumber", "Case Number"),
						MapField("PropertyAddress", "Property Address"),
					},
					Enrich: []EnrichStep{
						CourtAddress("County", "Court Address"),
						DateStamp("Date"),
					},
				},
			},
		},
		{
			ID:          "co-fed-complaint",
			DisplayName: "Colorado Eviction Complaint (JDF 99)",
			NameColumn:  "Tenant",
			Documents: []OutputDescriptor{
				{
					Source: "jdf99_complaint.pdf",
					Label:  "Complaint",
					Mapping: FieldMapping{
						MapField("Tenant", "∆"),
						MapField("Landlord", "π", "Plaintiff Signature Name"),
						MapField("PropertyAddress", "Property Address"),
						MapField("County", "County"),
						MapField("CaseNumber", "Case Number"),
						MapField("MonthlyRent", "Monthly Rent"),
						MapField("PossessionOnly", "Possession Only"),
					},
					Enrich: []EnrichStep{
						CourtAddress("County", "Court Address"),
						CopyAmount("AmountOwed", "Amount Due"),
						DateStamp("Date"),
					},
				},
			},
		},
		{
			ID:          "co-demand-notice",
			DisplayName: "Demand for Compliance or Possession Notice",
			NameColumn:  "Tenant",
			Documents: []OutputDescriptor{
				{
					Source: "demand_notice.pdf",
					Label:  "Demand Notice",
					Mapping: FieldMapping{
						MapField("Tenant", "∆", "Tenant Name"),
						MapField("Landlord", "π"),
						MapField("PropertyAddress", "Property Address"),
					},
					Enrich: []EnrichStep{
						CopyAmount("AmountOwed", "Amount Due"),
						DateStamp("Notice Date"),
					},
				},
			},
		},
	}
}

// captionStep synthesizes the case caption from the party columns. Both
// parties must be present; otherwise the caption keeps its template default.
func captionStep(doc FieldSetter, row rowset.Row) error {
	landlord, _ := row.Get("Landlord")
	tenant, _ := row.Get("Tenant")
	if landlord == "" || tenant == "" {
		return nil
	}
	return doc.SetText("Caption", fmt.Sprintf("%s v. %s", landlord, tenant))
}
