package acroform

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Field flag bits from the PDF specification, Btn subtype.
const (
	flagRadio      = 1 << 15
	flagPushbutton = 1 << 16
)

// indexFields walks the AcroForm field tree and registers every terminal
// field under its fully qualified (dotted) name. Documents without an
// AcroForm dictionary index zero fields and remain loadable.
func (d *Document) indexFields() error {
	rootDict, err := d.ctx.Catalog()
	if err != nil {
		return fmt.Errorf("failed to get document catalog: %w", err)
	}

	acroObj, found := rootDict.Find("AcroForm")
	if !found {
		return nil
	}
	acroDict, err := d.ctx.DereferenceDict(acroObj)
	if err != nil || acroDict == nil {
		return nil
	}
	d.acroDict = acroDict

	fieldsObj, found := acroDict.Find("Fields")
	if !found {
		return nil
	}
	fieldsArr, err := d.ctx.DereferenceArray(fieldsObj)
	if err != nil || fieldsArr == nil {
		return nil
	}

	for _, obj := range fieldsArr {
		d.walkField(obj, "", "", 0)
	}
	return nil
}

// walkField visits one node of the field tree. Nodes whose kids carry /T are
// internal; their name segment prefixes the kids. Kids without /T are widget
// annotations of the node itself, which makes the node terminal. /FT and /Ff
// inherit downward.
func (d *Document) walkField(obj types.Object, prefix, inheritedFT string, inheritedFlags int) {
	fieldDict, err := d.ctx.DereferenceDict(obj)
	if err != nil || fieldDict == nil {
		return
	}

	name := prefix
	if segment := d.fieldName(fieldDict); segment != "" {
		if name != "" {
			name = name + "." + segment
		} else {
			name = segment
		}
	}

	ft := inheritedFT
	if own := d.fieldType(fieldDict); own != "" {
		ft = own
	}
	flags := inheritedFlags
	if own, ok := d.fieldFlags(fieldDict); ok {
		flags = own
	}

	var widgets []types.Dict
	terminal := true
	if kidsObj, found := fieldDict.Find("Kids"); found {
		kidsArr, err := d.ctx.DereferenceArray(kidsObj)
		if err == nil && kidsArr != nil {
			for _, kidObj := range kidsArr {
				kidDict, err := d.ctx.DereferenceDict(kidObj)
				if err != nil || kidDict == nil {
					continue
				}
				if _, hasName := kidDict.Find("T"); hasName {
					terminal = false
					d.walkField(kidObj, name, ft, flags)
					continue
				}
				widgets = append(widgets, kidDict)
			}
		}
	}
	if !terminal {
		return
	}
	if len(widgets) == 0 {
		widgets = []types.Dict{fieldDict}
	}

	if name == "" {
		return
	}

	if existing, ok := d.fields[name]; ok {
		// Same name appearing more than once is one logical field with
		// several value dictionaries.
		existing.values = append(existing.values, fieldDict)
		existing.widgets = append(existing.widgets, widgets...)
		return
	}

	d.fields[name] = &fieldRef{
		name:    name,
		kind:    kindFromFT(ft, flags),
		values:  []types.Dict{fieldDict},
		widgets: widgets,
	}
	d.order = append(d.order, name)
}

// fieldName extracts the partial field name from /T.
func (d *Document) fieldName(fieldDict types.Dict) string {
	nameObj, found := fieldDict.Find("T")
	if !found {
		return ""
	}
	name, err := d.ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil)
	if err != nil {
		return ""
	}
	return name
}

// fieldType extracts the field type name from /FT.
func (d *Document) fieldType(fieldDict types.Dict) string {
	ftObj, found := fieldDict.Find("FT")
	if !found {
		return ""
	}
	ftName, err := d.ctx.DereferenceName(ftObj, model.V10, nil)
	if err != nil {
		return ""
	}
	return string(ftName)
}

// fieldFlags extracts the field flag bits from /Ff.
func (d *Document) fieldFlags(fieldDict types.Dict) (int, bool) {
	flagsObj, found := fieldDict.Find("Ff")
	if !found {
		return 0, false
	}
	flags, err := d.ctx.DereferenceInteger(flagsObj)
	if err != nil || flags == nil {
		return 0, false
	}
	return int(*flags), true
}

// kindFromFT maps a /FT type name plus /Ff flag bits to a field kind.
func kindFromFT(ft string, flags int) Kind {
	switch ft {
	case "Tx":
		return KindText
	case "Btn":
		if flags&flagRadio != 0 {
			return KindRadio
		}
		if flags&flagPushbutton != 0 {
			return KindButton
		}
		return KindCheckBox
	case "Ch":
		return KindChoice
	case "Sig":
		return KindSignature
	default:
		return KindUnknown
	}
}

// onState returns the appearance state name that checks this field. It scans
// the widget normal-appearance dictionaries for the first state other than
// Off and falls back to the conventional Yes.
func (d *Document) onState(ref *fieldRef) string {
	for _, widget := range ref.widgets {
		apObj, found := widget.Find("AP")
		if !found {
			continue
		}
		apDict, err := d.ctx.DereferenceDict(apObj)
		if err != nil || apDict == nil {
			continue
		}
		nObj, found := apDict.Find("N")
		if !found {
			continue
		}
		nDict, err := d.ctx.DereferenceDict(nObj)
		if err != nil || nDict == nil {
			continue
		}
		for state := range nDict {
			if state != "Off" {
				return state
			}
		}
	}
	return "Yes"
}

// fieldValue renders the current /V entry of a field for enumeration. Text
// and choice values come back as strings, checkboxes as true or false, other
// kinds as empty.
func (d *Document) fieldValue(ref *fieldRef) string {
	valueObj, found := findFirst(ref.values, "V")
	if !found {
		return ""
	}

	switch ref.kind {
	case KindText, KindChoice:
		value, err := d.ctx.DereferenceStringOrHexLiteral(valueObj, model.V10, nil)
		if err != nil {
			return ""
		}
		return value
	case KindCheckBox, KindRadio:
		state, err := d.ctx.DereferenceName(valueObj, model.V10, nil)
		if err != nil {
			return ""
		}
		if ref.kind == KindRadio {
			return string(state)
		}
		if state != "Off" && state != "" {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// findFirst looks a key up across several dictionaries in order.
func findFirst(dicts []types.Dict, key string) (types.Object, bool) {
	for _, dict := range dicts {
		if obj, found := dict.Find(key); found {
			return obj, true
		}
	}
	return nil, false
}
