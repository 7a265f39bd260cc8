// Package acroform is the PDF form primitive used by the fill pipeline.
//
// It loads a template byte buffer into a mutable in-memory document, sets
// text and checkbox fields by exact name, enumerates the interactive fields,
// and serializes the filled document back to bytes. Everything is built on
// pdfcpu's model context; no PDF parsing is reimplemented here.
package acroform

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Per-field failure conditions. Both are recoverable from the caller's point
// of view: a fill loop logs and moves on, it never aborts on them.
var (
	// ErrFieldNotFound reports that no interactive field carries the name.
	ErrFieldNotFound = errors.New("form field not found")

	// ErrFieldKind reports that the field exists but is not of the kind the
	// operation requires.
	ErrFieldKind = errors.New("form field kind mismatch")
)

// Kind identifies what sort of interactive field a name resolves to.
type Kind string

const (
	KindUnknown   Kind = "unknown"
	KindText      Kind = "text"
	KindCheckBox  Kind = "checkbox"
	KindRadio     Kind = "radio"
	KindButton    Kind = "button"
	KindChoice    Kind = "choice"
	KindSignature Kind = "signature"
)

// Field describes one terminal form field for enumeration surfaces.
type Field struct {
	Name  string `json:"name"`
	Kind  Kind   `json:"kind"`
	Value string `json:"value,omitempty"`
}

// Document is one mutable in-memory form instance. Load a fresh Document per
// fill; instances are not safe for concurrent use and must never be shared
// across rows.
type Document struct {
	ctx      *model.Context
	acroDict types.Dict
	fields   map[string]*fieldRef
	order    []string
	needsAP  bool
}

// fieldRef collects the dictionaries a named field resolves to. values carry
// the /V entry; widgets carry /AS and appearance state. A merged field is its
// own single widget.
type fieldRef struct {
	name    string
	kind    Kind
	values  []types.Dict
	widgets []types.Dict
}

// Load builds a Document from raw PDF bytes. The buffer is never mutated;
// each call yields an independent instance.
func Load(b []byte) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("panic while loading document: %v", r)
		}
	}()

	if len(b) == 0 {
		return nil, fmt.Errorf("empty document buffer")
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(b), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	d := &Document{
		ctx:    ctx,
		fields: make(map[string]*fieldRef),
	}
	if err := d.indexFields(); err != nil {
		return nil, err
	}
	return d, nil
}

// LoadFile reads the PDF at path fully into memory and loads it. Keeping the
// bytes in memory avoids pdfcpu lazily reading from a closed file handle.
func LoadFile(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF file: %w", err)
	}
	return Load(b)
}

// PageCount returns the number of pages in the loaded document.
func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

// Fields enumerates the terminal form fields in document order.
func (d *Document) Fields() []Field {
	out := make([]Field, 0, len(d.order))
	for _, name := range d.order {
		ref := d.fields[name]
		out = append(out, Field{
			Name:  ref.name,
			Kind:  ref.kind,
			Value: d.fieldValue(ref),
		})
	}
	return out
}

// FieldNames returns the terminal field names in document order.
func (d *Document) FieldNames() []string {
	names := make([]string, len(d.order))
	copy(names, d.order)
	return names
}

// HasField reports whether a field with the exact name exists.
func (d *Document) HasField(name string) bool {
	_, ok := d.fields[name]
	return ok
}

// FieldKind returns the kind of the named field, or KindUnknown when absent.
func (d *Document) FieldKind(name string) Kind {
	if ref, ok := d.fields[name]; ok {
		return ref.kind
	}
	return KindUnknown
}

// SetText sets a text field's value. The value is written as a UTF-16BE text
// string so symbolic and non-ASCII field values survive unchanged. Stale
// appearance streams are dropped and viewers are asked to regenerate them.
func (d *Document) SetText(name, value string) error {
	ref, ok := d.fields[name]
	if !ok {
		return fmt.Errorf("%q: %w", name, ErrFieldNotFound)
	}
	if ref.kind != KindText {
		return fmt.Errorf("%q is %s, not %s: %w", name, ref.kind, KindText, ErrFieldKind)
	}

	encoded, err := encodeTextString(value)
	if err != nil {
		return fmt.Errorf("failed to encode value for %q: %w", name, err)
	}

	for _, dict := range ref.values {
		dict["V"] = encoded
	}
	for _, widget := range ref.widgets {
		delete(widget, "AP")
	}
	d.needsAP = true
	return nil
}

// SetCheckBox sets a checkbox field checked or unchecked. Both states are
// written explicitly: checked selects the widget's on-state appearance name,
// unchecked selects Off.
func (d *Document) SetCheckBox(name string, checked bool) error {
	ref, ok := d.fields[name]
	if !ok {
		return fmt.Errorf("%q: %w", name, ErrFieldNotFound)
	}
	if ref.kind != KindCheckBox {
		return fmt.Errorf("%q is %s, not %s: %w", name, ref.kind, KindCheckBox, ErrFieldKind)
	}

	state := types.Name("Off")
	if checked {
		state = types.Name(d.onState(ref))
	}

	for _, dict := range ref.values {
		dict["V"] = state
	}
	for _, widget := range ref.widgets {
		widget["AS"] = state
	}
	return nil
}

// Save serializes the document, including all mutations, to bytes.
func (d *Document) Save() (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("panic while writing document: %v", r)
		}
	}()

	if d.needsAP && d.acroDict != nil {
		d.acroDict["NeedAppearances"] = types.Boolean(true)
	}

	var buf bytes.Buffer
	if err := api.WriteContext(d.ctx, &buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF context: %w", err)
	}
	return buf.Bytes(), nil
}
