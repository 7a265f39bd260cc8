package acroform

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/text/encoding/unicode"
)

// encodeTextString encodes a field value as a UTF-16BE text string with a
// byte order mark, written as a hex literal. UTF-16BE is the one PDF text
// string form that carries every Unicode code point, so values like the
// section and delta symbols used on court forms round-trip without damage.
// Encoders are stateful, so one is built per call; fills may run on several
// goroutines at once.
func encodeTextString(s string) (types.Object, error) {
	encoder := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder()
	encoded, err := encoder.Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("UTF-16 encoding failed: %w", err)
	}
	return types.NewHexLiteral(encoded), nil
}
