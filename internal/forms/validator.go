package forms

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TemplateValidator checks that a template source file is a usable PDF
// before a run depends on it.
type TemplateValidator struct {
	maxFileSize int64
}

// NewTemplateValidator creates a validator with the given size limit.
func NewTemplateValidator(maxFileSize int64) *TemplateValidator {
	return &TemplateValidator{
		maxFileSize: maxFileSize,
	}
}

// ValidateFile performs the full check on one template file: it must exist,
// be a regular .pdf file within the size limit, and parse as a PDF.
func (v *TemplateValidator) ValidateFile(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("template file does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("cannot access template file: %w", err)
	}

	if err := v.ValidateFileInfo(path, fileInfo); err != nil {
		return err
	}

	// Parse check: a template that does not open as a PDF fails the run
	// preconditions, not the run itself.
	f, _, err := pdf.Open(path)
	if err != nil {
		return fmt.Errorf("invalid PDF file: %w", err)
	}
	defer f.Close()

	return nil
}

// ValidateFileInfo performs the stat-level checks without opening the file.
func (v *TemplateValidator) ValidateFileInfo(path string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}

	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", path)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", path)
	}

	if fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize)
	}

	return nil
}

// PageCount opens a template just far enough to count its pages.
func (v *TemplateValidator) PageCount(path string) (int, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("invalid PDF file: %w", err)
	}
	defer f.Close()

	return reader.NumPage(), nil
}

// IsValidPDF performs a quick pass-or-fail check.
func (v *TemplateValidator) IsValidPDF(path string) bool {
	return v.ValidateFile(path) == nil
}
