package forms

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TemplateFileInfo describes one PDF file found in the template directory.
type TemplateFileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// ScanTemplateDirectory lists the valid PDF files under a directory. Hidden
// directories are skipped, unreadable entries are passed over, and a limit
// greater than zero caps the result count.
func ScanTemplateDirectory(directory string, validator *TemplateValidator, limit int) ([]TemplateFileInfo, error) {
	if directory == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}
	if _, err := os.Stat(directory); os.IsNotExist(err) {
		return nil, fmt.Errorf("directory does not exist: %s", directory)
	}

	absDirectory, err := filepath.Abs(directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}

	var files []TemplateFileInfo
	err = filepath.WalkDir(absDirectory, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // Keep walking past entries we cannot read
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != absDirectory {
				return filepath.SkipDir
			}
			return nil
		}

		if limit > 0 && len(files) >= limit {
			return filepath.SkipAll
		}

		if !strings.HasSuffix(strings.ToLower(d.Name()), ".pdf") {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr // Intentionally continue on file errors
		}
		if err := validator.ValidateFileInfo(path, info); err != nil {
			return nil //nolint:nilerr // Intentionally continue on validation errors
		}

		files = append(files, TemplateFileInfo{
			Path:         path,
			Name:         info.Name(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory: %w", err)
	}

	return files, nil
}
