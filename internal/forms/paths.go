package forms

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathGuard confines file access to one configured root directory. Template
// sources are resolved through a guard so a descriptor or request can never
// name a file outside the template directory, symlinks included.
type PathGuard struct {
	root string
}

// NewPathGuard creates a guard for the given root. The root does not have
// to exist yet; it may be created after startup.
func NewPathGuard(root string) (*PathGuard, error) {
	if root == "" {
		return nil, fmt.Errorf("root directory cannot be empty")
	}
	return &PathGuard{root: root}, nil
}

// Root returns the configured root directory.
func (g *PathGuard) Root() string {
	return g.root
}

// Resolve turns a file name, relative path, or absolute path into an
// absolute path and verifies it stays inside the root.
func (g *PathGuard) Resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	path := strings.ReplaceAll(name, "\x00", "")
	if !filepath.IsAbs(path) {
		path = filepath.Join(g.root, path)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	// A root that does not exist yet cannot be escaped from, so only a
	// lexical containment check applies until it is created.
	within, err := g.isWithinRoot(absPath)
	if err != nil {
		return "", fmt.Errorf("path validation failed: %w", err)
	}
	if !within {
		return "", fmt.Errorf("path is outside the configured directory: %s", name)
	}
	return absPath, nil
}

// isWithinRoot checks containment on both the lexical path and the symlink
// resolved path, against both forms of the root.
func (g *PathGuard) isWithinRoot(path string) (bool, error) {
	absRoot, err := filepath.Abs(g.root)
	if err != nil {
		return false, fmt.Errorf("failed to resolve root directory: %w", err)
	}

	cleanPath := filepath.Clean(path)
	cleanRoot := filepath.Clean(absRoot)

	realPath := cleanPath
	if info, err := os.Lstat(cleanPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if resolved, err := filepath.EvalSymlinks(cleanPath); err == nil {
			realPath = resolved
		}
	}

	realRoot := cleanRoot
	if resolved, err := filepath.EvalSymlinks(cleanRoot); err == nil {
		realRoot = resolved
	}

	return containedIn(cleanPath, cleanRoot, realRoot) && containedIn(realPath, cleanRoot, realRoot), nil
}

// containedIn reports whether path equals or sits under either directory.
func containedIn(path string, dirs ...string) bool {
	for _, dir := range dirs {
		if path == dir {
			return true
		}
		prefix := dir
		if !strings.HasSuffix(prefix, string(filepath.Separator)) {
			prefix += string(filepath.Separator)
		}
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// EnsureDir verifies a resolved path exists and is a directory, creating it
// when absent.
func (g *PathGuard) EnsureDir(name string) (string, error) {
	path, err := g.Resolve(name)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
		return path, nil
	}
	if err != nil {
		return "", fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", path)
	}
	return path, nil
}
