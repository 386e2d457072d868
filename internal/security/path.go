package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator confines document access to a single configured directory.
// Everything processed must resolve, symlinks included, to a path inside it.
type PathValidator struct {
	root string
}

// NewPathValidator creates a validator rooted at dir. The directory does not
// need to exist yet; validation is skipped until it does.
func NewPathValidator(dir string) (*PathValidator, error) {
	if dir == "" {
		return nil, fmt.Errorf("document directory cannot be empty")
	}
	return &PathValidator{root: dir}, nil
}

// Root returns the configured document directory.
func (v *PathValidator) Root() string {
	return v.root
}

// ValidatePDFPath checks that path names a .pdf file inside the document
// directory.
func (v *PathValidator) ValidatePDFPath(path string) error {
	if err := v.ValidatePath(path); err != nil {
		return err
	}
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return fmt.Errorf("not a PDF file: %s", path)
	}
	return nil
}

// ValidatePath checks that path resolves inside the document directory.
func (v *PathValidator) ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if _, err := os.Stat(v.root); os.IsNotExist(err) {
		return nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	within, err := v.within(abs)
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}
	if !within {
		return fmt.Errorf("path is outside document directory: %s", path)
	}
	return nil
}

// Normalize resolves path to an absolute location inside the document
// directory. Relative paths are joined onto the directory first. Null bytes
// are stripped before resolution.
func (v *PathValidator) Normalize(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(v.root, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if err := v.ValidatePath(abs); err != nil {
		return "", err
	}
	return abs, nil
}

// within reports whether abs lies under the root, comparing both the literal
// path and its symlink-resolved form so links cannot escape the directory.
func (v *PathValidator) within(abs string) (bool, error) {
	rootAbs, err := filepath.Abs(v.root)
	if err != nil {
		return false, fmt.Errorf("failed to resolve document directory: %w", err)
	}

	cleanPath := filepath.Clean(abs)
	cleanRoot := filepath.Clean(rootAbs)

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

	return underDir(cleanPath, cleanRoot, realRoot) && underDir(realPath, cleanRoot, realRoot), nil
}

func underDir(path string, dirs ...string) bool {
	for _, dir := range dirs {
		if path == dir {
			return true
		}
		withSep := dir
		if !strings.HasSuffix(withSep, string(filepath.Separator)) {
			withSep += string(filepath.Separator)
		}
		if strings.HasPrefix(path, withSep) {
			return true
		}
	}
	return false
}
