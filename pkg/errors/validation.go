package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// ValidatePath validates an output file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	return nil
}

// ValidateFilename validates a bare output filename such as "boundaries.json".
// It ensures the filename has no path components.
func ValidateFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidPath, "filename cannot be empty")
	}
	if strings.ContainsAny(filename, "/\\") {
		return New(ErrCodeInvalidPath, "filename cannot contain path separators")
	}
	if filename == "." || filename == ".." {
		return New(ErrCodeInvalidPath, "filename %q is reserved", filename)
	}
	return nil
}

// ValidatePositive reports a configuration error when v is not strictly positive.
func ValidatePositive(name string, v float64) error {
	if !(v > 0) {
		return New(ErrCodeConfiguration, "%s must be positive, got %g", name, v)
	}
	return nil
}
