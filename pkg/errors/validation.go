package errors

import (
	"strings"
	"unicode"
)

// ValidateIdentifier validates a BIDS-style label such as a participant,
// session or task label. Labels become part of output filenames, so they
// must be a single path element.
//
// The validation rules are intentionally conservative:
//   - No empty labels
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateIdentifier(kind, label string) error {
	if label == "" {
		return New(ErrCodeInvalidInput, "%s cannot be empty", kind)
	}

	if len(label) > 128 {
		return New(ErrCodeInvalidInput, "%s too long (max 128 characters)", kind)
	}

	for _, r := range label {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "%s contains invalid characters: %q", kind, label)
		}
	}

	for _, pattern := range []string{"..", "/", "\\", "\x00"} {
		if strings.Contains(label, pattern) {
			return New(ErrCodeInvalidInput, "%s contains invalid characters: %q", kind, pattern)
		}
	}

	return nil
}

// ValidateSubdir validates a directory path that must stay inside its parent
// (the optional summary subdirectory below the derivatives root).
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidateSubdir(path string) error {
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

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// IsUnset reports whether a CLI value should be treated as absent. Wrapper
// scripts pass the literal string NONE for optional arguments.
func IsUnset(v string) bool {
	return v == "" || strings.EqualFold(v, "none")
}
