package errors

import (
	"strings"
	"unicode"
)

// ValidateDocumentName validates a stored-document name.
// It rejects names that could be used for path traversal or injection
// when names appear in cache keys and file paths.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateDocumentName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "document name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "document name too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "document name contains invalid control characters")
		}
	}

	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return New(ErrCodeInvalidInput, "document name cannot contain path separators")
	}

	return nil
}

// ValidateNodeID validates a node id before it is resolved against a
// document. Node ids are JSONPath expressions rooted at $.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidPath, "node id cannot be empty")
	}

	const maxIDLength = 1024
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidPath, "node id too long (max %d characters)", maxIDLength)
	}

	if !strings.HasPrefix(id, "$") {
		return New(ErrCodeInvalidPath, "node id must start with $")
	}

	for _, r := range id {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "node id contains invalid characters")
		}
	}

	return nil
}
