package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateGroupName validates a partition group name for safety and
// correctness. Group names end up as module attribute names and file name
// fragments, so the rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - Letters, digits, underscore, hyphen only
//   - Maximum length of 256 characters
func ValidateGroupName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidAssignment, "group name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidAssignment, "group name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidAssignment, "group name contains invalid control characters")
		}
	}

	if !groupNameRegex.MatchString(name) {
		return New(ErrCodeInvalidAssignment, "invalid group name: %q", name)
	}

	return nil
}

// groupNameRegex matches names safe to embed in attribute names and paths.
var groupNameRegex = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_-]*$`)

// ValidateNodeName validates a graph node name referenced from an assignment
// table. Node names are produced by the graph builder, so anything outside
// its identifier alphabet is a sign of a corrupted or hand-edited file.
func ValidateNodeName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidAssignment, "node name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidAssignment, "node name too long (max 256 characters)")
	}

	if !nodeNameRegex.MatchString(name) {
		return New(ErrCodeInvalidAssignment, "invalid node name: %q", name)
	}

	return nil
}

var nodeNameRegex = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidatePath validates a user-supplied file path for safety.
// It prevents path traversal and ensures reasonable path length.
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

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	return nil
}

// ValidateFormat validates an output format name against the supported set.
func ValidateFormat(format string) error {
	switch format {
	case "dot", "svg", "json":
		return nil
	case "":
		return New(ErrCodeInvalidFormat, "format cannot be empty")
	default:
		return New(ErrCodeInvalidFormat, "unsupported format: %q (want dot, svg, or json)", format)
	}
}

// ValidateURL validates a backend URL string for safety.
// It ensures the URL has a scheme this application knows how to dial.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	for _, scheme := range []string{"redis://", "rediss://", "mongodb://", "mongodb+srv://", "http://", "https://"} {
		if strings.HasPrefix(rawURL, scheme) {
			return nil
		}
	}
	return New(ErrCodeInvalidInput, "URL must use a supported scheme")
}
