package errors

import (
	"strings"
	"unicode"
)

// ValidateOutputName validates an output file name given on the command line.
//
// The name must be non-empty without control characters and must not end in
// a path separator. Relative and absolute paths are both allowed.
func ValidateOutputName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidArguments, "output name cannot be empty")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidArguments, "output name contains invalid control characters")
		}
	}

	if strings.HasSuffix(name, "/") || strings.HasSuffix(name, "\\") {
		return New(ErrCodeInvalidArguments, "output name must be a file, got directory %q", name)
	}

	return nil
}

// ValidateSchemeName validates a prioritization scheme label.
// Scheme names become file names ("<scheme>.pdf"), so they must be simple basenames.
func ValidateSchemeName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidArguments, "scheme name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidArguments, "scheme name too long (max 128 characters)")
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidArguments, "scheme name cannot contain path separators")
	}

	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidArguments, "scheme name cannot contain %q", "..")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidArguments, "scheme name contains invalid control characters")
		}
	}

	return nil
}
