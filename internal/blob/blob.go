// Package blob implements the per-table blob namespace contract (§4.7):
// filename-validated put/get/delete/exists over a pluggable backend, with
// extension-based MIME inference.
package blob

import (
	"regexp"
	"strings"
)

// FilenamePattern is the closed filename grammar every blob operation
// validates against: no path separators, no traversal, a single
// extension.
var FilenamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*\.[a-zA-Z0-9]+$`)

// Code enumerates the blob error codes (§4.7).
type Code string

const (
	CodeInvalidFilename Code = "INVALID_FILENAME"
	CodeWriteFailed     Code = "WRITE_FAILED"
	CodeReadFailed      Code = "READ_FAILED"
	CodeDeleteFailed    Code = "DELETE_FAILED"
)

// Error is the tagged error every blob operation returns on failure.
type Error struct {
	Filename string
	Code     Code
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return string(e.Code) + ": " + e.Filename + ": " + e.Cause.Error()
	}
	return string(e.Code) + ": " + e.Filename
}

func (e *Error) Unwrap() error { return e.Cause }

// ValidateFilename enforces the blob filename grammar (§4.7, testable
// property 12): no "/", "\", or "..", a single trailing extension.
func ValidateFilename(filename string) error {
	if !FilenamePattern.MatchString(filename) {
		return &Error{Filename: filename, Code: CodeInvalidFilename}
	}
	for _, forbidden := range []string{"..", "/", "\\"} {
		if strings.Contains(filename, forbidden) {
			return &Error{Filename: filename, Code: CodeInvalidFilename}
		}
	}
	return nil
}

// Store is the contract a blob backend implements (§4.7).
type Store interface {
	Put(filename string, data []byte) error
	Get(filename string) ([]byte, bool, error)
	Delete(filename string) error
	Exists(filename string) (bool, error)
}
