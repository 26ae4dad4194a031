package loader

import (
	"errors"
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Error codes reported by the loader.
const (
	ErrCodeNotFound   = "E201" // Path not found
	ErrCodeNoFiles    = "E202" // No CUE files found
	ErrCodeLoadFailed = "E203" // CUE load or build failed
	ErrCodeSchema     = "E204" // Description does not match the schema
	ErrCodeSignature  = "E205" // Malformed member signature or reference
	ErrCodeDuplicate  = "E206" // Class defined twice
	ErrCodeCycle      = "E207" // Class is its own supertype
)

// LoadError is a description error, with the CUE position when known.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsLoadError returns true if err is or wraps a *LoadError.
func IsLoadError(err error) bool {
	var e *LoadError
	return errors.As(err, &e)
}

// formatCUEError converts the first CUE error into a LoadError carrying
// its position.
func formatCUEError(err error, code string) error {
	if err == nil {
		return nil
	}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}
	first := errs[0]
	le := &LoadError{Code: code, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
