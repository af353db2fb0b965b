package expr

import (
	"errors"
	"fmt"
)

// ErrSyntax is matched by every error returned from Parse.
var ErrSyntax = errors.New("invalid condition")

// SyntaxError describes where parsing failed.
type SyntaxError struct {
	// Text is the condition being parsed.
	Text string

	// Offset is the byte offset of the failure.
	Offset int

	Message string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at offset %d in %q", e.Message, e.Offset, e.Text)
}

// Unwrap returns ErrSyntax.
func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}
