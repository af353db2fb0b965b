package dbgp

import (
	"errors"
	"fmt"
)

// Errors returned by the DBGp client and session.
var (
	// ErrClosed indicates the connection to the debuggee has been closed.
	ErrClosed = errors.New("dbgp connection closed")

	// ErrUnknownPacket indicates a packet with an unexpected root element.
	ErrUnknownPacket = errors.New("unknown dbgp packet")

	// ErrMalformedFrame indicates a frame that violates length\0xml\0 framing.
	ErrMalformedFrame = errors.New("malformed dbgp frame")

	// ErrNoInit indicates the connection closed before the init packet.
	ErrNoInit = errors.New("debuggee sent no init packet")
)

// Error codes the session interprets.
const (
	// CodeInvalidStackDepth is reported for a stack level that does not exist.
	CodeInvalidStackDepth = 301
	// CodeNoSuchContext is reported for an unknown context id.
	CodeNoSuchContext = 302
	// CodePropertyNotFound is reported for a property that does not exist.
	CodePropertyNotFound = 300
)

// CommandError is an error response from the debuggee.
type CommandError struct {
	Command string
	Code    int
	Message string
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("dbgp %s: error %d: %s", e.Command, e.Code, e.Message)
	}
	return fmt.Sprintf("dbgp %s: error %d", e.Command, e.Code)
}

// IsCode reports whether err is a CommandError with the given code.
func IsCode(err error, code int) bool {
	var cerr *CommandError
	return errors.As(err, &cerr) && cerr.Code == code
}
