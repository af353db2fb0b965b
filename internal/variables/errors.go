package variables

import "errors"

// Errors returned for handles the host should never send.
var (
	// ErrUnknownFrame indicates a stack frame handle that was never issued.
	ErrUnknownFrame = errors.New("unknown stack frame")

	// ErrHandleKind indicates a handle that refers to a different kind of
	// object than the request expects.
	ErrHandleKind = errors.New("handle refers to a different object kind")
)
