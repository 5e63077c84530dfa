package parser

import (
	"fmt"

	"github.com/pkg/errors"
)

// Boundary errors. Parse errors never surface here; they go through
// the error handler and parsing continues.
var (
	// ErrBadParameter is returned when a public operation is invoked
	// with an argument that violates its contract.
	ErrBadParameter = errors.New("bad parameter")
)

// ParseError is an HTML5-defined soft error condition. It is reported
// through the builder's error handler and recovered per the current
// insertion mode; it never aborts parsing.
type ParseError struct {
	Mode insertionMode
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %v: %s", e.Mode, e.Msg)
}

// ErrorHandler receives parse errors and recoverable sink failures
// out-of-band.
type ErrorHandler func(err error)

// BufferHandler observes relocations of the tokenizer's input buffer.
type BufferHandler func(data []byte)
