// errors.go - Error values shared across the library
package peekpoke

import (
	"errors"
	"fmt"
)

// ErrAccessDenied is returned when the OS refuses access to a target
// process (missing privileges, hardened runtime, ptrace scope, etc.)
var ErrAccessDenied = errors.New("access denied")

// ErrOperationFailed is returned for any other OS-level failure while
// attaching to a target process
var ErrOperationFailed = errors.New("operation failed")

// ErrEndOfStream is returned by the signature lexer when a byte or
// wildcard is cut short by the end of the input
var ErrEndOfStream = errors.New("Stream of characters ended unexpectedly.")

// ParseError reports an unexpected character in a signature string.
// Index counts Unicode code points from the start of the input, not bytes.
type ParseError struct {
	Index int
	Char  rune
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Unexpected character '%c' at index %d.", e.Char, e.Index)
}
