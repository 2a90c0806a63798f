package bencode

import (
	"errors"
	"fmt"
)

// Error kinds reported by the codec. Decode errors are wrapped in a
// *SyntaxError and can be matched with errors.Is.
var (
	ErrUnknownValueTag  = errors.New("unknown value tag")
	ErrMalformedLength  = errors.New("malformed string length")
	ErrMalformedInteger = errors.New("malformed integer")
	ErrTruncatedInput   = errors.New("truncated input")
	ErrNonStringKey     = errors.New("dictionary key is not a string")
	ErrNestingTooDeep   = errors.New("nesting too deep")
	ErrTrailingData     = errors.New("trailing data after value")
	ErrInvalidNode      = errors.New("invalid node")
)

// SyntaxError describes a decode failure and the input offset it happened at.
type SyntaxError struct {
	Offset int
	Err    error
	Detail string
}

func (e *SyntaxError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("bencode: %v at offset %d", e.Err, e.Offset)
	}
	return fmt.Sprintf("bencode: %v at offset %d: %s", e.Err, e.Offset, e.Detail)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}
