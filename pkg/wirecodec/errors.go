package wirecodec

import "errors"

// ErrUnexpectedEOF is returned when a Reader runs out of bytes mid-field.
var ErrUnexpectedEOF = errors.New("wirecodec: unexpected end of buffer")

// ErrStringTooLarge is returned when a length-prefixed field declares a size
// larger than the codec is willing to allocate for a single value.
var ErrStringTooLarge = errors.New("wirecodec: length-prefixed field too large")
