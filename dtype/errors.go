package dtype

import "fmt"

// Error types for datatype codec and conversion-planning operations.
// Errors are fatal to the operation they occur in and propagate to the
// immediate caller; no partially-written output is ever handed back.

// UnsupportedTypeError indicates a type class or combination the wire
// format cannot express (bitfield, opaque, non-string variable-length,
// time, or a charset/padding pairing outside the supported set).
type UnsupportedTypeError struct {
	What string
}

func (e *UnsupportedTypeError) Error() string {
	return "dtype: unsupported type: " + e.What
}

// ParseError indicates malformed or truncated wire text, or a document
// missing required keys.
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return "dtype: parse error: " + e.Msg + ": " + e.Err.Error()
	}
	return "dtype: parse error: " + e.Msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// InvalidValueError indicates a value that does not match any known
// canonical pattern, such as an unrecognized predefined type name.
type InvalidValueError struct {
	What  string
	Value string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("dtype: invalid %s: %q", e.What, e.Value)
}
