package tk

import (
	"errors"
	"fmt"

	"wintec-ng/internal/xorsum"
)

var (
	// ErrUnrecognizedFormat means the data does not start with a known
	// container header.
	ErrUnrecognizedFormat = errors.New("tk: unrecognized format")

	// ErrDecode matches every *DecodeError via errors.Is.
	ErrDecode = errors.New("tk: decode error")

	// ErrChecksumMismatch is returned when a V1 footer checksum does not
	// cover its point data. It wraps xorsum.ErrMismatch.
	ErrChecksumMismatch = fmt.Errorf("tk: footer %w", xorsum.ErrMismatch)
)

// DecodeError reports a structurally invalid field or record.
type DecodeError struct {
	// What names the field or structure, e.g. "trackpoint" or "footer".
	What string
	// Index is the record or entry index, or -1 when not applicable.
	Index int
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("tk: invalid %s %d: %v", e.What, e.Index, e.Err)
	}
	return fmt.Sprintf("tk: invalid %s: %v", e.What, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

func decodeErr(what string, index int, format string, args ...any) error {
	return &DecodeError{What: what, Index: index, Err: fmt.Errorf(format, args...)}
}
