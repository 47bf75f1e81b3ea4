package xorsum

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMismatch is returned when a computed checksum does not match the
// expected one.
var ErrMismatch = errors.New("checksum mismatch")

// Sum implements the 8-bit XOR checksum used by Wintec loggers, both on the
// wire (block transfer status lines) and in .tk1 footer entries.
func Sum(data []byte) byte {
	var cs byte
	for _, b := range data {
		cs ^= b
	}
	return cs
}

// Hex renders a checksum the way the device prints it: two uppercase digits.
func Hex(cs byte) string {
	return fmt.Sprintf("%02X", cs)
}

// Parse decodes a device checksum string. Surrounding whitespace is ignored.
func Parse(s string) (byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty checksum")
	}
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("bad checksum %q: %w", s, err)
	}
	return byte(v), nil
}

// Verify checks data against a hex checksum string sent by the device.
// An unparsable checksum counts as a mismatch.
func Verify(data []byte, want string) error {
	cs, err := Parse(want)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMismatch, err)
	}
	if got := Sum(data); got != cs {
		return fmt.Errorf("%w: got %s want %s", ErrMismatch, Hex(got), Hex(cs))
	}
	return nil
}
