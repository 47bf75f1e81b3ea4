package tk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"
)

// Kind discriminates the container variants. The value is stored in the
// header.
type Kind uint16

const (
	KindV1 Kind = 1
	KindV2 Kind = 2
	KindV3 Kind = 3
)

// Ext returns the file extension including the dot.
func (k Kind) Ext() string {
	switch k {
	case KindV1:
		return ".tk1"
	case KindV2:
		return ".tk2"
	case KindV3:
		return ".tk3"
	default:
		return ""
	}
}

func (k Kind) String() string {
	switch k {
	case KindV1, KindV2, KindV3:
		return k.Ext()[1:]
	default:
		return fmt.Sprintf("kind(%d)", uint16(k))
	}
}

const headerSize = 128

const (
	deviceNameLen   = 24
	deviceInfoLen   = 40
	deviceSerialLen = 24
)

var magic = [16]byte{'W', 'i', 'n', 't', 'e', 'c', 'L', 'o', 'g', 'F', 'o', 'r', 'm', 'a', 't', 0}

// Header carries the device identity common to all variants.
type Header struct {
	DeviceName   string
	DeviceInfo   string
	DeviceSerial string
	// ExportTime is when the log was read from the device (UTC, seconds).
	ExportTime time.Time
	LogVersion LogVersion
}

// Detect inspects the fixed header and returns the container variant.
func Detect(b []byte) (Kind, error) {
	if len(b) < 18 || !bytes.Equal(b[:16], magic[:]) {
		return 0, ErrUnrecognizedFormat
	}
	k := Kind(binary.LittleEndian.Uint16(b[16:18]))
	switch k {
	case KindV1, KindV2, KindV3:
		return k, nil
	default:
		return 0, fmt.Errorf("%w: container version %d", ErrUnrecognizedFormat, uint16(k))
	}
}

func parseHeader(c *cursor) (Header, Kind, error) {
	b := c.take(headerSize, "header")
	if c.err != nil {
		if len(c.b) >= 16 && bytes.Equal(c.b[:16], magic[:]) {
			return Header{}, 0, c.err
		}
		return Header{}, 0, ErrUnrecognizedFormat
	}
	k, err := Detect(b)
	if err != nil {
		return Header{}, 0, err
	}
	le := binary.LittleEndian
	h := Header{
		LogVersion:   LogVersion(le.Uint16(b[18:20])),
		DeviceName:   cString(b[20:44]),
		DeviceInfo:   cString(b[44:84]),
		DeviceSerial: cString(b[84:108]),
		ExportTime:   time.Unix(int64(le.Uint64(b[108:116])), 0).UTC(),
	}
	if !h.LogVersion.Valid() {
		return Header{}, 0, decodeErr("header", -1, "unsupported log version %d", uint16(h.LogVersion))
	}
	return h, k, nil
}

func (h Header) appendTo(dst []byte, k Kind) ([]byte, error) {
	if !h.LogVersion.Valid() {
		return dst, fmt.Errorf("tk: unsupported log version %d", uint16(h.LogVersion))
	}
	le := binary.LittleEndian
	dst = append(dst, magic[:]...)
	dst = le.AppendUint16(dst, uint16(k))
	dst = le.AppendUint16(dst, uint16(h.LogVersion))
	var err error
	if dst, err = appendCString(dst, h.DeviceName, deviceNameLen, "device name"); err != nil {
		return dst, err
	}
	if dst, err = appendCString(dst, h.DeviceInfo, deviceInfoLen, "device info"); err != nil {
		return dst, err
	}
	if dst, err = appendCString(dst, h.DeviceSerial, deviceSerialLen, "device serial"); err != nil {
		return dst, err
	}
	dst = le.AppendUint64(dst, uint64(h.ExportTime.Unix()))
	dst = append(dst, make([]byte, 12)...)
	return dst, nil
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func appendCString(dst []byte, s string, size int, what string) ([]byte, error) {
	if len(s) > size {
		return dst, fmt.Errorf("tk: %s %q longer than %d bytes", what, s, size)
	}
	if bytes.IndexByte([]byte(s), 0) >= 0 {
		return dst, fmt.Errorf("tk: %s contains NUL", what)
	}
	dst = append(dst, s...)
	return append(dst, make([]byte, size-len(s))...), nil
}

// cursor walks a byte slice and records the first short read.
type cursor struct {
	b   []byte
	off int
	err error
}

func (c *cursor) take(n int, what string) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || len(c.b)-c.off < n {
		c.err = decodeErr(what, -1, "truncated: need %d bytes at offset %d, have %d", n, c.off, len(c.b)-c.off)
		return nil
	}
	out := c.b[c.off : c.off+n]
	c.off += n
	return out
}

func (c *cursor) u16(what string) uint16 {
	b := c.take(2, what)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (c *cursor) u32(what string) uint32 {
	b := c.take(4, what)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (c *cursor) remaining() int { return len(c.b) - c.off }
