package tk

import (
	"encoding/binary"
	"fmt"
)

// MaxCommentLen is the longest user comment a .tk2/.tk3 header can hold.
const MaxCommentLen = 1024

// Summary holds the track statistics a .tk2 file inherits from the .tk1
// footer entry it was split from.
type Summary struct {
	LengthM   uint32
	DurationS uint32
	PushCount uint32
}

// V2 is a .tk2 container: one track with timezone and comment.
type V2 struct {
	Header  Header
	Track   Track
	Offset  Offset
	Comment string
	Summary Summary
}

// V3 is a .tk3 container: one track that contains push points. The push
// points are not enforced when decoding.
type V3 struct {
	Header  Header
	Track   Track
	Offset  Offset
	Comment string
}

// With returns a copy with a new comment and UTC offset.
func (v *V2) With(comment string, off Offset) *V2 {
	cp := *v
	cp.Comment = comment
	cp.Offset = off
	return &cp
}

// With returns a copy with a new comment and UTC offset.
func (v *V3) With(comment string, off Offset) *V3 {
	cp := *v
	cp.Comment = comment
	cp.Offset = off
	return &cp
}

func decodeSingle(c *cursor, h Header, kind Kind) (Container, error) {
	off := Offset(int16(c.u16("timezone")))
	n := c.u16("comment length")
	if c.err != nil {
		return nil, c.err
	}
	if int(n) > MaxCommentLen {
		return nil, decodeErr("comment", -1, "length %d exceeds %d", n, MaxCommentLen)
	}
	comment := string(c.take(int(n), "comment"))

	var sum Summary
	if kind == KindV2 {
		sum.LengthM = c.u32("track length")
		sum.DurationS = c.u32("track duration")
		sum.PushCount = c.u32("push point count")
	}
	size := c.u32("point data size")
	raw := c.take(int(size), "point data")
	if c.err != nil {
		return nil, c.err
	}
	if !off.Valid() {
		return nil, decodeErr("timezone", -1, "offset %d minutes out of range", int(off))
	}

	points, err := DecodePoints(raw, h.LogVersion)
	if err != nil {
		return nil, err
	}
	tr, err := NewTrack(points)
	if err != nil {
		return nil, err
	}

	if kind == KindV2 {
		return &V2{Header: h, Track: tr, Offset: off, Comment: comment, Summary: sum}, nil
	}
	return &V3{Header: h, Track: tr, Offset: off, Comment: comment}, nil
}

func encodeSingle(h Header, kind Kind, tr Track, off Offset, comment string, sum *Summary) ([]byte, error) {
	if !off.Valid() {
		return nil, fmt.Errorf("tk: offset %d minutes out of range", int(off))
	}
	if len(comment) > MaxCommentLen {
		return nil, fmt.Errorf("tk: comment length %d exceeds %d", len(comment), MaxCommentLen)
	}
	if tr.Len() == 0 {
		return nil, fmt.Errorf("tk: %s needs a non-empty track", kind)
	}
	raw, err := tr.Encode(h.LogVersion)
	if err != nil {
		return nil, err
	}

	le := binary.LittleEndian
	out := make([]byte, 0, headerSize+4+len(comment)+16+len(raw))
	if out, err = h.appendTo(out, kind); err != nil {
		return nil, err
	}
	out = le.AppendUint16(out, uint16(int16(off)))
	out = le.AppendUint16(out, uint16(len(comment)))
	out = append(out, comment...)
	if sum != nil {
		out = le.AppendUint32(out, sum.LengthM)
		out = le.AppendUint32(out, sum.DurationS)
		out = le.AppendUint32(out, sum.PushCount)
	}
	out = le.AppendUint32(out, uint32(len(raw)))
	return append(out, raw...), nil
}
