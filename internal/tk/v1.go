package tk

import (
	"encoding/binary"
	"fmt"
	"math"

	"wintec-ng/internal/xorsum"
)

const footerEntrySize = 24

// FooterEntry describes one track of a .tk1 file. Offset and Size delimit the
// track's records inside V1.Points. The summary values are whatever the
// writer stored; RebuildFooter recomputes them from the points.
type FooterEntry struct {
	Offset    uint32
	Size      uint32
	LengthKm  float32
	DurationS uint32
	PushCount uint32
	Checksum  uint8
}

// V1 is a .tk1 container: the raw log as read from the device plus the footer
// table that splits it into tracks.
type V1 struct {
	Header Header
	Footer []FooterEntry
	Points []byte
}

func parseFooterEntry(b []byte) FooterEntry {
	le := binary.LittleEndian
	return FooterEntry{
		Offset:    le.Uint32(b[0:4]),
		Size:      le.Uint32(b[4:8]),
		LengthKm:  math.Float32frombits(le.Uint32(b[8:12])),
		DurationS: le.Uint32(b[12:16]),
		PushCount: le.Uint32(b[16:20]),
		Checksum:  b[20],
	}
}

func appendFooterEntry(dst []byte, e FooterEntry) []byte {
	le := binary.LittleEndian
	dst = le.AppendUint32(dst, e.Offset)
	dst = le.AppendUint32(dst, e.Size)
	dst = le.AppendUint32(dst, math.Float32bits(e.LengthKm))
	dst = le.AppendUint32(dst, e.DurationS)
	dst = le.AppendUint32(dst, e.PushCount)
	return append(dst, e.Checksum, 0, 0, 0)
}

func decodeV1(c *cursor, h Header, o decodeOptions) (*V1, error) {
	count := c.u32("footer count")
	size := c.u32("point data size")
	if c.err != nil {
		return nil, c.err
	}
	if uint64(count)*footerEntrySize > uint64(c.remaining()) {
		return nil, decodeErr("footer", -1, "%d entries exceed the file size", count)
	}

	v := &V1{Header: h}
	for i := uint32(0); i < count; i++ {
		v.Footer = append(v.Footer, parseFooterEntry(c.take(footerEntrySize, "footer")))
	}
	pts := c.take(int(size), "point data")
	if c.err != nil {
		return nil, c.err
	}
	if len(pts) > 0 {
		v.Points = append([]byte(nil), pts...)
	}

	if o.skipFooterCheck {
		if _, err := DecodePoints(v.Points, h.LogVersion); err != nil {
			return nil, err
		}
		return v, nil
	}
	if _, err := v.Tracks(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *V1) encode() ([]byte, error) {
	if _, err := v.segments(); err != nil {
		return nil, err
	}
	out := make([]byte, 0, headerSize+8+len(v.Footer)*footerEntrySize+len(v.Points))
	out, err := v.Header.appendTo(out, KindV1)
	if err != nil {
		return nil, err
	}
	out = binary.LittleEndian.AppendUint32(out, uint32(len(v.Footer)))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(v.Points)))
	for _, e := range v.Footer {
		out = appendFooterEntry(out, e)
	}
	return append(out, v.Points...), nil
}

// normalizeFooter drops the empty and duplicated entries some firmware
// versions write after the last real track.
func normalizeFooter(entries []FooterEntry) []FooterEntry {
	out := make([]FooterEntry, 0, len(entries))
	for _, e := range entries {
		if e.Size == 0 {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Offset == e.Offset && out[n-1].Size == e.Size {
			continue
		}
		out = append(out, e)
	}
	return out
}

// segments returns the validated footer entries, or one synthesized entry
// when the file has point data but no footer.
func (v *V1) segments() ([]FooterEntry, error) {
	lv := v.Header.LogVersion
	if !lv.Valid() {
		return nil, decodeErr("header", -1, "unsupported log version %d", uint16(lv))
	}
	rs := lv.RecordSize()
	if len(v.Points)%rs != 0 {
		return nil, decodeErr("point data", -1, "%d bytes is not a multiple of the %d byte record size", len(v.Points), rs)
	}

	entries := normalizeFooter(v.Footer)
	if len(entries) == 0 {
		if len(v.Points) == 0 {
			return nil, nil
		}
		e, err := footerEntryFor(v.Points, 0, lv)
		if err != nil {
			return nil, err
		}
		return []FooterEntry{e}, nil
	}

	var next uint64
	for i, e := range entries {
		if uint64(e.Offset) != next {
			return nil, decodeErr("footer entry", i, "starts at %d, want %d", e.Offset, next)
		}
		if int(e.Size)%rs != 0 {
			return nil, decodeErr("footer entry", i, "size %d is not a multiple of %d", e.Size, rs)
		}
		end := uint64(e.Offset) + uint64(e.Size)
		if end > uint64(len(v.Points)) {
			return nil, decodeErr("footer entry", i, "ends at %d beyond %d point bytes", end, len(v.Points))
		}
		if got := xorsum.Sum(v.Points[e.Offset:end]); got != e.Checksum {
			return nil, fmt.Errorf("tk: footer entry %d: %w (got %s want %s)", i, ErrChecksumMismatch,
				xorsum.Hex(got), xorsum.Hex(e.Checksum))
		}
		next = end
	}
	if next != uint64(len(v.Points)) {
		return nil, decodeErr("footer", -1, "entries cover %d of %d point bytes", next, len(v.Points))
	}
	return entries, nil
}

// Tracks decodes the tracks delimited by the footer, in file order.
func (v *V1) Tracks() ([]Track, error) {
	entries, err := v.segments()
	if err != nil {
		return nil, err
	}
	tracks := make([]Track, 0, len(entries))
	for i, e := range entries {
		tr, err := v.track(e)
		if err != nil {
			return nil, fmt.Errorf("tk: track %d: %w", i, err)
		}
		tracks = append(tracks, tr)
	}
	return tracks, nil
}

func (v *V1) track(e FooterEntry) (Track, error) {
	pts, err := DecodePoints(v.Points[e.Offset:e.Offset+e.Size], v.Header.LogVersion)
	if err != nil {
		return Track{}, err
	}
	return NewTrack(pts)
}

// TrackCount returns the number of tracks the footer describes, counting a
// footer-less file with point data as one track.
func (v *V1) TrackCount() int {
	n := len(normalizeFooter(v.Footer))
	if n == 0 && len(v.Points) > 0 {
		return 1
	}
	return n
}

// PointCount returns the number of records in the point data region.
func (v *V1) PointCount() int {
	if !v.Header.LogVersion.Valid() {
		return 0
	}
	return len(v.Points) / v.Header.LogVersion.RecordSize()
}
