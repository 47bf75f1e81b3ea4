package tk

import (
	"fmt"

	"wintec-ng/internal/xorsum"
)

// BuildFooter computes one footer entry per track found in raw point data.
// Tracks start at records carrying the track-start flag; the first record
// always starts a track, even when the circular log was read from the middle
// of a session. Time gaps never split a track.
//
// The result only depends on points, never on a footer stored elsewhere.
func BuildFooter(points []byte, v LogVersion) ([]FooterEntry, error) {
	decoded, err := DecodePoints(points, v)
	if err != nil {
		return nil, err
	}
	rs := v.RecordSize()

	var entries []FooterEntry
	start := 0
	for i := 1; i <= len(decoded); i++ {
		if i < len(decoded) && !decoded[i].TrackStart {
			continue
		}
		e, err := entryFor(decoded[start:i], points[start*rs:i*rs], uint32(start*rs))
		if err != nil {
			return nil, fmt.Errorf("tk: track %d: %w", len(entries), err)
		}
		entries = append(entries, e)
		start = i
	}
	return entries, nil
}

// footerEntryFor treats a whole byte run as one track.
func footerEntryFor(raw []byte, offset uint32, v LogVersion) (FooterEntry, error) {
	pts, err := DecodePoints(raw, v)
	if err != nil {
		return FooterEntry{}, err
	}
	return entryFor(pts, raw, offset)
}

func entryFor(pts []TrackPoint, raw []byte, offset uint32) (FooterEntry, error) {
	tr, err := NewTrack(pts)
	if err != nil {
		return FooterEntry{}, err
	}
	return FooterEntry{
		Offset:    offset,
		Size:      uint32(len(raw)),
		LengthKm:  float32(tr.LengthM() / 1000),
		DurationS: uint32(tr.Duration().Seconds()),
		PushCount: uint32(tr.PushCount()),
		Checksum:  xorsum.Sum(raw),
	}, nil
}

// NewV1 assembles a .tk1 container from device identity and raw point data,
// computing a fresh footer.
func NewV1(h Header, points []byte) (*V1, error) {
	if !h.LogVersion.Valid() {
		return nil, fmt.Errorf("tk: unsupported log version %d", uint16(h.LogVersion))
	}
	footer, err := BuildFooter(points, h.LogVersion)
	if err != nil {
		return nil, err
	}
	v := &V1{Header: h, Footer: footer}
	if len(points) > 0 {
		v.Points = append([]byte(nil), points...)
	}
	return v, nil
}

// RebuildFooter returns a new V1 with the same header and point data and a
// footer recomputed from the points. Stored footer values are ignored.
func RebuildFooter(src *V1) (*V1, error) {
	if src == nil {
		return nil, fmt.Errorf("tk: rebuild of nil container")
	}
	return NewV1(src.Header, src.Points)
}
