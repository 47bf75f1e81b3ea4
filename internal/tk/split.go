package tk

import (
	"fmt"
	"math"
)

// Split turns every track of a .tk1 container into a .tk2 container, and every
// track with at least one push point additionally into a .tk3 container. Both
// lists follow the footer order. All outputs carry comment and off.
func Split(src *V1, comment string, off Offset) ([]*V2, []*V3, error) {
	return SplitFunc(src, comment, func(Track) Offset { return off })
}

// SplitFunc is Split with a per-track UTC offset, e.g. one guessed from the
// track's first position.
func SplitFunc(src *V1, comment string, offsetFor func(Track) Offset) ([]*V2, []*V3, error) {
	if src == nil {
		return nil, nil, fmt.Errorf("tk: split of nil container")
	}
	if offsetFor == nil {
		return nil, nil, fmt.Errorf("tk: split needs an offset function")
	}
	entries, err := src.segments()
	if err != nil {
		return nil, nil, err
	}

	var v2s []*V2
	var v3s []*V3
	for i, e := range entries {
		tr, err := src.track(e)
		if err != nil {
			return nil, nil, fmt.Errorf("tk: track %d: %w", i, err)
		}
		off := offsetFor(tr)
		if !off.Valid() {
			return nil, nil, fmt.Errorf("tk: track %d: offset %d minutes out of range", i, int(off))
		}
		v2s = append(v2s, &V2{
			Header:  src.Header,
			Track:   tr,
			Offset:  off,
			Comment: comment,
			Summary: Summary{
				LengthM:   uint32(math.Round(float64(e.LengthKm) * 1000)),
				DurationS: e.DurationS,
				PushCount: uint32(tr.PushCount()),
			},
		})
		if tr.PushCount() > 0 {
			v3s = append(v3s, &V3{Header: src.Header, Track: tr, Offset: off, Comment: comment})
		}
	}
	return v2s, v3s, nil
}
