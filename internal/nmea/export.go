package nmea

import (
	"fmt"
	"sort"

	"wintec-ng/internal/tk"
)

type source struct {
	c      tk.Container
	tracks []tk.Track
}

func collect(cs []tk.Container) ([]source, error) {
	if len(cs) == 0 {
		return nil, fmt.Errorf("nmea: no input")
	}
	out := make([]source, 0, len(cs))
	for _, c := range cs {
		tracks, err := tk.TracksOf(c)
		if err != nil {
			return nil, err
		}
		if len(tracks) == 0 {
			return nil, fmt.Errorf("nmea: %s has no trackpoints", c.Kind())
		}
		out = append(out, source{c: c, tracks: tracks})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].tracks[0].First().Time.Before(out[j].tracks[0].First().Time)
	})
	return out, nil
}

// Tracks orders the containers by their first trackpoint and returns all
// of their tracks in that order.
func Tracks(cs []tk.Container) ([]tk.Track, error) {
	srcs, err := collect(cs)
	if err != nil {
		return nil, err
	}
	var out []tk.Track
	for _, s := range srcs {
		out = append(out, s.tracks...)
	}
	return out, nil
}

// Filename names the export of cs:
//
//	several inputs: <first>-<first of last input>#<inputs>.nmea
//	one .tk1:       <first>-<last>#<tracks>.nmea
//	one .tk2/.tk3:  <first>.nmea
func Filename(cs []tk.Container) (string, error) {
	srcs, err := collect(cs)
	if err != nil {
		return "", err
	}
	first := srcs[0].tracks[0].First().Time.UTC().Format(tk.FilenameTimeLayout)
	switch {
	case len(srcs) > 1:
		last := srcs[len(srcs)-1].tracks[0].First().Time.UTC().Format(tk.FilenameTimeLayout)
		return fmt.Sprintf("%s-%s#%03d.nmea", first, last, len(srcs)), nil
	case srcs[0].c.Kind() == tk.KindV1:
		tracks := srcs[0].tracks
		last := tracks[len(tracks)-1].Last().Time.UTC().Format(tk.FilenameTimeLayout)
		return fmt.Sprintf("%s-%s#%03d.nmea", first, last, len(tracks)), nil
	default:
		return first + ".nmea", nil
	}
}
