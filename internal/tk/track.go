package tk

import (
	"time"

	"wintec-ng/internal/geo"
)

// Track is an ordered, non-empty run of trackpoints from one logging session.
// The zero value is an empty track; use NewTrack to build a valid one.
type Track struct {
	points  []TrackPoint
	lengthM float64
	push    int
}

// NewTrack validates the point order and derives per-point speed and course
// as well as the track aggregates. The input slice is copied.
func NewTrack(points []TrackPoint) (Track, error) {
	if len(points) == 0 {
		return Track{}, decodeErr("track", -1, "no trackpoints")
	}
	pts := make([]TrackPoint, len(points))
	copy(pts, points)

	var tr Track
	for i := range pts {
		p := &pts[i]
		p.SpeedKmh = 0
		p.CourseDeg = 0
		if p.Push {
			tr.push++
		}
		if i == 0 {
			continue
		}
		prev := pts[i-1]
		if p.Time.Before(prev.Time) {
			return Track{}, decodeErr("trackpoint", i, "time %s before previous point %s",
				p.Time.Format(time.RFC3339), prev.Time.Format(time.RFC3339))
		}
		dist, bearing := geo.DistanceBearing(prev.Lat, prev.Lon, p.Lat, p.Lon)
		tr.lengthM += dist
		p.CourseDeg = bearing
		if dt := p.Time.Sub(prev.Time).Seconds(); dt > 0 {
			p.SpeedKmh = dist / dt * 3.6
		}
	}
	tr.points = pts
	return tr, nil
}

// Len returns the number of trackpoints.
func (t Track) Len() int { return len(t.points) }

// Points returns a copy of the trackpoints.
func (t Track) Points() []TrackPoint {
	out := make([]TrackPoint, len(t.points))
	copy(out, t.points)
	return out
}

func (t Track) Point(i int) TrackPoint { return t.points[i] }

func (t Track) First() TrackPoint { return t.points[0] }

func (t Track) Last() TrackPoint { return t.points[len(t.points)-1] }

// PushCount returns the number of push (log now) points.
func (t Track) PushCount() int { return t.push }

// LengthM is the summed great-circle distance between consecutive points.
func (t Track) LengthM() float64 { return t.lengthM }

// Duration is the time between the first and the last point.
func (t Track) Duration() time.Duration {
	if len(t.points) == 0 {
		return 0
	}
	return t.Last().Time.Sub(t.First().Time)
}

// Encode returns the record encoding of all points.
func (t Track) Encode(v LogVersion) ([]byte, error) {
	return EncodePoints(t.points, v)
}
