package tk

import (
	"math"
	"testing"
	"time"

	"wintec-ng/internal/geo"
)

var t0 = time.Date(2008, 5, 1, 10, 0, 0, 0, time.UTC)

func testHeader(v LogVersion) Header {
	return Header{
		DeviceName:   "WBT-201",
		DeviceInfo:   "G-Rays 2 FW 1.05",
		DeviceSerial: "0000123456",
		ExportTime:   time.Date(2008, 5, 3, 18, 30, 0, 0, time.UTC),
		LogVersion:   v,
	}
}

// walk builds n points heading north from lat/lon, one every step, stepM
// meters apart. Indices in push are push points.
func walk(n int, start time.Time, step time.Duration, lat, lon, stepM float64, push ...int) []TrackPoint {
	dLat := stepM / geo.EarthRadiusMeters * 180 / math.Pi
	pts := make([]TrackPoint, n)
	for i := range pts {
		pts[i] = TrackPoint{
			Time:       start.Add(time.Duration(i) * step),
			Lat:        math.Round((lat+float64(i)*dLat)*1e7) / 1e7,
			Lon:        lon,
			AltitudeM:  500 + i,
			TrackStart: i == 0,
		}
	}
	for _, i := range push {
		pts[i].Push = true
	}
	return pts
}

func withSensors(pts []TrackPoint) []TrackPoint {
	out := make([]TrackPoint, len(pts))
	for i, p := range pts {
		p.Sensor = &Sensor{TemperatureC: float64(205-i) / 10, PressureHPa: float64(10132-10*i) / 10}
		out[i] = p
	}
	return out
}

func encodePoints(t *testing.T, pts []TrackPoint, v LogVersion) []byte {
	t.Helper()
	b, err := EncodePoints(pts, v)
	if err != nil {
		t.Fatalf("EncodePoints() error: %v", err)
	}
	return b
}

func mustTrack(t *testing.T, pts []TrackPoint) Track {
	t.Helper()
	tr, err := NewTrack(pts)
	if err != nil {
		t.Fatalf("NewTrack() error: %v", err)
	}
	return tr
}

// twoTrackLog returns raw point data holding two sessions; the second one
// has three push points.
func twoTrackLog(t *testing.T) []byte {
	t.Helper()
	a := walk(5, t0, 10*time.Second, 48.1, 11.5, 50)
	b := walk(6, t0.Add(2*time.Hour), 5*time.Second, 48.2, 11.6, 20, 1, 3, 4)
	return append(encodePoints(t, a, LogVersion1), encodePoints(t, b, LogVersion1)...)
}
