package nmea

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wintec-ng/internal/tk"
)

var t0 = time.Date(2008, 5, 1, 10, 0, 0, 0, time.UTC)

func pts(n int, start time.Time, lat, lon float64) []tk.TrackPoint {
	out := make([]tk.TrackPoint, n)
	for i := range out {
		out[i] = tk.TrackPoint{
			Time:       start.Add(time.Duration(i) * 10 * time.Second),
			Lat:        lat + float64(i)*0.001,
			Lon:        lon,
			AltitudeM:  500 + i,
			TrackStart: i == 0,
		}
	}
	return out
}

func mustTrack(t *testing.T, p []tk.TrackPoint) tk.Track {
	t.Helper()
	tr, err := tk.NewTrack(p)
	if err != nil {
		t.Fatalf("NewTrack() error: %v", err)
	}
	return tr
}

func TestChecksum_KnownSentence(t *testing.T) {
	body := "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,"
	if got := Checksum(body); got != "*47" {
		t.Fatalf("Checksum()=%q want %q", got, "*47")
	}
	s, err := Parse(body + "*47")
	require.NoError(t, err)
	if s.Type != "GGA" {
		t.Fatalf("Type=%q want GGA", s.Type)
	}
}

func TestParse_Rejects(t *testing.T) {
	for _, line := range []string{
		"",
		"GPGGA,1*00",
		"$GPGGA,123519",
		"$GPGGA,123519*4",
		"$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*48",
		"$G*47",
	} {
		if _, err := Parse(line); err == nil {
			t.Fatalf("Parse(%q) succeeded", line)
		}
	}
}

func TestRMC_Golden(t *testing.T) {
	p := tk.TrackPoint{Time: t0, Lat: 48.1, Lon: 11.5, SpeedKmh: 18.52, CourseDeg: 271.9}
	line := RMC(p)
	want := "$GPRMC,100000,A,4806.000000,N,01130.000000,E,10.0,271.0,010508,,,,"
	require.True(t, strings.HasPrefix(line, want), "RMC()=%q", line)
	require.Equal(t, want+Checksum(want), line)
}

func TestGGA_Golden(t *testing.T) {
	p := tk.TrackPoint{Time: t0, Lat: -33.5, Lon: -70.25, AltitudeM: 520}
	line := GGA(p)
	want := "$GPGGA,100000,3330.000000,S,07015.000000,W,1,,,520,M,,M,,"
	require.Equal(t, want+Checksum(want), line)
}

func TestCoord(t *testing.T) {
	cases := []struct {
		v, hemi string
		want    float64
	}{
		{"4807.038", "N", 48.1173},
		{"01131.000", "E", 11.516666},
		{"3330.000000", "S", -33.5},
		{"07015.000000", "w", -70.25},
		{"9000.0", "N", 90},
	}
	for _, c := range cases {
		got, err := Coord(c.v, c.hemi)
		if err != nil || math.Abs(got-c.want) > 1e-5 {
			t.Fatalf("Coord(%q,%q)=%v,%v want %v", c.v, c.hemi, got, err, c.want)
		}
	}
	for _, bad := range [][2]string{
		{"", "N"},
		{"4807.0", "X"},
		{"ab07.0", "N"},
		{"-4807.0", "N"},
		{"4875.0", "N"},
		{"9100.0", "S"},
		{"18100.0", "E"},
		{"NaN", "E"},
	} {
		if _, err := Coord(bad[0], bad[1]); err == nil {
			t.Fatalf("Coord(%q,%q) succeeded", bad[0], bad[1])
		}
	}
}

func withChecksum(body string) string { return body + Checksum(body) }

func TestCheck_Positions(t *testing.T) {
	cases := []struct {
		name string
		line string
		ok   bool
	}{
		{"no fix", withChecksum("$GPRMC,100000,V,,,,,,,010508,,,,"), true},
		{"other sentence", withChecksum("$GPGSA,A,3,04,05,,,,,,,,,,,2.5,1.3,2.1"), true},
		{"latitude beyond pole", withChecksum("$GPGGA,100000,9130.000000,N,01130.000000,E,1,,,520,M,,M,,"), false},
		{"swapped hemispheres", withChecksum("$GPRMC,100000,A,4806.000000,E,01130.000000,N,0.0,0.0,010508,,,,"), false},
		{"missing hemisphere", withChecksum("$GPGGA,100000,4806.000000,,01130.000000,E,1,,,520,M,,M,,"), false},
		{"truncated", withChecksum("$GPGGA,100000,4806.000000,N"), false},
	}
	for _, c := range cases {
		_, err := Check(strings.NewReader(c.line + "\n"))
		if (err == nil) != c.ok {
			t.Fatalf("%s: Check(%q) err=%v want ok=%v", c.name, c.line, err, c.ok)
		}
	}
}

func TestWrite_EveryLineParses(t *testing.T) {
	a := mustTrack(t, pts(4, t0, 48.1, 11.5))
	b := mustTrack(t, pts(3, t0.Add(time.Hour), -12.25, -77.0))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []tk.Track{a, b}))

	n, err := Check(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	if n != 14 {
		t.Fatalf("Check()=%d want 14", n)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 14)
	all := append(a.Points(), b.Points()...)
	for i, line := range lines {
		s, err := Parse(line)
		require.NoError(t, err)
		p := all[i/2]
		wantType := "RMC"
		if i%2 == 1 {
			wantType = "GGA"
		}
		require.Equal(t, wantType, s.Type)
		lat, lon, err := s.Position()
		require.NoError(t, err)
		require.InDelta(t, p.Lat, lat, 1e-6)
		require.InDelta(t, p.Lon, lon, 1e-6)
	}
}

func TestCheck_ReportsLine(t *testing.T) {
	in := "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47\n\n$GPRMC,bad*01\n"
	n, err := Check(strings.NewReader(in))
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 3")
	if n != 1 {
		t.Fatalf("n=%d want 1", n)
	}
}

func TestRenderCoord_RoundsUpToNextDegree(t *testing.T) {
	s, hemi := coord(47.99999999999, 2, "N", "S")
	if s != "4800.000000" || hemi != "N" {
		t.Fatalf("coord()=%q,%q", s, hemi)
	}
}

func v1(t *testing.T, tracks ...[]tk.TrackPoint) *tk.V1 {
	t.Helper()
	var raw []byte
	for _, p := range tracks {
		b, err := tk.EncodePoints(p, tk.LogVersion1)
		require.NoError(t, err)
		raw = append(raw, b...)
	}
	v, err := tk.NewV1(tk.Header{DeviceName: "WBT-201", ExportTime: t0, LogVersion: tk.LogVersion1}, raw)
	require.NoError(t, err)
	return v
}

func TestFilename(t *testing.T) {
	log := v1(t, pts(3, t0, 48.1, 11.5), pts(2, t0.Add(2*time.Hour), 48.2, 11.6))
	name, err := Filename([]tk.Container{log})
	require.NoError(t, err)
	require.Equal(t, "2008-05-01_10-00-00-2008-05-01_12-00-10#002.nmea", name)

	single := &tk.V2{Track: mustTrack(t, pts(2, t0.Add(24*time.Hour), 48.1, 11.5))}
	name, err = Filename([]tk.Container{single})
	require.NoError(t, err)
	require.Equal(t, "2008-05-02_10-00-00.nmea", name)

	// Input order does not matter.
	name, err = Filename([]tk.Container{single, log})
	require.NoError(t, err)
	require.Equal(t, "2008-05-01_10-00-00-2008-05-02_10-00-00#002.nmea", name)

	_, err = Filename(nil)
	require.Error(t, err)
}

func TestTracks_SortedByFirstPoint(t *testing.T) {
	late := &tk.V3{Track: mustTrack(t, pts(2, t0.Add(48*time.Hour), 1, 2))}
	early := &tk.V2{Track: mustTrack(t, pts(2, t0, 1, 2))}
	tracks, err := Tracks([]tk.Container{late, early})
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	require.Equal(t, t0, tracks[0].First().Time)
}
