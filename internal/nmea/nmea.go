// Package nmea exports tracks as NMEA-0183 $GPRMC and $GPGGA sentences and
// parses them back for verification.
package nmea

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"wintec-ng/internal/tk"
	"wintec-ng/internal/xorsum"
)

const knotsPerKmh = 1 / 1.852

// Sentence is a checksum-verified sentence split into its fields.
type Sentence struct {
	// Type is the sentence type without talker, e.g. "RMC".
	Type string
	// Fields is the comma-split payload (excluding $ and checksum).
	Fields []string
}

// Parse verifies the checksum of one sentence and splits it.
func Parse(line string) (Sentence, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return Sentence{}, fmt.Errorf("nmea: missing '$'")
	}
	star := strings.LastIndexByte(line, '*')
	if star == -1 {
		return Sentence{}, fmt.Errorf("nmea: missing checksum")
	}
	payload := line[1:star]
	ck := strings.TrimSpace(line[star+1:])
	if len(ck) < 2 {
		return Sentence{}, fmt.Errorf("nmea: short checksum")
	}
	if err := xorsum.Verify([]byte(payload), ck[:2]); err != nil {
		return Sentence{}, fmt.Errorf("nmea: %w", err)
	}

	parts := strings.Split(payload, ",")
	if len(parts[0]) < 3 {
		return Sentence{}, fmt.Errorf("nmea: short type")
	}
	// Accept GNxxx/GPxxx, etc; normalize to last 3 chars.
	t := parts[0]
	if len(t) > 3 {
		t = t[len(t)-3:]
	}
	return Sentence{Type: strings.ToUpper(t), Fields: parts}, nil
}

// Checksum returns the "*HH" suffix for a sentence body starting with '$'.
func Checksum(body string) string {
	return "*" + xorsum.Hex(xorsum.Sum([]byte(strings.TrimPrefix(body, "$"))))
}

// coord formats an absolute coordinate as degrees and decimal minutes with
// the given number of degree digits.
func coord(v float64, degDigits int, pos, neg string) (string, string) {
	hemi := pos
	if v < 0 {
		hemi = neg
		v = -v
	}
	deg := math.Floor(v)
	mins := (v - deg) * 60
	// Rounding can produce 60.000000.
	if math.Round(mins*1e6) >= 60e6 {
		deg++
		mins = 0
	}
	return fmt.Sprintf("%0*d%09.6f", degDigits, int(deg), mins), hemi
}

// RMC renders the recommended minimum sentence for p, checksum included.
func RMC(p tk.TrackPoint) string {
	lat, ns := coord(p.Lat, 2, "N", "S")
	lon, ew := coord(p.Lon, 3, "E", "W")
	t := p.Time.UTC()
	body := fmt.Sprintf("$GPRMC,%s,A,%s,%s,%s,%s,%.1f,%d.0,%s,,,,",
		t.Format("150405"), lat, ns, lon, ew,
		p.SpeedKmh*knotsPerKmh, int(p.CourseDeg), t.Format("020106"))
	return body + Checksum(body)
}

// GGA renders the fix data sentence for p, checksum included.
func GGA(p tk.TrackPoint) string {
	lat, ns := coord(p.Lat, 2, "N", "S")
	lon, ew := coord(p.Lon, 3, "E", "W")
	body := fmt.Sprintf("$GPGGA,%s,%s,%s,%s,%s,1,,,%d,M,,M,,",
		p.Time.UTC().Format("150405"), lat, ns, lon, ew, p.AltitudeM)
	return body + Checksum(body)
}

// Write emits an RMC and a GGA sentence for every point of every track.
func Write(w io.Writer, tracks []tk.Track) error {
	bw := bufio.NewWriter(w)
	for _, tr := range tracks {
		for i := 0; i < tr.Len(); i++ {
			p := tr.Point(i)
			if _, err := fmt.Fprintf(bw, "%s\n%s\n", RMC(p), GGA(p)); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// Check parses every non-empty line of r and returns the number of valid
// sentences. RMC and GGA sentences must carry coordinates in range or none
// at all. It stops at the first invalid sentence.
func Check(r io.Reader) (int, error) {
	s := bufio.NewScanner(r)
	n := 0
	lineNo := 0
	for s.Scan() {
		lineNo++
		if strings.TrimSpace(s.Text()) == "" {
			continue
		}
		sent, err := Parse(s.Text())
		if err == nil {
			_, _, err = sent.Position()
			if errors.Is(err, ErrNoPosition) {
				err = nil
			}
		}
		if err != nil {
			return n, fmt.Errorf("line %d: %w", lineNo, err)
		}
		n++
	}
	return n, s.Err()
}

// ErrNoPosition is returned by Position for sentences without a fix.
var ErrNoPosition = errors.New("nmea: no position")

// Position decodes the coordinates of an RMC or GGA sentence.
func (s Sentence) Position() (lat, lon float64, err error) {
	var at int
	switch s.Type {
	case "RMC":
		at = 3
	case "GGA":
		at = 2
	default:
		return 0, 0, fmt.Errorf("%w in %s", ErrNoPosition, s.Type)
	}
	if len(s.Fields) < at+4 {
		return 0, 0, fmt.Errorf("nmea: %s has %d fields", s.Type, len(s.Fields))
	}
	latV, ns := s.Fields[at], strings.ToUpper(strings.TrimSpace(s.Fields[at+1]))
	lonV, ew := s.Fields[at+2], strings.ToUpper(strings.TrimSpace(s.Fields[at+3]))
	if strings.TrimSpace(latV+lonV) == "" && ns+ew == "" {
		return 0, 0, ErrNoPosition
	}
	if ns != "N" && ns != "S" {
		return 0, 0, fmt.Errorf("nmea: latitude hemisphere %q", ns)
	}
	if ew != "E" && ew != "W" {
		return 0, 0, fmt.Errorf("nmea: longitude hemisphere %q", ew)
	}
	if lat, err = Coord(latV, ns); err != nil {
		return 0, 0, err
	}
	if lon, err = Coord(lonV, ew); err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

// Coord decodes a ddmm.mmmm latitude or dddmm.mmmm longitude with its
// hemisphere letter into signed decimal degrees.
func Coord(v, hemi string) (float64, error) {
	limit, sign := 0.0, 1.0
	switch strings.ToUpper(strings.TrimSpace(hemi)) {
	case "N":
		limit = 90
	case "S":
		limit, sign = 90, -1
	case "E":
		limit = 180
	case "W":
		limit, sign = 180, -1
	default:
		return 0, fmt.Errorf("nmea: hemisphere %q", hemi)
	}
	raw, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || !(raw >= 0) {
		return 0, fmt.Errorf("nmea: coordinate %q", v)
	}
	deg := math.Floor(raw / 100)
	mins := raw - deg*100
	dec := deg + mins/60
	if mins >= 60 || dec > limit {
		return 0, fmt.Errorf("nmea: coordinate %q out of range", v)
	}
	return sign * dec, nil
}
