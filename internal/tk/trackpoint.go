package tk

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// LogVersion selects the trackpoint record shape. The value is the version
// number times ten, as stored in the container header.
type LogVersion uint16

const (
	// LogVersion1 is the plain 16 byte record written by the WBT-201.
	LogVersion1 LogVersion = 10
	// LogVersion2 is the WSG-1000 record with temperature and air pressure.
	LogVersion2 LogVersion = 20
)

const (
	PlainRecordSize    = 16
	ExtendedRecordSize = 20
)

const (
	flagTrackStart uint16 = 0x0001
	flagPush       uint16 = 0x0002
	knownFlags            = flagTrackStart | flagPush
)

func (v LogVersion) Valid() bool { return v == LogVersion1 || v == LogVersion2 }

// Extended reports whether records carry sensor data.
func (v LogVersion) Extended() bool { return v == LogVersion2 }

// RecordSize returns the size of one trackpoint record in bytes.
func (v LogVersion) RecordSize() int {
	if v.Extended() {
		return ExtendedRecordSize
	}
	return PlainRecordSize
}

func (v LogVersion) String() string {
	return fmt.Sprintf("%d.%d", v/10, v%10)
}

// ParseLogVersion accepts "1.0" / "1" and "2.0" / "2".
func ParseLogVersion(s string) (LogVersion, error) {
	switch s {
	case "1", "1.0":
		return LogVersion1, nil
	case "2", "2.0":
		return LogVersion2, nil
	default:
		return 0, fmt.Errorf("unknown log version %q", s)
	}
}

// Sensor holds the WSG-1000 environment readings of a fix.
type Sensor struct {
	TemperatureC float64
	PressureHPa  float64
}

// TrackPoint is one GPS fix.
//
// SpeedKmh and CourseDeg are not part of the record; NewTrack derives them
// from the previous point of the same track.
type TrackPoint struct {
	Time      time.Time
	Lat       float64
	Lon       float64
	AltitudeM int

	// TrackStart marks the first point of a logging session.
	TrackStart bool
	// Push marks a point the user logged explicitly on the device.
	Push bool

	SpeedKmh  float64
	CourseDeg float64

	// Sensor is set for log version 2.0 records and nil otherwise.
	Sensor *Sensor
}

// Packed time layout, LSB first: sec 6 bits, min 6, hour 5, day 5, month 4,
// year since 2000 6.
func unpackTime(v uint32) (time.Time, error) {
	sec := int(v & 0x3F)
	minute := int((v >> 6) & 0x3F)
	hour := int((v >> 12) & 0x1F)
	day := int((v >> 17) & 0x1F)
	month := int((v >> 22) & 0x0F)
	year := 2000 + int((v>>26)&0x3F)

	if sec > 59 || minute > 59 || hour > 23 {
		return time.Time{}, fmt.Errorf("time of day %02d:%02d:%02d out of range", hour, minute, sec)
	}
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, fmt.Errorf("date %04d-%02d-%02d out of range", year, month, day)
	}
	t := time.Date(year, time.Month(month), day, hour, minute, sec, 0, time.UTC)
	if t.Day() != day {
		return time.Time{}, fmt.Errorf("date %04d-%02d-%02d out of range", year, month, day)
	}
	return t, nil
}

func packTime(t time.Time) (uint32, error) {
	t = t.UTC()
	year := t.Year() - 2000
	if year < 0 || year > 0x3F {
		return 0, fmt.Errorf("year %d not representable", t.Year())
	}
	v := uint32(t.Second()) |
		uint32(t.Minute())<<6 |
		uint32(t.Hour())<<12 |
		uint32(t.Day())<<17 |
		uint32(t.Month())<<22 |
		uint32(year)<<26
	return v, nil
}

// DecodePoint decodes a single record. b must hold at least v.RecordSize()
// bytes.
func DecodePoint(b []byte, v LogVersion) (TrackPoint, error) {
	if !v.Valid() {
		return TrackPoint{}, fmt.Errorf("unsupported log version %d", v)
	}
	if len(b) < v.RecordSize() {
		return TrackPoint{}, fmt.Errorf("short record: %d bytes", len(b))
	}
	le := binary.LittleEndian

	flags := le.Uint16(b[0:2])
	if flags&^knownFlags != 0 {
		return TrackPoint{}, fmt.Errorf("unknown flags 0x%04X", flags)
	}
	ts, err := unpackTime(le.Uint32(b[2:6]))
	if err != nil {
		return TrackPoint{}, err
	}
	lat := float64(int32(le.Uint32(b[6:10]))) / 1e7
	lon := float64(int32(le.Uint32(b[10:14]))) / 1e7
	if math.Abs(lat) > 90 || math.Abs(lon) > 180 {
		return TrackPoint{}, fmt.Errorf("position %.7f,%.7f out of range", lat, lon)
	}

	p := TrackPoint{
		Time:       ts,
		Lat:        lat,
		Lon:        lon,
		AltitudeM:  int(int16(le.Uint16(b[14:16]))),
		TrackStart: flags&flagTrackStart != 0,
		Push:       flags&flagPush != 0,
	}
	if v.Extended() {
		p.Sensor = &Sensor{
			TemperatureC: float64(int16(le.Uint16(b[16:18]))) / 10,
			PressureHPa:  float64(le.Uint16(b[18:20])) / 10,
		}
	}
	return p, nil
}

// AppendPoint appends the record encoding of p to dst.
func AppendPoint(dst []byte, p TrackPoint, v LogVersion) ([]byte, error) {
	if !v.Valid() {
		return dst, fmt.Errorf("unsupported log version %d", v)
	}
	if v.Extended() != (p.Sensor != nil) {
		return dst, fmt.Errorf("sensor data does not match log version %s", v)
	}
	ts, err := packTime(p.Time)
	if err != nil {
		return dst, err
	}
	if math.Abs(p.Lat) > 90 || math.Abs(p.Lon) > 180 {
		return dst, fmt.Errorf("position %.7f,%.7f out of range", p.Lat, p.Lon)
	}
	if p.AltitudeM < math.MinInt16 || p.AltitudeM > math.MaxInt16 {
		return dst, fmt.Errorf("altitude %d out of range", p.AltitudeM)
	}

	var flags uint16
	if p.TrackStart {
		flags |= flagTrackStart
	}
	if p.Push {
		flags |= flagPush
	}
	le := binary.LittleEndian
	dst = le.AppendUint16(dst, flags)
	dst = le.AppendUint32(dst, ts)
	dst = le.AppendUint32(dst, uint32(int32(math.Round(p.Lat*1e7))))
	dst = le.AppendUint32(dst, uint32(int32(math.Round(p.Lon*1e7))))
	dst = le.AppendUint16(dst, uint16(int16(p.AltitudeM)))

	if v.Extended() {
		temp := math.Round(p.Sensor.TemperatureC * 10)
		press := math.Round(p.Sensor.PressureHPa * 10)
		if temp < math.MinInt16 || temp > math.MaxInt16 {
			return dst, fmt.Errorf("temperature %.1f out of range", p.Sensor.TemperatureC)
		}
		if press < 0 || press > math.MaxUint16 {
			return dst, fmt.Errorf("air pressure %.1f out of range", p.Sensor.PressureHPa)
		}
		dst = le.AppendUint16(dst, uint16(int16(temp)))
		dst = le.AppendUint16(dst, uint16(press))
	}
	return dst, nil
}

// DecodePoints decodes a run of records and stops at the first invalid one.
func DecodePoints(b []byte, v LogVersion) ([]TrackPoint, error) {
	if !v.Valid() {
		return nil, decodeErr("log version", -1, "unsupported log version %d", v)
	}
	size := v.RecordSize()
	if len(b)%size != 0 {
		return nil, decodeErr("point data", -1, "%d bytes is not a multiple of the %d byte record size", len(b), size)
	}
	points := make([]TrackPoint, 0, len(b)/size)
	for off := 0; off < len(b); off += size {
		p, err := DecodePoint(b[off:off+size], v)
		if err != nil {
			return nil, &DecodeError{What: "trackpoint", Index: off / size, Err: err}
		}
		points = append(points, p)
	}
	return points, nil
}

// EncodePoints is the inverse of DecodePoints.
func EncodePoints(points []TrackPoint, v LogVersion) ([]byte, error) {
	out := make([]byte, 0, len(points)*v.RecordSize())
	for i, p := range points {
		var err error
		out, err = AppendPoint(out, p, v)
		if err != nil {
			return nil, fmt.Errorf("tk: encode trackpoint %d: %w", i, err)
		}
	}
	return out, nil
}
