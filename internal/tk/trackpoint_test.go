package tk

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var goldenPlainRecord = []byte{
	0x03, 0x00, // flags: track start + push
	0x1E, 0xA5, 0x42, 0x21, // 2008-05-01 10:20:30
	0x87, 0x0E, 0xAF, 0x1C, // lat 48.1234567
	0x40, 0x3D, 0x25, 0xF9, // lon -11.5
	0x08, 0x02, // alt 520 m
}

func TestDecodePoint_GoldenPlain(t *testing.T) {
	p, err := DecodePoint(goldenPlainRecord, LogVersion1)
	require.NoError(t, err)

	require.Equal(t, time.Date(2008, 5, 1, 10, 20, 30, 0, time.UTC), p.Time)
	require.Equal(t, 48.1234567, p.Lat)
	require.Equal(t, -11.5, p.Lon)
	require.Equal(t, 520, p.AltitudeM)
	require.True(t, p.TrackStart)
	require.True(t, p.Push)
	require.Nil(t, p.Sensor)

	out, err := AppendPoint(nil, p, LogVersion1)
	require.NoError(t, err)
	require.Equal(t, goldenPlainRecord, out)
}

func TestDecodePoint_GoldenExtended(t *testing.T) {
	rec := append(append([]byte(nil), goldenPlainRecord...), 0xC9, 0xFF, 0x94, 0x27)
	p, err := DecodePoint(rec, LogVersion2)
	require.NoError(t, err)
	require.NotNil(t, p.Sensor)
	require.Equal(t, -5.5, p.Sensor.TemperatureC)
	require.Equal(t, 1013.2, p.Sensor.PressureHPa)

	out, err := AppendPoint(nil, p, LogVersion2)
	require.NoError(t, err)
	require.Equal(t, rec, out)
}

func TestDecodePoint_RangeChecks(t *testing.T) {
	pack := func(sec, minute, hour, day, month, year uint32) uint32 {
		return sec | minute<<6 | hour<<12 | day<<17 | month<<22 | year<<26
	}
	cases := []struct {
		name string
		mut  func(b []byte)
	}{
		{name: "Month13", mut: func(b []byte) { putU32(b[2:], pack(0, 0, 0, 1, 13, 8)) }},
		{name: "Month0", mut: func(b []byte) { putU32(b[2:], pack(0, 0, 0, 1, 0, 8)) }},
		{name: "Day0", mut: func(b []byte) { putU32(b[2:], pack(0, 0, 0, 0, 5, 8)) }},
		{name: "Feb30", mut: func(b []byte) { putU32(b[2:], pack(0, 0, 0, 30, 2, 8)) }},
		{name: "Hour24", mut: func(b []byte) { putU32(b[2:], pack(0, 0, 24, 1, 5, 8)) }},
		{name: "Second60", mut: func(b []byte) { putU32(b[2:], pack(60, 0, 0, 1, 5, 8)) }},
		{name: "Latitude", mut: func(b []byte) { putU32(b[6:], uint32(int32(910000000))) }},
		{name: "UnknownFlags", mut: func(b []byte) { b[0] = 0x80 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := append([]byte(nil), goldenPlainRecord...)
			tc.mut(rec)
			_, err := DecodePoint(rec, LogVersion1)
			require.Error(t, err)
		})
	}
}

func TestDecodePoint_LeapDay(t *testing.T) {
	rec := append([]byte(nil), goldenPlainRecord...)
	putU32(rec[2:], 0|0<<6|0<<12|29<<17|2<<22|8<<26)
	p, err := DecodePoint(rec, LogVersion1)
	require.NoError(t, err)
	require.Equal(t, time.Date(2008, 2, 29, 0, 0, 0, 0, time.UTC), p.Time)
}

func TestDecodePoints_AbortsOnFirstInvalidRecord(t *testing.T) {
	raw := encodePoints(t, walk(4, t0, time.Second, 48, 11, 5), LogVersion1)
	raw[2*PlainRecordSize+0] = 0xF0 // unknown flags in record 2

	_, err := DecodePoints(raw, LogVersion1)
	require.ErrorIs(t, err, ErrDecode)

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	require.Equal(t, "trackpoint", de.What)
	require.Equal(t, 2, de.Index)
}

func TestDecodePoints_PartialRecord(t *testing.T) {
	raw := encodePoints(t, walk(2, t0, time.Second, 48, 11, 5), LogVersion1)
	_, err := DecodePoints(raw[:len(raw)-3], LogVersion1)
	require.ErrorIs(t, err, ErrDecode)
}

func TestAppendPoint_SensorMustMatchLogVersion(t *testing.T) {
	plain := walk(1, t0, time.Second, 48, 11, 5)[0]
	_, err := AppendPoint(nil, plain, LogVersion2)
	require.Error(t, err)

	ext := withSensors([]TrackPoint{plain})[0]
	_, err = AppendPoint(nil, ext, LogVersion1)
	require.Error(t, err)
}

func TestAppendPoint_YearOutOfRange(t *testing.T) {
	p := walk(1, time.Date(1999, 12, 31, 23, 59, 59, 0, time.UTC), time.Second, 48, 11, 5)[0]
	_, err := AppendPoint(nil, p, LogVersion1)
	require.Error(t, err)
}

func TestLogVersion(t *testing.T) {
	require.Equal(t, 16, LogVersion1.RecordSize())
	require.Equal(t, 20, LogVersion2.RecordSize())
	require.Equal(t, "1.0", LogVersion1.String())
	require.Equal(t, "2.0", LogVersion2.String())

	v, err := ParseLogVersion("2.0")
	require.NoError(t, err)
	require.Equal(t, LogVersion2, v)

	_, err = ParseLogVersion("3.0")
	require.Error(t, err)
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
