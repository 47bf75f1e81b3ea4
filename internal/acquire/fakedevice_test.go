package acquire

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"wintec-ng/internal/tk"
	"wintec-ng/internal/xorsum"
)

type fault int

const (
	faultNone fault = iota
	faultChecksum
	faultAddr
	faultTimeout  // device stays silent
	faultNoStatus // block without status line
	faultShort    // half the block, a pause, then the status line
)

type chunk struct {
	data    []byte
	timeout bool
}

var errFakeTimeout = fmt.Errorf("fake read: %w", os.ErrDeadlineExceeded)

// fakeDevice emulates the command interface of a logger.
type fakeDevice struct {
	Name, Info, Serial string
	// Family is "wbt", "wsg" or "silent".
	Family   string
	Password string
	Chatter  int

	LogStart, LogEnd, AreaStart, AreaEnd uint32
	Mem                                  []byte
	BlockSize                            int
	Faults                               []fault
	Metadata                             map[string]string

	in        bytes.Buffer
	out       []chunk
	chattered bool

	Lines    []string
	Requests []uint32
	Deleted  bool
}

// newFakeDevice stores raw in a circular area of areaSize bytes starting at
// logStart.
func newFakeDevice(family, name string, raw []byte, areaStart, areaSize, logStart uint32) *fakeDevice {
	mem := bytes.Repeat([]byte{0xFF}, int(areaSize))
	rel := logStart - areaStart
	for i, b := range raw {
		mem[(rel+uint32(i))%areaSize] = b
	}
	end := rel + uint32(len(raw))
	if end > areaSize {
		end -= areaSize
	}
	return &fakeDevice{
		Name:      name,
		Info:      "FW 1.05",
		Serial:    "0000123456",
		Family:    family,
		LogStart:  logStart,
		LogEnd:    areaStart + end,
		AreaStart: areaStart,
		AreaEnd:   areaStart + areaSize,
		Mem:       mem,
		BlockSize: DefaultBlock,
	}
}

func (d *fakeDevice) Write(b []byte) (int, error) {
	d.in.Write(b)
	for {
		line, err := d.in.ReadString('\n')
		if err != nil {
			d.in.Reset()
			d.in.WriteString(line)
			break
		}
		d.handle(strings.TrimRight(line, "\r\n"))
	}
	return len(b), nil
}

func (d *fakeDevice) Read(b []byte) (int, error) {
	for len(d.out) > 0 {
		c := &d.out[0]
		if c.timeout {
			d.out = d.out[1:]
			return 0, errFakeTimeout
		}
		if len(c.data) == 0 {
			d.out = d.out[1:]
			continue
		}
		n := copy(b, c.data)
		c.data = c.data[n:]
		if len(c.data) == 0 {
			d.out = d.out[1:]
		}
		return n, nil
	}
	return 0, errFakeTimeout
}

func (d *fakeDevice) reply(s string) {
	d.out = append(d.out, chunk{data: []byte(s + "\r\n")})
}

func (d *fakeDevice) send(b []byte) {
	d.out = append(d.out, chunk{data: append([]byte(nil), b...)})
}

func (d *fakeDevice) pause() { d.out = append(d.out, chunk{timeout: true}) }

func (d *fakeDevice) login(ok bool) {
	if !d.chattered {
		d.chattered = true
		for i := 0; i < d.Chatter; i++ {
			d.reply("$GPGSV,3,1,12,01,40,083,46*70")
		}
	}
	if ok {
		d.reply("@AL,LoginOK")
	} else {
		d.reply("@AL,PassworError")
	}
}

func (d *fakeDevice) meta(cmd, v string) {
	if o, ok := d.Metadata[cmd]; ok {
		v = o
	}
	d.reply(cmd + "," + v)
}

func (d *fakeDevice) handle(cmd string) {
	d.Lines = append(d.Lines, cmd)
	u := func(v uint32) string { return strconv.FormatUint(uint64(v), 10) }
	switch {
	case cmd == cmdExit:
		d.reply(cmd)
	case cmd == cmdLogin:
		if d.Family == "wbt" {
			d.login(d.Password == "")
		}
	case cmd == cmdLoginWSG:
		if d.Family == "wsg" {
			d.login(true)
		}
	case strings.HasPrefix(cmd, cmdLoginPass):
		if d.Family == "wbt" && d.Password != "" {
			d.login(cmd[len(cmdLoginPass):] == d.Password)
		}
	case cmd == cmdDeviceName:
		d.meta(cmd, d.Name)
	case cmd == cmdDeviceInfo:
		d.meta(cmd, d.Info)
	case cmd == cmdSerial:
		d.meta(cmd, d.Serial)
	case cmd == cmdLogStart:
		d.meta(cmd, u(d.LogStart))
	case cmd == cmdLogEnd:
		d.meta(cmd, u(d.LogEnd))
	case cmd == cmdAreaStart:
		d.meta(cmd, u(d.AreaStart))
	case cmd == cmdAreaEnd:
		d.meta(cmd, u(d.AreaEnd))
	case strings.HasPrefix(cmd, cmdReadBlock+","):
		addr, err := strconv.ParseUint(cmd[len(cmdReadBlock)+1:], 10, 32)
		if err != nil {
			return
		}
		d.block(uint32(addr))
	case cmd == cmdDeleteLog:
		d.Deleted = true
	}
}

func (d *fakeDevice) block(addr uint32) {
	d.Requests = append(d.Requests, addr)
	f := faultNone
	if len(d.Faults) > 0 {
		f = d.Faults[0]
		d.Faults = d.Faults[1:]
	}

	dist := d.LogEnd - addr
	if d.LogEnd < addr {
		dist = (d.AreaEnd - addr) + (d.LogEnd - d.AreaStart)
	}
	n := min(uint32(d.BlockSize), d.AreaEnd-addr, dist)
	data := d.Mem[addr-d.AreaStart : addr-d.AreaStart+n]
	cs := xorsum.Sum(data)
	echo := addr

	switch f {
	case faultTimeout:
		d.pause()
		return
	case faultChecksum:
		cs ^= 0xFF
	case faultAddr:
		echo++
	case faultNoStatus:
		d.send(data)
		d.pause()
		return
	case faultShort:
		data = data[:len(data)/2]
		cs = xorsum.Sum(data)
		d.send(data)
		d.pause()
		d.reply(fmt.Sprintf("@AL,CS,%s,%d", xorsum.Hex(cs), echo))
		return
	}
	d.send(data)
	d.reply(fmt.Sprintf("@AL,CS,%s,%d", xorsum.Hex(cs), echo))
}

func (d *fakeDevice) count(cmd string) int {
	n := 0
	for _, l := range d.Lines {
		if l == cmd {
			n++
		}
	}
	return n
}

var exportTime = time.Date(2008, 5, 3, 18, 30, 0, 500, time.UTC)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Now = func() time.Time { return exportTime }
	return cfg
}

// records encodes n points of a walk; indices in starts begin a new track.
func records(t *testing.T, n int, v tk.LogVersion, starts ...int) []byte {
	t.Helper()
	base := time.Date(2008, 5, 1, 10, 0, 0, 0, time.UTC)
	pts := make([]tk.TrackPoint, n)
	for i := range pts {
		pts[i] = tk.TrackPoint{
			Time:       base.Add(time.Duration(i) * 10 * time.Second),
			Lat:        48.1 + float64(i)*0.0001,
			Lon:        11.5,
			AltitudeM:  500,
			TrackStart: i == 0,
			Push:       i%7 == 3,
		}
		if v.Extended() {
			pts[i].Sensor = &tk.Sensor{TemperatureC: 20.5, PressureHPa: 1013.2}
		}
	}
	for _, i := range starts {
		pts[i].TrackStart = true
	}
	raw, err := tk.EncodePoints(pts, v)
	if err != nil {
		t.Fatalf("EncodePoints() error: %v", err)
	}
	return raw
}
