package transcript

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"wintec-ng/internal/logging"
)

// ErrDiverged is returned by a ReplayConn when the host does something the
// transcript did not record.
var ErrDiverged = errors.New("transcript: replay diverged")

type teeConn struct {
	rw  io.ReadWriter
	w   *Writer
	now func() time.Time
}

// Tee returns a connection that records every exchange on rw to w.
// Recording failures are logged and do not affect the connection.
func Tee(rw io.ReadWriter, w *Writer) io.ReadWriter {
	return &teeConn{rw: rw, w: w, now: time.Now}
}

func (t *teeConn) Read(b []byte) (int, error) {
	n, err := t.rw.Read(b)
	if n > 0 {
		t.record(DirRx, b[:n])
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		t.record(DirTimeout, nil)
	}
	return n, err
}

func (t *teeConn) Write(b []byte) (int, error) {
	n, err := t.rw.Write(b)
	if n > 0 {
		t.record(DirTx, b[:n])
	}
	return n, err
}

func (t *teeConn) record(dir Dir, data []byte) {
	if err := t.w.Write(t.now(), dir, data); err != nil {
		logging.Warning("transcript record failed dir=%s err=%v", dir, err)
	}
}

type Sleeper interface {
	Sleep(d time.Duration)
}

type realSleeper struct{}

func (realSleeper) Sleep(d time.Duration) { time.Sleep(d) }

// ReplayConn plays a recorded transcript back as a device. Reads return the
// recorded rx data and timeouts in order; writes must match the recorded tx
// data.
type ReplayConn struct {
	recs    []Record
	pending []byte

	// Sleeper, when set, delays each rx record by its recorded gap divided
	// by Speed.
	Sleeper Sleeper
	Speed   float64
	lastAt  time.Duration
	origin  time.Duration
}

func NewReplayConn(records []Record) *ReplayConn {
	return &ReplayConn{recs: append([]Record(nil), records...), Speed: 1}
}

// Paced enables real-time pacing at the given speed multiplier.
func (c *ReplayConn) Paced(speed float64) *ReplayConn {
	c.Sleeper = realSleeper{}
	c.Speed = speed
	return c
}

func (c *ReplayConn) next() (Record, bool) {
	for len(c.recs) > 0 && c.recs[0].Dir == DirStart {
		c.origin = c.recs[0].At
		c.lastAt = 0
		c.recs = c.recs[1:]
	}
	if len(c.recs) == 0 {
		return Record{}, false
	}
	return c.recs[0], true
}

func (c *ReplayConn) wait(r Record) {
	if c.Sleeper == nil || c.Speed <= 0 {
		return
	}
	at := r.At - c.origin
	if at < 0 {
		at = 0
	}
	if gap := time.Duration(float64(at-c.lastAt) / c.Speed); gap > 0 {
		c.Sleeper.Sleep(gap)
	}
	c.lastAt = at
}

func (c *ReplayConn) Read(b []byte) (int, error) {
	if len(c.pending) > 0 {
		n := copy(b, c.pending)
		c.pending = c.pending[n:]
		return n, nil
	}
	r, ok := c.next()
	if !ok {
		return 0, io.EOF
	}
	switch r.Dir {
	case DirRx:
		c.recs = c.recs[1:]
		c.wait(r)
		n := copy(b, r.Data)
		c.pending = r.Data[n:]
		return n, nil
	case DirTimeout:
		c.recs = c.recs[1:]
		c.wait(r)
		return 0, fmt.Errorf("transcript replay read: %w", os.ErrDeadlineExceeded)
	default:
		return 0, fmt.Errorf("%w: read while %s %q is expected", ErrDiverged, r.Dir, r.Data)
	}
}

func (c *ReplayConn) Write(b []byte) (int, error) {
	r, ok := c.next()
	if !ok {
		return 0, fmt.Errorf("%w: write %q after end of transcript", ErrDiverged, b)
	}
	if r.Dir != DirTx {
		return 0, fmt.Errorf("%w: write %q while %s is expected", ErrDiverged, b, r.Dir)
	}
	if !bytes.HasPrefix(r.Data, b) {
		return 0, fmt.Errorf("%w: write %q, recorded %q", ErrDiverged, b, r.Data)
	}
	if len(b) == len(r.Data) {
		c.recs = c.recs[1:]
	} else {
		c.recs[0].Data = r.Data[len(b):]
	}
	c.wait(r)
	return len(b), nil
}

// Remaining returns the number of records not yet replayed.
func (c *ReplayConn) Remaining() int {
	n := 0
	for _, r := range c.recs {
		if r.Dir != DirStart {
			n++
		}
	}
	return n
}
