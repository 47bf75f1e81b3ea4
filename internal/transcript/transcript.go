package transcript

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Transcript format: line-oriented text.
//
// - Blank lines ignored.
// - Lines starting with '#' ignored.
// - Line "START" resets the origin (next record time is relative to 0 again).
// - Data lines are: <t_ns>,<dir>,<hex>
//   where t_ns is nanoseconds since START, dir is tx (host to device), rx
//   (device to host) or to (read timeout, empty payload).

type Dir string

const (
	DirStart   Dir = "START"
	DirTx      Dir = "tx"
	DirRx      Dir = "rx"
	DirTimeout Dir = "to"
)

type Record struct {
	At   time.Duration
	Dir  Dir
	Data []byte
}

type Reader struct {
	r io.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func (rr *Reader) ReadAll() ([]Record, error) {
	s := bufio.NewScanner(rr.r)
	// A 4 KiB block is 8 KiB of hex.
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var recs []Record
	lineNo := 0
	for s.Scan() {
		lineNo++
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == string(DirStart) {
			recs = append(recs, Record{Dir: DirStart})
			continue
		}

		parts := strings.SplitN(line, ",", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("transcript line %d: want <t_ns>,<dir>,<hex>: %q", lineNo, line)
		}
		tsNs, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("transcript line %d: invalid timestamp: %w", lineNo, err)
		}
		if tsNs < 0 {
			return nil, fmt.Errorf("transcript line %d: negative timestamp %d", lineNo, tsNs)
		}

		dir := Dir(strings.TrimSpace(parts[1]))
		hexStr := strings.ReplaceAll(strings.TrimSpace(parts[2]), " ", "")
		data, err := hex.DecodeString(hexStr)
		if err != nil {
			return nil, fmt.Errorf("transcript line %d: invalid hex payload: %w", lineNo, err)
		}
		switch dir {
		case DirTx, DirRx:
			if len(data) == 0 {
				return nil, fmt.Errorf("transcript line %d: empty %s payload", lineNo, dir)
			}
		case DirTimeout:
			if len(data) != 0 {
				return nil, fmt.Errorf("transcript line %d: timeout with payload", lineNo)
			}
			data = nil
		default:
			return nil, fmt.Errorf("transcript line %d: unknown direction %q", lineNo, dir)
		}
		recs = append(recs, Record{At: time.Duration(tsNs), Dir: dir, Data: data})
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

// ReadFile loads a transcript from disk.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewReader(f).ReadAll()
}

type Writer struct {
	c      io.Closer
	w      *bufio.Writer
	start  time.Time
	closed bool
}

func CreateWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(f, time.Now())
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return w, nil
}

// NewWriter writes a transcript to wc with record times relative to start.
func NewWriter(wc io.WriteCloser, start time.Time) (*Writer, error) {
	bw := bufio.NewWriterSize(wc, 64*1024)
	if _, err := bw.WriteString(string(DirStart) + "\n"); err != nil {
		return nil, err
	}
	return &Writer{c: wc, w: bw, start: start}, nil
}

func (ww *Writer) Write(now time.Time, dir Dir, data []byte) error {
	if ww.closed {
		return errors.New("transcript writer is closed")
	}
	switch dir {
	case DirTx, DirRx:
		if len(data) == 0 {
			return fmt.Errorf("empty %s payload", dir)
		}
	case DirTimeout:
		data = nil
	default:
		return fmt.Errorf("unknown direction %q", dir)
	}

	d := now.Sub(ww.start)
	if d < 0 {
		d = 0
	}
	_, err := fmt.Fprintf(ww.w, "%d,%s,%s\n", d.Nanoseconds(), dir, hex.EncodeToString(data))
	return err
}

func (ww *Writer) Flush() error {
	if ww.closed {
		return nil
	}
	return ww.w.Flush()
}

func (ww *Writer) Close() error {
	if ww.closed {
		return nil
	}
	ww.closed = true
	if err := ww.w.Flush(); err != nil {
		_ = ww.c.Close()
		return err
	}
	return ww.c.Close()
}
