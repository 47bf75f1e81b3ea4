package serial

import (
	"errors"
	"io"
	"os"
	"testing"
	"time"
)

type scriptedRW struct {
	reads  [][]byte
	closed bool
	wrote  []byte
}

func (s *scriptedRW) Read(b []byte) (int, error) {
	if len(s.reads) == 0 {
		return 0, nil
	}
	next := s.reads[0]
	s.reads = s.reads[1:]
	return copy(b, next), nil
}

func (s *scriptedRW) Write(b []byte) (int, error) {
	s.wrote = append(s.wrote, b...)
	return len(b), nil
}

func (s *scriptedRW) Close() error {
	s.closed = true
	return nil
}

func TestPort_EmptyReadIsDeadline(t *testing.T) {
	rw := &scriptedRW{reads: [][]byte{[]byte("@AL")}}
	p := &Port{path: "/dev/fake", rw: rw}

	buf := make([]byte, 8)
	n, err := p.Read(buf)
	if err != nil || string(buf[:n]) != "@AL" {
		t.Fatalf("Read()=%q,%v want @AL,nil", buf[:n], err)
	}
	if _, err := p.Read(buf); !errors.Is(err, os.ErrDeadlineExceeded) {
		t.Fatalf("err=%v want os.ErrDeadlineExceeded", err)
	}

	if _, err := p.Write([]byte("@AL\r\n")); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if string(rw.wrote) != "@AL\r\n" {
		t.Fatalf("wrote=%q", rw.wrote)
	}
	if err := p.Close(); err != nil || !rw.closed {
		t.Fatalf("Close()=%v closed=%v", err, rw.closed)
	}
}

type eofRW struct{ scriptedRW }

func (*eofRW) Read([]byte) (int, error) { return 0, io.EOF }

func TestPort_EOFIsDeadline(t *testing.T) {
	p := &Port{path: "/dev/fake", rw: &eofRW{}}
	if _, err := p.Read(make([]byte, 1)); !errors.Is(err, os.ErrDeadlineExceeded) {
		t.Fatalf("err=%v want os.ErrDeadlineExceeded", err)
	}
}

func TestOpen_Validation(t *testing.T) {
	if _, err := Open(Options{Baud: 57600, ReadTimeout: time.Second}); err == nil {
		t.Fatalf("expected error for missing path")
	}
	if _, err := Open(Options{Path: "/dev/null", Baud: 57600}); err == nil {
		t.Fatalf("expected error for zero timeout")
	}
}

func TestOpen_MissingDevice(t *testing.T) {
	_, err := Open(Options{Path: "/nonexistent/ttyUSB9", Baud: 57600, ReadTimeout: time.Second})
	if err == nil {
		t.Fatalf("expected error")
	}
}
