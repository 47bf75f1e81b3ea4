//go:build linux

package serial

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

type termiosPort struct {
	fd int
}

func openPort(opts Options) (*termiosPort, error) {
	fd, err := unix.Open(opts.Path, unix.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, err
	}

	// Best-effort: if anything below fails, close fd.
	ok := false
	defer func() {
		if !ok {
			_ = unix.Close(fd)
		}
	}()

	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, err
	}
	spd, err := baudToUnix(opts.Baud)
	if err != nil {
		return nil, err
	}

	// Raw mode, 8N1, no flow control.
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IXOFF
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB | unix.CSTOPB | unix.CRTSCTS
	t.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL

	// Return whatever arrived, or nothing once the timeout expires.
	t.Cc[unix.VMIN] = 0
	t.Cc[unix.VTIME] = vtime(opts.ReadTimeout)

	t.Cflag &^= unix.CBAUD
	t.Cflag |= spd
	t.Ispeed = spd
	t.Ospeed = spd

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		return nil, err
	}
	// Drop whatever the device sent before we were listening.
	_ = unix.IoctlSetInt(fd, unix.TCFLSH, unix.TCIOFLUSH)

	ok = true
	return &termiosPort{fd: fd}, nil
}

func (p *termiosPort) Read(b []byte) (int, error) {
	for {
		n, err := unix.Read(p.fd, b)
		if err == unix.EINTR {
			continue
		}
		if n < 0 {
			n = 0
		}
		return n, err
	}
}

func (p *termiosPort) Write(b []byte) (int, error) {
	written := 0
	for written < len(b) {
		n, err := unix.Write(p.fd, b[written:])
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return written, err
		}
		written += n
	}
	return written, nil
}

func (p *termiosPort) Close() error { return unix.Close(p.fd) }

// vtime converts a timeout to termios deciseconds, clamped to 1..255.
func vtime(d time.Duration) uint8 {
	ds := (d + 99*time.Millisecond) / (100 * time.Millisecond)
	if ds < 1 {
		return 1
	}
	if ds > 255 {
		return 255
	}
	return uint8(ds)
}

func baudToUnix(baud int) (uint32, error) {
	switch baud {
	case 4800:
		return unix.B4800, nil
	case 9600:
		return unix.B9600, nil
	case 19200:
		return unix.B19200, nil
	case 38400:
		return unix.B38400, nil
	case 57600:
		return unix.B57600, nil
	case 115200:
		return unix.B115200, nil
	default:
		return 0, fmt.Errorf("unsupported baud %d", baud)
	}
}
