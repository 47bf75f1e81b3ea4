package acquire

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"wintec-ng/internal/logging"
)

// maxDrainLines bounds how much leftover chatter is skipped after login.
const maxDrainLines = 1000

// link does line and block I/O on the serial connection.
type link struct {
	w io.Writer
	r *bufio.Reader
}

func newLink(conn Conn) *link {
	return &link{w: conn, r: bufio.NewReaderSize(conn, 8192)}
}

func (l *link) send(cmd string) error {
	logging.Debug("acquire tx=%q", cmd)
	_, err := io.WriteString(l.w, cmd+"\n")
	return err
}

// readLine returns the next line without its terminator. A line cut short by
// a timeout is dropped.
func (l *link) readLine() (string, error) {
	s, err := l.r.ReadString('\n')
	if err != nil {
		return "", asTimeout(err)
	}
	s = strings.TrimRight(s, "\r\n")
	logging.Debug("acquire rx=%q", s)
	return s, nil
}

// readBlock reads n bytes. Data cut short by a timeout is returned as a short
// block; a timeout before the first byte is ErrTransportTimeout.
func (l *link) readBlock(n int) ([]byte, error) {
	buf := make([]byte, n)
	got, err := io.ReadFull(l.r, buf)
	if err != nil {
		err = asTimeout(err)
		if got > 0 && errors.Is(err, ErrTransportTimeout) {
			logging.Debug("acquire short block got=%d want=%d", got, n)
			return buf[:got], nil
		}
		return nil, err
	}
	return buf, nil
}

// drain discards input until the line goes quiet.
func (l *link) drain() error {
	for i := 0; i < maxDrainLines; i++ {
		if _, err := l.readLine(); err != nil {
			if errors.Is(err, ErrTransportTimeout) {
				return nil
			}
			return err
		}
	}
	return nil
}

// value returns the text after the last comma of a response line.
func value(line string) string {
	if i := strings.LastIndexByte(line, ','); i >= 0 {
		line = line[i+1:]
	}
	return strings.TrimSpace(line)
}
