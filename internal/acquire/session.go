package acquire

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"wintec-ng/internal/logging"
	"wintec-ng/internal/tk"
	"wintec-ng/internal/xorsum"
)

// Device commands.
const (
	cmdExit       = "@AL,02,01"
	cmdLogin      = "@AL"
	cmdLoginPass  = "@AL,1"
	cmdLoginWSG   = "@AL,2,3"
	cmdDeviceName = "@AL,07,01"
	cmdDeviceInfo = "@AL,07,02"
	cmdSerial     = "@AL,07,03"
	cmdLogStart   = "@AL,05,01"
	cmdLogEnd     = "@AL,05,02"
	cmdAreaStart  = "@AL,05,09"
	cmdAreaEnd    = "@AL,05,10"
	cmdReadBlock  = "@AL,05,03"
	cmdDeleteLog  = "@AL,05,06"
	markLoginOK   = "@AL,LoginOK"
	markPassErr   = "@AL,PassworError"
	statusPrefix  = "@AL,CS,"
	wsgNameMarker = "WSG"
)

const (
	DefaultBlock   = 4096
	DefaultLogins  = 50
	DefaultRetries = 5
)

// Conn is the serial line. Read must return an error wrapping
// os.ErrDeadlineExceeded when nothing arrived within the read timeout.
type Conn interface {
	io.Reader
	io.Writer
}

type Config struct {
	// Password for a protected WBT-201; empty for none.
	Password      string
	BlockSize     int
	LoginAttempts int
	BlockRetries  int
	// LogVersion forces the record format; zero detects it from the device
	// name.
	LogVersion tk.LogVersion
	// Now stamps the export time. Defaults to time.Now.
	Now func() time.Time
}

func DefaultConfig() Config {
	return Config{
		BlockSize:     DefaultBlock,
		LoginAttempts: DefaultLogins,
		BlockRetries:  DefaultRetries,
		Now:           time.Now,
	}
}

func (c Config) withDefaults() Config {
	if c.BlockSize <= 0 {
		c.BlockSize = DefaultBlock
	}
	if c.LoginAttempts <= 0 {
		c.LoginAttempts = DefaultLogins
	}
	if c.BlockRetries <= 0 {
		c.BlockRetries = DefaultRetries
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// DeviceInfo is what the device reports about itself and its log buffer.
// Addresses are byte offsets in device memory.
type DeviceInfo struct {
	Name      string
	Info      string
	Serial    string
	LogStart  uint32
	LogEnd    uint32
	AreaStart uint32
	AreaEnd   uint32
}

// Pending returns the number of log bytes between LogStart and LogEnd,
// following the wrap from AreaEnd back to AreaStart.
func (d DeviceInfo) Pending() uint32 {
	if d.LogEnd >= d.LogStart {
		return d.LogEnd - d.LogStart
	}
	return (d.AreaEnd - d.LogStart) + (d.LogEnd - d.AreaStart)
}

// Capacity returns the number of records the log area holds.
func (d DeviceInfo) Capacity(v tk.LogVersion) int {
	return int(d.AreaEnd-d.AreaStart) / v.RecordSize()
}

func (d DeviceInfo) validate() error {
	if d.AreaEnd <= d.AreaStart {
		return fmt.Errorf("log area %d-%d is empty", d.AreaStart, d.AreaEnd)
	}
	for _, a := range []uint32{d.LogStart, d.LogEnd} {
		if a < d.AreaStart || a > d.AreaEnd {
			return fmt.Errorf("log address %d outside log area %d-%d", a, d.AreaStart, d.AreaEnd)
		}
	}
	return nil
}

// Session is one command-mode dialogue with a device.
type Session struct {
	cfg    Config
	link   *link
	state  State
	info   DeviceInfo
	closed bool
}

func NewSession(conn Conn, cfg Config) *Session {
	return &Session{cfg: cfg.withDefaults(), link: newLink(conn)}
}

// State returns the current state machine step.
func (s *Session) State() State { return s.state }

func (s *Session) setState(st State) {
	logging.Debug("acquire state=%s", st)
	s.state = st
}

// Login resets bypass mode and switches the device into command mode.
func (s *Session) Login() error {
	s.setState(StateBypassReset)
	if err := s.link.send(cmdExit); err != nil {
		return err
	}
	// Echo of the reset command; a silent device is diagnosed below.
	if _, err := s.link.readLine(); err != nil && !errors.Is(err, ErrTransportTimeout) {
		return err
	}

	s.setState(StateLoginAttempt)
	pw := s.cfg.Password
	first := cmdLogin
	if pw != "" {
		first = cmdLoginPass + pw
	}
	// WBT-201 first, then the WSG-1000 form twice.
	for _, cmd := range []string{first, cmdLoginWSG, cmdLoginWSG} {
		if err := s.link.send(cmd); err != nil {
			return err
		}
	}

	err := retry(s.cfg.LoginAttempts, func() (outcome, error) {
		line, err := s.link.readLine()
		switch {
		case errors.Is(err, ErrTransportTimeout):
			s.setState(StateTimeout)
			if pw == "" {
				return fatal, &ProtocolError{State: StateTimeout, Err: ErrPasswordRequired}
			}
			return fatal, &ProtocolError{State: StateTimeout, Err: ErrPasswordNotRequired}
		case err != nil:
			return fatal, err
		case strings.Contains(line, markLoginOK):
			return done, nil
		case strings.Contains(line, markPassErr):
			s.setState(StatePasswordError)
			if pw == "" {
				return fatal, &ProtocolError{State: StatePasswordError, Err: ErrPasswordRequired}
			}
			return fatal, &ProtocolError{State: StatePasswordError, Err: ErrWrongPassword}
		default:
			return counted, fmt.Errorf("%w: %q", ErrUnexpectedResponse, line)
		}
	})
	var ex *exhaustedError
	if errors.As(err, &ex) {
		return protoErr(StateLoginAttempt, ErrNoCommandMode, "no login answer in %d lines", ex.Attempts)
	}
	if err != nil {
		return err
	}

	s.setState(StateLoggedIn)
	logging.Info("acquire command mode entered")
	return s.link.drain()
}

func (s *Session) query(cmd string) (string, error) {
	if err := s.link.send(cmd); err != nil {
		return "", err
	}
	line, err := s.link.readLine()
	if err != nil {
		if errors.Is(err, ErrTransportTimeout) {
			return "", protoErr(StateMetadataRead, ErrTransportTimeout, "no answer to %s", cmd)
		}
		return "", err
	}
	return value(line), nil
}

func (s *Session) queryAddr(cmd string) (uint32, error) {
	v, err := s.query(cmd)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, protoErr(StateMetadataRead, ErrUnexpectedResponse, "%s answered %q", cmd, v)
	}
	return uint32(n), nil
}

// ReadInfo queries device identity and log addresses.
func (s *Session) ReadInfo() (DeviceInfo, error) {
	s.setState(StateMetadataRead)
	var d DeviceInfo
	var err error
	for _, q := range []struct {
		cmd string
		dst *string
	}{
		{cmdDeviceName, &d.Name},
		{cmdDeviceInfo, &d.Info},
		{cmdSerial, &d.Serial},
	} {
		if *q.dst, err = s.query(q.cmd); err != nil {
			return DeviceInfo{}, err
		}
	}
	for _, q := range []struct {
		cmd string
		dst *uint32
	}{
		{cmdLogStart, &d.LogStart},
		{cmdLogEnd, &d.LogEnd},
		{cmdAreaStart, &d.AreaStart},
		{cmdAreaEnd, &d.AreaEnd},
	} {
		if *q.dst, err = s.queryAddr(q.cmd); err != nil {
			return DeviceInfo{}, err
		}
	}
	if err := d.validate(); err != nil {
		return DeviceInfo{}, &ProtocolError{State: StateMetadataRead, Err: ErrUnexpectedResponse, Detail: err.Error()}
	}
	s.info = d
	logging.Info("acquire device=%q serial=%q logarea=%d-%d log=%d-%d",
		d.Name, d.Serial, d.AreaStart, d.AreaEnd, d.LogStart, d.LogEnd)
	return d, nil
}

// LogVersion returns the record format for a device name, unless one was
// forced in the config.
func (s *Session) LogVersion(deviceName string) tk.LogVersion {
	if s.cfg.LogVersion.Valid() {
		return s.cfg.LogVersion
	}
	if strings.Contains(strings.ToUpper(deviceName), wsgNameMarker) {
		return tk.LogVersion2
	}
	return tk.LogVersion1
}

// Download reads device info and the whole pending log and returns it as a
// .tk1 container. An empty log yields ErrNoLogData.
func (s *Session) Download() (*tk.V1, error) {
	d, err := s.ReadInfo()
	if err != nil {
		return nil, err
	}

	s.setState(StateRangeCompute)
	if d.LogStart == d.LogEnd {
		logging.Info("acquire no log data start=%d end=%d", d.LogStart, d.LogEnd)
		return nil, ErrNoLogData
	}
	lv := s.LogVersion(d.Name)
	logging.Info("acquire log_version=%s capacity=%d pending=%d", lv, d.Capacity(lv), d.Pending())

	raw, err := s.transfer(d)
	if err != nil {
		return nil, err
	}

	s.setState(StateDone)
	h := tk.Header{
		DeviceName:   d.Name,
		DeviceInfo:   d.Info,
		DeviceSerial: d.Serial,
		ExportTime:   s.cfg.Now().UTC().Truncate(time.Second),
		LogVersion:   lv,
	}
	return tk.NewV1(h, raw)
}

func (s *Session) transfer(d DeviceInfo) ([]byte, error) {
	s.setState(StateBlockTransfer)
	blockSize := uint32(s.cfg.BlockSize)
	remaining := d.Pending()
	ptr := d.LogStart
	// A log starting exactly at the area end begins at the area start.
	if ptr >= d.AreaEnd {
		ptr = d.AreaStart
	}
	out := make([]byte, 0, remaining)

	for remaining > 0 {
		chunk := min(blockSize, remaining, d.AreaEnd-ptr)
		final := chunk == remaining
		logging.Debug("acquire block addr=%d size=%d final=%v", ptr, chunk, final)

		var block []byte
		err := retry(s.cfg.BlockRetries, func() (outcome, error) {
			b, err := s.readBlock(ptr, int(chunk))
			switch {
			case err == nil:
				block = b
				return done, nil
			case errors.Is(err, ErrTransportTimeout):
				logging.Warning("acquire block read timeout addr=%d, retrying", ptr)
				if derr := s.link.drain(); derr != nil {
					return fatal, derr
				}
				return free, err
			case errors.Is(err, xorsum.ErrMismatch), errors.Is(err, ErrUnexpectedResponse):
				logging.Warning("acquire block read error addr=%d err=%v, retrying", ptr, err)
				if derr := s.link.drain(); derr != nil {
					return fatal, derr
				}
				return counted, err
			default:
				return fatal, err
			}
		})
		var ex *exhaustedError
		if errors.As(err, &ex) {
			return nil, &BlockError{Addr: ptr, Attempts: ex.Attempts, Err: ex.Last}
		}
		if err != nil {
			return nil, err
		}
		if len(block) == 0 {
			if len(out) == 0 {
				return nil, protoErr(StateBlockTransfer, ErrUnexpectedResponse,
					"empty block at %d with %d bytes pending", ptr, remaining)
			}
			logging.Info("acquire device sent empty block addr=%d", ptr)
			break
		}

		out = append(out, block...)
		remaining -= uint32(len(block))
		ptr += uint32(len(block))
		if ptr >= d.AreaEnd {
			ptr = d.AreaStart
		}
	}
	logging.Info("acquire read bytes=%d", len(out))
	return out, nil
}

// readBlock requests one block and verifies it against the status line.
func (s *Session) readBlock(addr uint32, n int) ([]byte, error) {
	if err := s.link.send(fmt.Sprintf("%s,%d", cmdReadBlock, addr)); err != nil {
		return nil, err
	}
	b, err := s.link.readBlock(n)
	if err != nil {
		return nil, err
	}
	line, err := s.link.readLine()
	if errors.Is(err, ErrTransportTimeout) {
		return nil, fmt.Errorf("no status line after block: %w", ErrTransportTimeout)
	}
	if err != nil {
		return nil, err
	}
	cs, echoed, err := parseStatus(line)
	if err != nil {
		return nil, err
	}
	if echoed != addr {
		return nil, fmt.Errorf("%w: block address %d, want %d", ErrUnexpectedResponse, echoed, addr)
	}
	if err := xorsum.Verify(b, cs); err != nil {
		return nil, fmt.Errorf("block at %d: %w", addr, err)
	}
	return b, nil
}

// parseStatus splits "@AL,CS,<hex checksum>,<block address>".
func parseStatus(line string) (string, uint32, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, statusPrefix) {
		return "", 0, fmt.Errorf("%w: status line %q", ErrUnexpectedResponse, line)
	}
	parts := strings.Split(line, ",")
	if len(parts) != 4 {
		return "", 0, fmt.Errorf("%w: status line %q", ErrUnexpectedResponse, line)
	}
	addr, err := strconv.ParseUint(strings.TrimSpace(parts[3]), 10, 32)
	if err != nil {
		return "", 0, fmt.Errorf("%w: status line %q", ErrUnexpectedResponse, line)
	}
	return parts[2], uint32(addr), nil
}

// DeleteLog clears the device log. Call it only after the downloaded data
// has been stored.
func (s *Session) DeleteLog() error {
	logging.Info("acquire delete log")
	return s.link.send(cmdDeleteLog)
}

// Close leaves command mode. It is safe to call more than once; only the
// first call writes.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.setState(StateClosed)
	return s.link.send(cmdExit)
}

// Acquire runs Login and Download on conn and always leaves command mode.
func Acquire(conn Conn, cfg Config) (v *tk.V1, err error) {
	s := NewSession(conn, cfg)
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err := s.Login(); err != nil {
		return nil, err
	}
	return s.Download()
}
