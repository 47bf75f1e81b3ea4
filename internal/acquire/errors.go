package acquire

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrPasswordRequired: the device did not answer the login, or refused
	// it, and no password was given.
	ErrPasswordRequired = errors.New("device seems to be password protected, provide the correct password")
	// ErrPasswordNotRequired: a password was given but the device did not
	// answer the password login.
	ErrPasswordNotRequired = errors.New("device seems not to be password protected, don't provide a password")
	ErrWrongPassword       = errors.New("wrong password")
	ErrNoCommandMode       = errors.New("can't switch into command mode")
	ErrUnexpectedResponse  = errors.New("unexpected response")

	// ErrTransportTimeout means no data arrived within the read timeout.
	ErrTransportTimeout = fmt.Errorf("acquire: transport timeout: %w", os.ErrDeadlineExceeded)

	// ErrNoLogData is returned when the device log is empty. It is a normal
	// outcome; nothing should be written.
	ErrNoLogData = errors.New("no log data available for export")
)

// ProtocolError is a terminal failure of the command dialogue.
type ProtocolError struct {
	State  State
	Err    error
	Detail string
}

func (e *ProtocolError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("acquire: %s: %v: %s", e.State, e.Err, e.Detail)
	}
	return fmt.Sprintf("acquire: %s: %v", e.State, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// BlockError reports a log block that could not be read intact within the
// retry budget. The acquisition is abandoned.
type BlockError struct {
	Addr     uint32
	Attempts int
	Err      error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("acquire: block at %d failed after %d attempts: %v", e.Addr, e.Attempts, e.Err)
}

func (e *BlockError) Unwrap() error { return e.Err }

func protoErr(s State, err error, format string, args ...any) error {
	return &ProtocolError{State: s, Err: err, Detail: fmt.Sprintf(format, args...)}
}

// asTimeout maps a read deadline to ErrTransportTimeout.
func asTimeout(err error) error {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return ErrTransportTimeout
	}
	return err
}
