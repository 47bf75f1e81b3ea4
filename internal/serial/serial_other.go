//go:build !linux

package serial

import (
	bugserial "go.bug.st/serial"
)

func openPort(opts Options) (bugserial.Port, error) {
	mode := &bugserial.Mode{
		BaudRate: opts.Baud,
		DataBits: 8,
		Parity:   bugserial.NoParity,
		StopBits: bugserial.OneStopBit,
	}
	port, err := bugserial.Open(opts.Path, mode)
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(opts.ReadTimeout); err != nil {
		_ = port.Close()
		return nil, err
	}
	_ = port.ResetInputBuffer()
	return port, nil
}
