// Package udp sends datagrams to a fixed destination, e.g. NMEA sentences
// to a moving-map app listening on the local network.
package udp

import (
	"fmt"
	"net"
)

type udpConn interface {
	Write([]byte) (int, error)
	Close() error
}

type resolveFunc func(network, address string) (*net.UDPAddr, error)
type dialFunc func(network string, laddr, raddr *net.UDPAddr) (udpConn, error)

type Sender struct {
	dest string
	conn udpConn
}

func NewSender(dest string) (*Sender, error) {
	return newSender(dest, net.ResolveUDPAddr, func(network string, laddr, raddr *net.UDPAddr) (udpConn, error) {
		return net.DialUDP(network, laddr, raddr)
	})
}

func newSender(dest string, resolve resolveFunc, dial dialFunc) (*Sender, error) {
	addr, err := resolve("udp", dest)
	if err != nil {
		return nil, fmt.Errorf("resolve dest: %w", err)
	}

	// DialUDP selects a suitable local address automatically.
	conn, err := dial("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dial udp: %w", err)
	}
	return &Sender{dest: dest, conn: conn}, nil
}

func (s *Sender) Dest() string { return s.dest }

// Send writes one datagram. Empty payloads are skipped.
func (s *Sender) Send(payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	_, err := s.conn.Write(payload)
	return err
}

func (s *Sender) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
