//go:build windows
// +build windows

// File: socket/socket_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows socket adapter: TCP socket creation with bind/listen/accept and
// the standard option set applied to every listen and accepted socket.

package socket

import (
	"fmt"

	"golang.org/x/sys/windows"
)

const bufSize64KiB = 64 * 1024

// Create builds a TCP socket bound to port on all interfaces.
func Create(port int) (*Socket, error) {
	fd, err := windows.Socket(windows.AF_INET, windows.SOCK_STREAM, windows.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}
	if err := applyOptions(fd); err != nil {
		windows.Closesocket(fd)
		return nil, err
	}
	sa := &windows.SockaddrInet4{Port: port}
	if err := windows.Bind(fd, sa); err != nil {
		windows.Closesocket(fd)
		return nil, fmt.Errorf("bind: %w", err)
	}
	return &Socket{fd: uintptr(fd)}, nil
}

func applyOptions(fd windows.Handle) error {
	if err := windows.SetsockoptInt(fd, windows.SOL_SOCKET, windows.SO_REUSEADDR, 1); err != nil {
		return fmt.Errorf("SO_REUSEADDR: %w", err)
	}
	linger := windows.Linger{Onoff: 1, Linger: 0}
	if err := windows.SetsockoptLinger(fd, windows.SOL_SOCKET, windows.SO_LINGER, &linger); err != nil {
		return fmt.Errorf("SO_LINGER: %w", err)
	}
	if err := windows.SetsockoptInt(fd, windows.IPPROTO_TCP, windows.TCP_NODELAY, 1); err != nil {
		return fmt.Errorf("TCP_NODELAY: %w", err)
	}
	if err := windows.SetsockoptInt(fd, windows.SOL_SOCKET, windows.SO_SNDBUF, bufSize64KiB); err != nil {
		return fmt.Errorf("SO_SNDBUF: %w", err)
	}
	if err := windows.SetsockoptInt(fd, windows.SOL_SOCKET, windows.SO_RCVBUF, bufSize64KiB); err != nil {
		return fmt.Errorf("SO_RCVBUF: %w", err)
	}
	return nil
}

// ApplyAcceptedOptions installs the standard option set on an
// already-accepted handle. Exported for the reactor's accept completion
// path.
func ApplyAcceptedOptions(fd windows.Handle) error {
	return applyOptions(fd)
}

// Listen marks the socket as a listen socket with the given backlog.
// Windows has no SO_REUSEPORT equivalent; SO_REUSEADDR alone is applied.
func (s *Socket) Listen(backlog int) error {
	if !s.Valid() {
		return ErrClosed
	}
	return windows.Listen(windows.Handle(s.fd), backlog)
}

// Accept accepts one pending connection, applying the standard option set to
// the new socket.
func (s *Socket) Accept() (*Socket, error) {
	if !s.Valid() {
		return nil, ErrClosed
	}
	nfd, _, err := windows.Accept(windows.Handle(s.fd))
	if err != nil {
		return nil, err
	}
	if err := applyOptions(nfd); err != nil {
		windows.Closesocket(nfd)
		return nil, err
	}
	return &Socket{fd: uintptr(nfd)}, nil
}

// Close releases the socket handle. Idempotent.
func (s *Socket) Close() error {
	if !s.Valid() {
		return nil
	}
	fd := s.Take()
	return windows.Closesocket(windows.Handle(fd))
}
