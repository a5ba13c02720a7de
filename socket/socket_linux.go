//go:build linux
// +build linux

// File: socket/socket_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux raw-socket adapter: non-blocking TCP socket creation with the
// standard option set (SO_REUSEADDR/SO_REUSEPORT, immediate-close
// SO_LINGER, TCP_NODELAY, 64 KiB send/recv buffers).

package socket

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const bufSize64KiB = 64 * 1024

// Create builds a non-blocking IPv4 TCP socket bound to port on all
// interfaces, with the option set applied before bind.
func Create(port int) (*Socket, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}
	if err := applyOptions(fd); err != nil {
		unix.Close(fd)
		return nil, err
	}
	sa := &unix.SockaddrInet4{Port: port}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind: %w", err)
	}
	return &Socket{fd: uintptr(fd)}, nil
}

// applyOptions installs the option set every listen and accepted socket
// carries: address/port reuse, immediate-close linger, Nagle-disabled,
// 64 KiB buffers.
func applyOptions(fd int) error {
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return fmt.Errorf("SO_REUSEADDR: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
		return fmt.Errorf("SO_REUSEPORT: %w", err)
	}
	if err := unix.SetsockoptLinger(fd, unix.SOL_SOCKET, unix.SO_LINGER, &unix.Linger{Onoff: 1, Linger: 0}); err != nil {
		return fmt.Errorf("SO_LINGER: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
		return fmt.Errorf("TCP_NODELAY: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, bufSize64KiB); err != nil {
		return fmt.Errorf("SO_SNDBUF: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, bufSize64KiB); err != nil {
		return fmt.Errorf("SO_RCVBUF: %w", err)
	}
	return nil
}

// ApplyAcceptedOptions installs the standard option set on an
// already-accepted descriptor. Exported for the reactor's accept completion
// path, which calls accept4(2) directly rather than through Socket.Accept.
func ApplyAcceptedOptions(fd int) error {
	return applyOptions(fd)
}

// Listen marks the socket as a listen socket with the given backlog.
func (s *Socket) Listen(backlog int) error {
	if !s.Valid() {
		return ErrClosed
	}
	return unix.Listen(int(s.fd), backlog)
}

// Accept accepts one pending connection as a non-blocking socket with the
// standard option set already applied. Returns unix.EAGAIN when nothing is
// pending; callers in the reactor path treat that as "resubmit".
func (s *Socket) Accept() (*Socket, error) {
	if !s.Valid() {
		return nil, ErrClosed
	}
	nfd, _, err := unix.Accept4(int(s.fd), unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		return nil, err
	}
	if err := applyOptions(nfd); err != nil {
		unix.Close(nfd)
		return nil, err
	}
	return &Socket{fd: uintptr(nfd)}, nil
}

// Close releases the descriptor. Idempotent: closing twice, or closing a
// moved-from Socket, is a no-op.
func (s *Socket) Close() error {
	if !s.Valid() {
		return nil
	}
	fd := s.Take()
	return unix.Close(int(fd))
}
