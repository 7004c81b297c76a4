// internal/poller/modbus/errors.go
package modbus

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/goburrow/modbus"
)

var (
	// ErrConnection marks failures of the TCP session itself. The session must
	// be closed and re-established before the next read.
	ErrConnection = errors.New("modbus: connection failure")

	// ErrNotConnected is returned by reads issued before Connect.
	ErrNotConnected = fmt.Errorf("%w: not connected", ErrConnection)
)

// IsConnectionError reports whether err invalidates the session.
// Modbus exception responses and malformed payloads do not.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConnection) {
		return true
	}

	var mbErr *modbus.ModbusError
	if errors.As(err, &mbErr) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	switch {
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH):
		return true
	}

	// goburrow flattens some socket errors into strings. A transaction id
	// mismatch means stale bytes are queued on the socket.
	msg := err.Error()
	for _, s := range []string{
		"connection reset",
		"broken pipe",
		"connection refused",
		"no route to host",
		"use of closed network connection",
		"does not match request",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// ExceptionCode extracts the Modbus exception code, or 0.
func ExceptionCode(err error) uint8 {
	var mbErr *modbus.ModbusError
	if errors.As(err, &mbErr) {
		return mbErr.ExceptionCode
	}
	return 0
}

func classify(err error) error {
	if IsConnectionError(err) && !errors.Is(err, ErrConnection) {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	return err
}
