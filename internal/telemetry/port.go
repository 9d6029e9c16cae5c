package telemetry

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"syscall"
	"time"

	"go.bug.st/serial"
)

// Port is the byte stream a session reads from. go.bug.st/serial ports
// satisfy it; tests substitute in-memory pipes.
type Port interface {
	io.Reader
	io.Closer
	SetReadTimeout(t time.Duration) error
}

// Opener acquires a port for a device name and baud rate.
type Opener func(name string, baud int) (Port, error)

// BaudRates lists the rates offered for selection.
var BaudRates = []int{9600, 19200, 38400, 57600, 115200, 230400, 460800, 921600}

// OpenSerial opens a serial device in 8N1 mode.
func OpenSerial(name string, baud int) (Port, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("no serial port selected")
	}
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, err
	}
	return port, nil
}

// ListPorts returns the serial devices currently present, sorted.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}
	sort.Strings(ports)
	return ports, nil
}

// isClosedError reports whether err is what a read returns when the port was
// closed underneath it.
func isClosedError(err error) bool {
	if errors.Is(err, io.ErrClosedPipe) || errors.Is(err, syscall.EBADF) {
		return true
	}
	if code, ok := portErrorCode(err); ok && code == serial.PortClosed {
		return true
	}
	return strings.Contains(err.Error(), "file already closed")
}

// isDisconnectError reports whether err means the device went away and no
// further read can succeed.
func isDisconnectError(err error) bool {
	if errors.Is(err, io.EOF) {
		return true
	}
	if code, ok := portErrorCode(err); ok {
		switch code {
		case serial.PortNotFound, serial.InvalidSerialPort:
			return true
		default:
			return false
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "device not configured") ||
		strings.Contains(msg, "input/output error") ||
		strings.Contains(msg, "no such device") ||
		strings.Contains(msg, "device not found") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "device disconnected")
}

// portErrorCode extracts the serial library error code. The library returns
// both PortError values and pointers depending on the platform.
func portErrorCode(err error) (serial.PortErrorCode, bool) {
	var byPtr *serial.PortError
	if errors.As(err, &byPtr) && byPtr != nil {
		return byPtr.Code(), true
	}
	var byVal serial.PortError
	if errors.As(err, &byVal) {
		return byVal.Code(), true
	}
	return 0, false
}
