// Package serialport wraps the RS-232 ports used to talk to the AVR and
// the HDMI switch: 8N1 framing at a fixed baud rate, plus the RTS/CTS
// toggle quirk some USB-serial adapters need at open time before they
// will pass data.
package serialport

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	serial "github.com/daedaluz/goserial"
)

// Port is the minimal interface the AVR and HDMI drivers need from a
// serial connection. The real implementation is backed by goserial; a
// net.Pipe-backed fake implements the same interface for tests.
type Port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	SetReadTimeout(d time.Duration)
}

// Config describes how to open and configure one serial port.
type Config struct {
	Path        string
	BaudRate    int
	ReadTimeout time.Duration
}

// devicePort adapts *goserial.Port to the Port interface and performs
// the RTS/CTS toggle quirk at open time.
type devicePort struct {
	*serial.Port
}

// Open opens the named device at the configured baud rate in raw 8N1
// mode, then toggles RTS and CTS on and immediately off. Some
// USB-to-RS232 adapters never assert their lines correctly unless the
// host does this once right after open; without it, no bytes flow in
// either direction.
func Open(cfg Config) (Port, error) {
	speed, err := baudToCFlag(cfg.BaudRate)
	if err != nil {
		return nil, err
	}

	opts := serial.NewOptions().SetReadTimeout(cfg.ReadTimeout)
	port, err := serial.Open(cfg.Path, opts)
	if err != nil {
		return nil, fmt.Errorf("serialport: open %s: %w", cfg.Path, err)
	}

	if err := configure(port, speed); err != nil {
		port.Close()
		return nil, fmt.Errorf("serialport: configure %s: %w", cfg.Path, err)
	}

	if err := toggleModemLines(port); err != nil {
		port.Close()
		return nil, fmt.Errorf("serialport: modem line toggle on %s: %w", cfg.Path, err)
	}

	return &devicePort{Port: port}, nil
}

func (p *devicePort) SetReadTimeout(d time.Duration) {
	p.Port.SetReadTimeout(d)
}

func configure(port *serial.Port, speed serial.CFlag) error {
	attrs, err := port.GetAttr()
	if err != nil {
		return err
	}
	attrs.MakeRaw()
	attrs.SetSpeed(speed)
	attrs.Cflag |= serial.CREAD | serial.CLOCAL
	return port.SetAttr(serial.TCSANOW, attrs)
}

// toggleModemLines sets RTS and CTS then immediately clears them. See
// the Open doc comment for why this dance is necessary.
func toggleModemLines(port *serial.Port) error {
	if err := port.EnableModemLines(serial.TIOCM_RTS | serial.TIOCM_CTS); err != nil {
		return err
	}
	return port.DisableModemLines(serial.TIOCM_RTS | serial.TIOCM_CTS)
}

// IsTimeout reports whether err represents a read-timeout condition
// rather than a real I/O failure. Drivers use this to distinguish
// "no data yet, keep polling" from "the device went away".
func IsTimeout(err error) bool {
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ETIMEDOUT) || errors.Is(err, syscall.EAGAIN)
}

func baudToCFlag(baud int) (serial.CFlag, error) {
	switch baud {
	case 9600:
		return serial.B9600, nil
	case 19200:
		return serial.B19200, nil
	case 38400:
		return serial.B38400, nil
	case 115200:
		return serial.B115200, nil
	default:
		return 0, fmt.Errorf("serialport: unsupported baud rate %d", baud)
	}
}
