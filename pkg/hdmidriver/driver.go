// Package hdmidriver drives the Marmitek Connect411 HDMI switch's
// serial session: waiting for the boot banner, tracking the
// ready-to-send prompt, and dispatching queued commands.
package hdmidriver

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jherland/hifictl/pkg/hdmiproto"
	"github.com/jherland/hifictl/pkg/logger"
	"github.com/jherland/hifictl/pkg/metrics"
	"github.com/jherland/hifictl/pkg/serialport"
)

// SessionState describes where the driver is in the switch's
// line-oriented protocol.
type SessionState int

const (
	// StateInit is the state before the boot banner has been seen.
	StateInit SessionState = iota
	// StateReady is the steady state: banner seen, at least one prompt
	// received, ready to accept commands.
	StateReady
)

func (s SessionState) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// readyWaitFallback bounds how long the write loop waits for a prompt
// before sending anyway, mirroring the upstream driver's behavior of
// not hanging forever if a prompt byte is lost.
const readyWaitFallback = time.Second

// Snapshot is a read-only view of the HDMI session for presentation.
type Snapshot struct {
	State     string `json:"state"`
	LastInput string `json:"last_input"`
}

// Driver owns one HDMI switch serial session.
type Driver struct {
	port    serialport.Port
	log     *logger.Logger
	metrics *metrics.Collector

	mu        sync.RWMutex
	state     SessionState
	lastInput string

	commands chan string
	readyCh  chan struct{}
}

// New creates a Driver bound to an already-open serial port.
func New(port serialport.Port, log *logger.Logger, m *metrics.Collector) *Driver {
	return &Driver{
		port:     port,
		log:      log.WithComponent("hdmidriver"),
		metrics:  m,
		state:    StateInit,
		commands: make(chan string, 8),
		readyCh:  make(chan struct{}, 1),
	}
}

// Snapshot returns a point-in-time, read-only view of the session.
func (d *Driver) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Snapshot{State: d.state.String(), LastInput: d.lastInput}
}

// Send enqueues a symbolic command (a key of hdmiproto.Codes) to be
// sent once the switch is ready for it.
func (d *Driver) Send(name string) error {
	if _, ok := hdmiproto.Codes[name]; !ok {
		return fmt.Errorf("hdmidriver: unknown command %q", name)
	}
	select {
	case d.commands <- name:
		return nil
	default:
		return fmt.Errorf("hdmidriver: command queue full")
	}
}

// Run drives the session until ctx is canceled or an unrecoverable I/O
// error occurs on the serial port.
func (d *Driver) Run(ctx context.Context) error {
	errChan := make(chan error, 2)

	go func() { errChan <- d.readLoop(ctx) }()
	go func() { errChan <- d.writeLoop(ctx) }()

	select {
	case <-ctx.Done():
		d.port.Close()
		return ctx.Err()
	case err := <-errChan:
		d.port.Close()
		return err
	}
}

func (d *Driver) readLoop(ctx context.Context) error {
	d.port.SetReadTimeout(2 * time.Second)
	buf := make([]byte, 1)
	var line []byte

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := d.port.Read(buf)
		if err != nil {
			if serialport.IsTimeout(err) {
				continue
			}
			return fmt.Errorf("hdmidriver: read: %w", err)
		}
		if n == 0 {
			continue
		}

		b := buf[0]
		switch {
		case hdmiproto.IsStandbyByte(b):
			d.log.Warn("hdmi switch reported standby")
			d.clearReady()
		case b == hdmiproto.Prompt:
			d.handleLine(line)
			line = line[:0]
			d.signalReady()
		default:
			line = append(line, b)
		}
	}
}

func (d *Driver) handleLine(raw []byte) {
	text := strings.TrimSpace(string(hdmiproto.StripResponse(raw)))
	if text == "" {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateInit {
		if strings.Contains(text, hdmiproto.Banner) {
			d.state = StateReady
			d.log.Info("hdmi switch banner seen, session ready")
			d.enqueuePowerToggle()
		}
		return
	}

	if names, ok := hdmiproto.CodeNames[text[0]]; ok {
		d.lastInput = names[0]
		if d.metrics != nil {
			d.metrics.FrameDecoded()
		}
		return
	}

	d.log.Warn("hdmi switch sent unrecognized response", logger.String("text", text))
}

// enqueuePowerToggle is issued once, right after the boot banner, since
// the switch boots into standby and the toggle is what lifts it.
func (d *Driver) enqueuePowerToggle() {
	select {
	case d.commands <- "on/off":
	default:
		d.log.Warn("hdmi command queue full, dropping startup power toggle")
	}
}

func (d *Driver) signalReady() {
	select {
	case d.readyCh <- struct{}{}:
	default:
	}
}

// clearReady drains any pending ready token so the next write waits for
// a fresh prompt, mirroring the switch going silent when it drops into
// standby unprompted.
func (d *Driver) clearReady() {
	select {
	case <-d.readyCh:
	default:
	}
}

func (d *Driver) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case name := <-d.commands:
			if err := d.waitReady(ctx); err != nil {
				return err
			}
			if err := d.sendCommand(name); err != nil {
				return err
			}
		}
	}
}

func (d *Driver) waitReady(ctx context.Context) error {
	select {
	case <-d.readyCh:
		return nil
	case <-time.After(readyWaitFallback):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Driver) sendCommand(name string) error {
	code := hdmiproto.Codes[name]
	frame := hdmiproto.Frame(code)
	if _, err := d.port.Write(frame); err != nil {
		return fmt.Errorf("hdmidriver: write: %w", err)
	}
	if d.metrics != nil {
		d.metrics.CommandSent()
	}
	return nil
}
