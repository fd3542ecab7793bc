// Package avrdriver drives the AVR-430's full-duplex serial session:
// resyncing on noisy input, decoding status datagrams, throttling
// outbound commands, and reconnecting after prolonged silence.
package avrdriver

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jherland/hifictl/pkg/avrproto"
	"github.com/jherland/hifictl/pkg/avrstate"
	"github.com/jherland/hifictl/pkg/control"
	"github.com/jherland/hifictl/pkg/logger"
	"github.com/jherland/hifictl/pkg/metrics"
	"github.com/jherland/hifictl/pkg/serialport"
)

// Throttle timings. When status frames are actively flowing, commands
// may go out every throttleFast; once the channel goes quiet for a
// moment the driver backs off to throttleSlow so it doesn't spam a
// receiver that may be mid-reconnect.
const (
	throttleFast = 250 * time.Millisecond
	throttleSlow = 1 * time.Second

	// watchdogTimeout is the default time the driver will wait for a
	// status frame before assuming the link has died and reconnecting;
	// overridable per-Driver via NewWithTimeouts.
	watchdogTimeout = 10 * time.Second

	// offTimeout is the default time the driver waits for a status
	// frame before reporting the AVR off, well short of
	// watchdogTimeout; overridable per-Driver via NewWithTimeouts.
	offTimeout = 500 * time.Millisecond

	reconnectInitialBackoff = 500 * time.Millisecond
	reconnectMaxBackoff     = 30 * time.Second
)

// OpenFunc opens a fresh serial connection to the AVR, used by Run to
// reconnect after the watchdog fires.
type OpenFunc func() (serialport.Port, error)

// StateHandler is invoked whenever Apply/MarkOff produces a changed
// state.
type StateHandler func(avrstate.State)

// Driver owns one AVR serial session and its accumulated state.
type Driver struct {
	open    OpenFunc
	log     *logger.Logger
	metrics *metrics.Collector

	onStateChange StateHandler

	watchdogTimeout time.Duration
	offTimeout      time.Duration

	stateMu    sync.Mutex
	state      avrstate.State
	commands   chan string
	lastSentAt time.Time

	// lastStatusAt is the unix-nano timestamp of the most recently
	// decoded status frame, written by readLoop and read by writeLoop's
	// throttle so a write that follows fresh status traffic may use the
	// fast spacing instead of the idle one.
	lastStatusAt atomic.Int64
}

// New creates a Driver using the default watchdog/off timeouts. open is
// called (and re-called on reconnect) to obtain a configured,
// already-open serial port.
func New(open OpenFunc, log *logger.Logger, m *metrics.Collector, onStateChange StateHandler) *Driver {
	return NewWithTimeouts(open, log, m, onStateChange, watchdogTimeout, offTimeout)
}

// NewWithTimeouts creates a Driver with caller-supplied watchdog and
// off timeouts, letting config.AVRConfig's watchdog_seconds and
// off_after_seconds override the package defaults per-deployment (some
// receivers are chattier or slower to report standby than others).
func NewWithTimeouts(open OpenFunc, log *logger.Logger, m *metrics.Collector, onStateChange StateHandler, watchdog, off time.Duration) *Driver {
	if watchdog <= 0 {
		watchdog = watchdogTimeout
	}
	if off <= 0 {
		off = offTimeout
	}
	return &Driver{
		open:            open,
		log:             log.WithComponent("avrdriver"),
		metrics:         m,
		onStateChange:   onStateChange,
		watchdogTimeout: watchdog,
		offTimeout:      off,
		state:           avrstate.Initial(),
		commands:        make(chan string, 16),
	}
}

// State returns the driver's last known state. Safe to call from any
// goroutine; the read/write loops own state mutation exclusively.
func (d *Driver) State() avrstate.State {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	return d.state
}

// Enqueue submits a symbolic command for sending on the next available
// throttle slot.
func (d *Driver) Enqueue(name string) {
	select {
	case d.commands <- name:
	default:
		d.log.Warn("avr command queue full, dropping", logger.String("command", name))
	}
}

// Run drives reconnect/session cycles until ctx is canceled.
func (d *Driver) Run(ctx context.Context) error {
	backoff := reconnectInitialBackoff
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		port, err := d.open()
		if err != nil {
			d.log.Error("failed to open avr serial port", logger.Error(err))
			if !sleepOrDone(ctx, backoff) {
				return ctx.Err()
			}
			backoff = nextBackoff(backoff)
			continue
		}
		backoff = reconnectInitialBackoff

		err = d.runSession(ctx, port)
		port.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		d.log.Warn("avr session ended, reconnecting",
			logger.Error(err), logger.Duration("backoff", backoff))
		d.metrics.Reconnected("avr")
		if !sleepOrDone(ctx, backoff) {
			return ctx.Err()
		}
		backoff = nextBackoff(backoff)
	}
}

func nextBackoff(cur time.Duration) time.Duration {
	next := cur * 2
	if next > reconnectMaxBackoff {
		return reconnectMaxBackoff
	}
	return next
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}

// runSession owns one open serial port for its lifetime: framing reads,
// the silence watchdog, and the throttled write loop.
func (d *Driver) runSession(ctx context.Context, port serialport.Port) error {
	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errChan := make(chan error, 2)
	go func() { errChan <- d.readLoop(sessionCtx, port) }()
	go func() { errChan <- d.writeLoop(sessionCtx, port) }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errChan:
		return err
	}
}

// readLoop frames incoming bytes against the status datagram spec,
// resyncing whenever a framing or checksum error occurs, and resets the
// silence watchdog on every successfully decoded status.
func (d *Driver) readLoop(ctx context.Context, port serialport.Port) error {
	port.SetReadTimeout(d.offTimeout)

	framer := newFramer(avrproto.AVRPCStatus, d.metrics)
	lastFrame := time.Now()
	reportedOff := false

	buf := make([]byte, 256)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := port.Read(buf)
		if err != nil {
			if serialport.IsTimeout(err) {
				if time.Since(lastFrame) > d.offTimeout && !reportedOff {
					d.applyOff()
					reportedOff = true
				}
				if time.Since(lastFrame) > d.watchdogTimeout {
					d.metrics.WatchdogReset("avr")
					return fmt.Errorf("avrdriver: watchdog: no status frame in %s", d.watchdogTimeout)
				}
				continue
			}
			return fmt.Errorf("avrdriver: read: %w", err)
		}
		if n == 0 {
			continue
		}

		payloads := framer.Feed(buf[:n])
		for _, payload := range payloads {
			status, err := avrproto.ParseStatus(payload)
			if err != nil {
				d.metrics.FrameDropped()
				d.log.Warn("dropped malformed avr status payload", logger.Error(err))
				continue
			}
			d.metrics.FrameDecoded()
			lastFrame = time.Now()
			d.lastStatusAt.Store(lastFrame.UnixNano())
			reportedOff = false
			d.applyStatus(status)
		}
	}
}

func (d *Driver) applyStatus(status avrproto.Status) {
	d.stateMu.Lock()
	next, changed := d.state.Apply(status)
	prev := d.state
	d.state = next
	d.stateMu.Unlock()
	if changed && d.onStateChange != nil {
		d.onStateChange(next)
	}
	for _, cmd := range control.Evaluate(prev, next, len(d.commands)) {
		d.Enqueue(cmd)
	}
}

func (d *Driver) applyOff() {
	d.stateMu.Lock()
	next, changed := d.state.MarkOff()
	d.state = next
	d.stateMu.Unlock()
	if changed && d.onStateChange != nil {
		d.onStateChange(next)
	}
}

// writeLoop drains the command queue, encoding and writing each command
// as a PC_AVR_Command datagram, throttled to avoid overwhelming the
// receiver's command parser.
func (d *Driver) writeLoop(ctx context.Context, port serialport.Port) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case name := <-d.commands:
			if d.State().Off {
				d.log.Debug("dropping command while avr is off", logger.String("command", name))
				continue
			}
			if err := d.waitThrottle(ctx); err != nil {
				return err
			}
			if err := d.sendCommand(port, name); err != nil {
				return err
			}
			d.lastSentAt = time.Now()
		}
	}
}

// waitThrottle sleeps until the next write is allowed. Spacing is
// throttleFast when a status frame has arrived since the last write
// (the link is alive and chatty), widening to throttleSlow once the
// status stream has gone quiet since then, so a stalled or reconnecting
// receiver isn't hammered with retries.
func (d *Driver) waitThrottle(ctx context.Context) error {
	interval := throttleSlow
	if statusAt := d.lastStatusAt.Load(); statusAt != 0 {
		if time.Unix(0, statusAt).After(d.lastSentAt) {
			interval = throttleFast
		}
	}
	remaining := interval - time.Since(d.lastSentAt)
	if remaining <= 0 {
		return nil
	}
	select {
	case <-time.After(remaining):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Driver) sendCommand(port serialport.Port, name string) error {
	code, err := avrproto.Lookup(name)
	if err != nil {
		d.log.Warn("refusing to send unknown avr command", logger.String("command", name))
		return nil
	}
	frame, err := avrproto.Encode(code[:], avrproto.PCAVRCommand)
	if err != nil {
		return fmt.Errorf("avrdriver: encode %q: %w", name, err)
	}
	if _, err := port.Write(frame); err != nil {
		return fmt.Errorf("avrdriver: write: %w", err)
	}
	d.metrics.CommandSent()
	return nil
}

// framer resynchronizes on spec's start keyword and extracts complete
// payloads from a stream of possibly-noisy bytes.
type framer struct {
	spec    Spec
	buf     []byte
	metrics *metrics.Collector
}

// Spec is a narrow alias so this file doesn't need to import avrproto
// twice under two names; defined here purely for readability at the
// call site below.
type Spec = avrproto.Spec

func newFramer(spec avrproto.Spec, m *metrics.Collector) *framer {
	return &framer{spec: spec, metrics: m}
}

// Feed appends data to the framer's internal buffer and extracts zero
// or more complete, checksum-valid payloads. Bytes preceding a
// recognized prefix (noise, or the tail of a previous corrupted frame)
// are discarded, so the framer always resynchronizes on the next valid
// start-of-frame it sees.
func (f *framer) Feed(data []byte) [][]byte {
	f.buf = append(f.buf, data...)

	var payloads [][]byte
	prefix := f.spec.ExpectedPrefix()
	frameLen := f.spec.FrameLength()

	for {
		idx := bytes.Index(f.buf, prefix)
		if idx < 0 {
			if len(f.buf) > len(prefix) {
				f.buf = f.buf[len(f.buf)-len(prefix)+1:]
			}
			return payloads
		}
		if idx > 0 {
			f.buf = f.buf[idx:]
		}
		if len(f.buf) < frameLen {
			return payloads
		}

		candidate := f.buf[:frameLen]
		payload, err := avrproto.Decode(candidate, f.spec)
		if err != nil {
			// Not a valid frame at this offset; drop the prefix byte
			// and look for the next occurrence of the start keyword.
			if f.metrics != nil {
				f.metrics.ChecksumError()
			}
			f.buf = f.buf[1:]
			continue
		}

		payloads = append(payloads, append([]byte(nil), payload...))
		f.buf = f.buf[frameLen:]
	}
}
