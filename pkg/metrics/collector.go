// Package metrics collects in-process counters for the AVR and HDMI drivers.
package metrics

import "sync"

// Collector tracks driver health counters.
type Collector struct {
	mu sync.RWMutex

	framesDecoded   uint64
	framesDropped   uint64
	checksumErrors  uint64
	commandsSent    uint64
	reconnects      map[string]uint64
	watchdogResets  map[string]uint64
}

// NewCollector creates a new metrics Collector.
func NewCollector() *Collector {
	return &Collector{
		reconnects:     make(map[string]uint64),
		watchdogResets: make(map[string]uint64),
	}
}

// FrameDecoded records a successfully decoded status/response frame.
func (c *Collector) FrameDecoded() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.framesDecoded++
}

// FrameDropped records a frame discarded due to a protocol error.
func (c *Collector) FrameDropped() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.framesDropped++
}

// ChecksumError records a checksum mismatch.
func (c *Collector) ChecksumError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checksumErrors++
}

// CommandSent records a command datagram/line written to a device.
func (c *Collector) CommandSent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commandsSent++
}

// Reconnected records a device reconnection, keyed by device name.
func (c *Collector) Reconnected(device string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reconnects[device]++
}

// WatchdogReset records a silence-watchdog triggered reset, keyed by device name.
func (c *Collector) WatchdogReset(device string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watchdogResets[device]++
}

// Snapshot is a point-in-time read-only view of the collected counters.
type Snapshot struct {
	FramesDecoded  uint64            `json:"frames_decoded"`
	FramesDropped  uint64            `json:"frames_dropped"`
	ChecksumErrors uint64            `json:"checksum_errors"`
	CommandsSent   uint64            `json:"commands_sent"`
	Reconnects     map[string]uint64 `json:"reconnects"`
	WatchdogResets map[string]uint64 `json:"watchdog_resets"`
}

// Snapshot returns a consistent copy of the current counters.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	reconnects := make(map[string]uint64, len(c.reconnects))
	for k, v := range c.reconnects {
		reconnects[k] = v
	}
	watchdogResets := make(map[string]uint64, len(c.watchdogResets))
	for k, v := range c.watchdogResets {
		watchdogResets[k] = v
	}

	return Snapshot{
		FramesDecoded:  c.framesDecoded,
		FramesDropped:  c.framesDropped,
		ChecksumErrors: c.checksumErrors,
		CommandsSent:   c.commandsSent,
		Reconnects:     reconnects,
		WatchdogResets: watchdogResets,
	}
}
