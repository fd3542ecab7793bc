// Package presenter is the transport-agnostic heart of the system's
// observability surface: a snapshot of current state plus a best-effort
// fan-out of change events to any number of subscribers, none of which
// may ever block the driver goroutines that publish into it.
package presenter

import (
	"sync"
	"time"

	"github.com/jherland/hifictl/pkg/avrstate"
	"github.com/jherland/hifictl/pkg/hdmidriver"
	"github.com/jherland/hifictl/pkg/logger"
	"github.com/jherland/hifictl/pkg/router"
)

// Event is a single state-change notification delivered to subscribers.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	AVR       *avrstate.Snapshot  `json:"avr,omitempty"`
	HDMI      *hdmidriver.Snapshot `json:"hdmi,omitempty"`
}

// subscriberBuffer bounds how many pending events a slow subscriber may
// accumulate before new events to it are dropped.
const subscriberBuffer = 64

// Snapshot is the combined, current view of both devices.
type Snapshot struct {
	AVR  avrstate.Snapshot   `json:"avr"`
	HDMI hdmidriver.Snapshot `json:"hdmi"`
}

// Presenter holds the latest known state of both devices and fans out
// change notifications to subscribers. It also exposes a command
// submission entry point that feeds the shared router.
type Presenter struct {
	log    *logger.Logger
	router *router.Router

	mu          sync.RWMutex
	avr         avrstate.Snapshot
	hdmi        hdmidriver.Snapshot
	subscribers map[chan Event]bool
}

// New creates a Presenter that dispatches submitted commands through r.
func New(r *router.Router, log *logger.Logger) *Presenter {
	return &Presenter{
		log:         log.WithComponent("presenter"),
		router:      r,
		avr:         avrstate.Initial().Snapshot(),
		subscribers: make(map[chan Event]bool),
	}
}

// Snapshot returns the current combined device state.
func (p *Presenter) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Snapshot{AVR: p.avr, HDMI: p.hdmi}
}

// PublishAVR records a new AVR state and notifies subscribers.
func (p *Presenter) PublishAVR(s avrstate.Snapshot) {
	p.mu.Lock()
	p.avr = s
	p.mu.Unlock()
	p.broadcast(Event{Type: "avr_update", Timestamp: time.Now(), AVR: &s})
}

// PublishHDMI records a new HDMI session state and notifies subscribers.
func (p *Presenter) PublishHDMI(s hdmidriver.Snapshot) {
	p.mu.Lock()
	p.hdmi = s
	p.mu.Unlock()
	p.broadcast(Event{Type: "hdmi_update", Timestamp: time.Now(), HDMI: &s})
}

// Subscribe registers a new event channel and immediately delivers a
// snapshot of current state into it, so a subscriber attaching between
// updates still starts from a known state rather than an empty
// channel. The caller must call the returned unsubscribe function when
// done listening.
func (p *Presenter) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	p.mu.Lock()
	p.subscribers[ch] = true
	avr, hdmi := p.avr, p.hdmi
	p.mu.Unlock()

	ch <- Event{Type: "snapshot", Timestamp: time.Now(), AVR: &avr, HDMI: &hdmi}

	unsubscribe := func() {
		p.mu.Lock()
		if _, ok := p.subscribers[ch]; ok {
			delete(p.subscribers, ch)
			close(ch)
		}
		p.mu.Unlock()
	}
	return ch, unsubscribe
}

// broadcast delivers event to every subscriber without blocking; a
// subscriber whose buffer is full simply misses this event.
func (p *Presenter) broadcast(event Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for ch := range p.subscribers {
		select {
		case ch <- event:
		default:
			p.log.Warn("presenter subscriber buffer full, dropping event",
				logger.String("event_type", event.Type))
		}
	}
}

// SubmitCommand routes free-form command text (e.g. "avr vol+" or
// "hdmi 3") to its registered handler.
func (p *Presenter) SubmitCommand(command string) error {
	return p.router.Dispatch(command)
}
