// Package avrstate holds the AVR's accumulated state as an immutable
// record and the pure reducer that folds newly decoded status updates
// into it.
package avrstate

import (
	"maps"

	"github.com/jherland/hifictl/pkg/avrproto"
)

// State is a point-in-time view of the AVR, built up by repeatedly
// applying decoded status payloads. Fields are adopted monotonically:
// a field only changes when the incoming status carries a new,
// meaningful value for it, so the state never regresses to "unknown"
// just because one status line happened not to show it.
type State struct {
	Off       bool
	Standby   bool
	Muted     bool
	Volume    *int
	Source    *string
	Digital   *string
	Surround  map[string]bool
	Channels  map[string]bool
	Speakers  map[string]bool
	Line1     string
	Line2     string
}

// Initial is the state before any status has ever been received.
func Initial() State {
	return State{Off: true, Standby: true}
}

// Apply folds a newly decoded status into the previous state and
// returns the resulting state along with whether anything changed.
// Apply never reports Off: only the driver's silence watchdog can
// transition the state back to Off, since (by definition) receiving a
// status at all means the AVR is talking to us.
func (s State) Apply(status avrproto.Status) (State, bool) {
	next := s
	next.Off = false
	next.Standby = status.Standby()
	next.Muted = status.Muted()

	if v, ok := status.Volume(); ok {
		next.Volume = &v
	}
	if src, ok := status.Source(); ok {
		next.Source = &src
	}
	if dig, ok := status.Digital(); ok {
		next.Digital = &dig
	}
	if channels := status.Channels(); len(channels) > 0 {
		next.Channels = channels
	}
	if surround := status.Surround(); len(surround) > 0 {
		next.Surround = surround
	}
	if speakers := status.Speakers(); len(speakers) > 0 {
		next.Speakers = speakers
	}

	// line1 keeps its previous value only when the new line is blank
	// and we're currently muted (while muted the VFD flashes "MUTE" on
	// line1, alternating with a blank line); otherwise it always
	// adopts the incoming value, including becoming blank.
	if status.Line1 != "" || !next.Muted {
		next.Line1 = status.Line1
	}
	if status.Line2 != "" {
		next.Line2 = status.Line2
	}

	return next, !next.equal(s)
}

func (s State) equal(other State) bool {
	if s.Off != other.Off || s.Standby != other.Standby || s.Muted != other.Muted ||
		s.Line1 != other.Line1 || s.Line2 != other.Line2 {
		return false
	}
	if !equalIntPtr(s.Volume, other.Volume) {
		return false
	}
	if !equalStringPtr(s.Source, other.Source) {
		return false
	}
	if !equalStringPtr(s.Digital, other.Digital) {
		return false
	}
	if !maps.Equal(s.Surround, other.Surround) {
		return false
	}
	if !maps.Equal(s.Channels, other.Channels) {
		return false
	}
	if !maps.Equal(s.Speakers, other.Speakers) {
		return false
	}
	return true
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// MarkOff returns the state transitioned to "off", as triggered by the
// driver's silence watchdog rather than by any received status.
func (s State) MarkOff() (State, bool) {
	if s.Off {
		return s, false
	}
	next := Initial()
	return next, true
}

// surroundShortLimit bounds how many modes SurroundStringShort will
// render before collapsing to "***"; it mirrors the narrow VFD-style
// readouts the short string is meant for.
const surroundShortLimit = 3

// Snapshot is the read-only, JSON-serializable view of a State exposed
// to the presenter and web API.
type Snapshot struct {
	Off                 bool     `json:"off"`
	Standby             bool     `json:"standby"`
	Muted               bool     `json:"muted"`
	Volume              *int     `json:"volume"`
	Source              *string  `json:"source"`
	Digital             *string  `json:"digital"`
	Surround            []string `json:"surround"`
	SurroundString      string   `json:"surround_string"`
	SurroundStringShort string   `json:"surround_string_short"`
	Channels            []string `json:"channels"`
	ChannelsString      string   `json:"channels_string"`
	Speakers            []string `json:"speakers"`
	SpeakersString      string   `json:"speakers_string"`
	SpeakersStringShort string   `json:"speakers_string_short"`
	Line1               string   `json:"line1"`
	Line2               string   `json:"line2"`
}

// Snapshot renders the state as a read-only DTO for presentation.
func (s State) Snapshot() Snapshot {
	return Snapshot{
		Off:                 s.Off,
		Standby:             s.Standby,
		Muted:               s.Muted,
		Volume:              s.Volume,
		Source:              s.Source,
		Digital:             s.Digital,
		Surround:            avrproto.SortedKeys(s.Surround),
		SurroundString:      avrproto.SurroundString(s.Surround),
		SurroundStringShort: avrproto.SurroundStringShort(s.Surround, surroundShortLimit),
		Channels:            avrproto.SortedKeys(s.Channels),
		ChannelsString:      avrproto.ChannelsString(s.Channels),
		Speakers:            avrproto.SortedKeys(s.Speakers),
		SpeakersString:      avrproto.SpeakersString(s.Speakers),
		SpeakersStringShort: avrproto.SpeakersStringShort(s.Speakers),
		Line1:               s.Line1,
		Line2:               s.Line2,
	}
}
