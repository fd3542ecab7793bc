// Package control implements the AVR control loop's policy: a pure
// function of state transitions that decides which commands, if any,
// to enqueue in response to what the receiver just reported.
package control

import "github.com/jherland/hifictl/pkg/avrstate"

// Volume guard thresholds, in dB. The AVR's displayed volume is
// negative attenuation from reference (0 dB = full output), so "higher"
// volume means closer to zero.
const (
	volumePanicThreshold = -15
	volumeWarnThreshold  = -20
)

// Evaluate inspects a state transition and returns the symbolic
// commands (in priority order) that should be enqueued for sending.
// queueLen is the number of commands already pending; when non-zero,
// Evaluate defers to whatever is already queued and returns nothing,
// mirroring the upstream driver's "don't pile on" rule.
func Evaluate(prev, next avrstate.State, queueLen int) []string {
	if queueLen > 0 {
		return nil
	}
	if next.Off || next.Standby || next.Muted {
		return wakeFromStandby(prev, next)
	}

	var commands []string

	if next.Volume == nil {
		commands = append(commands, "VOL DOWN")
	}
	if next.Digital == nil {
		commands = append(commands, "DIGITAL")
	}

	commands = append(commands, volumeGuard(next)...)

	return commands
}

// wakeFromStandby enqueues "POWER ON" when the AVR has just gone from
// fully off to standby, since standby alone doesn't power the unit on
// (it's the idle/networked state between off and active).
func wakeFromStandby(prev, next avrstate.State) []string {
	if prev.Off && next.Standby {
		return []string{"POWER ON"}
	}
	return nil
}

// volumeGuard is the runaway-volume safety net: if the AVR somehow ends
// up louder than the panic threshold, cut power outright; if it crosses
// the warning threshold, turn it down one notch.
func volumeGuard(next avrstate.State) []string {
	if next.Volume == nil {
		return nil
	}
	v := *next.Volume
	switch {
	case v > volumePanicThreshold:
		return []string{"POWER OFF"}
	case v > volumeWarnThreshold:
		return []string{"VOL DOWN"}
	default:
		return nil
	}
}
