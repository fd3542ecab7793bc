package control

import (
	"reflect"
	"testing"

	"github.com/jherland/hifictl/pkg/avrstate"
)

func intPtr(v int) *int { return &v }

// TestWakeFromStandby implements Scenario A: transitioning from the
// initial off state directly into standby should enqueue "POWER ON".
func TestWakeFromStandby(t *testing.T) {
	prev := avrstate.Initial()
	next := prev
	next.Off = false
	next.Standby = true

	got := Evaluate(prev, next, 0)
	want := []string{"POWER ON"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Evaluate() = %v, want %v", got, want)
	}
}

// TestVolumeRunawayGuard implements Scenario B: a displayed volume
// above the panic threshold must enqueue an outright power-off.
func TestVolumeRunawayGuard(t *testing.T) {
	prev := avrstate.Initial()
	next := avrstate.State{Volume: intPtr(-10), Digital: strPtr("DOLBY DIGITAL")}

	got := Evaluate(prev, next, 0)
	want := []string{"POWER OFF"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Evaluate() = %v, want %v", got, want)
	}
}

func TestVolumeWarningGuard(t *testing.T) {
	prev := avrstate.Initial()
	next := avrstate.State{Volume: intPtr(-18), Digital: strPtr("DOLBY DIGITAL")}

	got := Evaluate(prev, next, 0)
	want := []string{"VOL DOWN"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Evaluate() = %v, want %v", got, want)
	}
}

func TestVolumeWithinSafeRangeNoCommand(t *testing.T) {
	prev := avrstate.Initial()
	next := avrstate.State{Volume: intPtr(-40), Digital: strPtr("DOLBY DIGITAL")}

	got := Evaluate(prev, next, 0)
	if got != nil {
		t.Errorf("Evaluate() = %v, want nil", got)
	}
}

func TestUnknownVolumePolled(t *testing.T) {
	prev := avrstate.Initial()
	next := avrstate.State{Digital: strPtr("DOLBY DIGITAL")}

	got := Evaluate(prev, next, 0)
	if len(got) == 0 || got[0] != "VOL DOWN" {
		t.Errorf("Evaluate() = %v, want to poll volume first", got)
	}
}

func TestUnknownDigitalPolled(t *testing.T) {
	prev := avrstate.Initial()
	next := avrstate.State{Volume: intPtr(-40)}

	got := Evaluate(prev, next, 0)
	found := false
	for _, c := range got {
		if c == "DIGITAL" {
			found = true
		}
	}
	if !found {
		t.Errorf("Evaluate() = %v, want a DIGITAL poll command", got)
	}
}

func TestSuppressedWhileQueueNonEmpty(t *testing.T) {
	prev := avrstate.Initial()
	next := avrstate.State{Volume: intPtr(-10)}

	got := Evaluate(prev, next, 1)
	if got != nil {
		t.Errorf("Evaluate() = %v, want nil while queue is non-empty", got)
	}
}

func TestMutedSuppressesPolling(t *testing.T) {
	prev := avrstate.Initial()
	next := avrstate.State{Muted: true}

	got := Evaluate(prev, next, 0)
	if got != nil {
		t.Errorf("Evaluate() = %v, want nil while muted", got)
	}
}

func strPtr(v string) *string { return &v }
