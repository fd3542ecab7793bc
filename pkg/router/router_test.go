package router

import (
	"errors"
	"testing"
)

// TestScenarioDPrefixRouting implements Scenario D: "avr vol+" routes
// to the "avr" handler with remainder "vol+", while a longer registered
// prefix takes precedence over a shorter one.
func TestScenarioDPrefixRouting(t *testing.T) {
	r := New()
	var gotAVR, gotAVRSurround string

	if err := r.Register("avr", func(rem string) error { gotAVR = rem; return nil }, false); err != nil {
		t.Fatalf("Register(avr) error = %v", err)
	}
	if err := r.Register("avr surround", func(rem string) error { gotAVRSurround = rem; return nil }, false); err != nil {
		t.Fatalf("Register(avr surround) error = %v", err)
	}

	if err := r.Dispatch("avr vol+"); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if gotAVR != "vol+" {
		t.Errorf("avr handler remainder = %q, want %q", gotAVR, "vol+")
	}

	if err := r.Dispatch("avr surround dolby"); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if gotAVRSurround != "dolby" {
		t.Errorf("avr surround handler remainder = %q, want %q", gotAVRSurround, "dolby")
	}
}

func TestDuplicateRegistrationRejected(t *testing.T) {
	r := New()
	noop := func(string) error { return nil }
	if err := r.Register("avr", noop, false); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	err := r.Register("avr", noop, false)
	if !errors.Is(err, ErrDuplicateHandler) {
		t.Errorf("second Register() error = %v, want ErrDuplicateHandler", err)
	}
}

func TestMultipleHandlersAllInvoked(t *testing.T) {
	r := New()
	var calls []string
	h1 := func(rem string) error { calls = append(calls, "h1:"+rem); return nil }
	h2 := func(rem string) error { calls = append(calls, "h2:"+rem); return nil }

	if err := r.Register("hdmi", h1, true); err != nil {
		t.Fatalf("Register(h1) error = %v", err)
	}
	if err := r.Register("hdmi", h2, true); err != nil {
		t.Fatalf("Register(h2) error = %v", err)
	}

	if err := r.Dispatch("hdmi 3"); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	want := []string{"h1:3", "h2:3"}
	if len(calls) != 2 || calls[0] != want[0] || calls[1] != want[1] {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestCatchAllFallback(t *testing.T) {
	r := New()
	var got string
	r.RegisterCatchAll(func(cmd string) error { got = cmd; return nil })

	if err := r.Dispatch("unknown thing"); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if got != "unknown thing" {
		t.Errorf("catch-all received %q, want %q", got, "unknown thing")
	}
}

func TestNoHandlerNoCatchAll(t *testing.T) {
	r := New()
	err := r.Dispatch("nothing registered")
	if !errors.Is(err, ErrNoHandler) {
		t.Errorf("Dispatch() error = %v, want ErrNoHandler", err)
	}
}
