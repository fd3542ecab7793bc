package avrproto

import (
	"errors"
	"testing"
)

func TestLookupKnownCommand(t *testing.T) {
	code, err := Lookup("VOL UP")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if code != Commands["VOL UP"] {
		t.Errorf("Lookup() = %v, want %v", code, Commands["VOL UP"])
	}
}

func TestLookupUnknownCommand(t *testing.T) {
	_, err := Lookup("NOT A REAL COMMAND")
	if err == nil {
		t.Fatalf("Lookup() expected error for unknown command")
	}
	var unknown *ErrUnknownCommand
	if !errors.As(err, &unknown) {
		t.Errorf("Lookup() error = %v, want *ErrUnknownCommand", err)
	}
}

func TestReverseLookupRoundTrip(t *testing.T) {
	for name, code := range Commands {
		got, ok := ReverseLookup(code)
		if !ok {
			t.Errorf("ReverseLookup(%v) not found, want %q", code, name)
			continue
		}
		if got != name {
			t.Errorf("ReverseLookup(%v) = %q, want %q", code, got, name)
		}
	}
}

func TestReverseLookupUnknownCode(t *testing.T) {
	_, ok := ReverseLookup([4]byte{0xFF, 0xFF, 0xFF, 0xFF})
	if ok {
		t.Errorf("ReverseLookup() should report false for an unmapped code")
	}
}

func TestCommandCodesAreUnique(t *testing.T) {
	seen := make(map[[4]byte]string)
	for name, code := range Commands {
		if other, ok := seen[code]; ok {
			t.Errorf("command code %v used by both %q and %q", code, name, other)
		}
		seen[code] = name
	}
}

