package avrproto

import (
	"bytes"
	"errors"
	"testing"
)

func TestFrameLength(t *testing.T) {
	if got := AVRPCStatus.FrameLength(); got != 58 {
		t.Errorf("AVRPCStatus.FrameLength() = %d, want 58", got)
	}
	if got := PCAVRCommand.FrameLength(); got != 14 {
		t.Errorf("PCAVRCommand.FrameLength() = %d, want 14", got)
	}
}

func TestChecksum(t *testing.T) {
	// 4-byte payload: even indices 0,2 -> cksum[0]; odd indices 1,3 -> cksum[1]
	payload := []byte{0x01, 0x02, 0x04, 0x08}
	cksum := Checksum(payload)
	if cksum[0] != 0x01^0x04 {
		t.Errorf("cksum[0] = 0x%02x, want 0x%02x", cksum[0], 0x01^0x04)
	}
	if cksum[1] != 0x02^0x08 {
		t.Errorf("cksum[1] = 0x%02x, want 0x%02x", cksum[1], 0x02^0x08)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := make([]byte, PCAVRCommand.PayloadLength)
	for i := range payload {
		payload[i] = byte(i * 37)
	}
	frame, err := Encode(payload, PCAVRCommand)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(frame) != PCAVRCommand.FrameLength() {
		t.Errorf("len(frame) = %d, want %d", len(frame), PCAVRCommand.FrameLength())
	}
	if !bytes.HasPrefix(frame, PCAVRCommand.ExpectedPrefix()) {
		t.Errorf("frame does not start with expected prefix")
	}

	got, err := Decode(frame, PCAVRCommand)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Decode(Encode(p)) = %v, want %v", got, payload)
	}
}

func TestEncodeBadLength(t *testing.T) {
	_, err := Encode([]byte{1, 2, 3}, PCAVRCommand)
	if !errors.Is(err, ErrBadLength) {
		t.Errorf("Encode() error = %v, want ErrBadLength", err)
	}
}

func validStatusFrame(t *testing.T) []byte {
	t.Helper()
	payload := make([]byte, 48)
	payload[0] = 0xF0
	payload[15] = 0x00
	payload[16] = 0xF1
	payload[31] = 0x00
	payload[32] = 0xF2
	payload[47] = 0x00
	frame, err := Encode(payload, AVRPCStatus)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return frame
}

func TestDecodeSingleByteFlipsFail(t *testing.T) {
	base := validStatusFrame(t)
	for i := range base {
		frame := append([]byte(nil), base...)
		frame[i] ^= 0xFF
		_, err := Decode(frame, AVRPCStatus)
		if err == nil {
			t.Errorf("flipping byte %d did not cause an error", i)
			continue
		}
		isKnown := errors.Is(err, ErrBadLength) ||
			errors.Is(err, ErrBadPrefix) ||
			errors.Is(err, ErrBadType) ||
			errors.Is(err, ErrBadDeclaredLength) ||
			errors.Is(err, ErrBadChecksum)
		if !isKnown {
			t.Errorf("flipping byte %d gave unrecognized error: %v", i, err)
		}
	}
}

func TestDecodeBadPrefix(t *testing.T) {
	frame := validStatusFrame(t)
	frame[0] = 'X'
	_, err := Decode(frame, AVRPCStatus)
	if !errors.Is(err, ErrBadPrefix) {
		t.Errorf("Decode() error = %v, want ErrBadPrefix", err)
	}
}

func TestDecodeBadType(t *testing.T) {
	frame := validStatusFrame(t)
	frame[len(AVRPCStatus.StartKeyword)] = 0x99
	_, err := Decode(frame, AVRPCStatus)
	if !errors.Is(err, ErrBadType) {
		t.Errorf("Decode() error = %v, want ErrBadType", err)
	}
}

func TestDecodeBadDeclaredLength(t *testing.T) {
	frame := validStatusFrame(t)
	frame[len(AVRPCStatus.StartKeyword)+1] = 0x01
	_, err := Decode(frame, AVRPCStatus)
	if !errors.Is(err, ErrBadDeclaredLength) {
		t.Errorf("Decode() error = %v, want ErrBadDeclaredLength", err)
	}
}

func TestDecodeBadChecksum(t *testing.T) {
	frame := validStatusFrame(t)
	frame[len(frame)-1] ^= 0xFF
	_, err := Decode(frame, AVRPCStatus)
	if !errors.Is(err, ErrBadChecksum) {
		t.Errorf("Decode() error = %v, want ErrBadChecksum", err)
	}
}

func TestDecodeBadLength(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3}, AVRPCStatus)
	if !errors.Is(err, ErrBadLength) {
		t.Errorf("Decode() error = %v, want ErrBadLength", err)
	}
}
