package pipe

import (
	"testing"
	"time"
)

func TestPipeRoundTrip(t *testing.T) {
	a, b := New()
	defer a.Close()
	defer b.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, 5)
		n, err := b.Read(buf)
		if err != nil {
			t.Errorf("Read() error = %v", err)
			return
		}
		if string(buf[:n]) != "hello" {
			t.Errorf("Read() = %q, want %q", buf[:n], "hello")
		}
	}()

	if _, err := a.Write([]byte("hello")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	<-done
}

func TestPipeReadTimeout(t *testing.T) {
	a, b := New()
	defer a.Close()
	defer b.Close()

	b.SetReadTimeout(20 * time.Millisecond)
	buf := make([]byte, 5)
	_, err := b.Read(buf)
	if err != ErrTimeout {
		t.Errorf("Read() error = %v, want ErrTimeout", err)
	}
}
