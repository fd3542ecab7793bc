package presenter

import (
	"testing"
	"time"

	"github.com/jherland/hifictl/pkg/avrproto"
	"github.com/jherland/hifictl/pkg/avrstate"
	"github.com/jherland/hifictl/pkg/hdmidriver"
	"github.com/jherland/hifictl/pkg/logger"
	"github.com/jherland/hifictl/pkg/router"
)

func testPresenter() *Presenter {
	return New(router.New(), logger.New(logger.Config{Level: "error"}))
}

func TestSnapshotInitiallyOff(t *testing.T) {
	p := testPresenter()
	snap := p.Snapshot()
	if !snap.AVR.Off {
		t.Errorf("Snapshot().AVR.Off = false, want true before any publish")
	}
}

func TestPublishAVRUpdatesSnapshot(t *testing.T) {
	p := testPresenter()
	next, _ := avrstate.Initial().Apply(avrproto.Status{Icons: [14]byte{0x20}})
	p.PublishAVR(next.Snapshot())

	if p.Snapshot().AVR.Off {
		t.Errorf("Snapshot().AVR.Off = true after publishing a non-off state")
	}
}

func TestSubscribeDeliversSnapshotOnAttach(t *testing.T) {
	p := testPresenter()
	ch, unsubscribe := p.Subscribe()
	defer unsubscribe()

	select {
	case ev := <-ch:
		if ev.Type != "snapshot" {
			t.Errorf("event type = %q, want snapshot", ev.Type)
		}
	case <-time.After(time.Second):
		t.Fatalf("did not receive initial snapshot event in time")
	}
}

func TestSubscribeReceivesEvent(t *testing.T) {
	p := testPresenter()
	ch, unsubscribe := p.Subscribe()
	defer unsubscribe()

	<-ch // initial snapshot delivered on attach

	p.PublishHDMI(hdmidriver.Snapshot{State: "ready"})

	select {
	case ev := <-ch:
		if ev.Type != "hdmi_update" {
			t.Errorf("event type = %q, want hdmi_update", ev.Type)
		}
	case <-time.After(time.Second):
		t.Fatalf("did not receive event in time")
	}
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	p := testPresenter()
	ch, unsubscribe := p.Subscribe()
	defer unsubscribe()

	for i := 0; i < subscriberBuffer+10; i++ {
		p.PublishHDMI(hdmidriver.Snapshot{State: "ready"})
	}
	_ = ch // never drained; publish must not have blocked to reach here
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	p := testPresenter()
	ch, unsubscribe := p.Subscribe()
	unsubscribe()

	<-ch // initial snapshot delivered on attach, still buffered

	_, ok := <-ch
	if ok {
		t.Errorf("channel should be closed after unsubscribe")
	}
}

func TestSubmitCommandDispatches(t *testing.T) {
	r := router.New()
	var got string
	r.Register("avr", func(rem string) error { got = rem; return nil }, false)
	p := New(r, logger.New(logger.Config{Level: "error"}))

	if err := p.SubmitCommand("avr vol+"); err != nil {
		t.Fatalf("SubmitCommand() error = %v", err)
	}
	if got != "vol+" {
		t.Errorf("dispatched remainder = %q, want vol+", got)
	}
}

