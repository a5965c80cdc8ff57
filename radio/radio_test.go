package radio

import (
	"testing"
	"time"

	"github.com/ystepanoff/loomesh/protocol"
)

// fakeClock is a deterministic Clock for tests.
type fakeClock struct{ millis TimeMillis }

func (c *fakeClock) GetTime() TimeMillis { return c.millis }

func TestLegalTransitions(t *testing.T) {
	r := NewSimulated(&fakeClock{})
	if r.GetState() != StateDisabled {
		t.Fatalf("initial state = %v, want DISABLED", r.GetState())
	}

	if err := r.Enable(); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}
	if r.GetState() != StateSleep {
		t.Fatalf("state after Enable() = %v, want SLEEP", r.GetState())
	}

	if err := r.Wake(); err != nil {
		t.Fatalf("Wake() error = %v", err)
	}
	if r.GetState() != StateIdle {
		t.Fatalf("state after Wake() = %v, want IDLE", r.GetState())
	}

	if err := r.Sleep(); err != nil {
		t.Fatalf("Sleep() error = %v", err)
	}
	if r.GetState() != StateSleep {
		t.Fatalf("state after Sleep() = %v, want SLEEP", r.GetState())
	}

	if err := r.Disable(); err != nil {
		t.Fatalf("Disable() error = %v", err)
	}
	if r.GetState() != StateDisabled {
		t.Fatalf("state after Disable() = %v, want DISABLED", r.GetState())
	}
}

func TestIllegalTransitionsLeaveStateUnchanged(t *testing.T) {
	r := NewSimulated(&fakeClock{})

	if err := r.Disable(); err != protocol.ErrInvalidTransition {
		t.Errorf("Disable() from DISABLED error = %v, want ErrInvalidTransition", err)
	}
	if r.GetState() != StateDisabled {
		t.Errorf("state after illegal Disable() = %v, want unchanged DISABLED", r.GetState())
	}

	if err := r.Wake(); err != protocol.ErrInvalidTransition {
		t.Errorf("Wake() from DISABLED error = %v, want ErrInvalidTransition", err)
	}

	if _, _, err := r.Recv(10 * time.Millisecond); err != protocol.ErrInvalidTransition {
		t.Errorf("Recv() from DISABLED error = %v, want ErrInvalidTransition", err)
	}
	if err := r.Send([]byte{1}); err != protocol.ErrInvalidTransition {
		t.Errorf("Send() from DISABLED error = %v, want ErrInvalidTransition", err)
	}
}

func TestRecvTimesOutWithoutData(t *testing.T) {
	r := NewSimulated(&fakeClock{})
	r.Enable()
	r.Wake()

	_, _, err := r.Recv(5 * time.Millisecond)
	if err != protocol.ErrTimeout {
		t.Fatalf("Recv() error = %v, want ErrTimeout", err)
	}
	if r.GetState() != StateIdle {
		t.Errorf("state after timed-out Recv() = %v, want IDLE", r.GetState())
	}
}

func TestBusDeliversSendToPeers(t *testing.T) {
	clock := &fakeClock{}
	a := NewSimulated(clock)
	b := NewSimulated(clock)
	c := NewSimulated(clock)

	for _, r := range []*Simulated{a, b, c} {
		r.Enable()
		r.Wake()
	}

	bus := NewBus()
	bus.Attach(a)
	bus.Attach(b)
	bus.Attach(c)

	done := make(chan error, 1)
	go func() {
		done <- a.Send([]byte("hello"))
	}()

	// Give Send time to reach its post-delay push, then forward it.
	time.Sleep(time.Duration(protocol.SendDelayMillis+50) * time.Millisecond)
	bus.Pump()

	if err := <-done; err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	frame, _, err := b.Recv(50 * time.Millisecond)
	if err != nil {
		t.Fatalf("b.Recv() error = %v", err)
	}
	if string(frame) != "hello" {
		t.Errorf("b received %q, want %q", frame, "hello")
	}

	frame, _, err = c.Recv(50 * time.Millisecond)
	if err != nil {
		t.Fatalf("c.Recv() error = %v", err)
	}
	if string(frame) != "hello" {
		t.Errorf("c received %q, want %q", frame, "hello")
	}
}

func TestRecvStampsArrivalTime(t *testing.T) {
	clock := &fakeClock{millis: 4242}
	a := NewSimulated(clock)
	b := NewSimulated(clock)
	a.Enable()
	a.Wake()
	b.Enable()
	b.Wake()

	b.injectRx(protocol.EncodeLinkFrame([]byte("x")))
	_, stamp, err := a.Recv(10 * time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout on a, which received nothing")
	}
	_, stamp, err = b.Recv(10 * time.Millisecond)
	if err != nil {
		t.Fatalf("b.Recv() error = %v", err)
	}
	if stamp != 4242 {
		t.Errorf("recvStamp = %d, want 4242", stamp)
	}
}
