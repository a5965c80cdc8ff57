package radio

import (
	"log"
	"sync"
	"time"

	"github.com/ystepanoff/loomesh/protocol"
)

const ringCapacity = 64

// ringBuffer is a fixed-capacity FIFO of frames, overwriting the oldest
// entry once full.
type ringBuffer struct {
	data       [ringCapacity][]byte
	head, tail int
	count      int
}

func (rb *ringBuffer) push(frame []byte) {
	if rb.count == ringCapacity {
		rb.data[rb.tail] = nil
		rb.head = (rb.head + 1) % ringCapacity
		rb.count--
	}
	rb.data[rb.tail] = frame
	rb.tail = (rb.tail + 1) % ringCapacity
	rb.count++
}

func (rb *ringBuffer) pop() ([]byte, bool) {
	if rb.count == 0 {
		return nil, false
	}
	frame := rb.data[rb.head]
	rb.data[rb.head] = nil
	rb.head = (rb.head + 1) % ringCapacity
	rb.count--
	return frame, true
}

func (rb *ringBuffer) drain() [][]byte {
	out := make([][]byte, rb.count)
	idx := 0
	i := rb.head
	for c := 0; c < rb.count; c++ {
		out[idx] = rb.data[i]
		rb.data[i] = nil
		idx++
		i = (i + 1) % ringCapacity
	}
	rb.head, rb.tail, rb.count = 0, 0, 0
	return out
}

// Simulated is an in-memory Radio: instead of a bit-banged wire it hands
// frames directly to whatever Bus it is attached to. It reproduces
// WireRadio.h's state discipline and timing constants without the pin
// twiddling, since this module never targets real silicon.
type Simulated struct {
	mu    sync.Mutex
	clock Clock
	state State

	rxBuf ringBuffer
	txOut ringBuffer // frames waiting for the Bus to forward

	// sendDelay is how long Send waits before queuing a frame, mirroring
	// WireRadio.h's SEND_DELAY_MILLIS. It defaults to
	// protocol.SendDelayMillis; tests shrink it via SetSendDelay to avoid
	// paying real hardware cadence for a simulated network.
	sendDelay time.Duration
}

// NewSimulated builds a Simulated radio in the DISABLED state.
func NewSimulated(clock Clock) *Simulated {
	return &Simulated{
		clock:     clock,
		state:     StateDisabled,
		sendDelay: time.Duration(protocol.SendDelayMillis) * time.Millisecond,
	}
}

// SetSendDelay overrides the peer-ready delay Send waits before
// transmitting.
func (r *Simulated) SetSendDelay(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sendDelay = d
}

func (r *Simulated) GetTime() TimeMillis { return r.clock.GetTime() }

func (r *Simulated) GetState() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Simulated) Enable() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateDisabled {
		return protocol.ErrInvalidTransition
	}
	r.state = StateSleep
	log.Printf("[Radio] DISABLED -> SLEEP\r\n")
	return nil
}

func (r *Simulated) Disable() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateSleep {
		return protocol.ErrInvalidTransition
	}
	r.state = StateDisabled
	log.Printf("[Radio] SLEEP -> DISABLED\r\n")
	return nil
}

func (r *Simulated) Sleep() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateIdle {
		return protocol.ErrInvalidTransition
	}
	r.state = StateSleep
	log.Printf("[Radio] IDLE -> SLEEP\r\n")
	return nil
}

func (r *Simulated) Wake() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateSleep {
		return protocol.ErrInvalidTransition
	}
	r.state = StateIdle
	log.Printf("[Radio] SLEEP -> IDLE\r\n")
	return nil
}

// Send waits SendDelayMillis for the peer to be ready, wraps data in a
// LinkFrame for bit-integrity, then queues it for the Bus to forward to
// every other Simulated radio sharing it.
func (r *Simulated) Send(data []byte) error {
	r.mu.Lock()
	if r.state != StateIdle {
		r.mu.Unlock()
		return protocol.ErrInvalidTransition
	}
	r.state = StateSend
	delay := r.sendDelay
	r.mu.Unlock()

	time.Sleep(delay)

	frame := protocol.EncodeLinkFrame(data)
	if frame == nil {
		r.mu.Lock()
		r.state = StateIdle
		r.mu.Unlock()
		return protocol.ErrInvalidPayload
	}

	r.mu.Lock()
	r.txOut.push(frame)
	r.state = StateIdle
	r.mu.Unlock()
	return nil
}

// Recv blocks up to timeout for a LinkFrame injected by the Bus, unwraps
// it, and stamps the payload with the clock reading at the moment it
// became available. A LinkFrame that fails its CRC is logged and dropped,
// and Recv keeps waiting, same as a real radio would ignore line noise.
func (r *Simulated) Recv(timeout time.Duration) ([]byte, TimeMillis, error) {
	r.mu.Lock()
	if r.state != StateIdle {
		r.mu.Unlock()
		return nil, 0, protocol.ErrInvalidTransition
	}
	r.state = StateRecv
	r.mu.Unlock()

	deadline := time.Now().Add(timeout)
	for {
		r.mu.Lock()
		frame, ok := r.rxBuf.pop()
		r.mu.Unlock()

		if ok {
			if payload, valid := protocol.DecodeLinkFrame(frame); valid {
				stamp := r.clock.GetTime()
				r.mu.Lock()
				r.state = StateIdle
				r.mu.Unlock()
				return payload, stamp, nil
			}
			log.Printf("[Radio] dropped frame: CRC/terminal check failed\r\n")
			continue
		}

		if time.Now().After(deadline) {
			r.mu.Lock()
			r.state = StateIdle
			r.mu.Unlock()
			return nil, 0, protocol.ErrTimeout
		}
		time.Sleep(time.Millisecond)
	}
}

// injectRx is called by a Bus to deliver a frame sent by a peer.
func (r *Simulated) injectRx(frame []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rxBuf.push(frame)
}

// drainTx is called by a Bus to collect and clear this radio's pending
// outbound frames.
func (r *Simulated) drainTx() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.txOut.drain()
}
