// Package radio defines the state-machine contract every physical or
// simulated radio driver must satisfy, and provides an in-memory
// implementation for tests and the demo CLI.
package radio

import (
	"time"
)

// State is one of the five observable radio states.
type State uint8

const (
	StateDisabled State = iota
	StateSleep
	StateIdle
	StateSend
	StateRecv
)

func (s State) String() string {
	switch s {
	case StateDisabled:
		return "DISABLED"
	case StateSleep:
		return "SLEEP"
	case StateIdle:
		return "IDLE"
	case StateSend:
		return "SEND"
	case StateRecv:
		return "RECV"
	default:
		return "UNKNOWN"
	}
}

// TimeMillis is a monotonic millisecond timestamp, standing in for the
// hardware RTC counter original_source/Radios/WireRadio.h reads directly.
type TimeMillis uint32

// Clock supplies the monotonic time source a Radio stamps its received
// packets with. Production code wires a real RTC; tests wire a fake that
// advances deterministically.
type Clock interface {
	GetTime() TimeMillis
}

// Radio is the state machine every driver, real or simulated, implements.
// Legal transitions are DISABLED<->SLEEP (via Enable/Disable) and
// SLEEP<->IDLE (via Sleep/Wake); Send and Recv are only legal from IDLE.
// Any other call returns protocol.ErrInvalidTransition and leaves the
// state unchanged, mirroring WireRadio.h's "Invalid radio state movement"
// diagnostics.
type Radio interface {
	GetTime() TimeMillis
	GetState() State

	Enable() error
	Disable() error
	Sleep() error
	Wake() error

	// Send blocks for SendDelayMillis before clocking data out, then
	// returns to IDLE.
	Send(data []byte) error
	// Recv blocks up to timeout waiting for a frame, returning the frame
	// and the timestamp of its first edge. It returns protocol.ErrTimeout
	// if nothing arrives in time.
	Recv(timeout time.Duration) (data []byte, recvStamp TimeMillis, err error)
}
