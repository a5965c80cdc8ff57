// Package slotter implements the cycle-accurate TDMA phase state machine
// that drives a device through alternating RECV, SEND and WAIT_REFRESH
// phases.
package slotter

import "github.com/ystepanoff/loomesh/protocol"

// State is a phase of the slot schedule.
type State uint8

const (
	StateWaitRefresh State = iota
	StateRecv
	StateSend
	StateError
)

func (s State) String() string {
	switch s {
	case StateWaitRefresh:
		return "WAIT_REFRESH"
	case StateRecv:
		return "RECV"
	case StateSend:
		return "SEND"
	default:
		return "ERROR"
	}
}

// Slotter tracks one device's position in the global TDMA schedule. The
// six schedule constants are fixed at construction; state, cur_cycle and
// cur_device are the only mutable fields, and mutate only through
// NextState and Reset.
type Slotter struct {
	sendSlot         uint8
	sendCount        uint8
	recvSlot         uint8
	recvCount        uint8
	totalSlots       uint8
	cyclesPerRefresh uint8

	state     State
	curCycle  uint8
	curDevice uint8
}

// New builds a Slotter from explicit schedule constants, ported from
// original_source/LoomSlotter.h's six-argument constructor. It starts in
// StateError if either sendSlot or recvSlot is SlotError.
func New(sendSlot, totalSlots, cyclesPerRefresh, sendCount, recvSlot, recvCount uint8) *Slotter {
	s := &Slotter{
		sendSlot:         sendSlot,
		sendCount:        sendCount,
		recvSlot:         recvSlot,
		recvCount:        recvCount,
		totalSlots:       totalSlots,
		cyclesPerRefresh: cyclesPerRefresh,
		state:            StateWaitRefresh,
	}
	if sendSlot == protocol.SlotError || recvSlot == protocol.SlotError {
		s.state = StateError
	}
	return s
}

// NewFromInfo builds a Slotter from a resolved device's SlotterInfo plus
// the network-wide total slot count (topology.TotalSlots). send_count is 1
// whenever the device has a send slot, 0 for the coordinator; recv_count is
// the device's ChildSlotCount whenever it has a recv slot, 0 for an end
// device. This unifies the original's two-argument "end device" and
// six-argument "router" constructors into one call.
func NewFromInfo(info protocol.SlotterInfo, totalSlots uint8) *Slotter {
	sendCount := uint8(0)
	if info.SelfSlot != protocol.SlotNone {
		sendCount = 1
	}
	recvCount := uint8(0)
	if info.ChildSlot != protocol.SlotNone {
		recvCount = info.ChildSlotCount
	}
	return New(info.SelfSlot, totalSlots, info.CyclesPerRefresh, sendCount, info.ChildSlot, recvCount)
}

// ErrorSlotter is the sentinel constant factory replicating
// original_source/LoomSlotter.h's SLOTTER_ERROR. Each call returns a fresh
// value so callers cannot mutate a shared instance.
func ErrorSlotter() *Slotter {
	return New(protocol.SlotError, 0, 0, 0, protocol.SlotError, 0)
}

// State returns the current phase.
func (s *Slotter) State() State { return s.state }

// SendSlot returns the device's own transmit slot.
func (s *Slotter) SendSlot() uint8 { return s.sendSlot }

// RecvSlot returns the start of the device's listen window.
func (s *Slotter) RecvSlot() uint8 { return s.recvSlot }

// NextState advances the state machine by exactly one logical slot and
// returns the resulting state.
func (s *Slotter) NextState() State {
	switch s.state {
	case StateError:
		return s.state

	case StateWaitRefresh:
		if s.recvSlot == protocol.SlotNone {
			s.state = StateSend
		} else {
			s.state = StateRecv
		}
		s.curDevice = 0

	case StateRecv:
		s.curDevice++
		if s.curDevice == s.recvCount {
			if s.sendSlot != protocol.SlotNone {
				s.state = StateSend
			} else {
				// No upstream: the RECV batch ends the cycle.
				s.curCycle++
				if s.curCycle == s.cyclesPerRefresh {
					s.curCycle = 0
					s.state = StateWaitRefresh
				}
			}
			s.curDevice = 0
		}

	case StateSend:
		s.curDevice++
		if s.curDevice == s.sendCount {
			s.curCycle++
			if s.curCycle == s.cyclesPerRefresh {
				s.curCycle = 0
				s.state = StateWaitRefresh
			} else if s.recvSlot == protocol.SlotNone {
				s.state = StateSend
			} else {
				s.state = StateRecv
			}
			s.curDevice = 0
		}
	}
	return s.state
}

// GetSlotWait returns the number of slots to sleep before acting on the
// current state, valid only at the start of a batch (cur_device == 0);
// mid-batch or during WAIT_REFRESH it returns 0.
func (s *Slotter) GetSlotWait() uint8 {
	if s.state == StateSend && s.curDevice == 0 {
		if s.curCycle != 0 && s.recvSlot == protocol.SlotNone {
			return s.totalSlots + protocol.CycleGap - 1
		}
		if s.recvSlot == protocol.SlotNone {
			if s.curCycle == 0 {
				return s.sendSlot + protocol.CycleGap + protocol.BatchGap
			}
			return s.sendSlot + protocol.CycleGap
		}
		return s.sendSlot - (s.recvSlot + s.recvCount - 1) - 1
	}

	if s.state == StateRecv && s.curDevice == 0 {
		if s.curCycle != 0 {
			if s.sendSlot != protocol.SlotNone {
				return s.totalSlots + protocol.CycleGap - (s.sendSlot + s.sendCount - s.recvSlot)
			}
			return s.totalSlots + protocol.CycleGap - s.recvCount - 1
		}
		return s.recvSlot + protocol.BatchGap
	}

	return 0
}

// Reset returns the Slotter to its boot state: WAIT_REFRESH, cycle 0,
// device 0. An ERROR Slotter stays in error; a fresh reset only makes
// sense after reconstructing from new SlotterInfo.
func (s *Slotter) Reset() {
	s.state = StateWaitRefresh
	if s.sendSlot == protocol.SlotError || s.recvSlot == protocol.SlotError {
		s.state = StateError
	}
	s.curCycle = 0
	s.curDevice = 0
}

// Equal reports whether two Slotters share the same five schedule
// constants, ignoring current state.
func (s *Slotter) Equal(other *Slotter) bool {
	return s.sendSlot == other.sendSlot &&
		s.sendCount == other.sendCount &&
		s.recvSlot == other.recvSlot &&
		s.recvCount == other.recvCount &&
		s.totalSlots == other.totalSlots
}
