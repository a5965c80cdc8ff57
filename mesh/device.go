// Package mesh composes the protocol, slotter, sorter and radio packages
// into a runnable device: the "upper layer" the core's data-flow
// description assumes but never names.
package mesh

import (
	"errors"
	"log"
	"time"

	"github.com/ystepanoff/loomesh/protocol"
	"github.com/ystepanoff/loomesh/radio"
	"github.com/ystepanoff/loomesh/slotter"
	"github.com/ystepanoff/loomesh/sorter"
)

// ErrSlotterError is returned by Step when the underlying Slotter is in its
// absorbing ERROR state; the caller should treat the device as unusable
// until reconstructed from a fresh topology resolution.
var ErrSlotterError = errors.New("device slotter is in error state")

// Device owns one resolved device's schedule, dedup state and radio, and
// drives them through one TDMA slot per Step call. Grounded on
// transport/receiver.go's Listen/ProcessFrame and transport/transmitter.go's
// SendFrame, recomposed around a Slotter instead of a pairing handshake.
type Device struct {
	info  protocol.NetworkInfo
	slot  *slotter.Slotter
	sort  *sorter.Sorter
	radio radio.Radio
	clock radio.Clock

	// slotDuration is the wall-clock length of one schedule slot, and
	// recvTimeout bounds one Recv call. Both default to the protocol
	// package's hardware-cadence constants but tests shrink them via
	// SetSlotDuration/SetRecvTimeout so a multi-cycle simulation doesn't
	// take real minutes to run.
	slotDuration time.Duration
	recvTimeout  time.Duration
}

// New builds a Device from a resolved NetworkInfo, the network-wide total
// slot count, and the collaborators it drives each Step: a Radio already
// Enabled and Woken by the caller, the same Clock the radio uses, and a
// Sorter sized for this device's traffic.
func New(info protocol.NetworkInfo, totalSlots uint8, r radio.Radio, clock radio.Clock, s *sorter.Sorter) *Device {
	return &Device{
		info:         info,
		slot:         slotter.NewFromInfo(info.Slotter, totalSlots),
		sort:         s,
		radio:        r,
		clock:        clock,
		slotDuration: time.Duration(protocol.SlotLengthMillis) * time.Millisecond,
		recvTimeout:  time.Duration(protocol.WireRecvTimeoutMillis) * time.Millisecond,
	}
}

// SetSlotDuration overrides the wall-clock length of one schedule slot,
// used in tests and the demo CLI to run a full schedule faster than real
// hardware cadence.
func (d *Device) SetSlotDuration(dur time.Duration) { d.slotDuration = dur }

// SetRecvTimeout overrides how long a single Recv call may block.
func (d *Device) SetRecvTimeout(dur time.Duration) { d.recvTimeout = dur }

// Address returns the device's resolved network address.
func (d *Device) Address() protocol.Address { return d.info.Router.Address }

// Sorter exposes the device's packet sorter so callers can feed it locally
// generated traffic (WriteOutbound) and drain delivered payloads
// (ReadInbound) between Step calls.
func (d *Device) Sorter() *sorter.Sorter { return d.sort }

// Step advances the device by exactly one logical slot: it transitions the
// Slotter, sleeps for the slot-length-scaled wait the new state demands,
// then performs that state's radio action.
func (d *Device) Step() error {
	state := d.slot.NextState()
	log.Printf("[Device %d] slot state -> %s\r\n", d.Address(), state)
	if state == slotter.StateError {
		return ErrSlotterError
	}

	if wait := d.slot.GetSlotWait(); wait > 0 {
		d.sleepSlots(wait)
	}

	switch state {
	case slotter.StateSend:
		return d.doSend()
	case slotter.StateRecv:
		return d.doRecv()
	default: // WAIT_REFRESH: no radio action this tick.
		return nil
	}
}

func (d *Device) sleepSlots(n uint8) {
	time.Sleep(time.Duration(n) * d.slotDuration)
}

// doSend dequeues the next fragment queued for this device's parent and
// transmits it. It is a no-op, not an error, if nothing is queued: an empty
// send slot is a normal occurrence in a lightly loaded network.
func (d *Device) doSend() error {
	parent := d.info.Router.Parent
	frag, ok := d.sort.GetPacket(parent)
	if !ok {
		return nil
	}

	buf := make([]byte, protocol.MaxFrameSize)
	n := protocol.EncodeFragment(frag, buf)
	if n == 0 {
		return protocol.ErrInvalidPayload
	}
	return d.radio.Send(buf[:n])
}

// doRecv listens for one inbound fragment, hands it to the sorter's
// dedup-and-buffer path, and — if it isn't addressed to this device — queues
// it for relay to this device's own parent, continuing the convergecast
// toward the coordinator. A timeout is not an error: an empty recv slot
// means no child had anything to relay this cycle.
func (d *Device) doRecv() error {
	data, _, err := d.radio.Recv(d.recvTimeout)
	if err != nil {
		if err == protocol.ErrTimeout {
			return nil
		}
		return err
	}

	frag, ok := protocol.DecodeFragment(data)
	if !ok {
		return protocol.ErrDecodeFailed
	}

	_, duplicate := d.sort.AcceptInbound(frag)
	if duplicate {
		log.Printf("[Device %d] dropped duplicate fragment from %d (seq=%d)\r\n", d.Address(), frag.SrcAddr, frag.Seq)
		return nil
	}
	if frag.DstAddr == d.Address() {
		return nil
	}
	if d.sort.WriteOutbound(d.info.Router.Parent, frag) {
		log.Printf("[Device %d] relaying fragment from %d to parent %d\r\n", d.Address(), frag.SrcAddr, d.info.Router.Parent)
	} else {
		log.Printf("[Device %d] dropped fragment from %d: outbound queue full\r\n", d.Address(), frag.SrcAddr)
	}
	return nil
}
