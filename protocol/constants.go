// Package protocol holds the platform-independent wire format, address
// layout and sentinel values for the mesh. All higher layers depend on this
// package; it depends on nothing else in the module.
package protocol

// Sentinel and sizing constants for the mesh core (ported from the Loom
// reference's LoomNetworkUtility.h / LoomNetworkConfig.h constants).
const (
	// StringMax bounds the length of a device name in the topology document.
	StringMax = 32

	// AddrCoord is the coordinator's fixed address.
	AddrCoord Address = 0x0000
	// AddrNone means "no parent" / "not found".
	AddrNone Address = 0xFFFF
	// AddrError marks a failed address resolution.
	AddrError Address = 0xFFFE

	// SlotNone means "this device has no such slot" (e.g. an end device has
	// no recv slot; the coordinator has no send slot).
	SlotNone uint8 = 0xFF
	// SlotError marks a failed slot computation (schedule overflow).
	SlotError uint8 = 0xFE

	// MaxSlotCount is the largest total_slots value before overflow.
	MaxSlotCount = 254

	// CycleGap is the dead-time gap, in slots, inserted between cycles.
	CycleGap uint8 = 1
	// BatchGap is the dead-time gap, in slots, inserted after a refresh.
	BatchGap uint8 = 2
)

// Fragment sizing for the canonical wire layout.
const (
	// FragmentHeaderSize is the canonical 7-byte header: length, dst(2),
	// src(2), seq(1), reserved(1). Payload starts at offset 7.
	FragmentHeaderSize = 7
	// MaxPayloadSize is the largest payload a Fragment may carry: whatever
	// fits in MaxFrameSize once the header is accounted for.
	MaxPayloadSize = MaxFrameSize - FragmentHeaderSize
	// MaxFrameSize is the largest encoded Fragment, header included.
	MaxFrameSize = 255
)

// Radio timing constants, ported from original_source/Radios/WireRadio.h.
// SendDelayMillis is the Simulated driver's default send delay;
// SlotLengthMillis and WireRecvTimeoutMillis are mesh.Device's default slot
// length and recv timeout.
const (
	// SlotLengthMillis is the nominal wall-clock length of one TDMA slot.
	SlotLengthMillis = 10000
	// SendDelayMillis is how long a transmitter waits for its peer to be
	// ready before clocking a frame out.
	SendDelayMillis = 500
	// WireRecvTimeoutMillis bounds how long Recv blocks waiting for a frame.
	WireRecvTimeoutMillis = 500 + SendDelayMillis
	// BitLengthMicros is the microsecond half-period per bit of a wired
	// radio. Must be divisible by 4. The Simulated driver does not clock
	// bits and does not use it.
	BitLengthMicros = 400

	// DefaultChannel is the default radio channel.
	DefaultChannel = 7
	// MaxChannel is the highest legal radio channel.
	MaxChannel = 125
)
