package protocol

import "errors"

var (
	// ErrInvalidPayload is returned when a payload exceeds MaxPayloadSize.
	ErrInvalidPayload = errors.New("invalid payload size")
	// ErrBufferTooSmall reports a destination buffer that cannot hold an
	// encoded frame. EncodeFragment does not return it; it signals that case
	// by writing 0 bytes.
	ErrBufferTooSmall = errors.New("destination buffer too small")
	// ErrDecodeFailed is returned by mesh.Device.Step when a received frame
	// fails DecodeFragment (length < header size or truncated data).
	ErrDecodeFailed = errors.New("fragment decode failed")
	// ErrTimeout is returned when a radio operation exceeds its deadline.
	ErrTimeout = errors.New("operation timed out")
	// ErrInvalidChannel is returned when a channel falls outside [0, MaxChannel].
	ErrInvalidChannel = errors.New("invalid channel")
	// ErrInvalidTransition is returned when a radio state transition is illegal.
	ErrInvalidTransition = errors.New("invalid radio state transition")

	// ErrTopology is the resolver's catch-all structural error: missing or
	// malformed type, a null child entry, a self-name matching no node, or
	// a tier counter overflowing its nibble.
	ErrTopology = errors.New("invalid topology")
	// ErrSlotOverflow is returned when a device's total slot count exceeds
	// MaxSlotCount.
	ErrSlotOverflow = errors.New("slot count overflow")
	// ErrInvalidConfig is returned when the topology document's config is
	// structurally invalid (e.g. cycles_per_refresh == 0).
	ErrInvalidConfig = errors.New("invalid network config")
)
