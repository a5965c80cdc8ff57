package protocol

import (
	"encoding/binary"
	"hash/crc32"
)

// LinkFrame is the physical-layer envelope the simulated radio exchanges.
// It is distinct from Fragment: Fragment is the logical content the mesh
// core reasons about, LinkFrame is the bit-integrity wrapper a real radio's
// framing hardware would provide. Layout: Length(1) | CRC32(4, LE) |
// Terminal(1, =LinkTerminal) | payload...
//
// Layout and CRC framing follow the style of a length-prefixed,
// terminal-delimited link frame, repurposed here to carry arbitrary encoded
// Fragment bytes instead of a pairing/heartbeat payload.
const (
	linkCRCSize      = 4
	linkTerminalSize = 1
	// LinkHeaderSize is the number of bytes before the payload.
	LinkHeaderSize = 1 + linkCRCSize + linkTerminalSize
	// LinkTerminal is the sentinel byte appended after every link frame.
	LinkTerminal = 0x55
	// MaxLinkPayload is the largest payload a LinkFrame can carry: a byte
	// holds the length field, so 255 is the ceiling regardless of
	// LinkHeaderSize. This must cover a full MaxFrameSize-encoded Fragment,
	// since that is exactly what radio.Simulated hands it.
	MaxLinkPayload = MaxFrameSize
)

// EncodeLinkFrame wraps payload in a LinkFrame and returns the on-air bytes.
// It returns nil if payload would overflow MaxLinkPayload. The length byte
// holds len(payload) directly, not total-1, so it never overflows even when
// payload is the full 255-byte MaxLinkPayload.
func EncodeLinkFrame(payload []byte) []byte {
	if len(payload) > MaxLinkPayload {
		return nil
	}
	out := make([]byte, LinkHeaderSize+len(payload))
	out[0] = byte(len(payload))
	binary.LittleEndian.PutUint32(out[1:5], crc32.ChecksumIEEE(payload))
	out[5] = LinkTerminal
	copy(out[LinkHeaderSize:], payload)
	return out
}

// DecodeLinkFrame validates and unwraps a LinkFrame's payload. It returns
// false if the frame is too short, the length byte is inconsistent, the
// terminal byte is wrong, or the CRC doesn't match.
func DecodeLinkFrame(data []byte) ([]byte, bool) {
	if len(data) < LinkHeaderSize {
		return nil, false
	}
	payloadLen := int(data[0])
	total := LinkHeaderSize + payloadLen
	if total > len(data) {
		return nil, false
	}
	if data[5] != LinkTerminal {
		return nil, false
	}
	payload := data[LinkHeaderSize:total]
	want := binary.LittleEndian.Uint32(data[1:5])
	if crc32.ChecksumIEEE(payload) != want {
		return nil, false
	}
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, true
}
