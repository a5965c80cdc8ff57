package protocol

import "encoding/binary"

// Fragment is the unit the sorter hands to/from the radio: a destination,
// source, sequence number and payload. On the wire it is the
// canonical 7-byte header — length, dst(2 LE), src(2 LE), seq(1),
// reserved(1) — followed by the payload.
//
// The original LoomNetworkFragment.h writes `length = payload_len + 6` but
// places the payload at offset 6, so the destination/source/seq bytes
// overlap it; that bug is NOT reproduced here. EncodeFragment/DecodeFragment
// always use the 7-byte header.
type Fragment struct {
	DstAddr Address
	SrcAddr Address
	Seq     uint8
	Payload []byte
}

// EncodeFragment writes f into buf and returns the number of bytes
// written. It writes 0 and leaves buf untouched if buf is too small to hold
// the frame or the payload exceeds MaxPayloadSize.
func EncodeFragment(f *Fragment, buf []byte) int {
	if f == nil || len(f.Payload) > MaxPayloadSize {
		return 0
	}
	length := FragmentHeaderSize + len(f.Payload)
	if length > len(buf) || length > MaxFrameSize {
		return 0
	}

	buf[0] = byte(length)
	binary.LittleEndian.PutUint16(buf[1:3], uint16(f.DstAddr))
	binary.LittleEndian.PutUint16(buf[3:5], uint16(f.SrcAddr))
	buf[5] = f.Seq
	buf[6] = 0 // reserved
	copy(buf[FragmentHeaderSize:length], f.Payload)

	return length
}

// DecodeFragment parses a wire frame produced by EncodeFragment. It returns
// nil and false if the frame is shorter than FragmentHeaderSize, if the
// declared length doesn't fit in data, or if the length byte is internally
// inconsistent: a length under the header size must fail, not silently truncate.
func DecodeFragment(data []byte) (*Fragment, bool) {
	if len(data) < FragmentHeaderSize {
		return nil, false
	}
	length := int(data[0])
	if length < FragmentHeaderSize || length > len(data) {
		return nil, false
	}

	payloadLen := length - FragmentHeaderSize
	payload := make([]byte, payloadLen)
	copy(payload, data[FragmentHeaderSize:length])

	return &Fragment{
		DstAddr: Address(binary.LittleEndian.Uint16(data[1:3])),
		SrcAddr: Address(binary.LittleEndian.Uint16(data[3:5])),
		Seq:     data[5],
		Payload: payload,
	}, true
}
