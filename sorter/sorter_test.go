package sorter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ystepanoff/loomesh/protocol"
)

// TestAcceptInboundDropsDuplicate checks that a fragment sharing the
// same (source, sequence, payload) as one already accepted is dropped.
func TestAcceptInboundDropsDuplicate(t *testing.T) {
	s := New(32, 4, 4)
	f := &protocol.Fragment{SrcAddr: 0x0001, Seq: 5, Payload: []byte("hello")}

	n, dup := s.AcceptInbound(f)
	require.False(t, dup)
	assert.Equal(t, len(f.Payload), n)

	n2, dup2 := s.AcceptInbound(f)
	assert.True(t, dup2)
	assert.Equal(t, 0, n2)

	assert.Equal(t, len(f.Payload), s.DataAvailable())
}

func TestAcceptInboundDifferentSeqNotDuplicate(t *testing.T) {
	s := New(32, 4, 4)
	f1 := &protocol.Fragment{SrcAddr: 0x0001, Seq: 1, Payload: []byte("a")}
	f2 := &protocol.Fragment{SrcAddr: 0x0001, Seq: 2, Payload: []byte("a")}

	_, dup1 := s.AcceptInbound(f1)
	_, dup2 := s.AcceptInbound(f2)
	assert.False(t, dup1)
	assert.False(t, dup2)
}

func TestReadInboundDrainsStream(t *testing.T) {
	s := New(32, 4, 4)
	f := &protocol.Fragment{SrcAddr: 0x0002, Seq: 1, Payload: []byte("payload")}
	s.AcceptInbound(f)

	buf := make([]byte, 32)
	n := s.ReadInbound(0x0002, buf)
	assert.Equal(t, "payload", string(buf[:n]))
	assert.Equal(t, 0, s.DataAvailable())
}

func TestStreamCapacityBoundsWrites(t *testing.T) {
	s := New(4, 2, 4)
	f := &protocol.Fragment{SrcAddr: 0x0003, Seq: 1, Payload: []byte("0123456789")}
	n, _ := s.AcceptInbound(f)
	assert.Equal(t, 4, n)
}

func TestStreamCountBoundsDistinctSources(t *testing.T) {
	s := New(8, 1, 4)
	f1 := &protocol.Fragment{SrcAddr: 0x0001, Seq: 1, Payload: []byte("x")}
	f2 := &protocol.Fragment{SrcAddr: 0x0002, Seq: 1, Payload: []byte("y")}

	n1, _ := s.AcceptInbound(f1)
	n2, _ := s.AcceptInbound(f2)
	assert.Equal(t, 1, n1)
	assert.Equal(t, 0, n2, "second source should be rejected once streamCountMax streams exist")
}

func TestDataFromAddrReportsReadyStream(t *testing.T) {
	s := New(8, 2, 4)
	if _, ok := s.DataFromAddr(); ok {
		t.Fatal("DataFromAddr() reported data before any write")
	}
	s.AcceptInbound(&protocol.Fragment{SrcAddr: 0x0005, Seq: 1, Payload: []byte("z")})
	src, ok := s.DataFromAddr()
	require.True(t, ok)
	assert.Equal(t, protocol.Address(0x0005), src)
}

func TestOutboundQueueRoundTrip(t *testing.T) {
	s := New(8, 2, 2)
	f := &protocol.Fragment{DstAddr: 0x0010, SrcAddr: 0x0001, Seq: 1, Payload: []byte("q")}

	ok := s.WriteOutbound(0x0010, f)
	require.True(t, ok)
	assert.Equal(t, 1, s.PacketsAvailable())

	got, found := s.GetPacket(0x0010)
	require.True(t, found)
	assert.Equal(t, f.Payload, got.Payload)
	assert.Equal(t, 0, s.PacketsAvailable())

	_, found = s.GetPacket(0x0010)
	assert.False(t, found)
}

func TestOutboundQueueRejectsWhenFull(t *testing.T) {
	s := New(8, 2, 1)
	f := &protocol.Fragment{DstAddr: 0x0010, SrcAddr: 0x0001, Seq: 1, Payload: []byte("q")}
	require.True(t, s.WriteOutbound(0x0010, f))
	assert.False(t, s.WriteOutbound(0x0010, f))
}

func TestGetPacketSkipsNonMatchingDestinations(t *testing.T) {
	s := New(8, 2, 2)
	a := &protocol.Fragment{DstAddr: 0x0001, Payload: []byte("a")}
	b := &protocol.Fragment{DstAddr: 0x0002, Payload: []byte("b")}
	s.WriteOutbound(0x0001, a)
	s.WriteOutbound(0x0002, b)

	got, found := s.GetPacket(0x0002)
	require.True(t, found)
	assert.Equal(t, b.Payload, got.Payload)
	assert.Equal(t, 1, s.PacketsAvailable())
}
