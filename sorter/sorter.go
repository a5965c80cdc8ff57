// Package sorter buffers inbound and outbound fragments for a mesh device
// and suppresses duplicate deliveries by fingerprint.
package sorter

import "github.com/ystepanoff/loomesh/protocol"

// byteRing is a bounded FIFO byte queue: an inbound stream slot. No
// third-party ring-buffer package appears anywhere in the retrieval pack
// (checked every go.mod under _examples), so this hand-rolled queue is the
// justified stdlib exception (see DESIGN.md).
type byteRing struct {
	capacity int
	data     []byte
}

func newByteRing(capacity int) *byteRing {
	return &byteRing{capacity: capacity}
}

func (r *byteRing) write(p []byte) int {
	free := r.capacity - len(r.data)
	if free <= 0 {
		return 0
	}
	n := len(p)
	if n > free {
		n = free
	}
	r.data = append(r.data, p[:n]...)
	return n
}

func (r *byteRing) read(dest []byte) int {
	n := len(dest)
	if n > len(r.data) {
		n = len(r.data)
	}
	copy(dest, r.data[:n])
	r.data = r.data[n:]
	return n
}

func (r *byteRing) len() int { return len(r.data) }

type outboundPair struct {
	dest     protocol.Address
	fragment protocol.Fragment
}

// Sorter owns the bounded inbound-stream and outbound-pair queues,
// dimensioned by streamSizeMax (bytes per source stream),
// streamCountMax (distinct source streams) and sendCountMax (queued
// outbound fragments). These play the role of the original's
// StreamSizeMax/StreamCountMax/SendCountMax template parameters, taken as
// constructor arguments since Go has no non-type generic parameters of
// that shape.
type Sorter struct {
	streamSizeMax  int
	streamCountMax int
	sendCountMax   int

	streamOrder []protocol.Address
	streams     map[protocol.Address]*byteRing

	outbound []outboundPair

	fingerprints *fingerprintWindow
}

// New builds an empty Sorter with the given capacities.
func New(streamSizeMax, streamCountMax, sendCountMax int) *Sorter {
	return &Sorter{
		streamSizeMax:  streamSizeMax,
		streamCountMax: streamCountMax,
		sendCountMax:   sendCountMax,
		streams:        make(map[protocol.Address]*byteRing),
		fingerprints:   newFingerprintWindow(streamSizeMax),
	}
}

// streamFor returns src's stream, allocating one if src is new and there
// is room under streamCountMax. Returns nil if streamCountMax is already
// exhausted and src has no existing stream.
func (s *Sorter) streamFor(src protocol.Address) *byteRing {
	if r, ok := s.streams[src]; ok {
		return r
	}
	if len(s.streamOrder) >= s.streamCountMax {
		return nil
	}
	r := newByteRing(s.streamSizeMax)
	s.streams[src] = r
	s.streamOrder = append(s.streamOrder, src)
	return r
}

// AcceptInbound is the entry point for a freshly decoded inbound fragment:
// it checks the dedup window first and, if new, appends the payload to
// src's stream. duplicate reports whether the fragment's fingerprint had
// already been seen; accepted is the number of
// payload bytes actually queued (bounded by streamSizeMax free space).
func (s *Sorter) AcceptInbound(f *protocol.Fragment) (accepted int, duplicate bool) {
	fp := newFingerprint(f.Seq, f.Payload)
	if s.fingerprints.seen(f.SrcAddr, fp) {
		return 0, true
	}
	s.fingerprints.record(f.SrcAddr, fp)

	stream := s.streamFor(f.SrcAddr)
	if stream == nil {
		return 0, false
	}
	return stream.write(f.Payload), false
}

// ReadInbound drains up to len(dest) bytes from src's stream.
func (s *Sorter) ReadInbound(src protocol.Address, dest []byte) int {
	stream, ok := s.streams[src]
	if !ok {
		return 0
	}
	return stream.read(dest)
}

// DataAvailable returns the total number of unread inbound bytes across
// every stream.
func (s *Sorter) DataAvailable() int {
	total := 0
	for _, r := range s.streams {
		total += r.len()
	}
	return total
}

// DataFromAddr returns the source of the next stream with unread data, in
// stream-creation order, and whether any stream has data at all.
func (s *Sorter) DataFromAddr() (protocol.Address, bool) {
	for _, src := range s.streamOrder {
		if r := s.streams[src]; r != nil && r.len() > 0 {
			return src, true
		}
	}
	return protocol.AddrNone, false
}

// WriteOutbound enqueues f for delivery to dest. It returns false without
// queuing if the outbound queue is already at sendCountMax.
func (s *Sorter) WriteOutbound(dest protocol.Address, f *protocol.Fragment) bool {
	if len(s.outbound) >= s.sendCountMax {
		return false
	}
	s.outbound = append(s.outbound, outboundPair{dest: dest, fragment: *f})
	return true
}

// GetPacket dequeues the first outbound fragment addressed to dest, if
// any.
func (s *Sorter) GetPacket(dest protocol.Address) (*protocol.Fragment, bool) {
	for i, p := range s.outbound {
		if p.dest == dest {
			s.outbound = append(s.outbound[:i], s.outbound[i+1:]...)
			frag := p.fragment
			return &frag, true
		}
	}
	return nil, false
}

// PacketsAvailable returns the number of fragments queued for send.
func (s *Sorter) PacketsAvailable() int {
	return len(s.outbound)
}
