package sorter

import (
	"github.com/cespare/xxhash/v2"

	"github.com/ystepanoff/loomesh/protocol"
)

// fingerprint identifies a fragment for duplicate suppression: its
// sequence number plus a hash of its payload.
type fingerprint struct {
	seq  uint8
	hash uint64
}

func newFingerprint(seq uint8, payload []byte) fingerprint {
	return fingerprint{seq: seq, hash: xxhash.Sum64(payload)}
}

// fingerprintWindow remembers the most recent fingerprints accepted per
// source address, at least size entries deep per source. New sizes it to
// streamSizeMax.
type fingerprintWindow struct {
	size    int
	entries map[protocol.Address][]fingerprint
}

func newFingerprintWindow(size int) *fingerprintWindow {
	return &fingerprintWindow{size: size, entries: make(map[protocol.Address][]fingerprint)}
}

func (w *fingerprintWindow) seen(src protocol.Address, fp fingerprint) bool {
	for _, e := range w.entries[src] {
		if e == fp {
			return true
		}
	}
	return false
}

func (w *fingerprintWindow) record(src protocol.Address, fp fingerprint) {
	list := append(w.entries[src], fp)
	if len(list) > w.size {
		list = list[len(list)-w.size:]
	}
	w.entries[src] = list
}
