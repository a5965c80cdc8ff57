// Package loomesh provides a façade over the resolver, slotter, sorter and
// radio layers for callers that don't need the subpackages directly.
package loomesh

import (
	"io"

	"github.com/ystepanoff/loomesh/mesh"
	"github.com/ystepanoff/loomesh/protocol"
	"github.com/ystepanoff/loomesh/radio"
	"github.com/ystepanoff/loomesh/sorter"
	"github.com/ystepanoff/loomesh/topology"
)

// Re-export types for callers that only need the common surface.
type (
	Address     = protocol.Address
	DeviceType  = protocol.DeviceType
	NetworkInfo = protocol.NetworkInfo
	Fragment    = protocol.Fragment
	Topology    = topology.Topology
	Radio       = radio.Radio
	Clock       = radio.Clock
	Device      = mesh.Device
	Sorter      = sorter.Sorter
)

// Error constants exposed in the public API.
var (
	ErrInvalidPayload = protocol.ErrInvalidPayload
	ErrTimeout        = protocol.ErrTimeout
	ErrInvalidChannel = protocol.ErrInvalidChannel
	ErrTopology       = protocol.ErrTopology
	ErrSlotOverflow   = protocol.ErrSlotOverflow
	ErrInvalidConfig  = protocol.ErrInvalidConfig
	ErrDecodeFailed   = protocol.ErrDecodeFailed
)

// Sentinel addresses and slot values exposed in the public API.
const (
	AddrCoord = protocol.AddrCoord
	AddrNone  = protocol.AddrNone
	AddrError = protocol.AddrError

	SlotNone  = protocol.SlotNone
	SlotError = protocol.SlotError
)

// DecodeTopology unmarshals a topology document from r.
func DecodeTopology(r io.Reader) (*Topology, error) {
	return topology.Decode(r)
}

// Resolve derives selfName's NetworkInfo from a decoded topology document.
func Resolve(t *Topology, selfName string) (NetworkInfo, error) {
	return topology.Resolve(t, selfName)
}

// TotalSlots returns a topology's network-wide slot count.
func TotalSlots(t *Topology) (uint8, error) {
	return topology.TotalSlots(t)
}

// NewDevice builds a mesh Device bound to the given collaborators. This is
// the one-driver-family successor to the old host/embedded constructor
// split: there is now a single Radio implementation worth constructing
// from the facade (radio.Simulated), so no build tags are needed.
func NewDevice(info NetworkInfo, totalSlots uint8, r Radio, clock Clock, s *Sorter) *Device {
	return mesh.New(info, totalSlots, r, clock, s)
}

// NewSorter builds an empty packet sorter sized to the given capacities.
func NewSorter(streamSizeMax, streamCountMax, sendCountMax int) *Sorter {
	return sorter.New(streamSizeMax, streamCountMax, sendCountMax)
}

// NewSimulatedRadio builds an in-memory Radio for tests and the demo CLI.
func NewSimulatedRadio(clock Clock) *radio.Simulated {
	return radio.NewSimulated(clock)
}

// NewBus builds a shared medium for simulated radios.
func NewBus() *radio.Bus {
	return radio.NewBus()
}
