package mesh

import (
	"testing"
	"time"

	"github.com/ystepanoff/loomesh/protocol"
	"github.com/ystepanoff/loomesh/radio"
	"github.com/ystepanoff/loomesh/sorter"
	"github.com/ystepanoff/loomesh/topology"
)

type testClock struct{ millis radio.TimeMillis }

func (c *testClock) GetTime() radio.TimeMillis { return c.millis }

func nodeTypePtr(t topology.NodeType) *uint8 {
	v := uint8(t)
	return &v
}

// sixNodeTopology is a three-tier topology: coordinator -> r1 (first
// router) -> r2 (second router) -> e1 (end device), plus e2 hanging off r1
// and e3 directly off the coordinator. Six named nodes in total.
func sixNodeTopology() *topology.Topology {
	root := topology.Node{
		Name: "coordinator",
		Type: nodeTypePtr(topology.NodeTypeRouter),
		Children: []topology.Node{
			{
				Name: "r1",
				Type: nodeTypePtr(topology.NodeTypeRouter),
				Children: []topology.Node{
					{
						Name: "r2",
						Type: nodeTypePtr(topology.NodeTypeRouter),
						Children: []topology.Node{
							{Name: "e1", Type: nodeTypePtr(topology.NodeTypeEndDevice)},
						},
					},
					{Name: "e2", Type: nodeTypePtr(topology.NodeTypeEndDevice)},
				},
			},
			{Name: "e3", Type: nodeTypePtr(topology.NodeTypeEndDevice)},
		},
	}
	return &topology.Topology{
		Root: topology.Root{
			Node:   root,
			Config: topology.Config{CyclesPerRefresh: 2},
		},
	}
}

// buildFleet resolves every named device in topo and wires it to its own
// Simulated radio on bus, returning a name-indexed map of Devices.
func buildFleet(t *testing.T, topo *topology.Topology, names []string, bus *radio.Bus, clock radio.Clock) map[string]*Device {
	t.Helper()
	total, err := topology.TotalSlots(topo)
	if err != nil {
		t.Fatalf("TotalSlots() error = %v", err)
	}

	fleet := make(map[string]*Device, len(names))
	for _, name := range names {
		info, err := topology.Resolve(topo, name)
		if err != nil {
			t.Fatalf("Resolve(%q) error = %v", name, err)
		}
		r := radio.NewSimulated(clock)
		r.SetSendDelay(time.Millisecond)
		if err := r.Enable(); err != nil {
			t.Fatalf("Enable(%q) error = %v", name, err)
		}
		if err := r.Wake(); err != nil {
			t.Fatalf("Wake(%q) error = %v", name, err)
		}
		bus.Attach(r)

		s := sorter.New(64, 4, 8)
		d := New(info, total, r, clock, s)
		d.SetSlotDuration(time.Millisecond)
		d.SetRecvTimeout(20 * time.Millisecond)
		fleet[name] = d
	}
	return fleet
}

func TestSixNodeConvergecastReachesCoordinator(t *testing.T) {
	topo := sixNodeTopology()
	clock := &testClock{}
	bus := radio.NewBus()
	names := []string{"coordinator", "r1", "r2", "e1", "e2", "e3"}
	fleet := buildFleet(t, topo, names, bus, clock)

	bus.Run(time.Millisecond)
	defer bus.Stop()

	// Each leaf queues one payload addressed to the coordinator.
	payloads := map[string][]byte{
		"e1": []byte("from-e1"),
		"e2": []byte("from-e2"),
		"e3": []byte("from-e3"),
	}
	for name, payload := range payloads {
		d := fleet[name]
		frag := &protocol.Fragment{
			DstAddr: protocol.AddrCoord,
			SrcAddr: d.Address(),
			Seq:     1,
			Payload: payload,
		}
		if !d.Sorter().WriteOutbound(d.info.Router.Parent, frag) {
			t.Fatalf("WriteOutbound(%q) failed", name)
		}
	}

	// Run enough slots for a full refresh cycle on every device so sends
	// and relays have a chance to propagate from e1 up through r2, r1 to
	// the coordinator.
	const steps = 40
	done := make(chan struct{})
	for _, d := range fleet {
		dev := d
		go func() {
			for i := 0; i < steps; i++ {
				_ = dev.Step()
			}
			done <- struct{}{}
		}()
	}
	for range fleet {
		<-done
	}

	coord := fleet["coordinator"]
	for name := range payloads {
		src := fleet[name].Address()
		got := make([]byte, 64)
		n := coord.Sorter().ReadInbound(src, got)
		if n == 0 {
			t.Errorf("coordinator received nothing from %q", name)
			continue
		}
		if string(got[:n]) != string(payloads[name]) {
			t.Errorf("coordinator payload from %q = %q, want %q", name, got[:n], payloads[name])
		}
	}
}

func TestStepReturnsErrorOnSlotterError(t *testing.T) {
	info := protocol.NetworkInfo{Router: protocol.RouterError, Slotter: protocol.SlotterError}
	clock := &testClock{}
	r := radio.NewSimulated(clock)
	d := New(info, 0, r, clock, sorter.New(8, 2, 2))

	if err := d.Step(); err != ErrSlotterError {
		t.Fatalf("Step() error = %v, want ErrSlotterError", err)
	}
}
