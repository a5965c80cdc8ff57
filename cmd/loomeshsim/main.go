// Command loomeshsim loads a topology document and runs one simulated
// device per named node on a shared in-memory radio Bus, printing every
// fragment that arrives at the coordinator.
package main

import (
	"os"
	"time"

	"github.com/ystepanoff/loomesh/mesh"
	"github.com/ystepanoff/loomesh/protocol"
	"github.com/ystepanoff/loomesh/radio"
	"github.com/ystepanoff/loomesh/sorter"
	"github.com/ystepanoff/loomesh/topology"
)

const (
	sorterStreamSizeMax  = 256
	sorterStreamCountMax = 8
	sorterSendCountMax   = 16

	simSlotDuration = 20 * time.Millisecond
	simRecvTimeout  = 200 * time.Millisecond
	simBusInterval  = 5 * time.Millisecond
	simRunDuration  = 10 * time.Second
)

// wallClock reads real time for Recv arrival stamps; the demo has no
// simulated-time requirement the way tests do.
type wallClock struct{ start time.Time }

func (c *wallClock) GetTime() radio.TimeMillis {
	return radio.TimeMillis(time.Since(c.start).Milliseconds())
}

type namedDevice struct {
	name string
	addr protocol.Address
	dev  *mesh.Device
}

func main() {
	path := "topology.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	f, err := os.Open(path)
	if err != nil {
		println("open topology:", err.Error())
		os.Exit(1)
	}
	defer f.Close()

	topo, err := topology.Decode(f)
	if err != nil {
		println("decode topology:", err.Error())
		os.Exit(1)
	}

	names := collectNames(&topo.Root.Node)
	total, err := topology.TotalSlots(topo)
	if err != nil {
		println("compute total slots:", err.Error())
		os.Exit(1)
	}

	clock := &wallClock{start: time.Now()}
	bus := radio.NewBus()

	devices := make([]namedDevice, 0, len(names))
	var coord *namedDevice

	for _, name := range names {
		info, err := topology.Resolve(topo, name)
		if err != nil {
			println("resolve", name, ":", err.Error())
			os.Exit(1)
		}

		r := radio.NewSimulated(clock)
		if err := r.Enable(); err != nil {
			println("enable", name, ":", err.Error())
			os.Exit(1)
		}
		if err := r.Wake(); err != nil {
			println("wake", name, ":", err.Error())
			os.Exit(1)
		}
		bus.Attach(r)

		s := sorter.New(sorterStreamSizeMax, sorterStreamCountMax, sorterSendCountMax)
		d := mesh.New(info, total, r, clock, s)
		d.SetSlotDuration(simSlotDuration)
		d.SetRecvTimeout(simRecvTimeout)

		nd := namedDevice{name: name, addr: info.Router.Address, dev: d}
		devices = append(devices, nd)
		if info.Router.Type == protocol.DeviceTypeCoordinator {
			coord = &devices[len(devices)-1]
		}

		println("device", name, "address", int(info.Router.Address), "type", info.Router.Type.String())
	}

	bus.Run(simBusInterval)
	defer bus.Stop()

	stop := make(chan struct{})
	for i := range devices {
		go runDevice(&devices[i], stop)
	}
	if coord != nil {
		go watchCoordinator(coord, devices, stop)
	}

	time.Sleep(simRunDuration)
	close(stop)
}

func runDevice(d *namedDevice, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		if err := d.dev.Step(); err != nil {
			println("device", d.name, "step error:", err.Error())
		}
	}
}

// watchCoordinator polls the coordinator's sorter for newly delivered
// payloads from every other device and prints them as they arrive.
func watchCoordinator(coord *namedDevice, devices []namedDevice, stop <-chan struct{}) {
	buf := make([]byte, protocol.MaxPayloadSize)
	for {
		select {
		case <-stop:
			return
		default:
		}
		for _, d := range devices {
			if d.addr == coord.addr {
				continue
			}
			n := coord.dev.Sorter().ReadInbound(d.addr, buf)
			if n > 0 {
				println("coordinator received", n, "bytes from", d.name)
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
}

// collectNames walks the tree depth-first and returns every node's name,
// coordinator first, in declared order.
func collectNames(n *topology.Node) []string {
	names := []string{n.Name}
	for i := range n.Children {
		names = append(names, collectNames(&n.Children[i])...)
	}
	return names
}
