package radio

import "time"

// Bus is a shared broadcast medium for Simulated radios, generalizing
// transport/transport_test.go's ConnectDrivers helper from a one-off test
// fixture into a reusable type: every frame one attached radio sends is
// delivered to every other attached radio's receive queue.
type Bus struct {
	radios []*Simulated
	stop   chan struct{}
}

// NewBus builds an empty Bus.
func NewBus() *Bus {
	return &Bus{stop: make(chan struct{})}
}

// Attach adds r to the bus. Every frame still queued in r when Pump runs,
// including frames sent before this call, is forwarded to every other
// attached radio.
func (b *Bus) Attach(r *Simulated) {
	b.radios = append(b.radios, r)
}

// Pump performs one forwarding pass: it drains every attached radio's
// pending outbound frames and injects each into every other radio's
// receive queue.
func (b *Bus) Pump() {
	for i, src := range b.radios {
		for _, frame := range src.drainTx() {
			for j, dst := range b.radios {
				if j == i {
					continue
				}
				dst.injectRx(frame)
			}
		}
	}
}

// Run starts a goroutine that calls Pump on the given interval until
// Stop is called.
func (b *Bus) Run(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-b.stop:
				return
			case <-ticker.C:
				b.Pump()
			}
		}
	}()
}

// Stop halts a goroutine started by Run.
func (b *Bus) Stop() {
	close(b.stop)
}
