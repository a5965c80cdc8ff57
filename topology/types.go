// Package topology decodes the human-authored network description and
// resolves it, for a named self-device, into the runtime routing and
// scheduling state consumed by the rest of the mesh.
package topology

import (
	"encoding/json"
	"fmt"
	"io"
)

// NodeType is the raw JSON device-kind tag: 0 for an end device, 1 for a
// router. It is distinct from protocol.DeviceType, which also carries
// COORDINATOR and ERROR and is inferred by the resolver from tree position.
type NodeType uint8

const (
	NodeTypeEndDevice NodeType = 0
	NodeTypeRouter    NodeType = 1
)

// Node is one entry in the topology tree. Type is a pointer so a
// missing "type" field can be told apart from an explicit 0.
type Node struct {
	Name     string   `json:"name"`
	Type     *uint8   `json:"type"`
	Sensor   bool     `json:"sensor,omitempty"`
	Children []Node   `json:"children,omitempty"`
}

// Config is the coordinator-level network configuration.
type Config struct {
	CyclesPerRefresh uint8 `json:"cycles_per_refresh"`
}

// Root is the coordinator's own node, plus the network-wide config.
type Root struct {
	Node
	Config Config `json:"config"`
}

// Topology is the full decoded document: the coordinator and its subtree.
type Topology struct {
	Root Root `json:"root"`
}

// Decode parses a topology document. A malformed JSON document is a
// config-authoring error distinct from a resolver semantic error: it is
// returned directly, wrapping the stdlib json error, rather than folded
// into the ROUTER_ERROR/SLOTTER_ERROR sentinel pair.
func Decode(r io.Reader) (*Topology, error) {
	var t Topology
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("decode topology: %w", err)
	}
	return &t, nil
}

func isRouter(n *Node) bool { return n.Type != nil && *n.Type == uint8(NodeTypeRouter) }
func isEndDevice(n *Node) bool { return n.Type != nil && *n.Type == uint8(NodeTypeEndDevice) }
