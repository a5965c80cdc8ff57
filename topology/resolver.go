package topology

import (
	"github.com/ystepanoff/loomesh/protocol"
)

// Resolve walks a decoded topology document and derives the routing and
// slot-schedule position of the device named selfName.
// It returns protocol.RouterError/protocol.SlotterError-backed NetworkInfo
// if selfName is not the coordinator and does not appear anywhere in the
// tree, or if the tree is structurally malformed.
func Resolve(t *Topology, selfName string) (protocol.NetworkInfo, error) {
	if t.Root.Config.CyclesPerRefresh == 0 {
		return errNetworkInfo(), protocol.ErrInvalidConfig
	}

	if t.Root.Name == selfName {
		return resolveCoordinator(t)
	}

	partial, self, _, found, err := recurseTraverse(&t.Root.Node, selfName, 0, 0)
	if err != nil {
		return errNetworkInfo(), err
	}
	if !found {
		return errNetworkInfo(), protocol.ErrTopology
	}

	typ := protocol.InferType(partial)
	if typ == protocol.DeviceTypeError {
		return errNetworkInfo(), protocol.ErrTopology
	}

	routerCount, nodeCount, err := directChildCounts(self)
	if err != nil {
		return errNetworkInfo(), err
	}

	selfSlot, childSlot, childSlotCount, err := slotPositions(&t.Root.Node, selfName)
	if err != nil {
		return errNetworkInfo(), err
	}

	return protocol.NetworkInfo{
		Router: protocol.RouterInfo{
			Type:        typ,
			Address:     partial,
			Parent:      partial.Parent(typ),
			RouterCount: routerCount,
			NodeCount:   nodeCount,
		},
		Slotter: protocol.SlotterInfo{
			SelfSlot:         selfSlot,
			ChildSlot:        childSlot,
			ChildSlotCount:   childSlotCount,
			CyclesPerRefresh: t.Root.Config.CyclesPerRefresh,
		},
	}, nil
}

func errNetworkInfo() protocol.NetworkInfo {
	return protocol.NetworkInfo{Router: protocol.RouterError, Slotter: protocol.SlotterError}
}

func resolveCoordinator(t *Topology) (protocol.NetworkInfo, error) {
	routerCount, nodeCount, err := directChildCounts(&t.Root.Node)
	if err != nil {
		return errNetworkInfo(), err
	}
	childSlotCount, err := childrenSpanSum(&t.Root.Node)
	if err != nil {
		return errNetworkInfo(), err
	}
	childSlot := protocol.SlotNone
	if len(t.Root.Children) > 0 {
		childSlot = 0
	}
	return protocol.NetworkInfo{
		Router: protocol.RouterInfo{
			Type:        protocol.DeviceTypeCoordinator,
			Address:     protocol.AddrCoord,
			Parent:      protocol.AddrNone,
			RouterCount: routerCount,
			NodeCount:   nodeCount,
		},
		Slotter: protocol.SlotterInfo{
			SelfSlot:         protocol.SlotNone,
			ChildSlot:        childSlot,
			ChildSlotCount:   childSlotCount,
			CyclesPerRefresh: t.Root.Config.CyclesPerRefresh,
		},
	}, nil
}

// TotalSlots returns the number of transmit slots in the whole network's
// schedule: every device must be constructed with the same value. It is
// exactly the coordinator's own ChildSlotCount, since the coordinator
// itself never transmits.
func TotalSlots(t *Topology) (uint8, error) {
	total, err := childrenSpanSum(&t.Root.Node)
	if err != nil {
		return 0, err
	}
	if total > protocol.MaxSlotCount {
		return 0, protocol.ErrSlotOverflow
	}
	return total, nil
}

// recurseTraverse is the depth-first address walk, ported from
// original_source/LoomNetworkConfig.h's m_recurse_traverse. Each sibling
// group keeps two 1-based counters, one for end devices and one for
// routers, in declared order. routerIdxAccum is the 1-based index the
// caller assigned to the subtree being searched; it is folded into the
// correct nibble only once a match is found, rather than threaded through
// shared mutable state.
func recurseTraverse(parent *Node, selfName string, routerIdxAccum uint8, depth int) (partial protocol.Address, self *Node, selfDepth int, found bool, err error) {
	nodeCount := uint8(1)
	routerCount := uint8(1)

	for i := range parent.Children {
		child := &parent.Children[i]
		if child.Type == nil {
			return 0, nil, 0, false, protocol.ErrTopology
		}

		var local protocol.Address
		matched := false

		if child.Name == selfName {
			if isRouter(child) {
				if routerCount > 15 {
					return 0, nil, 0, false, protocol.ErrTopology
				}
				if depth == 0 {
					local = protocol.Address(routerCount) << 12
				} else {
					local = protocol.Address(routerCount) << 8
				}
			} else if isEndDevice(child) {
				local = protocol.Address(nodeCount)
			} else {
				return 0, nil, 0, false, protocol.ErrTopology
			}
			self = child
			selfDepth = depth
			matched = true
		} else if isEndDevice(child) {
			nodeCount++
		} else if isRouter(child) {
			if routerCount > 15 {
				return 0, nil, 0, false, protocol.ErrTopology
			}
			sub, subSelf, subDepth, subFound, subErr := recurseTraverse(child, selfName, routerCount, depth+1)
			if subErr != nil {
				return 0, nil, 0, false, subErr
			}
			if subFound {
				local = sub
				self = subSelf
				selfDepth = subDepth
				matched = true
			} else {
				routerCount++
			}
		} else {
			return 0, nil, 0, false, protocol.ErrTopology
		}

		if matched {
			switch depth {
			case 2:
				return local | protocol.Address(routerIdxAccum)<<8, self, selfDepth, true, nil
			case 1:
				return local | protocol.Address(routerIdxAccum)<<12, self, selfDepth, true, nil
			default:
				return local, self, selfDepth, true, nil
			}
		}
	}
	return 0, nil, 0, false, nil
}

// directChildCounts counts a node's immediate router and end-device
// children, used for RouterInfo.RouterCount/NodeCount.
func directChildCounts(n *Node) (routerCount, nodeCount uint8, err error) {
	for i := range n.Children {
		child := &n.Children[i]
		if child.Type == nil {
			return 0, 0, protocol.ErrTopology
		}
		if isRouter(child) {
			routerCount++
		} else {
			nodeCount++
		}
	}
	return routerCount, nodeCount, nil
}

// slotSpan is the number of schedule slots node's own subtree occupies,
// node included: 1 for an end-device leaf; for a router, the sum of its
// children's spans (they all transmit before it can relay upward), plus
// its own transmit slot, plus one more if it carries a sensor reading of
// its own. Ported from original_source/LoomNetworkConfig.h's
// m_count_slots_self, flattened into a plain recursive sum; the original's
// dual total/pass accumulator is not reproduced.
func slotSpan(n *Node) (uint8, error) {
	if isEndDevice(n) {
		return 1, nil
	}
	if !isRouter(n) {
		return 0, protocol.ErrTopology
	}
	span, err := childrenSpanSum(n)
	if err != nil {
		return 0, err
	}
	span++
	if n.Sensor {
		span++
	}
	return span, nil
}

// childrenSpanSum sums slotSpan over n's direct children: the number of
// slots n must listen through before it can relay its own frame upward.
// For a router this is also ChildSlotCount; for the coordinator it is the
// network's TotalSlots.
func childrenSpanSum(n *Node) (uint8, error) {
	var total uint8
	for i := range n.Children {
		span, err := slotSpan(&n.Children[i])
		if err != nil {
			return 0, err
		}
		total += span
	}
	return total, nil
}

// orderedChildren returns n's children with routers before end devices,
// each group in declared order: routers are scheduled before end devices.
func orderedChildren(n *Node) ([]*Node, error) {
	var routers, ends []*Node
	for i := range n.Children {
		c := &n.Children[i]
		if c.Type == nil {
			return nil, protocol.ErrTopology
		}
		if isRouter(c) {
			routers = append(routers, c)
		} else if isEndDevice(c) {
			ends = append(ends, c)
		} else {
			return nil, protocol.ErrTopology
		}
	}
	return append(routers, ends...), nil
}

// findBlockStart walks the tree rooted at n in schedule order (routers
// before end devices, depth-first, descendants before their router)
// looking for targetName. It returns the slot index at which target's own
// subtree block begins: the accumulated span of everything scheduled
// before it.
func findBlockStart(n *Node, targetName string) (acc uint8, target *Node, found bool, err error) {
	children, err := orderedChildren(n)
	if err != nil {
		return 0, nil, false, err
	}
	for _, c := range children {
		if c.Name == targetName {
			return acc, c, true, nil
		}
		if isRouter(c) {
			innerAcc, innerTarget, innerFound, err := findBlockStart(c, targetName)
			if err != nil {
				return 0, nil, false, err
			}
			if innerFound {
				return acc + innerAcc, innerTarget, true, nil
			}
		}
		span, err := slotSpan(c)
		if err != nil {
			return 0, nil, false, err
		}
		acc += span
	}
	return 0, nil, false, nil
}

// slotPositions derives selfName's own transmit slot and, if it has
// children, the start and width of the window in which it must listen for
// them. An end device (no children) gets SlotNone/0 for the
// latter two.
func slotPositions(root *Node, selfName string) (selfSlot, childSlot, childSlotCount uint8, err error) {
	acc, target, found, err := findBlockStart(root, selfName)
	if err != nil {
		return 0, 0, 0, err
	}
	if !found {
		return 0, 0, 0, protocol.ErrTopology
	}

	span, err := childrenSpanSum(target)
	if err != nil {
		return 0, 0, 0, err
	}

	total := acc + span
	if total > protocol.MaxSlotCount {
		return protocol.SlotError, protocol.SlotError, 0, protocol.ErrSlotOverflow
	}
	selfSlot = total

	if len(target.Children) == 0 {
		return selfSlot, protocol.SlotNone, 0, nil
	}
	return selfSlot, acc, span, nil
}
