// Package derived holds per-node projections computed from SNMP data —
// system info, interface status, and performance metrics — that
// augment storage reads but are not part of the user-supplied model.
// Backends return the zero-value shapes below unless they choose to
// persist and surface real projections (see SystemInfo/InterfaceMetrics).
package derived

import (
	"time"

	"github.com/google/uuid"
)

// NodeStatus is the basic derived status of a node. The default
// implementation (no backend override) reports only the node id with
// an unknown reachability state.
type NodeStatus struct {
	NodeID      uuid.UUID
	Reachable   bool
	LastChecked *time.Time
}

// NewNodeStatus returns the default NodeStatus for nodeID.
func NewNodeStatus(nodeID uuid.UUID) *NodeStatus {
	return &NodeStatus{NodeID: nodeID}
}

// InterfaceStatus is the derived up/down state of one interface.
type InterfaceStatus struct {
	NodeID        uuid.UUID
	InterfaceName string
	AdminUp       bool
	OperUp        bool
}

// PerformanceMetrics is a coarse per-node performance snapshot. No
// backend fills the utilization fields; the relational backend sets
// CollectedAt from the node's latest InterfaceMetrics rows.
type PerformanceMetrics struct {
	NodeID          uuid.UUID
	CPUUtilization  *float64
	MemoryUtilization *float64
	CollectedAt     time.Time
}

// SystemInfo is the derived projection of five of the standard SNMP
// `system` scalars for a node, grounded on the original
// models/derived/system.rs shape.
type SystemInfo struct {
	NodeID      uuid.UUID
	SysDescr    string
	SysUpTime   uint32
	SysContact  string
	SysName     string
	SysLocation string
	CollectedAt time.Time
}

// InterfaceMetrics is one polled interface's counters, grounded on
// models/derived/metrics.rs.
type InterfaceMetrics struct {
	NodeID       uuid.UUID
	IfIndex      int
	IfInOctets   uint64
	IfOutOctets  uint64
	IfInErrors   uint64
	IfOutErrors  uint64
	IfSpeed      uint64
	CollectedAt  time.Time
}

// ClampPercent clamps a value into [0, 100], matching spec.md §4.4's
// requirement that integer conversions to bounded domain types clamp
// to the target range.
func ClampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
