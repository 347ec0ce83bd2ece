package poller

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unet-io/unet/pkg/derived"
	"github.com/unet-io/unet/pkg/snmp"
)

// buildSystemInfo maps a Get result, keyed by the OID the device
// echoed back, onto the five system scalars SystemInfo keeps (spec.md §4.4/C10).
func buildSystemInfo(nodeID uuid.UUID, at time.Time, values map[string]snmp.Value) *derived.SystemInfo {
	info := &derived.SystemInfo{NodeID: nodeID, CollectedAt: at}
	if v, ok := lookup(values, snmp.SysDescr); ok {
		info.SysDescr, _ = v.AsString()
	}
	if v, ok := lookup(values, snmp.SysUpTime); ok {
		if n, ok := v.AsInt64(); ok {
			info.SysUpTime = uint32(n)
		}
	}
	if v, ok := lookup(values, snmp.SysContact); ok {
		info.SysContact, _ = v.AsString()
	}
	if v, ok := lookup(values, snmp.SysName); ok {
		info.SysName, _ = v.AsString()
	}
	if v, ok := lookup(values, snmp.SysLocation); ok {
		info.SysLocation, _ = v.AsString()
	}
	return info
}

func lookup(values map[string]snmp.Value, o snmp.StandardOid) (snmp.Value, bool) {
	v, ok := values[o.OID()]
	return v, ok
}

// buildInterfaceMetrics groups an ifTable walk's flat OID/value pairs
// by trailing ifIndex. Walked OIDs have the column prefix followed by
// ".<ifIndex>", e.g. "1.3.6.1.2.1.2.2.1.10.3" is ifInOctets for
// interface 3.
func buildInterfaceMetrics(nodeID uuid.UUID, at time.Time, walked []snmp.OidValue) []derived.InterfaceMetrics {
	byIndex := map[int]*derived.InterfaceMetrics{}
	var order []int

	column := func(prefix string, oid string) (int, bool) {
		if !strings.HasPrefix(oid, prefix+".") {
			return 0, false
		}
		idx, err := strconv.Atoi(oid[len(prefix)+1:])
		if err != nil {
			return 0, false
		}
		return idx, true
	}

	entry := func(idx int) *derived.InterfaceMetrics {
		m, ok := byIndex[idx]
		if !ok {
			m = &derived.InterfaceMetrics{NodeID: nodeID, IfIndex: idx, CollectedAt: at}
			byIndex[idx] = m
			order = append(order, idx)
		}
		return m
	}

	for _, ov := range walked {
		if idx, ok := column(snmp.IfInOctets.OID(), ov.Oid); ok {
			if n, ok := ov.Value.AsInt64(); ok {
				entry(idx).IfInOctets = uint64(n)
			}
			continue
		}
		if idx, ok := column(snmp.IfOutOctets.OID(), ov.Oid); ok {
			if n, ok := ov.Value.AsInt64(); ok {
				entry(idx).IfOutOctets = uint64(n)
			}
			continue
		}
		if idx, ok := column(snmp.IfInErrors.OID(), ov.Oid); ok {
			if n, ok := ov.Value.AsInt64(); ok {
				entry(idx).IfInErrors = uint64(n)
			}
			continue
		}
		if idx, ok := column(snmp.IfOutErrors.OID(), ov.Oid); ok {
			if n, ok := ov.Value.AsInt64(); ok {
				entry(idx).IfOutErrors = uint64(n)
			}
			continue
		}
		if idx, ok := column(snmp.IfSpeed.OID(), ov.Oid); ok {
			if n, ok := ov.Value.AsInt64(); ok {
				entry(idx).IfSpeed = uint64(n)
			}
			continue
		}
	}

	out := make([]derived.InterfaceMetrics, 0, len(order))
	for _, idx := range order {
		out = append(out, *byIndex[idx])
	}
	return out
}

// NewSystemTask builds a task that polls the standard system scalars
// for nodeID via Get.
func NewSystemTask(nodeID uuid.UUID, address string, session SessionConfigFn, interval time.Duration) *Task {
	oids := make([]string, 0, len(snmp.SystemOids()))
	for _, o := range snmp.SystemOids() {
		oids = append(oids, o.OID())
	}
	return &Task{
		TargetAddress: address,
		NodeID:        nodeID,
		OIDs:          oids,
		Mode:          ModeGet,
		Interval:      interval,
		Session:       session(address),
	}
}

// NewInterfaceTask builds a task that walks the ifTable counters for
// nodeID.
func NewInterfaceTask(nodeID uuid.UUID, address string, session SessionConfigFn, interval time.Duration) *Task {
	return &Task{
		TargetAddress: address,
		NodeID:        nodeID,
		OIDs:          []string{snmp.IfTable.OID()},
		Mode:          ModeWalk,
		Interval:      interval,
		Session:       session(address),
	}
}

// SessionConfigFn builds a SessionConfig for a target address,
// letting callers centralize community/credential selection.
type SessionConfigFn func(address string) snmp.SessionConfig
