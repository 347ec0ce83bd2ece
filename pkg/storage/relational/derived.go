package relational

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/unet-io/unet/pkg/derived"
	"github.com/unet-io/unet/pkg/errcode"
)

// GetNodeStatus reads the node_status row this backend maintains,
// unlike the tabular backend which always returns the default-empty
// projection (spec.md's "concrete backends may override").
func (s *Store) GetNodeStatus(ctx context.Context, nodeID uuid.UUID) (*derived.NodeStatus, error) {
	var reachable int
	var lastChecked sql.NullTime
	err := s.conn().QueryRowContext(ctx, `SELECT reachable, last_checked FROM node_status WHERE node_id = ?`,
		nodeID.String()).Scan(&reachable, &lastChecked)
	if err == sql.ErrNoRows {
		return derived.NewNodeStatus(nodeID), nil
	}
	if err != nil {
		return nil, errcode.ConnectionError{Message: err.Error()}
	}
	status := &derived.NodeStatus{NodeID: nodeID, Reachable: reachable != 0}
	if lastChecked.Valid {
		t := lastChecked.Time
		status.LastChecked = &t
	}
	return status, nil
}

// PutNodeStatus upserts a node's reachability, called by the poller
// after each SNMP exchange attempt.
func (s *Store) PutNodeStatus(ctx context.Context, nodeID uuid.UUID, reachable bool, checkedAt time.Time) error {
	_, err := s.conn().ExecContext(ctx, `
		INSERT INTO node_status (node_id, reachable, last_checked) VALUES (?, ?, ?)
		ON CONFLICT(node_id) DO UPDATE SET reachable = excluded.reachable, last_checked = excluded.last_checked`,
		nodeID.String(), boolToInt(reachable), checkedAt)
	if err != nil {
		return wrapWriteErr("node_status", err)
	}
	return nil
}

// GetNodeInterfaces derives admin/oper-up interface status from the
// latest interface_metrics row set for nodeID; this backend has no
// separate interface-state table, so "up" is inferred from non-zero
// speed.
func (s *Store) GetNodeInterfaces(ctx context.Context, nodeID uuid.UUID) ([]derived.InterfaceStatus, error) {
	rows, err := s.conn().QueryContext(ctx, `SELECT if_index, if_speed FROM interface_metrics WHERE node_id = ?`, nodeID.String())
	if err != nil {
		return nil, errcode.ConnectionError{Message: err.Error()}
	}
	defer rows.Close()
	var out []derived.InterfaceStatus
	for rows.Next() {
		var ifIndex int
		var speed sql.NullInt64
		if err := rows.Scan(&ifIndex, &speed); err != nil {
			return nil, errcode.SerializationError{Message: err.Error()}
		}
		up := speed.Valid && speed.Int64 > 0
		out = append(out, derived.InterfaceStatus{
			NodeID:        nodeID,
			InterfaceName: "ifIndex." + strconv.Itoa(ifIndex),
			AdminUp:       up,
			OperUp:        up,
		})
	}
	return out, nil
}

// GetNodeMetrics sets CollectedAt to the latest collected_at among the
// node's interface_metrics rows; CPU/memory utilization are not
// derivable from interface counters alone and remain nil.
func (s *Store) GetNodeMetrics(ctx context.Context, nodeID uuid.UUID) (*derived.PerformanceMetrics, error) {
	var collectedAt sql.NullTime
	err := s.conn().QueryRowContext(ctx, `SELECT MAX(collected_at) FROM interface_metrics WHERE node_id = ?`,
		nodeID.String()).Scan(&collectedAt)
	if err != nil {
		return nil, errcode.ConnectionError{Message: err.Error()}
	}
	metrics := &derived.PerformanceMetrics{NodeID: nodeID}
	if collectedAt.Valid {
		metrics.CollectedAt = collectedAt.Time
	}
	return metrics, nil
}

func (s *Store) GetSystemInfo(ctx context.Context, nodeID uuid.UUID) (*derived.SystemInfo, error) {
	var info derived.SystemInfo
	info.NodeID = nodeID
	var sysUpTime sql.NullInt64
	err := s.conn().QueryRowContext(ctx, `
		SELECT sys_descr, sys_up_time, sys_contact, sys_name, sys_location, collected_at
		FROM system_info WHERE node_id = ?`, nodeID.String()).Scan(
		&info.SysDescr, &sysUpTime, &info.SysContact, &info.SysName, &info.SysLocation, &info.CollectedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errcode.ConnectionError{Message: err.Error()}
	}
	if sysUpTime.Valid {
		info.SysUpTime = uint32(sysUpTime.Int64)
	}
	return &info, nil
}

func (s *Store) PutSystemInfo(ctx context.Context, nodeID uuid.UUID, info *derived.SystemInfo) error {
	_, err := s.conn().ExecContext(ctx, `
		INSERT INTO system_info (node_id, sys_descr, sys_up_time, sys_contact, sys_name, sys_location, collected_at)
		VALUES (?,?,?,?,?,?,?)
		ON CONFLICT(node_id) DO UPDATE SET sys_descr=excluded.sys_descr, sys_up_time=excluded.sys_up_time,
			sys_contact=excluded.sys_contact, sys_name=excluded.sys_name, sys_location=excluded.sys_location,
			collected_at=excluded.collected_at`,
		nodeID.String(), info.SysDescr, int64(info.SysUpTime), info.SysContact, info.SysName, info.SysLocation, info.CollectedAt)
	if err != nil {
		return wrapWriteErr("system_info", err)
	}
	return nil
}

// PutInterfaceMetrics upserts one row per interface. The rows share no
// atomicity guarantee beyond what the caller's own transaction (if
// any) provides via Store.conn.
func (s *Store) PutInterfaceMetrics(ctx context.Context, nodeID uuid.UUID, metrics []derived.InterfaceMetrics) error {
	for _, m := range metrics {
		_, err := s.conn().ExecContext(ctx, `
			INSERT INTO interface_metrics (node_id, if_index, if_in_octets, if_out_octets, if_in_errors, if_out_errors, if_speed, collected_at)
			VALUES (?,?,?,?,?,?,?,?)
			ON CONFLICT(node_id, if_index) DO UPDATE SET if_in_octets=excluded.if_in_octets,
				if_out_octets=excluded.if_out_octets, if_in_errors=excluded.if_in_errors,
				if_out_errors=excluded.if_out_errors, if_speed=excluded.if_speed, collected_at=excluded.collected_at`,
			nodeID.String(), m.IfIndex, int64(m.IfInOctets), int64(m.IfOutOctets), int64(m.IfInErrors),
			int64(m.IfOutErrors), int64(m.IfSpeed), m.CollectedAt)
		if err != nil {
			return wrapWriteErr("interface_metrics", err)
		}
	}
	return nil
}
