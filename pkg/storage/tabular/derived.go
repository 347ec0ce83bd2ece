package tabular

import (
	"context"

	"github.com/google/uuid"

	"github.com/unet-io/unet/pkg/derived"
)

// GetNodeStatus returns the default-empty NodeStatus, matching
// spec.md's "concrete backends may override" allowance — the tabular
// backend does not track reachability.
func (s *Store) GetNodeStatus(ctx context.Context, nodeID uuid.UUID) (*derived.NodeStatus, error) {
	return derived.NewNodeStatus(nodeID), nil
}

// GetNodeInterfaces returns no interface status rows; the tabular
// backend has nowhere durable to keep them.
func (s *Store) GetNodeInterfaces(ctx context.Context, nodeID uuid.UUID) ([]derived.InterfaceStatus, error) {
	return nil, nil
}

// GetNodeMetrics returns a zero-value PerformanceMetrics.
func (s *Store) GetNodeMetrics(ctx context.Context, nodeID uuid.UUID) (*derived.PerformanceMetrics, error) {
	return &derived.PerformanceMetrics{NodeID: nodeID}, nil
}

// GetSystemInfo returns whatever was last written via PutSystemInfo in
// this process's lifetime, or nil if none.
func (s *Store) GetSystemInfo(ctx context.Context, nodeID uuid.UUID) (*derived.SystemInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.systemInfo[nodeID]
	if !ok {
		return nil, nil
	}
	copied := *info
	return &copied, nil
}

// PutSystemInfo keeps info in memory only; the tabular backend has no
// system_info table.
func (s *Store) PutSystemInfo(ctx context.Context, nodeID uuid.UUID, info *derived.SystemInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *info
	s.systemInfo[nodeID] = &copied
	return nil
}

// PutInterfaceMetrics keeps the latest metrics batch in memory only.
func (s *Store) PutInterfaceMetrics(ctx context.Context, nodeID uuid.UUID, metrics []derived.InterfaceMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ifMetrics[nodeID] = append([]derived.InterfaceMetrics{}, metrics...)
	return nil
}
