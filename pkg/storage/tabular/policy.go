package tabular

import (
	"context"

	"github.com/google/uuid"

	"github.com/unet-io/unet/pkg/policy"
	"github.com/unet-io/unet/pkg/storage"
)

func (s *Store) StorePolicyResult(ctx context.Context, nodeID uuid.UUID, ruleID string, result *policy.ExecutionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policyRes[nodeID] = append(s.policyRes[nodeID], *result)
	return nil
}

func (s *Store) GetPolicyResults(ctx context.Context, nodeID uuid.UUID) ([]policy.ExecutionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]policy.ExecutionResult{}, s.policyRes[nodeID]...)
	return out, nil
}

// GetLatestPolicyResults returns the most recent result per rule id.
func (s *Store) GetLatestPolicyResults(ctx context.Context, nodeID uuid.UUID) ([]policy.ExecutionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	latest := map[string]policy.ExecutionResult{}
	for _, r := range s.policyRes[nodeID] {
		latest[r.RuleRef] = r
	}
	out := make([]policy.ExecutionResult, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) GetRuleResults(ctx context.Context, ruleID string) ([]storage.NodeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []storage.NodeResult
	for nodeID, results := range s.policyRes {
		for _, r := range results {
			if r.RuleRef == ruleID {
				out = append(out, storage.NodeResult{NodeID: nodeID, Result: r})
			}
		}
	}
	return out, nil
}

// RecordChange is a no-op: the tabular backend has no change-tracking
// table (spec.md's relational-only configuration_changes schema).
func (s *Store) RecordChange(ctx context.Context, change policy.ChangeRecord) error {
	return nil
}

// RecordTemplateUsage is a no-op for the same reason.
func (s *Store) RecordTemplateUsage(ctx context.Context, usage policy.TemplateUsage) error {
	return nil
}
