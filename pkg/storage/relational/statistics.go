package relational

import (
	"context"

	"github.com/unet-io/unet/pkg/errcode"
)

func (s *Store) GetEntityCounts(ctx context.Context) (map[string]int, error) {
	counts := map[string]int{}
	for table, key := range map[string]string{"nodes": "nodes", "links": "links", "locations": "locations"} {
		var n int
		if err := s.conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
			return nil, errcode.ConnectionError{Message: err.Error()}
		}
		counts[key] = n
	}
	return counts, nil
}

func (s *Store) GetStatistics(ctx context.Context) (map[string]any, error) {
	counts, err := s.GetEntityCounts(ctx)
	if err != nil {
		return nil, err
	}

	var policyResultCount, changeCount int
	if err := s.conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM policy_results`).Scan(&policyResultCount); err != nil {
		return nil, errcode.ConnectionError{Message: err.Error()}
	}
	if err := s.conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM configuration_changes`).Scan(&changeCount); err != nil {
		return nil, errcode.ConnectionError{Message: err.Error()}
	}

	return map[string]any{
		"backend":             s.Name(),
		"entity_counts":       counts,
		"policy_result_count": policyResultCount,
		"change_count":        changeCount,
	}, nil
}
