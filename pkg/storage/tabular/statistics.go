package tabular

import "context"

func (s *Store) GetEntityCounts(ctx context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]int{
		"nodes":     len(s.nodes),
		"links":     len(s.links),
		"locations": len(s.locations),
	}, nil
}

func (s *Store) GetStatistics(ctx context.Context) (map[string]any, error) {
	counts, _ := s.GetEntityCounts(ctx)
	return map[string]any{
		"backend":        s.Name(),
		"entity_counts":  counts,
	}, nil
}
