package tabular

import (
	"context"

	"github.com/google/uuid"

	"github.com/unet-io/unet/pkg/storage"
	"github.com/unet-io/unet/pkg/types"
)

// txn snapshots the three in-memory tables at BeginTransaction time.
// Mutations during the transaction apply (and persist) immediately, as
// the tabular backend has no write-ahead log; Rollback restores the
// snapshot and rewrites the CSV files to match.
type txn struct {
	store     *Store
	nodes     map[uuid.UUID]*types.Node
	links     map[uuid.UUID]*types.Link
	locations map[uuid.UUID]*types.Location
}

func (s *Store) BeginTransaction(ctx context.Context) (storage.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &txn{
		store:     s,
		nodes:     cloneMap(s.nodes),
		links:     cloneMap(s.links),
		locations: cloneMap(s.locations),
	}, nil
}

func cloneMap[T any](m map[uuid.UUID]*T) map[uuid.UUID]*T {
	out := make(map[uuid.UUID]*T, len(m))
	for k, v := range m {
		copied := *v
		out[k] = &copied
	}
	return out
}

func (t *txn) Commit(ctx context.Context) error {
	return nil
}

func (t *txn) Rollback(ctx context.Context) error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = t.nodes
	s.links = t.links
	s.locations = t.locations
	if err := s.persistNodes(); err != nil {
		return err
	}
	if err := s.persistLinks(); err != nil {
		return err
	}
	return s.persistLocations()
}
