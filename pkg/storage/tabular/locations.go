package tabular

import (
	"context"

	"github.com/google/uuid"

	"github.com/unet-io/unet/pkg/errcode"
	"github.com/unet-io/unet/pkg/storage"
	"github.com/unet-io/unet/pkg/types"
)

func (s *Store) CreateLocation(ctx context.Context, location *types.Location) (*types.Location, error) {
	if err := location.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.locations[location.ID]; exists {
		return nil, errcode.ConstraintViolationError{Message: "location already exists: " + location.ID.String()}
	}
	copied := *location
	s.locations[location.ID] = &copied
	if err := s.persistLocations(); err != nil {
		return nil, err
	}
	return &copied, nil
}

func (s *Store) GetLocation(ctx context.Context, id uuid.UUID) (*types.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.locations[id]
	if !ok {
		return nil, nil
	}
	copied := *l
	return &copied, nil
}

func (s *Store) GetLocationRequired(ctx context.Context, id uuid.UUID) (*types.Location, error) {
	l, err := s.GetLocation(ctx, id)
	return storage.NotFound("location", id.String(), l, err)
}

func (s *Store) ListLocations(ctx context.Context, opts storage.QueryOptions) (storage.PagedResult[types.Location], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]*types.Location, 0, len(s.locations))
	for _, l := range s.locations {
		items = append(items, l)
	}
	items = applyFilters(items, opts.Filters)
	applySort(items, opts.Sort)
	total := len(items)
	items = applyPagination(items, opts.Pagination)

	out := make([]types.Location, len(items))
	for i, l := range items {
		out[i] = *l
	}
	return storage.NewPagedResult(out, total, opts.Pagination), nil
}

func (s *Store) UpdateLocation(ctx context.Context, location *types.Location) (*types.Location, error) {
	if err := location.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.locations[location.ID]; !exists {
		return nil, errcode.NotFoundError{EntityType: "location", ID: location.ID.String()}
	}
	copied := *location
	s.locations[location.ID] = &copied
	if err := s.persistLocations(); err != nil {
		return nil, err
	}
	return &copied, nil
}

func (s *Store) DeleteLocation(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.locations[id]; !exists {
		return errcode.NotFoundError{EntityType: "location", ID: id.String()}
	}
	for _, l := range s.locations {
		if l.ParentID != nil && *l.ParentID == id {
			return errcode.ConstraintViolationError{Message: "cannot delete location with children: " + id.String()}
		}
	}
	delete(s.locations, id)
	return s.persistLocations()
}
