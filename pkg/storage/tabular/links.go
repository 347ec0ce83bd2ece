package tabular

import (
	"context"

	"github.com/google/uuid"

	"github.com/unet-io/unet/pkg/errcode"
	"github.com/unet-io/unet/pkg/storage"
	"github.com/unet-io/unet/pkg/types"
)

func (s *Store) CreateLink(ctx context.Context, link *types.Link) (*types.Link, error) {
	if err := link.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.links[link.ID]; exists {
		return nil, errcode.ConstraintViolationError{Message: "link already exists: " + link.ID.String()}
	}
	copied := *link
	s.links[link.ID] = &copied
	if err := s.persistLinks(); err != nil {
		return nil, err
	}
	return &copied, nil
}

func (s *Store) GetLink(ctx context.Context, id uuid.UUID) (*types.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.links[id]
	if !ok {
		return nil, nil
	}
	copied := *l
	return &copied, nil
}

func (s *Store) GetLinkRequired(ctx context.Context, id uuid.UUID) (*types.Link, error) {
	l, err := s.GetLink(ctx, id)
	return storage.NotFound("link", id.String(), l, err)
}

func (s *Store) ListLinks(ctx context.Context, opts storage.QueryOptions) (storage.PagedResult[types.Link], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]*types.Link, 0, len(s.links))
	for _, l := range s.links {
		items = append(items, l)
	}
	items = applyFilters(items, opts.Filters)
	applySort(items, opts.Sort)
	total := len(items)
	items = applyPagination(items, opts.Pagination)

	out := make([]types.Link, len(items))
	for i, l := range items {
		out[i] = *l
	}
	return storage.NewPagedResult(out, total, opts.Pagination), nil
}

func (s *Store) UpdateLink(ctx context.Context, link *types.Link) (*types.Link, error) {
	if err := link.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.links[link.ID]; !exists {
		return nil, errcode.NotFoundError{EntityType: "link", ID: link.ID.String()}
	}
	copied := *link
	s.links[link.ID] = &copied
	if err := s.persistLinks(); err != nil {
		return nil, err
	}
	return &copied, nil
}

func (s *Store) DeleteLink(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.links[id]; !exists {
		return errcode.NotFoundError{EntityType: "link", ID: id.String()}
	}
	delete(s.links, id)
	return s.persistLinks()
}

func (s *Store) GetLinksForNode(ctx context.Context, nodeID uuid.UUID) ([]types.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.Link
	for _, l := range s.links {
		if l.InvolvesNode(nodeID) {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (s *Store) GetLinksBetweenNodes(ctx context.Context, a, b uuid.UUID) ([]types.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.Link
	for _, l := range s.links {
		if l.ConnectsNodes(a, b) {
			out = append(out, *l)
		}
	}
	return out, nil
}
