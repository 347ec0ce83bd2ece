package tabular

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/unet-io/unet/pkg/errcode"
	"github.com/unet-io/unet/pkg/storage"
	"github.com/unet-io/unet/pkg/types"
)

func (s *Store) CreateNode(ctx context.Context, node *types.Node) (*types.Node, error) {
	if err := node.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.nodes[node.ID]; exists {
		return nil, errcode.ConstraintViolationError{Message: "node already exists: " + node.ID.String()}
	}
	copied := *node
	s.nodes[node.ID] = &copied
	if err := s.persistNodes(); err != nil {
		return nil, err
	}
	return &copied, nil
}

func (s *Store) GetNode(ctx context.Context, id uuid.UUID) (*types.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return nil, nil
	}
	copied := *n
	return &copied, nil
}

func (s *Store) GetNodeRequired(ctx context.Context, id uuid.UUID) (*types.Node, error) {
	n, err := s.GetNode(ctx, id)
	return storage.NotFound("node", id.String(), n, err)
}

func (s *Store) ListNodes(ctx context.Context, opts storage.QueryOptions) (storage.PagedResult[types.Node], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]*types.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		items = append(items, n)
	}
	items = applyFilters(items, opts.Filters)
	applySort(items, opts.Sort)
	total := len(items)
	items = applyPagination(items, opts.Pagination)

	out := make([]types.Node, len(items))
	for i, n := range items {
		out[i] = *n
	}
	return storage.NewPagedResult(out, total, opts.Pagination), nil
}

func (s *Store) UpdateNode(ctx context.Context, node *types.Node) (*types.Node, error) {
	if err := node.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.nodes[node.ID]; !exists {
		return nil, errcode.NotFoundError{EntityType: "node", ID: node.ID.String()}
	}
	copied := *node
	s.nodes[node.ID] = &copied
	if err := s.persistNodes(); err != nil {
		return nil, err
	}
	return &copied, nil
}

func (s *Store) DeleteNode(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.nodes[id]; !exists {
		return errcode.NotFoundError{EntityType: "node", ID: id.String()}
	}
	delete(s.nodes, id)
	delete(s.systemInfo, id)
	delete(s.ifMetrics, id)
	delete(s.policyRes, id)
	// Tabular has no cross-kind FK enforcement (spec.md §4.3): links
	// referencing this node are left as-is for the caller to reconcile.
	return s.persistNodes()
}

func (s *Store) GetNodesByLocation(ctx context.Context, locationID uuid.UUID) ([]types.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.Node
	for _, n := range s.nodes {
		if n.LocationID != nil && *n.LocationID == locationID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (s *Store) SearchNodesByName(ctx context.Context, name string) ([]types.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := strings.ToLower(name)
	var out []types.Node
	for _, n := range s.nodes {
		if strings.Contains(strings.ToLower(n.Name), needle) {
			out = append(out, *n)
		}
	}
	return out, nil
}

// GetNodeAsContext renders a node as the JSON-document-shaped map the
// policy evaluator resolves field paths against (spec.md §4.8).
func (s *Store) GetNodeAsContext(ctx context.Context, nodeID uuid.UUID) (map[string]any, error) {
	s.mu.RLock()
	n, ok := s.nodes[nodeID]
	s.mu.RUnlock()
	if !ok {
		return nil, errcode.NotFoundError{EntityType: "node", ID: nodeID.String()}
	}

	data, err := json.Marshal(n)
	if err != nil {
		return nil, errcode.SerializationError{Message: err.Error()}
	}
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, errcode.SerializationError{Message: err.Error()}
	}

	customData, _ := flat["CustomData"]
	delete(flat, "CustomData")
	node := lowercaseKeys(flat)
	node["fqdn"] = n.FQDN()
	node["has_management_ip"] = n.HasManagementIP()
	node["has_location"] = n.HasLocation()
	return map[string]any{
		"node":        node,
		"custom_data": customData,
	}, nil
}

func lowercaseKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[toSnakeCase(k)] = v
	}
	return out
}

// toSnakeCase converts Go's exported-field PascalCase to snake_case,
// treating a run of uppercase letters (an acronym like "IP" or "ID")
// as a single word rather than splitting every letter.
func toSnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			if prevLower || (nextLower && runes[i-1] != '_') {
				b.WriteByte('_')
			}
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

func (s *Store) UpdateNodeCustomData(ctx context.Context, nodeID uuid.UUID, customData any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[nodeID]
	if !ok {
		return errcode.NotFoundError{EntityType: "node", ID: nodeID.String()}
	}
	n.CustomData = customData
	return s.persistNodes()
}

func (s *Store) UpdateNodeField(ctx context.Context, nodeID uuid.UUID, field string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[nodeID]
	if !ok {
		return errcode.NotFoundError{EntityType: "node", ID: nodeID.String()}
	}
	str, _ := value.(string)
	switch field {
	case "name":
		n.Name = str
	case "domain":
		n.Domain = str
	case "vendor":
		n.Vendor = types.Vendor(str)
	case "role":
		n.Role = types.NodeRole(str)
	case "lifecycle":
		n.Lifecycle = types.NodeLifecycle(str)
	case "management_ip":
		n.ManagementIP = str
	case "platform":
		n.Platform = str
	case "version":
		n.Version = str
	case "serial":
		n.Serial = str
	case "asset_tag":
		n.AssetTag = str
	default:
		return errcode.ValidationError{Field: field, Message: "unknown or non-updatable node field"}
	}
	return s.persistNodes()
}

func (s *Store) GetNodesForPolicyEvaluation(ctx context.Context) ([]types.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, *n)
	}
	return out, nil
}
