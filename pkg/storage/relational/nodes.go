package relational

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
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
	customData, err := marshalCustomData(node.CustomData)
	if err != nil {
		return nil, err
	}
	_, err = s.conn().ExecContext(ctx, `
		INSERT INTO nodes (id, name, domain, vendor, model, role, lifecycle, management_ip,
			location_id, platform, version, serial, asset_tag, purchase_date, warranty_expiry, custom_data_json)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		node.ID.String(), node.Name, node.Domain, string(node.Vendor), node.Model, string(node.Role),
		string(node.Lifecycle), node.ManagementIP, nullableUUID(node.LocationID), node.Platform,
		node.Version, node.Serial, node.AssetTag, node.PurchaseDate, node.WarrantyExpiry, customData)
	if err != nil {
		return nil, wrapWriteErr("node", err)
	}
	copied := *node
	return &copied, nil
}

func (s *Store) scanNode(row *sql.Rows) (*types.Node, error) {
	var n types.Node
	var id, vendor, role, lifecycle string
	var locationID sql.NullString
	var customData sql.NullString
	if err := row.Scan(&id, &n.Name, &n.Domain, &vendor, &n.Model, &role, &lifecycle, &n.ManagementIP,
		&locationID, &n.Platform, &n.Version, &n.Serial, &n.AssetTag, &n.PurchaseDate, &n.WarrantyExpiry, &customData); err != nil {
		return nil, errcode.SerializationError{Message: err.Error()}
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, errcode.SerializationError{Message: "bad node id in database: " + id}
	}
	n.ID = parsed
	n.Vendor = types.Vendor(vendor)
	n.Role = types.NodeRole(role)
	n.Lifecycle = types.NodeLifecycle(lifecycle)
	if locationID.Valid {
		locID, err := uuid.Parse(locationID.String)
		if err == nil {
			n.LocationID = &locID
		}
	}
	if customData.Valid && customData.String != "" {
		n.CustomData = unmarshalCustomData(customData.String)
	}
	return &n, nil
}

const nodeColumns = `id, name, domain, vendor, model, role, lifecycle, management_ip,
	location_id, platform, version, serial, asset_tag, purchase_date, warranty_expiry, custom_data_json`

func (s *Store) GetNode(ctx context.Context, id uuid.UUID) (*types.Node, error) {
	rows, err := s.conn().QueryContext(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE id = ?`, id.String())
	if err != nil {
		return nil, errcode.ConnectionError{Message: err.Error()}
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, nil
	}
	return s.scanNode(rows)
}

func (s *Store) GetNodeRequired(ctx context.Context, id uuid.UUID) (*types.Node, error) {
	n, err := s.GetNode(ctx, id)
	return storage.NotFound("node", id.String(), n, err)
}

func (s *Store) ListNodes(ctx context.Context, opts storage.QueryOptions) (storage.PagedResult[types.Node], error) {
	where, args := buildWhere(opts.Filters)
	orderBy := buildOrderBy(opts.Sort, "name")

	var total int
	countQuery := `SELECT COUNT(*) FROM nodes` + where
	if err := s.conn().QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return storage.PagedResult[types.Node]{}, errcode.ConnectionError{Message: err.Error()}
	}

	query := `SELECT ` + nodeColumns + ` FROM nodes` + where + orderBy + buildLimitOffset(opts.Pagination)
	rows, err := s.conn().QueryContext(ctx, query, args...)
	if err != nil {
		return storage.PagedResult[types.Node]{}, errcode.ConnectionError{Message: err.Error()}
	}
	defer rows.Close()

	var items []types.Node
	for rows.Next() {
		n, err := s.scanNode(rows)
		if err != nil {
			return storage.PagedResult[types.Node]{}, err
		}
		items = append(items, *n)
	}
	return storage.NewPagedResult(items, total, opts.Pagination), nil
}

func (s *Store) UpdateNode(ctx context.Context, node *types.Node) (*types.Node, error) {
	if err := node.Validate(); err != nil {
		return nil, err
	}
	customData, err := marshalCustomData(node.CustomData)
	if err != nil {
		return nil, err
	}
	result, err := s.conn().ExecContext(ctx, `
		UPDATE nodes SET name=?, domain=?, vendor=?, model=?, role=?, lifecycle=?, management_ip=?,
			location_id=?, platform=?, version=?, serial=?, asset_tag=?, purchase_date=?, warranty_expiry=?, custom_data_json=?
		WHERE id=?`,
		node.Name, node.Domain, string(node.Vendor), node.Model, string(node.Role), string(node.Lifecycle),
		node.ManagementIP, nullableUUID(node.LocationID), node.Platform, node.Version, node.Serial,
		node.AssetTag, node.PurchaseDate, node.WarrantyExpiry, customData, node.ID.String())
	if err != nil {
		return nil, wrapWriteErr("node", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, errcode.NotFoundError{EntityType: "node", ID: node.ID.String()}
	}
	copied := *node
	return &copied, nil
}

func (s *Store) DeleteNode(ctx context.Context, id uuid.UUID) error {
	result, err := s.conn().ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id.String())
	if err != nil {
		return wrapWriteErr("node", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errcode.NotFoundError{EntityType: "node", ID: id.String()}
	}
	return nil
}

func (s *Store) GetNodesByLocation(ctx context.Context, locationID uuid.UUID) ([]types.Node, error) {
	rows, err := s.conn().QueryContext(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE location_id = ?`, locationID.String())
	if err != nil {
		return nil, errcode.ConnectionError{Message: err.Error()}
	}
	defer rows.Close()
	var out []types.Node
	for rows.Next() {
		n, err := s.scanNode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, nil
}

func (s *Store) SearchNodesByName(ctx context.Context, name string) ([]types.Node, error) {
	rows, err := s.conn().QueryContext(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE name LIKE ?`, "%"+name+"%")
	if err != nil {
		return nil, errcode.ConnectionError{Message: err.Error()}
	}
	defer rows.Close()
	var out []types.Node
	for rows.Next() {
		n, err := s.scanNode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, nil
}

func (s *Store) GetNodeAsContext(ctx context.Context, nodeID uuid.UUID) (map[string]any, error) {
	n, err := s.GetNode(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, errcode.NotFoundError{EntityType: "node", ID: nodeID.String()}
	}
	return map[string]any{
		"node": map[string]any{
			"id":                n.ID.String(),
			"name":              n.Name,
			"domain":            n.Domain,
			"fqdn":              n.FQDN(),
			"vendor":            string(n.Vendor),
			"model":             n.Model,
			"role":              string(n.Role),
			"lifecycle":         string(n.Lifecycle),
			"management_ip":     n.ManagementIP,
			"has_management_ip": n.HasManagementIP(),
			"has_location":      n.HasLocation(),
			"platform":          n.Platform,
			"version":           n.Version,
			"serial":            n.Serial,
			"asset_tag":         n.AssetTag,
		},
		"custom_data": n.CustomData,
	}, nil
}

func (s *Store) UpdateNodeCustomData(ctx context.Context, nodeID uuid.UUID, customData any) error {
	data, err := marshalCustomData(customData)
	if err != nil {
		return err
	}
	result, err := s.conn().ExecContext(ctx, `UPDATE nodes SET custom_data_json = ? WHERE id = ?`, data, nodeID.String())
	if err != nil {
		return wrapWriteErr("node", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errcode.NotFoundError{EntityType: "node", ID: nodeID.String()}
	}
	return nil
}

func (s *Store) UpdateNodeField(ctx context.Context, nodeID uuid.UUID, field string, value any) error {
	column, ok := nodeFieldColumns[field]
	if !ok {
		return errcode.ValidationError{Field: field, Message: "unknown or non-updatable node field"}
	}
	result, err := s.conn().ExecContext(ctx, fmt.Sprintf(`UPDATE nodes SET %s = ? WHERE id = ?`, column), value, nodeID.String())
	if err != nil {
		return wrapWriteErr("node", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errcode.NotFoundError{EntityType: "node", ID: nodeID.String()}
	}
	return nil
}

var nodeFieldColumns = map[string]string{
	"name":          "name",
	"domain":        "domain",
	"vendor":        "vendor",
	"role":          "role",
	"lifecycle":     "lifecycle",
	"management_ip": "management_ip",
	"platform":      "platform",
	"version":       "version",
	"serial":        "serial",
	"asset_tag":     "asset_tag",
}

func (s *Store) GetNodesForPolicyEvaluation(ctx context.Context) ([]types.Node, error) {
	rows, err := s.conn().QueryContext(ctx, `SELECT `+nodeColumns+` FROM nodes`)
	if err != nil {
		return nil, errcode.ConnectionError{Message: err.Error()}
	}
	defer rows.Close()
	var out []types.Node
	for rows.Next() {
		n, err := s.scanNode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, nil
}

func marshalCustomData(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errcode.SerializationError{Message: err.Error()}
	}
	return string(data), nil
}

// unmarshalCustomData decodes a custom_data_json column back to a Go
// value, swallowing decode errors (treated the same as absent data).
func unmarshalCustomData(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil
	}
	return v
}

func nullableUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func wrapWriteErr(entity string, err error) error {
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint") || strings.Contains(msg, "FOREIGN KEY constraint") {
		return errcode.ConstraintViolationError{Message: entity + ": " + msg}
	}
	return errcode.ConnectionError{Message: msg}
}
