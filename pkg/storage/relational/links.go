package relational

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/unet-io/unet/pkg/errcode"
	"github.com/unet-io/unet/pkg/storage"
	"github.com/unet-io/unet/pkg/types"
)

const linkColumns = `id, name, source_node_id, node_a_interface, dest_node_id, node_z_interface,
	description, bandwidth_bps, link_type, is_internet_circuit, custom_data_json`

func (s *Store) CreateLink(ctx context.Context, link *types.Link) (*types.Link, error) {
	if err := link.Validate(); err != nil {
		return nil, err
	}
	customData, err := marshalCustomData(link.CustomData)
	if err != nil {
		return nil, err
	}
	_, err = s.conn().ExecContext(ctx, `
		INSERT INTO links (`+linkColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		link.ID.String(), link.Name, link.SourceNodeID.String(), link.NodeAInterface,
		nullableUUID(link.DestNodeID), nullableString(link.NodeZInterface), link.Description,
		nullableUint64(link.BandwidthBps), link.LinkType, boolToInt(link.IsInternetCircuit), customData)
	if err != nil {
		return nil, wrapWriteErr("link", err)
	}
	copied := *link
	return &copied, nil
}

func (s *Store) scanLink(row *sql.Rows) (*types.Link, error) {
	var l types.Link
	var id, sourceNodeID string
	var destNodeID, nodeZInterface sql.NullString
	var bandwidth sql.NullInt64
	var isInternet int
	var customData sql.NullString
	if err := row.Scan(&id, &l.Name, &sourceNodeID, &l.NodeAInterface, &destNodeID, &nodeZInterface,
		&l.Description, &bandwidth, &l.LinkType, &isInternet, &customData); err != nil {
		return nil, errcode.SerializationError{Message: err.Error()}
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, errcode.SerializationError{Message: "bad link id in database: " + id}
	}
	l.ID = parsed
	src, err := uuid.Parse(sourceNodeID)
	if err != nil {
		return nil, errcode.SerializationError{Message: "bad source node id in database: " + sourceNodeID}
	}
	l.SourceNodeID = src
	if destNodeID.Valid {
		dst, err := uuid.Parse(destNodeID.String)
		if err == nil {
			l.DestNodeID = &dst
		}
	}
	if nodeZInterface.Valid {
		v := nodeZInterface.String
		l.NodeZInterface = &v
	}
	if bandwidth.Valid {
		bw := uint64(bandwidth.Int64)
		l.BandwidthBps = &bw
	}
	l.IsInternetCircuit = isInternet != 0
	if customData.Valid && customData.String != "" {
		l.CustomData = unmarshalCustomData(customData.String)
	}
	return &l, nil
}

func (s *Store) GetLink(ctx context.Context, id uuid.UUID) (*types.Link, error) {
	rows, err := s.conn().QueryContext(ctx, `SELECT `+linkColumns+` FROM links WHERE id = ?`, id.String())
	if err != nil {
		return nil, errcode.ConnectionError{Message: err.Error()}
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, nil
	}
	return s.scanLink(rows)
}

func (s *Store) GetLinkRequired(ctx context.Context, id uuid.UUID) (*types.Link, error) {
	l, err := s.GetLink(ctx, id)
	return storage.NotFound("link", id.String(), l, err)
}

func (s *Store) ListLinks(ctx context.Context, opts storage.QueryOptions) (storage.PagedResult[types.Link], error) {
	where, args := buildWhere(opts.Filters)
	orderBy := buildOrderBy(opts.Sort, "name")

	var total int
	if err := s.conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM links`+where, args...).Scan(&total); err != nil {
		return storage.PagedResult[types.Link]{}, errcode.ConnectionError{Message: err.Error()}
	}

	query := `SELECT ` + linkColumns + ` FROM links` + where + orderBy + buildLimitOffset(opts.Pagination)
	rows, err := s.conn().QueryContext(ctx, query, args...)
	if err != nil {
		return storage.PagedResult[types.Link]{}, errcode.ConnectionError{Message: err.Error()}
	}
	defer rows.Close()

	var items []types.Link
	for rows.Next() {
		l, err := s.scanLink(rows)
		if err != nil {
			return storage.PagedResult[types.Link]{}, err
		}
		items = append(items, *l)
	}
	return storage.NewPagedResult(items, total, opts.Pagination), nil
}

func (s *Store) UpdateLink(ctx context.Context, link *types.Link) (*types.Link, error) {
	if err := link.Validate(); err != nil {
		return nil, err
	}
	customData, err := marshalCustomData(link.CustomData)
	if err != nil {
		return nil, err
	}
	result, err := s.conn().ExecContext(ctx, `
		UPDATE links SET name=?, source_node_id=?, node_a_interface=?, dest_node_id=?, node_z_interface=?,
			description=?, bandwidth_bps=?, link_type=?, is_internet_circuit=?, custom_data_json=?
		WHERE id=?`,
		link.Name, link.SourceNodeID.String(), link.NodeAInterface, nullableUUID(link.DestNodeID),
		nullableString(link.NodeZInterface), link.Description, nullableUint64(link.BandwidthBps),
		link.LinkType, boolToInt(link.IsInternetCircuit), customData, link.ID.String())
	if err != nil {
		return nil, wrapWriteErr("link", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, errcode.NotFoundError{EntityType: "link", ID: link.ID.String()}
	}
	copied := *link
	return &copied, nil
}

func (s *Store) DeleteLink(ctx context.Context, id uuid.UUID) error {
	result, err := s.conn().ExecContext(ctx, `DELETE FROM links WHERE id = ?`, id.String())
	if err != nil {
		return wrapWriteErr("link", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errcode.NotFoundError{EntityType: "link", ID: id.String()}
	}
	return nil
}

func (s *Store) GetLinksForNode(ctx context.Context, nodeID uuid.UUID) ([]types.Link, error) {
	rows, err := s.conn().QueryContext(ctx, `SELECT `+linkColumns+` FROM links WHERE source_node_id = ? OR dest_node_id = ?`,
		nodeID.String(), nodeID.String())
	if err != nil {
		return nil, errcode.ConnectionError{Message: err.Error()}
	}
	defer rows.Close()
	var out []types.Link
	for rows.Next() {
		l, err := s.scanLink(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, nil
}

func (s *Store) GetLinksBetweenNodes(ctx context.Context, a, b uuid.UUID) ([]types.Link, error) {
	rows, err := s.conn().QueryContext(ctx, `SELECT `+linkColumns+` FROM links
		WHERE (source_node_id = ? AND dest_node_id = ?) OR (source_node_id = ? AND dest_node_id = ?)`,
		a.String(), b.String(), b.String(), a.String())
	if err != nil {
		return nil, errcode.ConnectionError{Message: err.Error()}
	}
	defer rows.Close()
	var out []types.Link
	for rows.Next() {
		l, err := s.scanLink(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullableUint64(v *uint64) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
