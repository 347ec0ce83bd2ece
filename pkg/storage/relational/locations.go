package relational

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/unet-io/unet/pkg/errcode"
	"github.com/unet-io/unet/pkg/storage"
	"github.com/unet-io/unet/pkg/types"
)

const locationColumns = `id, name, location_type, parent_id, path, description, address, custom_data_json`

func (s *Store) CreateLocation(ctx context.Context, location *types.Location) (*types.Location, error) {
	if err := location.Validate(); err != nil {
		return nil, err
	}
	customData, err := marshalCustomData(location.CustomData)
	if err != nil {
		return nil, err
	}
	_, err = s.conn().ExecContext(ctx, `
		INSERT INTO locations (`+locationColumns+`)
		VALUES (?,?,?,?,?,?,?,?)`,
		location.ID.String(), location.Name, location.LocationType, nullableUUID(location.ParentID),
		location.Path, location.Description, location.Address, customData)
	if err != nil {
		return nil, wrapWriteErr("location", err)
	}
	copied := *location
	return &copied, nil
}

func (s *Store) scanLocation(row *sql.Rows) (*types.Location, error) {
	var l types.Location
	var id string
	var parentID sql.NullString
	var customData sql.NullString
	if err := row.Scan(&id, &l.Name, &l.LocationType, &parentID, &l.Path, &l.Description, &l.Address, &customData); err != nil {
		return nil, errcode.SerializationError{Message: err.Error()}
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, errcode.SerializationError{Message: "bad location id in database: " + id}
	}
	l.ID = parsed
	if parentID.Valid {
		pid, err := uuid.Parse(parentID.String)
		if err == nil {
			l.ParentID = &pid
		}
	}
	if customData.Valid && customData.String != "" {
		l.CustomData = unmarshalCustomData(customData.String)
	}
	return &l, nil
}

func (s *Store) GetLocation(ctx context.Context, id uuid.UUID) (*types.Location, error) {
	rows, err := s.conn().QueryContext(ctx, `SELECT `+locationColumns+` FROM locations WHERE id = ?`, id.String())
	if err != nil {
		return nil, errcode.ConnectionError{Message: err.Error()}
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, nil
	}
	return s.scanLocation(rows)
}

func (s *Store) GetLocationRequired(ctx context.Context, id uuid.UUID) (*types.Location, error) {
	l, err := s.GetLocation(ctx, id)
	return storage.NotFound("location", id.String(), l, err)
}

func (s *Store) ListLocations(ctx context.Context, opts storage.QueryOptions) (storage.PagedResult[types.Location], error) {
	where, args := buildWhere(opts.Filters)
	orderBy := buildOrderBy(opts.Sort, "path")

	var total int
	if err := s.conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM locations`+where, args...).Scan(&total); err != nil {
		return storage.PagedResult[types.Location]{}, errcode.ConnectionError{Message: err.Error()}
	}

	query := `SELECT ` + locationColumns + ` FROM locations` + where + orderBy + buildLimitOffset(opts.Pagination)
	rows, err := s.conn().QueryContext(ctx, query, args...)
	if err != nil {
		return storage.PagedResult[types.Location]{}, errcode.ConnectionError{Message: err.Error()}
	}
	defer rows.Close()

	var items []types.Location
	for rows.Next() {
		l, err := s.scanLocation(rows)
		if err != nil {
			return storage.PagedResult[types.Location]{}, err
		}
		items = append(items, *l)
	}
	return storage.NewPagedResult(items, total, opts.Pagination), nil
}

func (s *Store) UpdateLocation(ctx context.Context, location *types.Location) (*types.Location, error) {
	if err := location.Validate(); err != nil {
		return nil, err
	}
	customData, err := marshalCustomData(location.CustomData)
	if err != nil {
		return nil, err
	}
	result, err := s.conn().ExecContext(ctx, `
		UPDATE locations SET name=?, location_type=?, parent_id=?, path=?, description=?, address=?, custom_data_json=?
		WHERE id=?`,
		location.Name, location.LocationType, nullableUUID(location.ParentID), location.Path,
		location.Description, location.Address, customData, location.ID.String())
	if err != nil {
		return nil, wrapWriteErr("location", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, errcode.NotFoundError{EntityType: "location", ID: location.ID.String()}
	}
	copied := *location
	return &copied, nil
}

// DeleteLocation refuses to delete a location with children, the same
// as the tabular backend; the schema additionally has ON DELETE
// RESTRICT on locations.parent_id as a second line of defense.
func (s *Store) DeleteLocation(ctx context.Context, id uuid.UUID) error {
	var childCount int
	if err := s.conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM locations WHERE parent_id = ?`, id.String()).Scan(&childCount); err != nil {
		return errcode.ConnectionError{Message: err.Error()}
	}
	if childCount > 0 {
		return errcode.ConstraintViolationError{Message: "cannot delete location with children: " + id.String()}
	}
	result, err := s.conn().ExecContext(ctx, `DELETE FROM locations WHERE id = ?`, id.String())
	if err != nil {
		return wrapWriteErr("location", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errcode.NotFoundError{EntityType: "location", ID: id.String()}
	}
	return nil
}
