package relational

import (
	"context"

	"github.com/unet-io/unet/pkg/storage"
	"github.com/unet-io/unet/pkg/types"
)

func (s *Store) BatchNodes(ctx context.Context, ops []storage.BatchOperation[types.Node]) (storage.BatchResult, error) {
	var result storage.BatchResult
	for _, op := range ops {
		var err error
		switch op.Op {
		case storage.BatchInsert:
			_, err = s.CreateNode(ctx, op.Entity)
		case storage.BatchUpdate:
			_, err = s.UpdateNode(ctx, op.Entity)
		case storage.BatchDelete:
			id, parseErr := parseID(op.ID)
			if parseErr != nil {
				err = parseErr
			} else {
				err = s.DeleteNode(ctx, id)
			}
		}
		recordOutcome(&result, err)
	}
	return result, nil
}

func (s *Store) BatchLinks(ctx context.Context, ops []storage.BatchOperation[types.Link]) (storage.BatchResult, error) {
	var result storage.BatchResult
	for _, op := range ops {
		var err error
		switch op.Op {
		case storage.BatchInsert:
			_, err = s.CreateLink(ctx, op.Entity)
		case storage.BatchUpdate:
			_, err = s.UpdateLink(ctx, op.Entity)
		case storage.BatchDelete:
			id, parseErr := parseID(op.ID)
			if parseErr != nil {
				err = parseErr
			} else {
				err = s.DeleteLink(ctx, id)
			}
		}
		recordOutcome(&result, err)
	}
	return result, nil
}

func (s *Store) BatchLocations(ctx context.Context, ops []storage.BatchOperation[types.Location]) (storage.BatchResult, error) {
	var result storage.BatchResult
	for _, op := range ops {
		var err error
		switch op.Op {
		case storage.BatchInsert:
			_, err = s.CreateLocation(ctx, op.Entity)
		case storage.BatchUpdate:
			_, err = s.UpdateLocation(ctx, op.Entity)
		case storage.BatchDelete:
			id, parseErr := parseID(op.ID)
			if parseErr != nil {
				err = parseErr
			} else {
				err = s.DeleteLocation(ctx, id)
			}
		}
		recordOutcome(&result, err)
	}
	return result, nil
}

func recordOutcome(result *storage.BatchResult, err error) {
	if err != nil {
		result.ErrorCount++
		result.Errors = append(result.Errors, err.Error())
		return
	}
	result.SuccessCount++
}
