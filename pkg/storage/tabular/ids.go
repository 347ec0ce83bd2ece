package tabular

import (
	"github.com/google/uuid"

	"github.com/unet-io/unet/pkg/errcode"
)

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.UUID{}, errcode.ValidationError{Field: "id", Message: "invalid id: " + s}
	}
	return id, nil
}
