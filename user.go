package activity

import (
	"context"

	"github.com/google/uuid"
)

type User struct {
	Id        uuid.UUID
	Username  string
	FirstName string
	PhotoUrl  string
	Verified  bool
}

type UserStore interface {
	// ByIds returns the users found, keyed by id. Missing ids are simply
	// absent from the map.
	ByIds(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]User, error)
}
