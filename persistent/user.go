package persistent

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	activity "github.com/rbrinkke/activity-api"
	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:app_user"`

	Id        uuid.UUID `bun:"id,pk,type:uuid"`
	Username  string    `bun:",notnull,unique"`
	FirstName string
	PhotoUrl  string
	Verified  bool `bun:",notnull,default:false"`
}

func (u *User) ToDomain() activity.User {
	return activity.User{
		Id:        u.Id,
		Username:  u.Username,
		FirstName: u.FirstName,
		PhotoUrl:  u.PhotoUrl,
		Verified:  u.Verified,
	}
}

type UserStore struct {
	DB bun.IDB
}

var _ activity.UserStore = (*UserStore)(nil)

func (s *UserStore) ByIds(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]activity.User, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]activity.User{}, nil
	}
	var models []User
	err := s.DB.NewSelect().
		Model(&models).
		Where(`app_user.id IN (?)`, bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}

	users := make(map[uuid.UUID]activity.User, len(models))
	for i := range models {
		users[models[i].Id] = models[i].ToDomain()
	}
	return users, nil
}
