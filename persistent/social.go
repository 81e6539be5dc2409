package persistent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	activity "github.com/rbrinkke/activity-api"
	"github.com/uptrace/bun"
)

type UserBlock struct {
	bun.BaseModel `bun:"table:user_block"`

	BlockerId uuid.UUID `bun:",pk,type:uuid"`
	BlockedId uuid.UUID `bun:",pk,type:uuid"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

// Friendship is materialized as two rows, one per direction, so a
// single user_id lookup finds all of a user's friendships.
type Friendship struct {
	bun.BaseModel `bun:"table:friendship"`

	UserId   uuid.UUID `bun:",pk,type:uuid"`
	FriendId uuid.UUID `bun:",pk,type:uuid"`
	Status   string    `bun:",notnull"`
}

type ActivityInvitation struct {
	bun.BaseModel `bun:"table:activity_invitation"`

	ActivityId uuid.UUID `bun:",pk,type:uuid"`
	UserId     uuid.UUID `bun:",pk,type:uuid"`
	Status     string    `bun:",notnull"`
}

type UserInterest struct {
	bun.BaseModel `bun:"table:user_interest"`

	UserId uuid.UUID `bun:",pk,type:uuid"`
	Tag    string    `bun:",pk"`
	Weight float64   `bun:",notnull,default:1"`
}

const (
	relationAccepted = "accepted"
)

type SocialStore struct {
	DB bun.IDB
}

var _ activity.SocialStore = (*SocialStore)(nil)

func (s *SocialStore) BlockedWith(ctx context.Context, userId uuid.UUID) (map[uuid.UUID]bool, error) {
	var models []UserBlock
	err := s.DB.NewSelect().
		Model(&models).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where(`user_block.blocker_id=?`, userId).
				WhereOr(`user_block.blocked_id=?`, userId)
		}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select blocks: %w", err)
	}

	blocked := make(map[uuid.UUID]bool, len(models))
	for _, b := range models {
		if b.BlockerId == userId {
			blocked[b.BlockedId] = true
		} else {
			blocked[b.BlockerId] = true
		}
	}
	return blocked, nil
}

func (s *SocialStore) Friends(ctx context.Context, userId uuid.UUID) (map[uuid.UUID]bool, error) {
	var models []Friendship
	err := s.DB.NewSelect().
		Model(&models).
		Where(`friendship.user_id=?`, userId).
		Where(`friendship.status=?`, relationAccepted).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select friendships: %w", err)
	}

	friends := make(map[uuid.UUID]bool, len(models))
	for _, f := range models {
		friends[f.FriendId] = true
	}
	return friends, nil
}

func (s *SocialStore) AcceptedInvitations(ctx context.Context, userId uuid.UUID) (map[uuid.UUID]bool, error) {
	var models []ActivityInvitation
	err := s.DB.NewSelect().
		Model(&models).
		Where(`activity_invitation.user_id=?`, userId).
		Where(`activity_invitation.status=?`, relationAccepted).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select invitations: %w", err)
	}

	invited := make(map[uuid.UUID]bool, len(models))
	for _, inv := range models {
		invited[inv.ActivityId] = true
	}
	return invited, nil
}

func (s *SocialStore) InterestTags(ctx context.Context, userId uuid.UUID) (map[string]bool, error) {
	var models []UserInterest
	err := s.DB.NewSelect().
		Model(&models).
		Where(`user_interest.user_id=?`, userId).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select interests: %w", err)
	}

	tags := make(map[string]bool, len(models))
	for _, interest := range models {
		tags[interest.Tag] = true
	}
	return tags, nil
}
