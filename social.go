package activity

import (
	"context"

	"github.com/google/uuid"
)

// SocialStore exposes the social graph around a single user. Blocks are
// stored as directed edges but suppression is symmetric, so BlockedWith
// already returns the union of both directions.
type SocialStore interface {
	// BlockedWith returns every user with a block edge to or from the
	// given user.
	BlockedWith(ctx context.Context, userId uuid.UUID) (map[uuid.UUID]bool, error)

	// Friends returns the users with an accepted friendship.
	Friends(ctx context.Context, userId uuid.UUID) (map[uuid.UUID]bool, error)

	// AcceptedInvitations returns the activities the user holds an
	// accepted invitation for.
	AcceptedInvitations(ctx context.Context, userId uuid.UUID) (map[uuid.UUID]bool, error)

	// InterestTags returns the user's interest tags.
	InterestTags(ctx context.Context, userId uuid.UUID) (map[string]bool, error)
}

// Stores bundles everything a discovery operation reads.
type Stores struct {
	Activities   ActivityStore
	Participants ParticipantStore
	Social       SocialStore
	Users        UserStore
}

// StoreView runs fn against a consistent snapshot of the stores.
// The persistent implementation opens a read-only repeatable-read
// transaction so that counting and page selection cannot observe
// different states; the in-memory implementation holds a read lock.
type StoreView interface {
	View(ctx context.Context, fn func(Stores) error) error
}
