package persistent

import (
	"context"
	"database/sql"

	activity "github.com/rbrinkke/activity-api"
	"github.com/uptrace/bun"
)

// StoreView hands every discovery operation transaction-scoped stores.
// The read-only repeatable-read transaction pins one snapshot, so the
// total count and the selected page can never disagree about concurrent
// inserts or cancellations.
type StoreView struct {
	DB *bun.DB
}

var _ activity.StoreView = (*StoreView)(nil)

func (v *StoreView) View(ctx context.Context, fn func(activity.Stores) error) error {
	opts := &sql.TxOptions{
		Isolation: sql.LevelRepeatableRead,
		ReadOnly:  true,
	}
	return v.DB.RunInTx(ctx, opts, func(ctx context.Context, tx bun.Tx) error {
		return fn(activity.Stores{
			Activities:   &ActivityStore{DB: tx},
			Participants: &ParticipantStore{DB: tx},
			Social:       &SocialStore{DB: tx},
			Users:        &UserStore{DB: tx},
		})
	})
}
