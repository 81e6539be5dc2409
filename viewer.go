package activity

import "github.com/google/uuid"

type SubscriptionLevel string

const (
	SubscriptionFree    SubscriptionLevel = "free"
	SubscriptionClub    SubscriptionLevel = "club"
	SubscriptionPremium SubscriptionLevel = "premium"
)

// Viewer is the authenticated request context. It is produced once per
// request by the transport layer (identity comes from the external auth
// gateway) and passed explicitly into every operation.
type Viewer struct {
	UserId       uuid.UUID
	Subscription SubscriptionLevel
}

// ClubOrPremium reports whether tier-gated search filters are honored.
func (v Viewer) ClubOrPremium() bool {
	return v.Subscription == SubscriptionClub || v.Subscription == SubscriptionPremium
}
