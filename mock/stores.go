package mock

import (
	"context"

	"github.com/google/uuid"
	activity "github.com/rbrinkke/activity-api"
)

// StoreView passes a fixed store bundle straight through, no snapshot.
type StoreView struct {
	Stores activity.Stores
}

func (v StoreView) View(ctx context.Context, fn func(activity.Stores) error) error {
	return fn(v.Stores)
}

type ActivityStore struct {
	ByIdFn       func(ctx context.Context, id uuid.UUID) (*activity.Activity, error)
	CandidatesFn func(ctx context.Context, filter activity.CandidateFilter) ([]activity.Activity, error)
}

func (s ActivityStore) ById(ctx context.Context, id uuid.UUID) (*activity.Activity, error) {
	return s.ByIdFn(ctx, id)
}

func (s ActivityStore) Candidates(ctx context.Context, filter activity.CandidateFilter) ([]activity.Activity, error) {
	return s.CandidatesFn(ctx, filter)
}

type ParticipantStore struct {
	ByActivityFn          func(ctx context.Context, activityId uuid.UUID) ([]activity.Participant, error)
	ByUserFn              func(ctx context.Context, userId uuid.UUID) (map[uuid.UUID]activity.Participant, error)
	AttendedActivityIdsFn func(ctx context.Context, userId uuid.UUID) ([]uuid.UUID, error)
	AttendedCategoryIdsFn func(ctx context.Context, userId uuid.UUID) (map[uuid.UUID]bool, error)
	AttendeesOfFn         func(ctx context.Context, activityIds []uuid.UUID) ([]uuid.UUID, error)
	AttendedByUsersFn     func(ctx context.Context, userIds []uuid.UUID) ([]uuid.UUID, error)
}

func (s ParticipantStore) ByActivity(ctx context.Context, activityId uuid.UUID) ([]activity.Participant, error) {
	return s.ByActivityFn(ctx, activityId)
}

func (s ParticipantStore) ByUser(ctx context.Context, userId uuid.UUID) (map[uuid.UUID]activity.Participant, error) {
	return s.ByUserFn(ctx, userId)
}

func (s ParticipantStore) AttendedActivityIds(ctx context.Context, userId uuid.UUID) ([]uuid.UUID, error) {
	return s.AttendedActivityIdsFn(ctx, userId)
}

func (s ParticipantStore) AttendedCategoryIds(ctx context.Context, userId uuid.UUID) (map[uuid.UUID]bool, error) {
	return s.AttendedCategoryIdsFn(ctx, userId)
}

func (s ParticipantStore) AttendeesOf(ctx context.Context, activityIds []uuid.UUID) ([]uuid.UUID, error) {
	return s.AttendeesOfFn(ctx, activityIds)
}

func (s ParticipantStore) AttendedByUsers(ctx context.Context, userIds []uuid.UUID) ([]uuid.UUID, error) {
	return s.AttendedByUsersFn(ctx, userIds)
}

type SocialStore struct {
	BlockedWithFn         func(ctx context.Context, userId uuid.UUID) (map[uuid.UUID]bool, error)
	FriendsFn             func(ctx context.Context, userId uuid.UUID) (map[uuid.UUID]bool, error)
	AcceptedInvitationsFn func(ctx context.Context, userId uuid.UUID) (map[uuid.UUID]bool, error)
	InterestTagsFn        func(ctx context.Context, userId uuid.UUID) (map[string]bool, error)
}

func (s SocialStore) BlockedWith(ctx context.Context, userId uuid.UUID) (map[uuid.UUID]bool, error) {
	return s.BlockedWithFn(ctx, userId)
}

func (s SocialStore) Friends(ctx context.Context, userId uuid.UUID) (map[uuid.UUID]bool, error) {
	return s.FriendsFn(ctx, userId)
}

func (s SocialStore) AcceptedInvitations(ctx context.Context, userId uuid.UUID) (map[uuid.UUID]bool, error) {
	return s.AcceptedInvitationsFn(ctx, userId)
}

func (s SocialStore) InterestTags(ctx context.Context, userId uuid.UUID) (map[string]bool, error) {
	return s.InterestTagsFn(ctx, userId)
}

type UserStore struct {
	ByIdsFn func(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]activity.User, error)
}

func (s UserStore) ByIds(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]activity.User, error) {
	return s.ByIdsFn(ctx, ids)
}
