package inmem_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	activity "github.com/rbrinkke/activity-api"
	"github.com/rbrinkke/activity-api/inmem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidateOrdering(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	store := inmem.NewStore()
	now := time.Date(2026, 9, 5, 12, 0, 0, 0, time.UTC)
	scheduledAt := now.Add(24 * time.Hour)

	first := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	second := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	later := uuid.MustParse("00000000-0000-0000-0000-000000000003")

	// inserted out of order on purpose
	for _, a := range []activity.Activity{
		{Id: later, Title: "c", Status: activity.StatusPublished, ScheduledAt: scheduledAt.Add(time.Hour), MaxParticipants: 5},
		{Id: second, Title: "b", Status: activity.StatusPublished, ScheduledAt: scheduledAt, MaxParticipants: 5},
		{Id: first, Title: "a", Status: activity.StatusPublished, ScheduledAt: scheduledAt, MaxParticipants: 5},
	} {
		store.PutActivity(a)
	}

	err := store.View(ctx, func(st activity.Stores) error {
		candidates, err := st.Activities.Candidates(ctx, activity.CandidateFilter{PublishedAfter: now})
		require.NoError(t, err)
		require.Len(t, candidates, 3)
		assert.Equal(first, candidates[0].Id)
		assert.Equal(second, candidates[1].Id)
		assert.Equal(later, candidates[2].Id)
		return nil
	})
	assert.NoError(err)
}

func TestAddParticipantReplacesSameUser(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	store := inmem.NewStore()
	activityId := uuid.New()
	userId := uuid.New()
	joined := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	store.AddParticipant(activity.Participant{
		ActivityId: activityId, UserId: userId, Role: activity.RoleMember,
		Status: activity.ParticipationRegistered, JoinedAt: joined,
	})
	store.AddParticipant(activity.Participant{
		ActivityId: activityId, UserId: userId, Role: activity.RoleMember,
		Status: activity.ParticipationCancelled, JoinedAt: joined,
	})

	err := store.View(ctx, func(st activity.Stores) error {
		participants, err := st.Participants.ByActivity(ctx, activityId)
		require.NoError(t, err)
		require.Len(t, participants, 1)
		assert.Equal(activity.ParticipationCancelled, participants[0].Status)
		return nil
	})
	assert.NoError(err)
}
