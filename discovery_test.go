package activity_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	activity "github.com/rbrinkke/activity-api"
	"github.com/rbrinkke/activity-api/inmem"
	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store   *inmem.Store
	service *activity.DiscoveryService
}

func newFixture() *fixture {
	store := inmem.NewStore()
	return &fixture{
		store: store,
		service: &activity.DiscoveryService{
			Store: store,
			Now:   func() time.Time { return testNow },
		},
	}
}

func (f *fixture) addUser(username string) uuid.UUID {
	id := uuid.New()
	f.store.PutUser(activity.User{Id: id, Username: username, Verified: true})
	return id
}

type activityOpts func(*activity.Activity)

func (f *fixture) addActivity(organizerId uuid.UUID, title string, opts ...activityOpts) uuid.UUID {
	a := activity.Activity{
		Id:                uuid.New(),
		OrganizerId:       organizerId,
		Title:             title,
		Description:       "join us",
		Type:              activity.TypeStandard,
		PrivacyLevel:      activity.PrivacyPublic,
		Status:            activity.StatusPublished,
		ScheduledAt:       testNow.Add(72 * time.Hour),
		MaxParticipants:   10,
		ParticipantsCount: 1,
		Language:          "en",
	}
	for _, opt := range opts {
		opt(&a)
	}
	f.store.PutActivity(a)
	f.store.AddParticipant(activity.Participant{
		ActivityId: a.Id,
		UserId:     organizerId,
		Role:       activity.RoleOrganizer,
		Status:     activity.ParticipationRegistered,
		Attendance: activity.AttendanceRegistered,
		JoinedAt:   testNow.Add(-24 * time.Hour),
	})
	return a.Id
}

func (f *fixture) attend(activityId, userId uuid.UUID) {
	f.store.AddParticipant(activity.Participant{
		ActivityId: activityId,
		UserId:     userId,
		Role:       activity.RoleMember,
		Status:     activity.ParticipationRegistered,
		Attendance: activity.AttendanceAttended,
		JoinedAt:   testNow.Add(-12 * time.Hour),
	})
}

func (f *fixture) register(activityId, userId uuid.UUID) {
	f.store.AddParticipant(activity.Participant{
		ActivityId: activityId,
		UserId:     userId,
		Role:       activity.RoleMember,
		Status:     activity.ParticipationRegistered,
		Attendance: activity.AttendanceRegistered,
		JoinedAt:   testNow.Add(-time.Hour),
	})
}

func searchAll(t *testing.T, f *fixture, viewer activity.Viewer) *activity.SearchResult {
	t.Helper()
	result, err := f.service.Search(context.Background(), viewer,
		activity.SearchFilter{Page: activity.Page{Number: 1, Size: 50}})
	assert.NoError(t, err)
	return result
}

func resultIds(result *activity.SearchResult) []uuid.UUID {
	ids := make([]uuid.UUID, len(result.Activities))
	for i, a := range result.Activities {
		ids[i] = a.Id
	}
	return ids
}

func TestSearchExcludesBlockedEitherDirection(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	for name, block := range map[string]func(f *fixture, viewerId, organizerId uuid.UUID){
		"organizer blocks viewer": func(f *fixture, viewerId, organizerId uuid.UUID) {
			f.store.Block(organizerId, viewerId)
		},
		"viewer blocks organizer": func(f *fixture, viewerId, organizerId uuid.UUID) {
			f.store.Block(viewerId, organizerId)
		},
	} {
		f := newFixture()
		organizerId := f.addUser("ania")
		viewerId := f.addUser("bart")
		activityId := f.addActivity(organizerId, "Bouldering")
		block(f, viewerId, organizerId)
		viewer := activity.Viewer{UserId: viewerId, Subscription: activity.SubscriptionFree}

		result := searchAll(t, f, viewer)
		assert.Equal(0, result.TotalCount, name)
		assert.Empty(result.Activities, name)

		detail, err := f.service.ById(ctx, viewer, activityId)
		if assert.NoError(err, name) {
			assert.True(detail.IsBlocked, name)
			assert.False(detail.UserCanJoin, name)
		}
	}
}

func TestXxlActivityIgnoresBlocking(t *testing.T) {
	assert := assert.New(t)

	f := newFixture()
	organizerId := f.addUser("ania")
	viewerId := f.addUser("bart")
	activityId := f.addActivity(organizerId, "Mega hike", func(a *activity.Activity) {
		a.Type = activity.TypeXXL
	})
	f.store.Block(organizerId, viewerId)
	viewer := activity.Viewer{UserId: viewerId, Subscription: activity.SubscriptionFree}

	result := searchAll(t, f, viewer)
	assert.Equal(1, result.TotalCount)
	if assert.Len(result.Activities, 1) {
		assert.Equal(activityId, result.Activities[0].Id)
		assert.False(result.Activities[0].IsBlocked)
		assert.True(result.Activities[0].CanJoin)
	}
}

func TestFriendsOnlyGating(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	f := newFixture()
	organizerId := f.addUser("ania")
	viewerId := f.addUser("bart")
	activityId := f.addActivity(organizerId, "Dinner club", func(a *activity.Activity) {
		a.PrivacyLevel = activity.PrivacyFriendsOnly
	})
	viewer := activity.Viewer{UserId: viewerId, Subscription: activity.SubscriptionFree}

	assert.Equal(0, searchAll(t, f, viewer).TotalCount)
	_, err := f.service.ById(ctx, viewer, activityId)
	var forbidden *activity.ForbiddenError
	if assert.ErrorAs(err, &forbidden) {
		assert.Equal(activity.DenyFriendsOnly, forbidden.Reason)
	}

	f.store.Befriend(viewerId, organizerId)
	assert.Equal(1, searchAll(t, f, viewer).TotalCount)
	detail, err := f.service.ById(ctx, viewer, activityId)
	if assert.NoError(err) {
		assert.True(detail.UserCanJoin)
	}
}

func TestInviteOnlyGating(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	f := newFixture()
	organizerId := f.addUser("ania")
	viewerId := f.addUser("bart")
	activityId := f.addActivity(organizerId, "Secret gig", func(a *activity.Activity) {
		a.PrivacyLevel = activity.PrivacyInviteOnly
	})
	viewer := activity.Viewer{UserId: viewerId, Subscription: activity.SubscriptionFree}

	_, err := f.service.ById(ctx, viewer, activityId)
	var forbidden *activity.ForbiddenError
	if assert.ErrorAs(err, &forbidden) {
		assert.Equal(activity.DenyInviteOnly, forbidden.Reason)
	}

	f.store.Invite(activityId, viewerId)
	detail, err := f.service.ById(ctx, viewer, activityId)
	if assert.NoError(err) {
		assert.Equal(activityId, detail.Id)
	}
}

func TestByIdNotFound(t *testing.T) {
	f := newFixture()
	viewer := activity.Viewer{UserId: f.addUser("bart")}

	_, err := f.service.ById(context.Background(), viewer, uuid.New())
	assert.ErrorIs(t, err, activity.ErrActivityNotFound)
}

func TestByIdReturnsCancelledActivities(t *testing.T) {
	assert := assert.New(t)

	f := newFixture()
	organizerId := f.addUser("ania")
	viewerId := f.addUser("bart")
	activityId := f.addActivity(organizerId, "Rained out", func(a *activity.Activity) {
		a.Status = activity.StatusCancelled
	})
	viewer := activity.Viewer{UserId: viewerId}

	assert.Equal(0, searchAll(t, f, viewer).TotalCount)

	detail, err := f.service.ById(context.Background(), viewer, activityId)
	if assert.NoError(err) {
		assert.Equal(activity.StatusCancelled, detail.Status)
		assert.False(detail.UserCanJoin)
	}
}

func TestSearchSubscriptionGatingIsSilent(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	f := newFixture()
	organizerId := f.addUser("ania")
	viewerId := f.addUser("bart")
	sportsId := uuid.New()
	gamesId := uuid.New()
	f.addActivity(organizerId, "Football", func(a *activity.Activity) { a.CategoryId = &sportsId })
	f.addActivity(organizerId, "Chess night", func(a *activity.Activity) { a.CategoryId = &gamesId })

	filter := activity.SearchFilter{
		CategoryId: &sportsId,
		Page:       activity.Page{Number: 1, Size: 50},
	}

	// Free tier: category filter silently dropped, identical to no filter.
	free := activity.Viewer{UserId: viewerId, Subscription: activity.SubscriptionFree}
	filtered, err := f.service.Search(ctx, free, filter)
	assert.NoError(err)
	unfiltered, err := f.service.Search(ctx, free, activity.SearchFilter{Page: filter.Page})
	assert.NoError(err)
	assert.Equal(unfiltered, filtered)
	assert.Equal(2, filtered.TotalCount)

	// Club tier: filter honored.
	club := activity.Viewer{UserId: viewerId, Subscription: activity.SubscriptionClub}
	result, err := f.service.Search(ctx, club, filter)
	assert.NoError(err)
	assert.Equal(1, result.TotalCount)
	if assert.Len(result.Activities, 1) {
		assert.Equal("Football", result.Activities[0].Title)
	}
}

func TestSearchFiltersAreConjunctive(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	f := newFixture()
	organizerId := f.addUser("ania")
	viewerId := f.addUser("bart")
	f.addActivity(organizerId, "Canal kayaking", func(a *activity.Activity) {
		a.City = "Amsterdam"
		a.Tags = []string{"water", "outdoor"}
	})
	f.addActivity(organizerId, "Kayak polo", func(a *activity.Activity) {
		a.City = "Rotterdam"
		a.Tags = []string{"water"}
	})
	f.addActivity(organizerId, "City walk", func(a *activity.Activity) {
		a.City = "Amsterdam"
	})
	viewer := activity.Viewer{UserId: viewerId, Subscription: activity.SubscriptionFree}

	result, err := f.service.Search(ctx, viewer, activity.SearchFilter{
		Query: "kayak",
		City:  "amsterdam",
		Tags:  []string{"outdoor", "indoor"},
		Page:  activity.Page{Number: 1, Size: 50},
	})
	assert.NoError(err)
	assert.Equal(1, result.TotalCount)
	if assert.Len(result.Activities, 1) {
		assert.Equal("Canal kayaking", result.Activities[0].Title)
	}
}

func TestSearchHasSpotsAvailable(t *testing.T) {
	assert := assert.New(t)

	f := newFixture()
	organizerId := f.addUser("ania")
	viewerId := f.addUser("bart")
	f.addActivity(organizerId, "Full house", func(a *activity.Activity) {
		a.MaxParticipants = 5
		a.ParticipantsCount = 5
	})
	openId := f.addActivity(organizerId, "Open house")
	viewer := activity.Viewer{UserId: viewerId}

	result, err := f.service.Search(context.Background(), viewer, activity.SearchFilter{
		HasSpotsAvailable: true,
		Page:              activity.Page{Number: 1, Size: 50},
	})
	assert.NoError(err)
	assert.Equal([]uuid.UUID{openId}, resultIds(result))
}

func TestSearchExcludesPastAndUnpublished(t *testing.T) {
	assert := assert.New(t)

	f := newFixture()
	organizerId := f.addUser("ania")
	viewerId := f.addUser("bart")
	f.addActivity(organizerId, "Yesterday", func(a *activity.Activity) {
		a.ScheduledAt = testNow.Add(-time.Hour)
	})
	f.addActivity(organizerId, "Cancelled", func(a *activity.Activity) {
		a.Status = activity.StatusCancelled
	})
	f.addActivity(organizerId, "Draft", func(a *activity.Activity) {
		a.Status = activity.StatusDraft
	})
	keptId := f.addActivity(organizerId, "Tomorrow")
	viewer := activity.Viewer{UserId: viewerId}

	result := searchAll(t, f, viewer)
	assert.Equal([]uuid.UUID{keptId}, resultIds(result))
}

func TestSearchPaginationConsistency(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	f := newFixture()
	organizerId := f.addUser("ania")
	viewerId := f.addUser("bart")
	for i := 0; i < 7; i++ {
		hours := time.Duration(24 + i*24)
		f.addActivity(organizerId, "Session", func(a *activity.Activity) {
			a.ScheduledAt = testNow.Add(hours * time.Hour)
		})
	}
	viewer := activity.Viewer{UserId: viewerId}

	// Sweeping with page_size=1 yields exactly total_count rows,
	// no duplicates, no gaps, ordered by schedule.
	total := searchAll(t, f, viewer).TotalCount
	assert.Equal(7, total)

	seen := map[uuid.UUID]bool{}
	var last time.Time
	for page := 1; page <= total; page++ {
		result, err := f.service.Search(ctx, viewer, activity.SearchFilter{
			Page: activity.Page{Number: page, Size: 1},
		})
		assert.NoError(err)
		assert.Equal(total, result.TotalCount)
		if !assert.Len(result.Activities, 1) {
			continue
		}
		row := result.Activities[0]
		assert.False(seen[row.Id])
		seen[row.Id] = true
		assert.False(row.ScheduledAt.Before(last))
		last = row.ScheduledAt
	}
	assert.Len(seen, total)

	// Offset beyond the set: empty rows, correct count.
	result, err := f.service.Search(ctx, viewer, activity.SearchFilter{
		Page: activity.Page{Number: 9, Size: 5},
	})
	assert.NoError(err)
	assert.Equal(total, result.TotalCount)
	assert.Empty(result.Activities)
}

func TestNearbyRadiusAndOrdering(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	f := newFixture()
	organizerId := f.addUser("ania")
	viewerId := f.addUser("bart")
	centerId := f.addActivity(organizerId, "At the center", func(a *activity.Activity) {
		a.Coordinate = &activity.Coordinate{Lat: 52.370, Lon: 4.895}
	})
	nearId := f.addActivity(organizerId, "Around the corner", func(a *activity.Activity) {
		a.Coordinate = &activity.Coordinate{Lat: 52.378, Lon: 4.900}
	})
	f.addActivity(organizerId, "Far away", func(a *activity.Activity) {
		a.Coordinate = &activity.Coordinate{Lat: 52.500, Lon: 5.000}
	})
	f.addActivity(organizerId, "No location")
	viewer := activity.Viewer{UserId: viewerId}

	result, err := f.service.Nearby(ctx, viewer, activity.NearbyFilter{
		Center:   activity.Coordinate{Lat: 52.370, Lon: 4.895},
		RadiusKm: 5,
		Page:     activity.Page{Number: 1, Size: 50},
	})
	assert.NoError(err)
	assert.Equal(2, result.TotalCount)
	assert.Equal([]uuid.UUID{centerId, nearId}, resultIds(result))

	var lastDistance float64
	for _, row := range result.Activities {
		if assert.NotNil(row.DistanceKm) {
			assert.LessOrEqual(*row.DistanceKm, 5.0)
			assert.GreaterOrEqual(*row.DistanceKm, lastDistance)
			lastDistance = *row.DistanceKm
		}
	}
}

func TestNearbyAppliesAuthorization(t *testing.T) {
	assert := assert.New(t)

	f := newFixture()
	organizerId := f.addUser("ania")
	viewerId := f.addUser("bart")
	f.addActivity(organizerId, "Blocked nearby", func(a *activity.Activity) {
		a.Coordinate = &activity.Coordinate{Lat: 52.370, Lon: 4.895}
	})
	f.store.Block(organizerId, viewerId)
	viewer := activity.Viewer{UserId: viewerId}

	result, err := f.service.Nearby(context.Background(), viewer, activity.NearbyFilter{
		Center:   activity.Coordinate{Lat: 52.370, Lon: 4.895},
		RadiusKm: 5,
		Page:     activity.Page{Number: 1, Size: 50},
	})
	assert.NoError(err)
	assert.Equal(0, result.TotalCount)
	assert.Empty(result.Activities)
}

func TestFeedSignals(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	f := newFixture()
	organizerId := f.addUser("ania")
	friendId := f.addUser("celine")
	viewerId := f.addUser("bart")
	sportsId := uuid.New()

	tagMatchId := f.addActivity(organizerId, "Evening yoga", func(a *activity.Activity) {
		a.Tags = []string{"yoga", "wellness"}
	})
	friendMatchId := f.addActivity(friendId, "Picnic")
	categoryMatchId := f.addActivity(organizerId, "Sunday football", func(a *activity.Activity) {
		a.CategoryId = &sportsId
	})
	f.addActivity(organizerId, "Unrelated")

	f.store.AddInterest(viewerId, "yoga")
	f.store.Befriend(viewerId, friendId)
	attendedId := f.addActivity(organizerId, "Past match", func(a *activity.Activity) {
		a.CategoryId = &sportsId
	})
	f.attend(attendedId, viewerId)

	viewer := activity.Viewer{UserId: viewerId}
	result, err := f.service.Feed(ctx, viewer, activity.FeedFilter{
		IncludeFriends:   true,
		IncludeInterests: true,
		Page:             activity.Page{Number: 1, Size: 50},
	})
	assert.NoError(err)
	// Every activity matching a signal appears exactly once, including
	// the already-joined one (the feed does not hide participations).
	assert.ElementsMatch([]uuid.UUID{tagMatchId, friendMatchId, categoryMatchId, attendedId}, resultIds(result))
	assert.Equal(4, result.TotalCount)

	// Toggling the interest signal off drops the tag match only.
	result, err = f.service.Feed(ctx, viewer, activity.FeedFilter{
		IncludeFriends: true,
		Page:           activity.Page{Number: 1, Size: 50},
	})
	assert.NoError(err)
	assert.ElementsMatch([]uuid.UUID{friendMatchId, categoryMatchId, attendedId}, resultIds(result))

	result, err = f.service.Feed(ctx, viewer, activity.FeedFilter{
		IncludeInterests: true,
		Page:             activity.Page{Number: 1, Size: 50},
	})
	assert.NoError(err)
	assert.ElementsMatch([]uuid.UUID{tagMatchId, categoryMatchId, attendedId}, resultIds(result))
}

func TestFeedRequiresOpenCapacity(t *testing.T) {
	assert := assert.New(t)

	f := newFixture()
	organizerId := f.addUser("ania")
	viewerId := f.addUser("bart")
	f.addActivity(organizerId, "Full yoga", func(a *activity.Activity) {
		a.Tags = []string{"yoga"}
		a.MaxParticipants = 3
		a.ParticipantsCount = 3
	})
	f.store.AddInterest(viewerId, "yoga")
	viewer := activity.Viewer{UserId: viewerId}

	result, err := f.service.Feed(context.Background(), viewer, activity.FeedFilter{
		IncludeInterests: true,
		Page:             activity.Page{Number: 1, Size: 50},
	})
	assert.NoError(err)
	assert.Equal(0, result.TotalCount)
}

func TestRecommendationsTwoHop(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	f := newFixture()
	organizerId := f.addUser("ania")
	viewerId := f.addUser("viktor")
	neighborId := f.addUser("nina")
	sportsId := uuid.New()

	// Viewer and neighbor both attended X; neighbor also attended Y.
	xId := f.addActivity(organizerId, "Activity X", func(a *activity.Activity) {
		a.CategoryId = &sportsId
	})
	yId := f.addActivity(organizerId, "Activity Y", func(a *activity.Activity) {
		a.CategoryId = &sportsId
	})
	f.attend(xId, viewerId)
	f.attend(xId, neighborId)
	f.attend(yId, neighborId)

	viewer := activity.Viewer{UserId: viewerId}
	recommendations, err := f.service.Recommendations(ctx, viewer, 10)
	assert.NoError(err)
	if assert.Len(recommendations, 1) {
		assert.Equal(yId, recommendations[0].Id)
	}

	// Once the viewer joins Y it disappears from recommendations.
	f.register(yId, viewerId)
	recommendations, err = f.service.Recommendations(ctx, viewer, 10)
	assert.NoError(err)
	assert.Empty(recommendations)
}

func TestRecommendationsEmptyWithoutHistory(t *testing.T) {
	assert := assert.New(t)

	f := newFixture()
	organizerId := f.addUser("ania")
	viewerId := f.addUser("bart")
	f.addActivity(organizerId, "Popular thing")
	viewer := activity.Viewer{UserId: viewerId}

	recommendations, err := f.service.Recommendations(context.Background(), viewer, 10)
	assert.NoError(err)
	assert.Empty(recommendations)
}

func TestRecommendationsNeverIncludeJoined(t *testing.T) {
	assert := assert.New(t)

	f := newFixture()
	organizerId := f.addUser("ania")
	viewerId := f.addUser("viktor")
	neighborId := f.addUser("nina")

	xId := f.addActivity(organizerId, "Shared history")
	f.attend(xId, viewerId)
	f.attend(xId, neighborId)

	// Neighbor attended these; viewer holds a participation in every
	// status. None may come back.
	for _, status := range []activity.ParticipationStatus{
		activity.ParticipationRegistered,
		activity.ParticipationWaitlisted,
		activity.ParticipationCancelled,
		activity.ParticipationDeclined,
	} {
		id := f.addActivity(organizerId, "Neighbor pick")
		f.attend(id, neighborId)
		f.store.AddParticipant(activity.Participant{
			ActivityId: id,
			UserId:     viewerId,
			Role:       activity.RoleMember,
			Status:     status,
			Attendance: activity.AttendanceRegistered,
			JoinedAt:   testNow,
		})
	}

	recommendations, err := f.service.Recommendations(context.Background(), activity.Viewer{UserId: viewerId}, 10)
	assert.NoError(err)
	assert.Empty(recommendations)
}

func TestParticipantsAndWaitlist(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	f := newFixture()
	organizerId := f.addUser("ania")
	viewerId := f.addUser("bart")
	memberId := f.addUser("celine")
	waitingId := f.addUser("dora")
	activityId := f.addActivity(organizerId, "Climbing")
	f.register(activityId, memberId)
	f.store.AddParticipant(activity.Participant{
		ActivityId: activityId,
		UserId:     waitingId,
		Role:       activity.RoleMember,
		Status:     activity.ParticipationWaitlisted,
		Attendance: activity.AttendanceRegistered,
		JoinedAt:   testNow,
	})
	viewer := activity.Viewer{UserId: viewerId}

	list, err := f.service.Participants(ctx, viewer, activityId)
	if assert.NoError(err) {
		assert.Equal(2, list.TotalParticipants)
		usernames := make([]string, len(list.Participants))
		for i, p := range list.Participants {
			usernames[i] = p.Username
		}
		assert.ElementsMatch([]string{"ania", "celine"}, usernames)
	}

	waitlist, err := f.service.WaitlistOf(ctx, viewer, activityId)
	if assert.NoError(err) {
		assert.Equal(1, waitlist.TotalWaitlist)
		if assert.Len(waitlist.Entries, 1) {
			assert.Equal("dora", waitlist.Entries[0].Username)
			assert.Equal(1, waitlist.Entries[0].Position)
		}
	}

	detail, err := f.service.ById(ctx, viewer, activityId)
	if assert.NoError(err) {
		assert.Equal(1, detail.WaitlistCount)
	}
}

func TestParticipantsForbiddenForBlockedViewer(t *testing.T) {
	f := newFixture()
	organizerId := f.addUser("ania")
	viewerId := f.addUser("bart")
	activityId := f.addActivity(organizerId, "Climbing")
	f.store.Block(organizerId, viewerId)

	_, err := f.service.Participants(context.Background(), activity.Viewer{UserId: viewerId}, activityId)
	var forbidden *activity.ForbiddenError
	if assert.ErrorAs(t, err, &forbidden) {
		assert.Equal(t, activity.DenyBlocked, forbidden.Reason)
	}
}
