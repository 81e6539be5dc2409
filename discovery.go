package activity

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DiscoveryService implements the read side of the platform: direct
// lookup, filtered search, radius search, personalized feed,
// collaborative-filtering recommendations and the participant/waitlist
// listings. Every operation runs inside a single store snapshot and
// funnels through Decide, so blocking and privacy cannot drift between
// query shapes.
type DiscoveryService struct {
	Store StoreView

	// Now is overridable in tests. Defaults to time.Now.
	Now func() time.Time
}

func (s *DiscoveryService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

type ActivityDetail struct {
	Activity
	Organizer     User
	WaitlistCount int

	UserParticipationStatus ParticipationStatus
	UserCanJoin             bool
	UserCanEdit             bool
	IsBlocked               bool
}

// ById returns the full activity detail. Cancelled and completed
// activities stay reachable here even though discovery excludes them.
// A blocked viewer still receives a public activity, flagged, so
// clients can render the blocked state; any non-public activity is
// forbidden for a blocked viewer.
func (s *DiscoveryService) ById(ctx context.Context, viewer Viewer, activityId uuid.UUID) (*ActivityDetail, error) {
	var detail *ActivityDetail
	err := s.Store.View(ctx, func(st Stores) error {
		a, err := st.Activities.ById(ctx, activityId)
		if err != nil {
			return err
		}
		rel, err := LoadViewerRelations(ctx, st, viewer.UserId)
		if err != nil {
			return err
		}

		access := Decide(viewer, a, rel, s.now())
		if a.Status == StatusDraft && !access.CanEdit {
			return ErrActivityNotFound
		}
		if !access.Visible {
			if access.Reason == DenyBlocked && a.PrivacyLevel == PrivacyPublic {
				// fall through: returned with the blocked flag set
			} else {
				return &ForbiddenError{Reason: access.Reason}
			}
		}

		organizer, err := s.organizerOf(ctx, st, a)
		if err != nil {
			return err
		}
		participants, err := st.Participants.ByActivity(ctx, activityId)
		if err != nil {
			return fmt.Errorf("load participants: %w", err)
		}
		waitlisted := 0
		for _, p := range participants {
			if p.Status == ParticipationWaitlisted {
				waitlisted++
			}
		}

		detail = &ActivityDetail{
			Activity:                *a,
			Organizer:               organizer,
			WaitlistCount:           waitlisted,
			UserParticipationStatus: access.ParticipationStatus,
			UserCanJoin:             access.CanJoin,
			UserCanEdit:             access.CanEdit,
			IsBlocked:               access.IsBlocked,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// Search applies the compiled filter set, then the authorization
// predicate, and paginates. TotalCount is computed over the full
// authorized set inside the same snapshot as the page.
func (s *DiscoveryService) Search(ctx context.Context, viewer Viewer, filter SearchFilter) (*SearchResult, error) {
	var result *SearchResult
	err := s.Store.View(ctx, func(st Stores) error {
		now := s.now()
		rel, err := LoadViewerRelations(ctx, st, viewer.UserId)
		if err != nil {
			return err
		}
		candidates, err := st.Activities.Candidates(ctx, filter.compile(viewer, now))
		if err != nil {
			return fmt.Errorf("search candidates: %w", err)
		}

		visible := s.authorize(viewer, candidates, rel, now)
		sortBySchedule(visible)

		page := paginate(visible, filter.Page)
		summaries, err := s.summarize(ctx, st, viewer, page, rel, now, nil)
		if err != nil {
			return err
		}
		result = &SearchResult{
			TotalCount: len(visible),
			Page:       filter.Page.Number,
			PageSize:   filter.Page.Size,
			Activities: summaries,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"user_id": viewer.UserId,
		"total":   result.TotalCount,
		"rows":    len(result.Activities),
	}).Debugln("Activities searched.")
	return result, nil
}

// Nearby keeps activities within RadiusKm of the center, ordered by
// distance. Authorization runs before any distance is computed;
// activities without a stored coordinate never become candidates.
func (s *DiscoveryService) Nearby(ctx context.Context, viewer Viewer, filter NearbyFilter) (*SearchResult, error) {
	var result *SearchResult
	err := s.Store.View(ctx, func(st Stores) error {
		now := s.now()
		rel, err := LoadViewerRelations(ctx, st, viewer.UserId)
		if err != nil {
			return err
		}
		candidates, err := st.Activities.Candidates(ctx, filter.compile(viewer, now))
		if err != nil {
			return fmt.Errorf("nearby candidates: %w", err)
		}

		visible := s.authorize(viewer, candidates, rel, now)

		within := make([]Activity, 0, len(visible))
		distances := make(map[uuid.UUID]float64, len(visible))
		for _, a := range visible {
			d := filter.Center.DistanceKm(*a.Coordinate)
			if d <= filter.RadiusKm {
				distances[a.Id] = d
				within = append(within, a)
			}
		}
		sort.Slice(within, func(i, j int) bool {
			di, dj := distances[within[i].Id], distances[within[j].Id]
			if di != dj {
				return di < dj
			}
			if !within[i].ScheduledAt.Equal(within[j].ScheduledAt) {
				return within[i].ScheduledAt.Before(within[j].ScheduledAt)
			}
			return within[i].Id.String() < within[j].Id.String()
		})

		page := paginate(within, filter.Page)
		summaries, err := s.summarize(ctx, st, viewer, page, rel, now, distances)
		if err != nil {
			return err
		}
		result = &SearchResult{
			TotalCount: len(within),
			Page:       filter.Page.Number,
			PageSize:   filter.Page.Size,
			Activities: summaries,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Feed includes discoverable activities with open capacity matching at
// least one personalization signal: interest-tag overlap, friendship
// with the organizer, or a category the viewer has attended before.
// An activity matching several signals appears once.
func (s *DiscoveryService) Feed(ctx context.Context, viewer Viewer, filter FeedFilter) (*SearchResult, error) {
	var result *SearchResult
	err := s.Store.View(ctx, func(st Stores) error {
		now := s.now()
		rel, err := LoadViewerRelations(ctx, st, viewer.UserId)
		if err != nil {
			return err
		}

		interests := map[string]bool{}
		if filter.IncludeInterests {
			interests, err = st.Social.InterestTags(ctx, viewer.UserId)
			if err != nil {
				return fmt.Errorf("load interest tags: %w", err)
			}
		}
		attendedCategories, err := st.Participants.AttendedCategoryIds(ctx, viewer.UserId)
		if err != nil {
			return fmt.Errorf("load attended categories: %w", err)
		}

		candidates, err := st.Activities.Candidates(ctx, CandidateFilter{
			HasSpotsAvailable: true,
			PublishedAfter:    now,
		})
		if err != nil {
			return fmt.Errorf("feed candidates: %w", err)
		}

		visible := s.authorize(viewer, candidates, rel, now)
		matched := make([]Activity, 0, len(visible))
		for _, a := range visible {
			switch {
			case filter.IncludeInterests && a.HasTagOf(interests):
			case filter.IncludeFriends && rel.Friends[a.OrganizerId]:
			case a.CategoryId != nil && attendedCategories[*a.CategoryId]:
			default:
				continue
			}
			matched = append(matched, a)
		}
		sortBySchedule(matched)

		page := paginate(matched, filter.Page)
		summaries, err := s.summarize(ctx, st, viewer, page, rel, now, nil)
		if err != nil {
			return err
		}
		result = &SearchResult{
			TotalCount: len(matched),
			Page:       filter.Page.Number,
			PageSize:   filter.Page.Size,
			Activities: summaries,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Recommendations does two-hop collaborative filtering: users who
// attended the same activities as the viewer are neighbors, and what
// the neighbors attended becomes the candidate set. Activities the
// viewer already joined in any status are excluded. A viewer with no
// attendance history gets an empty result, which is not an error.
func (s *DiscoveryService) Recommendations(ctx context.Context, viewer Viewer, limit int) ([]ActivitySummary, error) {
	var summaries []ActivitySummary
	err := s.Store.View(ctx, func(st Stores) error {
		now := s.now()
		summaries = []ActivitySummary{}

		attended, err := st.Participants.AttendedActivityIds(ctx, viewer.UserId)
		if err != nil {
			return fmt.Errorf("load attended activities: %w", err)
		}
		if len(attended) == 0 {
			return nil
		}

		neighbors, err := st.Participants.AttendeesOf(ctx, attended)
		if err != nil {
			return fmt.Errorf("load neighbors: %w", err)
		}
		others := make([]uuid.UUID, 0, len(neighbors))
		for _, n := range neighbors {
			if n != viewer.UserId {
				others = append(others, n)
			}
		}
		if len(others) == 0 {
			return nil
		}

		candidateIds, err := st.Participants.AttendedByUsers(ctx, others)
		if err != nil {
			return fmt.Errorf("load neighbor activities: %w", err)
		}
		recommended := make(map[uuid.UUID]bool, len(candidateIds))
		for _, id := range candidateIds {
			recommended[id] = true
		}

		rel, err := LoadViewerRelations(ctx, st, viewer.UserId)
		if err != nil {
			return err
		}
		candidates, err := st.Activities.Candidates(ctx, CandidateFilter{
			HasSpotsAvailable: true,
			PublishedAfter:    now,
		})
		if err != nil {
			return fmt.Errorf("recommendation candidates: %w", err)
		}

		matched := make([]Activity, 0, len(candidates))
		for _, a := range s.authorize(viewer, candidates, rel, now) {
			if !recommended[a.Id] {
				continue
			}
			if _, joined := rel.Participations[a.Id]; joined {
				continue
			}
			matched = append(matched, a)
		}
		sortBySchedule(matched)
		if len(matched) > limit {
			matched = matched[:limit]
		}

		summaries, err = s.summarize(ctx, st, viewer, matched, rel, now, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

type ParticipantInfo struct {
	UserId     uuid.UUID
	Username   string
	FirstName  string
	PhotoUrl   string
	Verified   bool
	Role       ParticipantRole
	Status     ParticipationStatus
	Attendance AttendanceStatus
	JoinedAt   time.Time
}

type ParticipantList struct {
	ActivityId        uuid.UUID
	TotalParticipants int
	MaxParticipants   int
	Participants      []ParticipantInfo
}

// Participants lists the registered participants. The viewer must pass
// the same predicate as ById; unlike ById there is no flagged variant,
// a blocked viewer is always forbidden.
func (s *DiscoveryService) Participants(ctx context.Context, viewer Viewer, activityId uuid.UUID) (*ParticipantList, error) {
	var list *ParticipantList
	err := s.Store.View(ctx, func(st Stores) error {
		a, infos, err := s.memberListing(ctx, st, viewer, activityId)
		if err != nil {
			return err
		}
		registered := make([]ParticipantInfo, 0, len(infos))
		for _, p := range infos {
			if p.Status == ParticipationRegistered {
				registered = append(registered, p)
			}
		}
		list = &ParticipantList{
			ActivityId:        a.Id,
			TotalParticipants: len(registered),
			MaxParticipants:   a.MaxParticipants,
			Participants:      registered,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

type WaitlistEntry struct {
	ParticipantInfo
	Position int
}

type Waitlist struct {
	ActivityId    uuid.UUID
	TotalWaitlist int
	Entries       []WaitlistEntry
}

// WaitlistOf lists the waitlisted users in join order with 1-based
// positions.
func (s *DiscoveryService) WaitlistOf(ctx context.Context, viewer Viewer, activityId uuid.UUID) (*Waitlist, error) {
	var waitlist *Waitlist
	err := s.Store.View(ctx, func(st Stores) error {
		a, infos, err := s.memberListing(ctx, st, viewer, activityId)
		if err != nil {
			return err
		}
		entries := []WaitlistEntry{}
		for _, p := range infos {
			if p.Status == ParticipationWaitlisted {
				entries = append(entries, WaitlistEntry{ParticipantInfo: p, Position: len(entries) + 1})
			}
		}
		waitlist = &Waitlist{
			ActivityId:    a.Id,
			TotalWaitlist: len(entries),
			Entries:       entries,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return waitlist, nil
}

// memberListing authorizes the viewer against the activity and returns
// its participant rows joined with user data, in store order.
func (s *DiscoveryService) memberListing(ctx context.Context, st Stores, viewer Viewer, activityId uuid.UUID) (*Activity, []ParticipantInfo, error) {
	a, err := st.Activities.ById(ctx, activityId)
	if err != nil {
		return nil, nil, err
	}
	rel, err := LoadViewerRelations(ctx, st, viewer.UserId)
	if err != nil {
		return nil, nil, err
	}
	access := Decide(viewer, a, rel, s.now())
	if a.Status == StatusDraft && !access.CanEdit {
		return nil, nil, ErrActivityNotFound
	}
	if !access.Visible {
		return nil, nil, &ForbiddenError{Reason: access.Reason}
	}

	participants, err := st.Participants.ByActivity(ctx, activityId)
	if err != nil {
		return nil, nil, fmt.Errorf("load participants: %w", err)
	}
	userIds := make([]uuid.UUID, len(participants))
	for i, p := range participants {
		userIds[i] = p.UserId
	}
	users, err := st.Users.ByIds(ctx, userIds)
	if err != nil {
		return nil, nil, fmt.Errorf("load participant users: %w", err)
	}

	infos := make([]ParticipantInfo, len(participants))
	for i, p := range participants {
		u := users[p.UserId]
		infos[i] = ParticipantInfo{
			UserId:     p.UserId,
			Username:   u.Username,
			FirstName:  u.FirstName,
			PhotoUrl:   u.PhotoUrl,
			Verified:   u.Verified,
			Role:       p.Role,
			Status:     p.Status,
			Attendance: p.Attendance,
			JoinedAt:   p.JoinedAt,
		}
	}
	return a, infos, nil
}

func (s *DiscoveryService) authorize(viewer Viewer, candidates []Activity, rel ViewerRelations, now time.Time) []Activity {
	visible := make([]Activity, 0, len(candidates))
	for i := range candidates {
		if Decide(viewer, &candidates[i], rel, now).Visible {
			visible = append(visible, candidates[i])
		}
	}
	return visible
}

func (s *DiscoveryService) organizerOf(ctx context.Context, st Stores, a *Activity) (User, error) {
	users, err := st.Users.ByIds(ctx, []uuid.UUID{a.OrganizerId})
	if err != nil {
		return User{}, fmt.Errorf("load organizer: %w", err)
	}
	return users[a.OrganizerId], nil
}

func (s *DiscoveryService) summarize(ctx context.Context, st Stores, viewer Viewer, page []Activity,
	rel ViewerRelations, now time.Time, distances map[uuid.UUID]float64) ([]ActivitySummary, error) {
	organizerIds := make([]uuid.UUID, len(page))
	for i, a := range page {
		organizerIds[i] = a.OrganizerId
	}
	organizers, err := st.Users.ByIds(ctx, organizerIds)
	if err != nil {
		return nil, fmt.Errorf("load organizers: %w", err)
	}

	summaries := make([]ActivitySummary, len(page))
	for i := range page {
		a := page[i]
		access := Decide(viewer, &a, rel, now)
		organizer := organizers[a.OrganizerId]
		summary := ActivitySummary{
			Id:                a.Id,
			Title:             a.Title,
			Description:       a.Description,
			Type:              a.Type,
			ScheduledAt:       a.ScheduledAt,
			DurationMinutes:   a.DurationMinutes,
			MaxParticipants:   a.MaxParticipants,
			ParticipantsCount: a.ParticipantsCount,
			SpotsAvailable:    a.SpotsAvailable(),
			City:              a.City,
			Language:          a.Language,
			Tags:              a.Tags,
			OrganizerUsername: organizer.Username,
			OrganizerVerified: organizer.Verified,
			CategoryName:      a.CategoryName,
			CanJoin:           access.CanJoin,
			IsBlocked:         access.IsBlocked,
		}
		if distances != nil {
			if d, ok := distances[a.Id]; ok {
				d := d
				summary.DistanceKm = &d
			}
		}
		summaries[i] = summary
	}
	return summaries, nil
}
