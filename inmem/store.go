package inmem

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	activity "github.com/rbrinkke/activity-api"
)

// Store keeps the whole read-model in maps behind one RWMutex. View
// holds the read lock for the duration of the callback, which gives the
// same snapshot guarantee the persistent store gets from a repeatable
// read transaction.
type Store struct {
	mu sync.RWMutex

	activities   map[uuid.UUID]activity.Activity
	participants map[uuid.UUID][]activity.Participant
	blocks       map[uuid.UUID]map[uuid.UUID]bool
	friends      map[uuid.UUID]map[uuid.UUID]bool
	invitations  map[uuid.UUID]map[uuid.UUID]bool
	interests    map[uuid.UUID]map[string]bool
	users        map[uuid.UUID]activity.User
}

func NewStore() *Store {
	return &Store{
		activities:   make(map[uuid.UUID]activity.Activity),
		participants: make(map[uuid.UUID][]activity.Participant),
		blocks:       make(map[uuid.UUID]map[uuid.UUID]bool),
		friends:      make(map[uuid.UUID]map[uuid.UUID]bool),
		invitations:  make(map[uuid.UUID]map[uuid.UUID]bool),
		interests:    make(map[uuid.UUID]map[string]bool),
		users:        make(map[uuid.UUID]activity.User),
	}
}

var _ activity.StoreView = (*Store)(nil)

func (s *Store) View(ctx context.Context, fn func(activity.Stores) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(activity.Stores{
		Activities:   activityStore{s},
		Participants: participantStore{s},
		Social:       socialStore{s},
		Users:        userStore{s},
	})
}

// Mutators, used by tests and seeders. They take the write lock
// themselves and must not be called from inside View.

func (s *Store) PutActivity(a activity.Activity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities[a.Id] = a
}

func (s *Store) PutUser(u activity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.Id] = u
}

func (s *Store) AddParticipant(p activity.Participant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.participants[p.ActivityId][:0]
	for _, existing := range s.participants[p.ActivityId] {
		if existing.UserId != p.UserId {
			kept = append(kept, existing)
		}
	}
	s.participants[p.ActivityId] = append(kept, p)
}

func (s *Store) RemoveParticipant(activityId, userId uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.participants[activityId][:0]
	for _, existing := range s.participants[activityId] {
		if existing.UserId != userId {
			kept = append(kept, existing)
		}
	}
	s.participants[activityId] = kept
}

func (s *Store) Block(blocker, blocked uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blocks[blocker] == nil {
		s.blocks[blocker] = make(map[uuid.UUID]bool)
	}
	s.blocks[blocker][blocked] = true
}

func (s *Store) Befriend(a, b uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pair := range [][2]uuid.UUID{{a, b}, {b, a}} {
		if s.friends[pair[0]] == nil {
			s.friends[pair[0]] = make(map[uuid.UUID]bool)
		}
		s.friends[pair[0]][pair[1]] = true
	}
}

func (s *Store) Unfriend(a, b uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.friends[a], b)
	delete(s.friends[b], a)
}

func (s *Store) Invite(activityId, userId uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.invitations[userId] == nil {
		s.invitations[userId] = make(map[uuid.UUID]bool)
	}
	s.invitations[userId][activityId] = true
}

func (s *Store) AddInterest(userId uuid.UUID, tag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.interests[userId] == nil {
		s.interests[userId] = make(map[string]bool)
	}
	s.interests[userId][tag] = true
}

type activityStore struct{ s *Store }

var _ activity.ActivityStore = activityStore{}

func (st activityStore) ById(ctx context.Context, id uuid.UUID) (*activity.Activity, error) {
	a, ok := st.s.activities[id]
	if !ok {
		return nil, activity.ErrActivityNotFound
	}
	return &a, nil
}

func (st activityStore) Candidates(ctx context.Context, filter activity.CandidateFilter) ([]activity.Activity, error) {
	matched := []activity.Activity{}
	for _, a := range st.s.activities {
		if matches(&a, filter) {
			matched = append(matched, a)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].ScheduledAt.Equal(matched[j].ScheduledAt) {
			return matched[i].ScheduledAt.Before(matched[j].ScheduledAt)
		}
		return matched[i].Id.String() < matched[j].Id.String()
	})
	return matched, nil
}

func matches(a *activity.Activity, f activity.CandidateFilter) bool {
	if a.Status != activity.StatusPublished || !a.ScheduledAt.After(f.PublishedAfter) {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(a.Title), q) &&
			!strings.Contains(strings.ToLower(a.Description), q) {
			return false
		}
	}
	if f.CategoryId != nil && (a.CategoryId == nil || *a.CategoryId != *f.CategoryId) {
		return false
	}
	if f.Type != nil && a.Type != *f.Type {
		return false
	}
	if f.City != "" && !strings.EqualFold(a.City, f.City) {
		return false
	}
	if f.Language != "" && !strings.EqualFold(a.Language, f.Language) {
		return false
	}
	if len(f.Tags) > 0 {
		any := false
		for _, want := range f.Tags {
			for _, have := range a.Tags {
				if want == have {
					any = true
					break
				}
			}
		}
		if !any {
			return false
		}
	}
	if f.DateFrom != nil && a.ScheduledAt.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && a.ScheduledAt.After(*f.DateTo) {
		return false
	}
	if f.HasSpotsAvailable && !a.HasOpenCapacity() {
		return false
	}
	if f.RequireCoordinate && a.Coordinate == nil {
		return false
	}
	return true
}

type participantStore struct{ s *Store }

var _ activity.ParticipantStore = participantStore{}

func (st participantStore) ByActivity(ctx context.Context, activityId uuid.UUID) ([]activity.Participant, error) {
	participants := append([]activity.Participant{}, st.s.participants[activityId]...)
	sort.Slice(participants, func(i, j int) bool {
		if !participants[i].JoinedAt.Equal(participants[j].JoinedAt) {
			return participants[i].JoinedAt.Before(participants[j].JoinedAt)
		}
		return participants[i].UserId.String() < participants[j].UserId.String()
	})
	return participants, nil
}

func (st participantStore) ByUser(ctx context.Context, userId uuid.UUID) (map[uuid.UUID]activity.Participant, error) {
	byActivity := make(map[uuid.UUID]activity.Participant)
	for activityId, participants := range st.s.participants {
		for _, p := range participants {
			if p.UserId == userId {
				byActivity[activityId] = p
			}
		}
	}
	return byActivity, nil
}

func (st participantStore) AttendedActivityIds(ctx context.Context, userId uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	for activityId, participants := range st.s.participants {
		for _, p := range participants {
			if p.UserId == userId && p.Attendance == activity.AttendanceAttended {
				ids = append(ids, activityId)
			}
		}
	}
	return ids, nil
}

func (st participantStore) AttendedCategoryIds(ctx context.Context, userId uuid.UUID) (map[uuid.UUID]bool, error) {
	categories := make(map[uuid.UUID]bool)
	attended, _ := st.AttendedActivityIds(ctx, userId)
	for _, activityId := range attended {
		if a, ok := st.s.activities[activityId]; ok && a.CategoryId != nil {
			categories[*a.CategoryId] = true
		}
	}
	return categories, nil
}

func (st participantStore) AttendeesOf(ctx context.Context, activityIds []uuid.UUID) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool)
	users := []uuid.UUID{}
	for _, activityId := range activityIds {
		for _, p := range st.s.participants[activityId] {
			if p.Attendance == activity.AttendanceAttended && !seen[p.UserId] {
				seen[p.UserId] = true
				users = append(users, p.UserId)
			}
		}
	}
	return users, nil
}

func (st participantStore) AttendedByUsers(ctx context.Context, userIds []uuid.UUID) ([]uuid.UUID, error) {
	wanted := make(map[uuid.UUID]bool, len(userIds))
	for _, id := range userIds {
		wanted[id] = true
	}
	seen := make(map[uuid.UUID]bool)
	ids := []uuid.UUID{}
	for activityId, participants := range st.s.participants {
		for _, p := range participants {
			if wanted[p.UserId] && p.Attendance == activity.AttendanceAttended && !seen[activityId] {
				seen[activityId] = true
				ids = append(ids, activityId)
			}
		}
	}
	return ids, nil
}

type socialStore struct{ s *Store }

var _ activity.SocialStore = socialStore{}

func (st socialStore) BlockedWith(ctx context.Context, userId uuid.UUID) (map[uuid.UUID]bool, error) {
	blocked := make(map[uuid.UUID]bool)
	for other := range st.s.blocks[userId] {
		blocked[other] = true
	}
	for blocker, targets := range st.s.blocks {
		if targets[userId] {
			blocked[blocker] = true
		}
	}
	return blocked, nil
}

func (st socialStore) Friends(ctx context.Context, userId uuid.UUID) (map[uuid.UUID]bool, error) {
	friends := make(map[uuid.UUID]bool, len(st.s.friends[userId]))
	for other := range st.s.friends[userId] {
		friends[other] = true
	}
	return friends, nil
}

func (st socialStore) AcceptedInvitations(ctx context.Context, userId uuid.UUID) (map[uuid.UUID]bool, error) {
	invited := make(map[uuid.UUID]bool, len(st.s.invitations[userId]))
	for activityId := range st.s.invitations[userId] {
		invited[activityId] = true
	}
	return invited, nil
}

func (st socialStore) InterestTags(ctx context.Context, userId uuid.UUID) (map[string]bool, error) {
	tags := make(map[string]bool, len(st.s.interests[userId]))
	for tag := range st.s.interests[userId] {
		tags[tag] = true
	}
	return tags, nil
}

type userStore struct{ s *Store }

var _ activity.UserStore = userStore{}

func (st userStore) ByIds(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]activity.User, error) {
	users := make(map[uuid.UUID]activity.User, len(ids))
	for _, id := range ids {
		if u, ok := st.s.users[id]; ok {
			users[id] = u
		}
	}
	return users, nil
}
