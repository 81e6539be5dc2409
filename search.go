package activity

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Page is 1-based. The transport layer bounds PageSize; any positive
// values must behave correctly here, including pages past the end.
type Page struct {
	Number int
	Size   int
}

func (p Page) offset() int {
	return (p.Number - 1) * p.Size
}

// SearchFilter is the caller-facing filter set. All fields are optional
// and conjunctive. Category and language are honored for club/premium
// viewers only and silently dropped otherwise: tier gating fails open to
// "filter not applied", never to an error, so feature availability does
// not leak through error codes.
type SearchFilter struct {
	Query             string
	CategoryId        *uuid.UUID
	Type              *Type
	City              string
	Language          string
	Tags              []string
	DateFrom          *time.Time
	DateTo            *time.Time
	HasSpotsAvailable bool
	Page              Page
}

func (f SearchFilter) compile(viewer Viewer, now time.Time) CandidateFilter {
	c := CandidateFilter{
		Query:             f.Query,
		Type:              f.Type,
		City:              f.City,
		Tags:              f.Tags,
		DateFrom:          f.DateFrom,
		DateTo:            f.DateTo,
		HasSpotsAvailable: f.HasSpotsAvailable,
		PublishedAfter:    now,
	}
	if viewer.ClubOrPremium() {
		c.CategoryId = f.CategoryId
		c.Language = f.Language
	}
	return c
}

type NearbyFilter struct {
	Center     Coordinate
	RadiusKm   float64
	CategoryId *uuid.UUID
	DateFrom   *time.Time
	Page       Page
}

func (f NearbyFilter) compile(viewer Viewer, now time.Time) CandidateFilter {
	c := CandidateFilter{
		DateFrom:          f.DateFrom,
		RequireCoordinate: true,
		PublishedAfter:    now,
	}
	if viewer.ClubOrPremium() {
		c.CategoryId = f.CategoryId
	}
	return c
}

type FeedFilter struct {
	IncludeFriends   bool
	IncludeInterests bool
	Page             Page
}

// ActivitySummary is the row shape shared by all discovery queries.
type ActivitySummary struct {
	Id                uuid.UUID
	Title             string
	Description       string
	Type              Type
	ScheduledAt       time.Time
	DurationMinutes   *int
	MaxParticipants   int
	ParticipantsCount int
	SpotsAvailable    int
	City              string
	Language          string
	Tags              []string
	OrganizerUsername string
	OrganizerVerified bool
	CategoryName      string
	CanJoin           bool
	IsBlocked         bool
	// DistanceKm is set by nearby queries only.
	DistanceKm *float64
}

type SearchResult struct {
	TotalCount int
	Page       int
	PageSize   int
	Activities []ActivitySummary
}

// sortBySchedule orders deterministically: scheduled_at ascending, id
// ascending as tie-break so pagination stays stable for equal
// timestamps.
func sortBySchedule(activities []Activity) {
	sort.Slice(activities, func(i, j int) bool {
		if !activities[i].ScheduledAt.Equal(activities[j].ScheduledAt) {
			return activities[i].ScheduledAt.Before(activities[j].ScheduledAt)
		}
		return activities[i].Id.String() < activities[j].Id.String()
	})
}

// paginate returns the requested window. Offsets past the end yield an
// empty slice, never an error.
func paginate(activities []Activity, page Page) []Activity {
	offset := page.offset()
	if offset >= len(activities) {
		return []Activity{}
	}
	end := offset + page.Size
	if end > len(activities) {
		end = len(activities)
	}
	return activities[offset:end]
}
