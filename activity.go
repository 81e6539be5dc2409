package activity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrActivityNotFound = errors.New("activity not found")

type Type string

const (
	TypeStandard   Type = "standard"
	TypeXXL        Type = "xxl"
	TypeWomensOnly Type = "womens_only"
	TypeMensOnly   Type = "mens_only"
)

type PrivacyLevel string

const (
	PrivacyPublic      PrivacyLevel = "public"
	PrivacyFriendsOnly PrivacyLevel = "friends_only"
	PrivacyInviteOnly  PrivacyLevel = "invite_only"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

type Activity struct {
	Id                uuid.UUID
	OrganizerId       uuid.UUID
	CategoryId        *uuid.UUID
	CategoryName      string
	Title             string
	Description       string
	Type              Type
	PrivacyLevel      PrivacyLevel
	Status            Status
	ScheduledAt       time.Time
	DurationMinutes   *int
	JoinableAtFree    *time.Time
	MaxParticipants   int
	ParticipantsCount int
	City              string
	Language          string
	Coordinate        *Coordinate
	Tags              []string
	CreatedAt         time.Time
}

func (a *Activity) SpotsAvailable() int {
	spots := a.MaxParticipants - a.ParticipantsCount
	if spots < 0 {
		return 0
	}
	return spots
}

func (a *Activity) HasOpenCapacity() bool {
	return a.ParticipantsCount < a.MaxParticipants
}

func (a *Activity) HasTagOf(tags map[string]bool) bool {
	for _, t := range a.Tags {
		if tags[t] {
			return true
		}
	}
	return false
}

// CandidateFilter is the mechanical part of a discovery query: every
// field is optional and conjunctive. Subscription gating happens before
// a filter reaches this struct, authorization happens after the rows
// come back. Stores only translate what is here.
type CandidateFilter struct {
	// Query matches title or description, case-insensitive substring.
	Query      string
	CategoryId *uuid.UUID
	Type       *Type
	City       string
	Language   string
	// Tags matches activities having at least one of these tags.
	Tags              []string
	DateFrom          *time.Time
	DateTo            *time.Time
	HasSpotsAvailable bool
	// RequireCoordinate excludes rows without a stored coordinate.
	RequireCoordinate bool
	// PublishedAfter is the discovery gate: status=published and
	// scheduled_at strictly after this instant.
	PublishedAfter time.Time
}

type ActivityStore interface {
	// ById returns the activity in any status.
	// Returns ErrActivityNotFound if the id is unknown.
	ById(ctx context.Context, id uuid.UUID) (*Activity, error)

	// Candidates returns all activities satisfying the filter, ordered by
	// scheduled_at then id ascending. Authorization is not applied here.
	Candidates(ctx context.Context, filter CandidateFilter) ([]Activity, error)
}
