package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ParticipantRole string

const (
	RoleOrganizer   ParticipantRole = "organizer"
	RoleCoOrganizer ParticipantRole = "co_organizer"
	RoleMember      ParticipantRole = "member"
)

type ParticipationStatus string

const (
	ParticipationRegistered ParticipationStatus = "registered"
	ParticipationWaitlisted ParticipationStatus = "waitlisted"
	ParticipationCancelled  ParticipationStatus = "cancelled"
	ParticipationDeclined   ParticipationStatus = "declined"
)

type AttendanceStatus string

const (
	AttendanceRegistered AttendanceStatus = "registered"
	AttendanceAttended   AttendanceStatus = "attended"
	AttendanceNoShow     AttendanceStatus = "no_show"
)

type Participant struct {
	ActivityId uuid.UUID
	UserId     uuid.UUID
	Role       ParticipantRole
	Status     ParticipationStatus
	Attendance AttendanceStatus
	JoinedAt   time.Time
}

type ParticipantStore interface {
	// ByActivity returns all participants of the activity in any status,
	// ordered by joined_at then user id ascending.
	ByActivity(ctx context.Context, activityId uuid.UUID) ([]Participant, error)

	// ByUser returns the user's participations in any status, keyed by
	// activity id. At most one record exists per (activity, user).
	ByUser(ctx context.Context, userId uuid.UUID) (map[uuid.UUID]Participant, error)

	// AttendedActivityIds returns the activities the user actually
	// attended (attendance_status = attended).
	AttendedActivityIds(ctx context.Context, userId uuid.UUID) ([]uuid.UUID, error)

	// AttendedCategoryIds returns the set of category ids of activities
	// the user attended. Uncategorized activities contribute nothing.
	AttendedCategoryIds(ctx context.Context, userId uuid.UUID) (map[uuid.UUID]bool, error)

	// AttendeesOf returns the distinct users who attended any of the
	// given activities.
	AttendeesOf(ctx context.Context, activityIds []uuid.UUID) ([]uuid.UUID, error)

	// AttendedByUsers returns the distinct activities attended by any of
	// the given users.
	AttendedByUsers(ctx context.Context, userIds []uuid.UUID) ([]uuid.UUID, error)
}
