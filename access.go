package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type DenyReason string

const (
	DenyNone        DenyReason = ""
	DenyBlocked     DenyReason = "blocked"
	DenyFriendsOnly DenyReason = "friends_only"
	DenyInviteOnly  DenyReason = "invite_only"
)

// ForbiddenError is returned by direct lookups when the viewer may not
// access the activity. Discovery queries never return it; they drop the
// row instead.
type ForbiddenError struct {
	Reason DenyReason
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("access forbidden: %s", e.Reason)
}

// ViewerRelations is everything about the viewer's social surroundings
// the access decision needs. It is loaded once per request and reused
// for every candidate row, so the same decision logic runs for a single
// lookup and for a thousand-row search.
type ViewerRelations struct {
	// BlockedUsers holds users with a block edge in either direction.
	BlockedUsers map[uuid.UUID]bool
	// Friends holds users with an accepted friendship.
	Friends map[uuid.UUID]bool
	// InvitedTo holds activities with an accepted invitation.
	InvitedTo map[uuid.UUID]bool
	// Participations holds the viewer's participation per activity,
	// any status.
	Participations map[uuid.UUID]Participant
}

func LoadViewerRelations(ctx context.Context, s Stores, viewerId uuid.UUID) (ViewerRelations, error) {
	blocked, err := s.Social.BlockedWith(ctx, viewerId)
	if err != nil {
		return ViewerRelations{}, fmt.Errorf("load blocked users: %w", err)
	}
	friends, err := s.Social.Friends(ctx, viewerId)
	if err != nil {
		return ViewerRelations{}, fmt.Errorf("load friends: %w", err)
	}
	invited, err := s.Social.AcceptedInvitations(ctx, viewerId)
	if err != nil {
		return ViewerRelations{}, fmt.Errorf("load invitations: %w", err)
	}
	participations, err := s.Participants.ByUser(ctx, viewerId)
	if err != nil {
		return ViewerRelations{}, fmt.Errorf("load participations: %w", err)
	}
	return ViewerRelations{
		BlockedUsers:   blocked,
		Friends:        friends,
		InvitedTo:      invited,
		Participations: participations,
	}, nil
}

// Access is the outcome of the authorization predicate for one
// (viewer, activity) pair.
type Access struct {
	Visible bool
	Reason  DenyReason

	IsBlocked           bool
	CanJoin             bool
	CanEdit             bool
	ParticipationStatus ParticipationStatus
}

// Decide evaluates visibility and the computed flags for the viewer.
// Order matters: blocking first (skipped for xxl activities), privacy
// only when not blocked. Existing participants keep access to
// friends_only and invite_only activities even if unfriended or
// uninvited later.
func Decide(viewer Viewer, a *Activity, rel ViewerRelations, now time.Time) Access {
	access := Access{}

	participation, participates := rel.Participations[a.Id]
	if participates {
		access.ParticipationStatus = participation.Status
		access.CanEdit = participation.Role == RoleOrganizer || participation.Role == RoleCoOrganizer
	}

	if a.Type != TypeXXL && rel.BlockedUsers[a.OrganizerId] && a.OrganizerId != viewer.UserId {
		access.IsBlocked = true
		access.Reason = DenyBlocked
		return access
	}

	switch a.PrivacyLevel {
	case PrivacyFriendsOnly:
		if !rel.Friends[a.OrganizerId] && !participates && a.OrganizerId != viewer.UserId {
			access.Reason = DenyFriendsOnly
			return access
		}
	case PrivacyInviteOnly:
		if !rel.InvitedTo[a.Id] && !participates && a.OrganizerId != viewer.UserId {
			access.Reason = DenyInviteOnly
			return access
		}
	}

	access.Visible = true
	activeParticipation := participates &&
		(participation.Status == ParticipationRegistered || participation.Status == ParticipationWaitlisted)
	access.CanJoin = a.Status == StatusPublished &&
		a.ScheduledAt.After(now) &&
		a.HasOpenCapacity() &&
		!activeParticipation &&
		a.OrganizerId != viewer.UserId
	return access
}
