package persistent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	activity "github.com/rbrinkke/activity-api"
	"github.com/uptrace/bun"
)

type Participant struct {
	bun.BaseModel `bun:"table:activity_participant"`

	ActivityId          uuid.UUID `bun:",pk,type:uuid"`
	UserId              uuid.UUID `bun:",pk,type:uuid"`
	Role                string    `bun:",notnull"`
	ParticipationStatus string    `bun:",notnull"`
	AttendanceStatus    string    `bun:",notnull"`
	JoinedAt            time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

func (p *Participant) ToDomain() activity.Participant {
	return activity.Participant{
		ActivityId: p.ActivityId,
		UserId:     p.UserId,
		Role:       activity.ParticipantRole(p.Role),
		Status:     activity.ParticipationStatus(p.ParticipationStatus),
		Attendance: activity.AttendanceStatus(p.AttendanceStatus),
		JoinedAt:   p.JoinedAt,
	}
}

type ParticipantStore struct {
	DB bun.IDB
}

var _ activity.ParticipantStore = (*ParticipantStore)(nil)

func (s *ParticipantStore) ByActivity(ctx context.Context, activityId uuid.UUID) ([]activity.Participant, error) {
	var models []Participant
	err := s.DB.NewSelect().
		Model(&models).
		Where(`activity_participant.activity_id=?`, activityId).
		Order("joined_at ASC", "user_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select participants: %w", err)
	}

	participants := make([]activity.Participant, len(models))
	for i := range models {
		participants[i] = models[i].ToDomain()
	}
	return participants, nil
}

func (s *ParticipantStore) ByUser(ctx context.Context, userId uuid.UUID) (map[uuid.UUID]activity.Participant, error) {
	var models []Participant
	err := s.DB.NewSelect().
		Model(&models).
		Where(`activity_participant.user_id=?`, userId).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select user participations: %w", err)
	}

	byActivity := make(map[uuid.UUID]activity.Participant, len(models))
	for i := range models {
		byActivity[models[i].ActivityId] = models[i].ToDomain()
	}
	return byActivity, nil
}

func (s *ParticipantStore) AttendedActivityIds(ctx context.Context, userId uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := s.DB.NewSelect().
		Model((*Participant)(nil)).
		Column("activity_id").
		Where(`activity_participant.user_id=?`, userId).
		Where(`activity_participant.attendance_status=?`, activity.AttendanceAttended).
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("select attended activities: %w", err)
	}
	return ids, nil
}

func (s *ParticipantStore) AttendedCategoryIds(ctx context.Context, userId uuid.UUID) (map[uuid.UUID]bool, error) {
	ids := []uuid.UUID{}
	err := s.DB.NewSelect().
		Model((*Participant)(nil)).
		ColumnExpr("DISTINCT a.category_id").
		Join(`JOIN activity AS a ON a.id=activity_participant.activity_id`).
		Where(`activity_participant.user_id=?`, userId).
		Where(`activity_participant.attendance_status=?`, activity.AttendanceAttended).
		Where(`a.category_id IS NOT NULL`).
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("select attended categories: %w", err)
	}

	categories := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		categories[id] = true
	}
	return categories, nil
}

func (s *ParticipantStore) AttendeesOf(ctx context.Context, activityIds []uuid.UUID) ([]uuid.UUID, error) {
	if len(activityIds) == 0 {
		return []uuid.UUID{}, nil
	}
	ids := []uuid.UUID{}
	err := s.DB.NewSelect().
		Model((*Participant)(nil)).
		ColumnExpr("DISTINCT user_id").
		Where(`activity_participant.activity_id IN (?)`, bun.In(activityIds)).
		Where(`activity_participant.attendance_status=?`, activity.AttendanceAttended).
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("select attendees: %w", err)
	}
	return ids, nil
}

func (s *ParticipantStore) AttendedByUsers(ctx context.Context, userIds []uuid.UUID) ([]uuid.UUID, error) {
	if len(userIds) == 0 {
		return []uuid.UUID{}, nil
	}
	ids := []uuid.UUID{}
	err := s.DB.NewSelect().
		Model((*Participant)(nil)).
		ColumnExpr("DISTINCT activity_id").
		Where(`activity_participant.user_id IN (?)`, bun.In(userIds)).
		Where(`activity_participant.attendance_status=?`, activity.AttendanceAttended).
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("select neighbor activities: %w", err)
	}
	return ids, nil
}
