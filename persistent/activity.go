package persistent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	activity "github.com/rbrinkke/activity-api"
	"github.com/uptrace/bun"
)

type Category struct {
	bun.BaseModel `bun:"table:category"`

	Id   uuid.UUID `bun:"id,pk,type:uuid"`
	Name string    `bun:",notnull"`
}

type Activity struct {
	bun.BaseModel `bun:"table:activity"`

	Id                uuid.UUID  `bun:"id,pk,type:uuid"`
	OrganizerId       uuid.UUID  `bun:",notnull,type:uuid"`
	CategoryId        *uuid.UUID `bun:"type:uuid"`
	Category          *Category  `bun:"rel:belongs-to,join:category_id=id"`
	Title             string     `bun:",notnull"`
	Description       string     `bun:",notnull"`
	ActivityType      string     `bun:",notnull"`
	PrivacyLevel      string     `bun:",notnull"`
	Status            string     `bun:",notnull"`
	ScheduledAt       time.Time  `bun:",notnull"`
	DurationMinutes   *int
	JoinableAtFree    *time.Time
	MaxParticipants   int `bun:",notnull"`
	ParticipantsCount int `bun:"current_participants_count,notnull"`
	City              string
	Language          string `bun:",notnull"`
	Latitude          *float64
	Longitude         *float64
	Tags              []string  `bun:",array"`
	CreatedAt         time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

func (a *Activity) ToDomain() activity.Activity {
	d := activity.Activity{
		Id:                a.Id,
		OrganizerId:       a.OrganizerId,
		CategoryId:        a.CategoryId,
		Title:             a.Title,
		Description:       a.Description,
		Type:              activity.Type(a.ActivityType),
		PrivacyLevel:      activity.PrivacyLevel(a.PrivacyLevel),
		Status:            activity.Status(a.Status),
		ScheduledAt:       a.ScheduledAt,
		DurationMinutes:   a.DurationMinutes,
		JoinableAtFree:    a.JoinableAtFree,
		MaxParticipants:   a.MaxParticipants,
		ParticipantsCount: a.ParticipantsCount,
		City:              a.City,
		Language:          a.Language,
		Tags:              a.Tags,
		CreatedAt:         a.CreatedAt,
	}
	if a.Category != nil {
		d.CategoryName = a.Category.Name
	}
	if a.Latitude != nil && a.Longitude != nil {
		d.Coordinate = &activity.Coordinate{Lat: *a.Latitude, Lon: *a.Longitude}
	}
	return d
}

// FromDomain is the inverse mapping, used by seeders and tests.
func FromDomain(d activity.Activity) *Activity {
	a := &Activity{
		Id:                d.Id,
		OrganizerId:       d.OrganizerId,
		CategoryId:        d.CategoryId,
		Title:             d.Title,
		Description:       d.Description,
		ActivityType:      string(d.Type),
		PrivacyLevel:      string(d.PrivacyLevel),
		Status:            string(d.Status),
		ScheduledAt:       d.ScheduledAt,
		DurationMinutes:   d.DurationMinutes,
		JoinableAtFree:    d.JoinableAtFree,
		MaxParticipants:   d.MaxParticipants,
		ParticipantsCount: d.ParticipantsCount,
		City:              d.City,
		Language:          d.Language,
		Tags:              d.Tags,
		CreatedAt:         d.CreatedAt,
	}
	if d.Coordinate != nil {
		lat, lon := d.Coordinate.Lat, d.Coordinate.Lon
		a.Latitude, a.Longitude = &lat, &lon
	}
	return a
}

type ActivityStore struct {
	DB bun.IDB
}

var _ activity.ActivityStore = (*ActivityStore)(nil)

func (s *ActivityStore) ById(ctx context.Context, id uuid.UUID) (*activity.Activity, error) {
	model := new(Activity)
	err := s.DB.NewSelect().
		Model(model).
		Relation("Category").
		Where(`activity.id=?`, id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, activity.ErrActivityNotFound
		}
		return nil, fmt.Errorf("select activity: %w", err)
	}
	domain := model.ToDomain()
	return &domain, nil
}

// Candidates compiles the filter into one conditional WHERE chain.
// Each field contributes its clause independently; absent fields
// contribute nothing.
func (s *ActivityStore) Candidates(ctx context.Context, filter activity.CandidateFilter) ([]activity.Activity, error) {
	var models []Activity
	q := s.DB.NewSelect().
		Model(&models).
		Relation("Category").
		Where(`activity.status=?`, activity.StatusPublished).
		Where(`activity.scheduled_at>?`, filter.PublishedAfter)

	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where(`activity.title ILIKE ?`, pattern).
				WhereOr(`activity.description ILIKE ?`, pattern)
		})
	}
	if filter.CategoryId != nil {
		q = q.Where(`activity.category_id=?`, *filter.CategoryId)
	}
	if filter.Type != nil {
		q = q.Where(`activity.activity_type=?`, string(*filter.Type))
	}
	if filter.City != "" {
		q = q.Where(`LOWER(activity.city)=LOWER(?)`, filter.City)
	}
	if filter.Language != "" {
		q = q.Where(`LOWER(activity.language)=LOWER(?)`, filter.Language)
	}
	if len(filter.Tags) > 0 {
		q = q.Where(`activity.tags && ARRAY[?]::varchar[]`, bun.In(filter.Tags))
	}
	if filter.DateFrom != nil {
		q = q.Where(`activity.scheduled_at>=?`, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		q = q.Where(`activity.scheduled_at<=?`, *filter.DateTo)
	}
	if filter.HasSpotsAvailable {
		q = q.Where(`activity.current_participants_count<activity.max_participants`)
	}
	if filter.RequireCoordinate {
		q = q.Where(`activity.latitude IS NOT NULL`).
			Where(`activity.longitude IS NOT NULL`)
	}

	err := q.
		Order("scheduled_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select candidates: %w", err)
	}

	domain := make([]activity.Activity, len(models))
	for i := range models {
		domain[i] = models[i].ToDomain()
	}
	return domain, nil
}
