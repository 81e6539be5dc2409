package rest

import (
	"time"

	"github.com/google/uuid"
	activity "github.com/rbrinkke/activity-api"
)

type SummaryResponse struct {
	Id                uuid.UUID `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description,omitempty"`
	Type              string    `json:"type"`
	ScheduledAt       time.Time `json:"scheduled_at"`
	DurationMinutes   *int      `json:"duration_minutes,omitempty"`
	MaxParticipants   int       `json:"max_participants"`
	ParticipantsCount int       `json:"current_participants"`
	SpotsAvailable    int       `json:"spots_available"`
	City              string    `json:"city,omitempty"`
	Language          string    `json:"language,omitempty"`
	Tags              []string  `json:"tags,omitempty"`
	OrganizerUsername string    `json:"organizer_username"`
	OrganizerVerified bool      `json:"organizer_verified"`
	CategoryName      string    `json:"category_name,omitempty"`
	UserCanJoin       bool      `json:"user_can_join"`
	IsBlocked         bool      `json:"is_blocked"`
	DistanceKm        *float64  `json:"distance_km,omitempty"`
}

type SearchResponse struct {
	TotalCount int               `json:"total_count"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	Activities []SummaryResponse `json:"activities"`
}

type RecommendationsResponse struct {
	TotalCount int               `json:"total_count"`
	Activities []SummaryResponse `json:"activities"`
}

type OrganizerResponse struct {
	Id        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name,omitempty"`
	PhotoUrl  string    `json:"photo_url,omitempty"`
	Verified  bool      `json:"verified"`
}

type DetailResponse struct {
	Id                      uuid.UUID         `json:"id"`
	Title                   string            `json:"title"`
	Description             string            `json:"description,omitempty"`
	Type                    string            `json:"type"`
	PrivacyLevel            string            `json:"privacy_level"`
	Status                  string            `json:"status"`
	ScheduledAt             time.Time         `json:"scheduled_at"`
	DurationMinutes         *int              `json:"duration_minutes,omitempty"`
	JoinableAtFree          *time.Time        `json:"joinable_at_free,omitempty"`
	MaxParticipants         int               `json:"max_participants"`
	ParticipantsCount       int               `json:"current_participants"`
	SpotsAvailable          int               `json:"spots_available"`
	WaitlistCount           int               `json:"waitlist_count"`
	City                    string            `json:"city,omitempty"`
	Language                string            `json:"language,omitempty"`
	Latitude                *float64          `json:"latitude,omitempty"`
	Longitude               *float64          `json:"longitude,omitempty"`
	Tags                    []string          `json:"tags,omitempty"`
	CategoryName            string            `json:"category_name,omitempty"`
	Organizer               OrganizerResponse `json:"organizer"`
	CreatedAt               time.Time         `json:"created_at"`
	UserParticipationStatus string            `json:"user_participation_status,omitempty"`
	UserCanJoin             bool              `json:"user_can_join"`
	UserCanEdit             bool              `json:"user_can_edit"`
	IsBlocked               bool              `json:"is_blocked"`
}

type ParticipantResponse struct {
	UserId     uuid.UUID `json:"user_id"`
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name,omitempty"`
	PhotoUrl   string    `json:"photo_url,omitempty"`
	Verified   bool      `json:"verified"`
	Role       string    `json:"role"`
	Status     string    `json:"status"`
	Attendance string    `json:"attendance_status"`
	JoinedAt   time.Time `json:"joined_at"`
}

type ParticipantListResponse struct {
	ActivityId        uuid.UUID             `json:"activity_id"`
	TotalParticipants int                   `json:"total_participants"`
	MaxParticipants   int                   `json:"max_participants"`
	Participants      []ParticipantResponse `json:"participants"`
}

type WaitlistEntryResponse struct {
	ParticipantResponse
	Position int `json:"position"`
}

type WaitlistResponse struct {
	ActivityId    uuid.UUID               `json:"activity_id"`
	TotalWaitlist int                     `json:"total_waitlist"`
	Entries       []WaitlistEntryResponse `json:"entries"`
}

func summariesResponse(summaries []activity.ActivitySummary) []SummaryResponse {
	mapped := make([]SummaryResponse, len(summaries))
	for i, s := range summaries {
		mapped[i] = SummaryResponse{
			Id:                s.Id,
			Title:             s.Title,
			Description:       s.Description,
			Type:              string(s.Type),
			ScheduledAt:       s.ScheduledAt,
			DurationMinutes:   s.DurationMinutes,
			MaxParticipants:   s.MaxParticipants,
			ParticipantsCount: s.ParticipantsCount,
			SpotsAvailable:    s.SpotsAvailable,
			City:              s.City,
			Language:          s.Language,
			Tags:              s.Tags,
			OrganizerUsername: s.OrganizerUsername,
			OrganizerVerified: s.OrganizerVerified,
			CategoryName:      s.CategoryName,
			UserCanJoin:       s.CanJoin,
			IsBlocked:         s.IsBlocked,
			DistanceKm:        s.DistanceKm,
		}
	}
	return mapped
}

func searchResponse(result *activity.SearchResult) SearchResponse {
	return SearchResponse{
		TotalCount: result.TotalCount,
		Page:       result.Page,
		PageSize:   result.PageSize,
		Activities: summariesResponse(result.Activities),
	}
}

func detailResponse(detail *activity.ActivityDetail) DetailResponse {
	response := DetailResponse{
		Id:                      detail.Id,
		Title:                   detail.Title,
		Description:             detail.Description,
		Type:                    string(detail.Type),
		PrivacyLevel:            string(detail.PrivacyLevel),
		Status:                  string(detail.Status),
		ScheduledAt:             detail.ScheduledAt,
		DurationMinutes:         detail.DurationMinutes,
		JoinableAtFree:          detail.JoinableAtFree,
		MaxParticipants:         detail.MaxParticipants,
		ParticipantsCount:       detail.ParticipantsCount,
		SpotsAvailable:          detail.SpotsAvailable(),
		WaitlistCount:           detail.WaitlistCount,
		City:                    detail.City,
		Language:                detail.Language,
		Tags:                    detail.Tags,
		CategoryName:            detail.CategoryName,
		CreatedAt:               detail.CreatedAt,
		UserParticipationStatus: string(detail.UserParticipationStatus),
		UserCanJoin:             detail.UserCanJoin,
		UserCanEdit:             detail.UserCanEdit,
		IsBlocked:               detail.IsBlocked,
		Organizer: OrganizerResponse{
			Id:        detail.Organizer.Id,
			Username:  detail.Organizer.Username,
			FirstName: detail.Organizer.FirstName,
			PhotoUrl:  detail.Organizer.PhotoUrl,
			Verified:  detail.Organizer.Verified,
		},
	}
	if detail.Coordinate != nil {
		lat, lon := detail.Coordinate.Lat, detail.Coordinate.Lon
		response.Latitude = &lat
		response.Longitude = &lon
	}
	return response
}

func participantResponse(p activity.ParticipantInfo) ParticipantResponse {
	return ParticipantResponse{
		UserId:     p.UserId,
		Username:   p.Username,
		FirstName:  p.FirstName,
		PhotoUrl:   p.PhotoUrl,
		Verified:   p.Verified,
		Role:       string(p.Role),
		Status:     string(p.Status),
		Attendance: string(p.Attendance),
		JoinedAt:   p.JoinedAt,
	}
}
