package rest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	activity "github.com/rbrinkke/activity-api"
	"github.com/rbrinkke/activity-api/feedcache"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	defaultRadiusKm = 10.0
	maxRadiusKm     = 100.0

	defaultRecommendationLimit = 10
	maxRecommendationLimit     = 50
)

type DiscoveryController struct {
	Service *activity.DiscoveryService

	// Cache is optional. When set, feed and recommendation payloads are
	// served from it within the configured ttl.
	Cache *feedcache.Cache
}

func (c *DiscoveryController) InstallTo(app *fiber.App) {
	authorizer := RequestAuthorizer()
	app.Get("/activities/search", combineHandlers(authorizer, c.serveSearch))
	app.Get("/activities/nearby", combineHandlers(authorizer, c.serveNearby))
	app.Get("/activities/feed", combineHandlers(authorizer, c.serveFeed))
	app.Get("/activities/recommendations", combineHandlers(authorizer, c.serveRecommendations))
	app.Get("/activities/:activity_id", combineHandlers(authorizer, c.serveById))
	app.Get("/activities/:activity_id/participants", combineHandlers(authorizer, c.serveParticipants))
	app.Get("/activities/:activity_id/waitlist", combineHandlers(authorizer, c.serveWaitlist))
}

func (c *DiscoveryController) serveById(ctx *fiber.Ctx) error {
	viewer, err := requestViewer(ctx)
	if err != nil {
		return err
	}
	activityId, err := paramActivityId(ctx)
	if err != nil {
		return err
	}

	detail, err := c.Service.ById(ctx.Context(), viewer, activityId)
	if err != nil {
		return err
	}
	return ctx.JSON(detailResponse(detail))
}

func (c *DiscoveryController) serveSearch(ctx *fiber.Ctx) error {
	viewer, err := requestViewer(ctx)
	if err != nil {
		return err
	}
	filter := activity.SearchFilter{
		Query:             ctx.Query("q"),
		City:              ctx.Query("city"),
		Language:          ctx.Query("language"),
		Tags:              queryTags(ctx),
		HasSpotsAvailable: ctx.Query("has_spots") == "true",
	}
	if filter.Page, err = queryPage(ctx); err != nil {
		return err
	}
	if filter.CategoryId, err = queryUuid(ctx, "category_id"); err != nil {
		return err
	}
	if filter.Type, err = queryType(ctx); err != nil {
		return err
	}
	if filter.DateFrom, err = queryTime(ctx, "date_from"); err != nil {
		return err
	}
	if filter.DateTo, err = queryTime(ctx, "date_to"); err != nil {
		return err
	}

	result, err := c.Service.Search(ctx.Context(), viewer, filter)
	if err != nil {
		return err
	}
	return ctx.JSON(searchResponse(result))
}

func (c *DiscoveryController) serveNearby(ctx *fiber.Ctx) error {
	viewer, err := requestViewer(ctx)
	if err != nil {
		return err
	}
	lat, err := queryFloat(ctx, "lat")
	if err != nil {
		return err
	}
	lon, err := queryFloat(ctx, "lon")
	if err != nil {
		return err
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid coordinate")
	}

	filter := activity.NearbyFilter{
		Center:   activity.Coordinate{Lat: lat, Lon: lon},
		RadiusKm: defaultRadiusKm,
	}
	if raw := ctx.Query("radius_km"); raw != "" {
		radius, err := strconv.ParseFloat(raw, 64)
		if err != nil || radius <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid radius_km")
		}
		if radius > maxRadiusKm {
			radius = maxRadiusKm
		}
		filter.RadiusKm = radius
	}
	if filter.Page, err = queryPage(ctx); err != nil {
		return err
	}
	if filter.CategoryId, err = queryUuid(ctx, "category_id"); err != nil {
		return err
	}
	if filter.DateFrom, err = queryTime(ctx, "date_from"); err != nil {
		return err
	}

	result, err := c.Service.Nearby(ctx.Context(), viewer, filter)
	if err != nil {
		return err
	}
	return ctx.JSON(searchResponse(result))
}

func (c *DiscoveryController) serveFeed(ctx *fiber.Ctx) error {
	viewer, err := requestViewer(ctx)
	if err != nil {
		return err
	}
	filter := activity.FeedFilter{
		IncludeFriends:   ctx.Query("include_friends") != "false",
		IncludeInterests: ctx.Query("include_interests") != "false",
	}
	if filter.Page, err = queryPage(ctx); err != nil {
		return err
	}

	cacheKey := fmt.Sprintf("feed:%s:%t:%t:%d:%d",
		viewer.UserId, filter.IncludeFriends, filter.IncludeInterests, filter.Page.Number, filter.Page.Size)
	if payload, ok := c.Cache.Get(cacheKey); ok {
		ctx.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return ctx.Send(payload)
	}

	result, err := c.Service.Feed(ctx.Context(), viewer, filter)
	if err != nil {
		return err
	}
	return c.serveCached(ctx, cacheKey, searchResponse(result))
}

func (c *DiscoveryController) serveRecommendations(ctx *fiber.Ctx) error {
	viewer, err := requestViewer(ctx)
	if err != nil {
		return err
	}
	limit := defaultRecommendationLimit
	if raw := ctx.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid limit")
		}
		if limit > maxRecommendationLimit {
			limit = maxRecommendationLimit
		}
	}

	cacheKey := fmt.Sprintf("recommendations:%s:%d", viewer.UserId, limit)
	if payload, ok := c.Cache.Get(cacheKey); ok {
		ctx.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return ctx.Send(payload)
	}

	summaries, err := c.Service.Recommendations(ctx.Context(), viewer, limit)
	if err != nil {
		return err
	}
	response := RecommendationsResponse{
		TotalCount: len(summaries),
		Activities: summariesResponse(summaries),
	}
	return c.serveCached(ctx, cacheKey, response)
}

func (c *DiscoveryController) serveParticipants(ctx *fiber.Ctx) error {
	viewer, err := requestViewer(ctx)
	if err != nil {
		return err
	}
	activityId, err := paramActivityId(ctx)
	if err != nil {
		return err
	}

	list, err := c.Service.Participants(ctx.Context(), viewer, activityId)
	if err != nil {
		return err
	}
	participants := make([]ParticipantResponse, len(list.Participants))
	for i, p := range list.Participants {
		participants[i] = participantResponse(p)
	}
	return ctx.JSON(ParticipantListResponse{
		ActivityId:        list.ActivityId,
		TotalParticipants: list.TotalParticipants,
		MaxParticipants:   list.MaxParticipants,
		Participants:      participants,
	})
}

func (c *DiscoveryController) serveWaitlist(ctx *fiber.Ctx) error {
	viewer, err := requestViewer(ctx)
	if err != nil {
		return err
	}
	activityId, err := paramActivityId(ctx)
	if err != nil {
		return err
	}

	waitlist, err := c.Service.WaitlistOf(ctx.Context(), viewer, activityId)
	if err != nil {
		return err
	}
	entries := make([]WaitlistEntryResponse, len(waitlist.Entries))
	for i, e := range waitlist.Entries {
		entries[i] = WaitlistEntryResponse{
			ParticipantResponse: participantResponse(e.ParticipantInfo),
			Position:            e.Position,
		}
	}
	return ctx.JSON(WaitlistResponse{
		ActivityId:    waitlist.ActivityId,
		TotalWaitlist: waitlist.TotalWaitlist,
		Entries:       entries,
	})
}

// serveCached renders the response once, stores the payload and sends
// the same bytes, so cache hits and misses serve identical documents.
func (c *DiscoveryController) serveCached(ctx *fiber.Ctx, cacheKey string, response interface{}) error {
	payload, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	c.Cache.Put(cacheKey, payload)
	ctx.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return ctx.Send(payload)
}

func paramActivityId(ctx *fiber.Ctx) (uuid.UUID, error) {
	raw := ctx.Params("activity_id")
	activityId, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid activity id")
	}
	return activityId, nil
}

func queryPage(ctx *fiber.Ctx) (activity.Page, error) {
	page := activity.Page{Number: 1, Size: defaultPageSize}
	if raw := ctx.Query("page"); raw != "" {
		number, err := strconv.Atoi(raw)
		if err != nil || number < 1 {
			return activity.Page{}, fiber.NewError(fiber.StatusBadRequest, "invalid page")
		}
		page.Number = number
	}
	if raw := ctx.Query("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			return activity.Page{}, fiber.NewError(fiber.StatusBadRequest, "invalid page_size")
		}
		if size > maxPageSize {
			size = maxPageSize
		}
		page.Size = size
	}
	return page, nil
}

func queryUuid(ctx *fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return &id, nil
}

func queryTime(ctx *fiber.Ctx, name string) (*time.Time, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return &t, nil
}

func queryFloat(ctx *fiber.Ctx, name string) (float64, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return 0, fiber.NewError(fiber.StatusBadRequest, "missing "+name)
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return value, nil
}

func queryType(ctx *fiber.Ctx) (*activity.Type, error) {
	raw := ctx.Query("type")
	if raw == "" {
		return nil, nil
	}
	t := activity.Type(raw)
	switch t {
	case activity.TypeStandard, activity.TypeXXL, activity.TypeWomensOnly, activity.TypeMensOnly:
		return &t, nil
	default:
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid type")
	}
}

func queryTags(ctx *fiber.Ctx) []string {
	raw := ctx.Query("tags")
	if raw == "" {
		return nil
	}
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
