package rest

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	activity "github.com/rbrinkke/activity-api"
)

const (
	HeaderUserId            = "X-User-Id"
	HeaderSubscriptionLevel = "X-Subscription-Level"

	viewerLocalsKey = "viewer"
)

// RequestAuthorizer trusts the identity headers set by the api gateway,
// which terminates the actual authentication. Requests reaching this
// service without them are unauthorized. Unknown subscription levels
// degrade to free, never to an error.
func RequestAuthorizer() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		rawUserId := ctx.Get(HeaderUserId)
		if rawUserId == "" {
			return fiber.ErrUnauthorized
		}
		userId, err := uuid.Parse(rawUserId)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid user id")
		}

		subscription := activity.SubscriptionLevel(ctx.Get(HeaderSubscriptionLevel))
		switch subscription {
		case activity.SubscriptionClub, activity.SubscriptionPremium:
		default:
			subscription = activity.SubscriptionFree
		}

		viewer := activity.Viewer{UserId: userId, Subscription: subscription}
		requestLog(ctx).
			WithField("user_id", viewer.UserId).
			Debugln("Authorized access.")
		ctx.Locals(viewerLocalsKey, viewer)
		return nil
	}
}

func requestViewer(ctx *fiber.Ctx) (activity.Viewer, error) {
	viewer, ok := ctx.Locals(viewerLocalsKey).(activity.Viewer)
	if !ok {
		return activity.Viewer{}, fiber.ErrUnauthorized
	}
	return viewer, nil
}
