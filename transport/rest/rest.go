package rest

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	activity "github.com/rbrinkke/activity-api"
)

type ErrorResponse struct {
	ErrorMessage string `json:"error_message"`
	Reason       string `json:"reason,omitempty"`
}

func ErrorHandler(ctx *fiber.Ctx, err error) error {
	var forbidden *activity.ForbiddenError
	switch {
	case errors.Is(err, activity.ErrActivityNotFound):
		return ctx.
			Status(fiber.StatusNotFound).
			JSON(&ErrorResponse{ErrorMessage: "activity not found"})
	case errors.As(err, &forbidden):
		return ctx.
			Status(fiber.StatusForbidden).
			JSON(&ErrorResponse{ErrorMessage: "access denied", Reason: string(forbidden.Reason)})
	}
	if fe, ok := err.(*fiber.Error); ok {
		return ctx.
			Status(fe.Code).
			JSON(&ErrorResponse{ErrorMessage: fe.Message})
	}
	requestLog(ctx).WithError(err).Errorln("Internal server error.")
	// keep internal server errors private. reply with generic error message.
	return ctx.
		Status(fiber.ErrInternalServerError.Code).
		JSON(&ErrorResponse{ErrorMessage: fiber.ErrInternalServerError.Message})
}

func NotFoundHandler(ctx *fiber.Ctx) error {
	return fiber.NewError(fiber.StatusNotFound)
}

func combineHandlers(handlers ...fiber.Handler) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		for _, handler := range handlers {
			if err := handler(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

func JsonErrorMessageResponse(message string) string {
	bytes, err := json.Marshal(ErrorResponse{ErrorMessage: message})
	if err != nil {
		panic(err)
	}
	return string(bytes)
}
