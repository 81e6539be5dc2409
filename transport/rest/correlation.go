package rest

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	HeaderRequestId      = "X-Request-Id"
	correlationLocalsKey = "request_id"
)

// CorrelationHandler tags every request with an id so log lines of one
// request can be grepped together. An id forwarded by the gateway is
// kept, otherwise a fresh one is generated.
func CorrelationHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		requestId := ctx.Get(HeaderRequestId)
		if requestId == "" {
			requestId = uuid.NewString()
		}
		ctx.Locals(correlationLocalsKey, requestId)
		ctx.Set(HeaderRequestId, requestId)
		return ctx.Next()
	}
}
