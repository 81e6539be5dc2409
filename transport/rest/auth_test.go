package rest

import (
	"io/ioutil"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestRequestAuthorizer(t *testing.T) {
	assert := assert.New(t)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/test/viewer", combineHandlers(RequestAuthorizer(), func(ctx *fiber.Ctx) error {
		viewer, err := requestViewer(ctx)
		if err != nil {
			return err
		}
		return ctx.JSON(map[string]string{
			"user_id":      viewer.UserId.String(),
			"subscription": string(viewer.Subscription),
		})
	}))

	cases := []struct {
		name             string
		userId           string
		subscription     string
		expectedStatus   int
		expectedResponse string
	}{
		{
			name:             "missing user id",
			userId:           "",
			expectedStatus:   fiber.StatusUnauthorized,
			expectedResponse: JsonErrorMessageResponse("Unauthorized"),
		},
		{
			name:             "malformed user id",
			userId:           "certainly-not-a-uuid",
			expectedStatus:   fiber.StatusUnauthorized,
			expectedResponse: JsonErrorMessageResponse("invalid user id"),
		},
		{
			name:           "premium level kept",
			userId:         "a681c841-a773-4495-a2a4-18fdcb2a5d24",
			subscription:   "premium",
			expectedStatus: fiber.StatusOK,
			expectedResponse: `{"subscription":"premium",` +
				`"user_id":"a681c841-a773-4495-a2a4-18fdcb2a5d24"}`,
		},
		{
			name:           "unknown level degrades to free",
			userId:         "a681c841-a773-4495-a2a4-18fdcb2a5d24",
			subscription:   "platinum_elite",
			expectedStatus: fiber.StatusOK,
			expectedResponse: `{"subscription":"free",` +
				`"user_id":"a681c841-a773-4495-a2a4-18fdcb2a5d24"}`,
		},
		{
			name:           "absent level degrades to free",
			userId:         "a681c841-a773-4495-a2a4-18fdcb2a5d24",
			expectedStatus: fiber.StatusOK,
			expectedResponse: `{"subscription":"free",` +
				`"user_id":"a681c841-a773-4495-a2a4-18fdcb2a5d24"}`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test/viewer", nil)
			if tc.userId != "" {
				req.Header.Set(HeaderUserId, tc.userId)
			}
			if tc.subscription != "" {
				req.Header.Set(HeaderSubscriptionLevel, tc.subscription)
			}
			resp, err := app.Test(req)
			if !assert.NoError(err) {
				return
			}
			assert.Equal(tc.expectedStatus, resp.StatusCode)
			body, err := ioutil.ReadAll(resp.Body)
			if !assert.NoError(err) {
				return
			}
			assert.Equal(tc.expectedResponse, string(body))
		})
	}
}

func TestCorrelationHandler(t *testing.T) {
	assert := assert.New(t)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(CorrelationHandler())
	app.Get("/test/ping", func(ctx *fiber.Ctx) error {
		return ctx.SendString("pong")
	})

	req := httptest.NewRequest("GET", "/test/ping", nil)
	req.Header.Set(HeaderRequestId, "e2b0ecb8-0af2-4d41-9d0c-a2d37b0c95b1")
	resp, err := app.Test(req)
	if !assert.NoError(err) {
		return
	}
	assert.Equal("e2b0ecb8-0af2-4d41-9d0c-a2d37b0c95b1", resp.Header.Get(HeaderRequestId))

	req = httptest.NewRequest("GET", "/test/ping", nil)
	resp, err = app.Test(req)
	if !assert.NoError(err) {
		return
	}
	assert.NotEmpty(resp.Header.Get(HeaderRequestId))
}
