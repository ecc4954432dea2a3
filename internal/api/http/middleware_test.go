package http

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/staff-service/internal/observability"
	apperrors "github.com/spec-kit/staff-service/pkg/util/errorutil"
)

func newMiddlewareApp(logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) *fiber.App {
	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, timeout)
	return app
}

func decodeError(t *testing.T, app *fiber.App, path string) (int, ErrorResponse) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil), -1)
	require.NoError(t, err)
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestErrorMiddlewareRendersDomainErrors(t *testing.T) {
	app := newMiddlewareApp(zap.NewNop(), nil, 0)
	app.Get("/conflict", func(c *fiber.Ctx) error {
		return apperrors.NewConflict("email already in use within franchise", map[string]any{"email": "a@x.com"})
	})

	status, body := decodeError(t, app, "/conflict")
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, apperrors.CodeConflict, body.Code)
	assert.Equal(t, "a@x.com", body.Details["email"])
}

func TestErrorMiddlewareLogsAndHidesInternalErrors(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	metrics := observability.NewMetrics("test")
	app := newMiddlewareApp(zap.New(core), metrics, 0)
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("relation \"staff\" does not exist")
	})

	status, body := decodeError(t, app, "/boom")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "internal server error", body.Message)
	assert.Empty(t, body.Details)

	failures := logs.FilterMessage("request failed").All()
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0].ContextMap()["error"], "does not exist")
	assert.NotEmpty(t, failures[0].ContextMap()["request_id"])

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(fiber.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `test_http_errors_total{code="INTERNAL_ERROR",method="GET",path="/boom"} 1`)
}

func TestErrorMiddlewareRecoversPanics(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	app := newMiddlewareApp(zap.New(core), nil, 0)
	app.Get("/panic", func(c *fiber.Ctx) error {
		panic("nil map write")
	})

	status, body := decodeError(t, app, "/panic")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, apperrors.CodeInternal, body.Code)
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestRequestTimeoutSetsDeadline(t *testing.T) {
	app := newMiddlewareApp(zap.NewNop(), nil, 3*time.Second)
	app.Get("/deadline", func(c *fiber.Ctx) error {
		deadline, ok := c.UserContext().Deadline()
		if !ok {
			return c.SendString("none")
		}
		return c.SendString(time.Until(deadline).Round(time.Second).String())
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/deadline", nil), -1)
	require.NoError(t, err)
	buf := make([]byte, 16)
	n, _ := resp.Body.Read(buf)
	assert.Equal(t, "3s", string(buf[:n]))
}

func TestNoTimeoutByDefault(t *testing.T) {
	app := newMiddlewareApp(zap.NewNop(), nil, 0)
	app.Get("/deadline", func(c *fiber.Ctx) error {
		_, ok := c.UserContext().Deadline()
		assert.False(t, ok)
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/deadline", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}
