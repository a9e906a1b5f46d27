package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/publora/publora/internal/dispatch"
	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/service"
	"github.com/publora/publora/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds a fiber app with the auth middleware replaced by a stub
// that injects the user id local the real jwt middleware would set.
func testApp() *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", "1")
		return c.Next()
	})
	return app
}

type fakeScheduleService struct {
	createErr error
	createdID string
	got       *transfer.ScheduleCreation
	cancelErr error
}

func (f *fakeScheduleService) Create(ctx context.Context, userID int64, sc *transfer.ScheduleCreation) (string, error) {
	f.got = sc
	return f.createdID, f.createErr
}

func (f *fakeScheduleService) List(ctx context.Context, userID int64) ([]*models.Schedule, error) {
	return []*models.Schedule{{ID: "s-1", UserID: userID}}, nil
}

func (f *fakeScheduleService) ScheduleInfo(ctx context.Context, scheduleID string, userID int64) (*models.Schedule, error) {
	return &models.Schedule{ID: scheduleID, UserID: userID}, nil
}

func (f *fakeScheduleService) Cancel(ctx context.Context, scheduleID string, userID int64) error {
	return f.cancelErr
}

type fakeInsightsService struct {
	overview *dispatch.Overview
	err      error
}

func (f *fakeInsightsService) Overview(ctx context.Context, userID int64) (*dispatch.Overview, error) {
	return f.overview, f.err
}

func TestCreateScheduleHandler(t *testing.T) {
	svc := &fakeScheduleService{createdID: "s-42"}
	app := testApp()
	app.Post("/api/schedules", NewScheduleHandler(svc).CreateSchedule)

	body := `{"caption":"hello","platforms":["twitter"],"run_at":"2026-03-01T12:00:00Z"}`
	req := httptest.NewRequest("POST", "/api/schedules", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, _ := io.ReadAll(resp.Body)
	var out map[string]string
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "s-42", out["id"])

	require.NotNil(t, svc.got)
	assert.Equal(t, []string{"twitter"}, svc.got.Platforms)
}

func TestCreateScheduleHandlerValidationError(t *testing.T) {
	svc := &fakeScheduleService{createErr: errors.New("unknown platform: myspace")}
	app := testApp()
	app.Post("/api/schedules", NewScheduleHandler(svc).CreateSchedule)

	body := `{"caption":"hello","platforms":["myspace"],"run_at":"2026-03-01T12:00:00Z"}`
	req := httptest.NewRequest("POST", "/api/schedules", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCancelScheduleHandler(t *testing.T) {
	app := testApp()
	app.Delete("/api/schedules", NewScheduleHandler(&fakeScheduleService{}).CancelSchedule)

	req := httptest.NewRequest("DELETE", "/api/schedules?id=s-1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestInsightsHandlerOverview(t *testing.T) {
	svc := &fakeInsightsService{overview: &dispatch.Overview{
		Totals: dispatch.Totals{Views: 150, Clicks: 10, CTR: 6.67},
	}}
	app := testApp()
	app.Get("/api/insights/overview", NewInsightsHandler(svc).GetOverview)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/insights/overview", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, _ := io.ReadAll(resp.Body)
	var out dispatch.Overview
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, int64(150), out.Totals.Views)
}

func TestInsightsHandlerNoConnectedPlatforms(t *testing.T) {
	svc := &fakeInsightsService{err: service.ErrNoConnectedPlatforms}
	app := testApp()
	app.Get("/api/insights/overview", NewInsightsHandler(svc).GetOverview)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/insights/overview", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
