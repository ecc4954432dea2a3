package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apphttp "github.com/spec-kit/staff-service/internal/api/http"
	"github.com/spec-kit/staff-service/internal/api/http/handlers"
	"github.com/spec-kit/staff-service/internal/domain"
	"github.com/spec-kit/staff-service/internal/service"
)

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) Create(ctx context.Context, in service.CreateStaffInput) (*domain.Staff, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Staff), args.Error(1)
}

func (m *mockDirectory) List(ctx context.Context, q service.StaffListQuery) (*service.StaffPage, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StaffPage), args.Error(1)
}

func (m *mockDirectory) Get(ctx context.Context, id string) (*domain.Staff, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Staff), args.Error(1)
}

func (m *mockDirectory) Update(ctx context.Context, id string, patch domain.StaffPatch) (*domain.Staff, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Staff), args.Error(1)
}

func (m *mockDirectory) Deactivate(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) Attach(ctx context.Context, staffID string, in service.AttachScheduleInput) (*domain.Schedule, error) {
	args := m.Called(ctx, staffID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Schedule), args.Error(1)
}

func (m *mockLedger) ListByStaff(ctx context.Context, staffID string) ([]domain.Schedule, error) {
	args := m.Called(ctx, staffID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Schedule), args.Error(1)
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }

type testServer struct {
	app       *fiber.App
	directory *mockDirectory
	ledger    *mockLedger
}

func newTestServer(t *testing.T, postgres, redis handlers.Pinger) *testServer {
	t.Helper()
	directory := &mockDirectory{}
	ledger := &mockLedger{}
	app := apphttp.NewApp(apphttp.ServerConfig{AppName: "staff-service"}, apphttp.RouteConfig{
		Health:    handlers.NewHealthHandler("staff-service", "test", postgres, redis),
		Staff:     handlers.NewStaffHandler(directory),
		Schedules: handlers.NewScheduleHandler(ledger),
	})
	t.Cleanup(func() {
		directory.AssertExpectations(t)
		ledger.AssertExpectations(t)
	})
	return &testServer{app: app, directory: directory, ledger: ledger}
}

func (s *testServer) do(t *testing.T, method, target, body string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func (s *testServer) doList(t *testing.T, target string) (*http.Response, []map[string]any) {
	t.Helper()
	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, target, nil), -1)
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func strPtr(s string) *string { return &s }
