package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/secunit404/railpulse/internal/api"
	"github.com/secunit404/railpulse/internal/api/models"
	"github.com/secunit404/railpulse/internal/auth"
	"github.com/secunit404/railpulse/internal/delay"
	"github.com/secunit404/railpulse/internal/delay/trafikverket"
	"github.com/secunit404/railpulse/internal/history"
	"github.com/secunit404/railpulse/internal/monitor"
	"github.com/secunit404/railpulse/internal/reasoncode"
	"github.com/secunit404/railpulse/internal/station"
)

// stubAnnouncements serves a fixed announcement list.
type stubAnnouncements struct {
	announcements []delay.Announcement
	err           error
}

func (s *stubAnnouncements) GetAnnouncements(_ context.Context, _ trafikverket.AnnouncementQuery) ([]delay.Announcement, error) {
	return s.announcements, s.err
}

// stubRunTrigger records queued monitor runs.
type stubRunTrigger struct {
	monitorIDs []string
}

func (s *stubRunTrigger) TriggerRun(_ context.Context, _, monitorID string) error {
	s.monitorIDs = append(s.monitorIDs, monitorID)
	return nil
}

// stubReasonCodes serves an empty catalog; the calculator then classifies
// every reason at the lowest tier, which is fine for routing tests.
type stubReasonCodes struct{}

func (stubReasonCodes) GetReasonCodes(_ context.Context) ([]delay.ReasonCode, error) {
	return nil, nil
}

type testEnv struct {
	router     http.Handler
	inviteRepo *auth.InMemoryInviteRepository
	runTrigger *stubRunTrigger
}

func testJWTService() *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "https://api.railpulse.se",
		Audience:   "railpulse-api",
	})
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zerolog.New(io.Discard)

	inviteRepo := auth.NewInMemoryInviteRepository()
	authService := auth.NewService(auth.ServiceConfig{
		JWTService:  testJWTService(),
		UserRepo:    auth.NewInMemoryUserRepository(),
		RefreshRepo: auth.NewInMemoryRefreshTokenRepository(),
		InviteRepo:  inviteRepo,
		BcryptCost:  bcrypt.MinCost,
	})

	stationRepo := station.NewInMemoryRepository()
	require.NoError(t, stationRepo.ReplaceAll(context.Background(), []station.Station{
		{Signature: "G", AdvertisedName: "Göteborg C", CachedAt: time.Now()},
		{Signature: "Cst", AdvertisedName: "Stockholm Central", CachedAt: time.Now()},
	}))
	stationService := station.NewService(station.ServiceConfig{
		Repository: stationRepo,
		Logger:     logger,
	})

	reasonService := reasoncode.NewService(reasoncode.ServiceConfig{
		Repository: reasoncode.NewInMemoryRepository(),
		Provider:   stubReasonCodes{},
		Logger:     logger,
	})

	runTrigger := &stubRunTrigger{}

	env := &testEnv{
		inviteRepo: inviteRepo,
		runTrigger: runTrigger,
	}
	env.router = api.NewRouter(api.RouterConfig{
		Version:        "test",
		BuildTime:      "2026-01-01T00:00:00Z",
		Logger:         logger,
		AuthService:    authService,
		MonitorService: monitor.NewService(monitor.NewInMemoryRepository(), stationService),
		HistoryService: history.NewService(history.ServiceConfig{
			Repository: history.NewInMemoryRepository(),
			Logger:     logger,
		}),
		StationService: stationService,
		ReasonCodes:    reasonService,
		Announcements:  &stubAnnouncements{},
		RunTrigger:     runTrigger,
	})
	return env
}

// generateTestToken generates a valid access token for a test user.
func generateTestToken(t *testing.T) string {
	t.Helper()
	user := &auth.User{
		ID:        "usr_testuser123",
		Email:     "test@example.com",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	token, _, err := testJWTService().GenerateAccessToken(user)
	require.NoError(t, err)
	return token
}

// addAuthHeader adds a valid Bearer token to the request.
func addAuthHeader(t *testing.T, req *http.Request) {
	t.Helper()
	req.Header.Set("Authorization", "Bearer "+generateTestToken(t))
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func monitorCreateBody() models.MonitorCreateRequest {
	return models.MonitorCreateRequest{
		Name:              "Morning commute",
		StationSignature:  "G",
		RunMode:           models.RunModeDaily,
		ScheduleTime:      "07:30",
		DiscordWebhookURL: "https://discord.com/api/webhooks/123/abc",
	}
}

func TestRouter_HealthCheck(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var health models.Health
	err := json.Unmarshal(w.Body.Bytes(), &health)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.NotEmpty(t, health.Time)
}

func TestRouter_ReadinessCheck(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody)
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var health models.Health
	err := json.Unmarshal(w.Body.Bytes(), &health)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, health.Status)
}

func TestRouter_SystemStatus_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody)
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_RegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.inviteRepo.Create(context.Background(), &auth.InviteCode{
		Code:      "WELCOME12345",
		CreatedBy: "usr_admin",
		ExpiresAt: time.Now().Add(24 * time.Hour),
		CreatedAt: time.Now(),
	}))

	req := jsonRequest(t, http.MethodPost, "/v1/auth/register", auth.RegisterRequest{
		Email:      "anna@example.com",
		Password:   "correct-horse-battery",
		InviteCode: "WELCOME12345",
	})
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	req = jsonRequest(t, http.MethodPost, "/v1/auth/login", auth.LoginRequest{
		Email:    "anna@example.com",
		Password: "correct-horse-battery",
	})
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var tokens auth.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tokens))
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
}

func TestRouter_Register_BadInvite(t *testing.T) {
	env := newTestEnv(t)

	req := jsonRequest(t, http.MethodPost, "/v1/auth/register", auth.RegisterRequest{
		Email:      "anna@example.com",
		Password:   "correct-horse-battery",
		InviteCode: "NOPE",
	})
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}

func TestRouter_DelaySearch(t *testing.T) {
	env := newTestEnv(t)

	req := jsonRequest(t, http.MethodPost, "/v1/delays/search", models.DelaySearchRequest{
		StationSignature: "G",
	})
	addAuthHeader(t, req)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.DelaySearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "station", resp.SearchType)
	assert.Equal(t, "Göteborg C", resp.StationName)
	assert.Equal(t, 0, resp.Count)
}

func TestRouter_DelaySearch_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	req := jsonRequest(t, http.MethodPost, "/v1/delays/search", models.DelaySearchRequest{
		StationSignature: "G",
	})
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_DelaySearch_UnknownStation(t *testing.T) {
	env := newTestEnv(t)

	req := jsonRequest(t, http.MethodPost, "/v1/delays/search", models.DelaySearchRequest{
		StationSignature: "Xyz",
	})
	addAuthHeader(t, req)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var problem models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, models.ProblemTypeValidation, problem.Type)
	assert.NotEmpty(t, problem.TraceID)
}

func TestRouter_DelaySearch_RecordsHistory(t *testing.T) {
	env := newTestEnv(t)

	req := jsonRequest(t, http.MethodPost, "/v1/delays/search", models.DelaySearchRequest{
		StationSignature:     "G",
		DestinationSignature: "Cst",
	})
	addAuthHeader(t, req)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/history", http.NoBody)
	addAuthHeader(t, req)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var list models.SearchHistoryList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "route", list.Items[0].Type)
	assert.Equal(t, "G", list.Items[0].StationSignature)
}

func TestRouter_ClearHistory(t *testing.T) {
	env := newTestEnv(t)

	req := jsonRequest(t, http.MethodPost, "/v1/delays/search", models.DelaySearchRequest{
		StationSignature: "G",
	})
	addAuthHeader(t, req)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/v1/history", http.NoBody)
	addAuthHeader(t, req)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/history", http.NoBody)
	addAuthHeader(t, req)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	var list models.SearchHistoryList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list.Items)
}

func TestRouter_SearchStations(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/stations?q=stockholm", http.NoBody)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var list models.StationList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.NotEmpty(t, list.Items)
	assert.Equal(t, "Cst", list.Items[0].Signature)
}

func TestRouter_SearchStations_MissingQuery(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/stations", http.NoBody)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_MonitorLifecycle(t *testing.T) {
	env := newTestEnv(t)

	req := jsonRequest(t, http.MethodPost, "/v1/monitors", monitorCreateBody())
	addAuthHeader(t, req)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, w.Header().Get("Location"))

	var created models.Monitor
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Morning commute", created.Name)
	assert.Equal(t, "Göteborg C", created.StationName)

	req = httptest.NewRequest(http.MethodGet, "/v1/monitors/"+created.ID, http.NoBody)
	addAuthHeader(t, req)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/v1/monitors/"+created.ID, http.NoBody)
	addAuthHeader(t, req)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/monitors/"+created.ID, http.NoBody)
	addAuthHeader(t, req)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_CreateMonitor_ValidationError(t *testing.T) {
	env := newTestEnv(t)

	body := monitorCreateBody()
	body.Name = ""
	req := jsonRequest(t, http.MethodPost, "/v1/monitors", body)
	addAuthHeader(t, req)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	var problem models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, models.ProblemTypeValidation, problem.Type)
	assert.NotEmpty(t, problem.Errors)
}

func TestRouter_RunMonitor(t *testing.T) {
	env := newTestEnv(t)

	req := jsonRequest(t, http.MethodPost, "/v1/monitors", monitorCreateBody())
	addAuthHeader(t, req)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.Monitor
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	req = httptest.NewRequest(http.MethodPost, "/v1/monitors/"+created.ID+"/run", http.NoBody)
	addAuthHeader(t, req)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)

	var run models.MonitorRunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.Equal(t, created.ID, run.MonitorID)
	assert.Equal(t, "queued", run.Status)
	assert.Equal(t, []string{created.ID}, env.runTrigger.monitorIDs)
}

func TestRouter_RunMonitor_NotFound(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/monitors/mon_missing/run", http.NoBody)
	addAuthHeader(t, req)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, env.runTrigger.monitorIDs)
}

func TestRouter_RequestID_Generated(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	requestID := w.Header().Get("X-Request-Id")
	assert.NotEmpty(t, requestID)
	assert.Contains(t, requestID, "req_")
}

func TestRouter_RequestID_Preserved(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	req.Header.Set("X-Request-Id", "custom_request_id")
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, "custom_request_id", w.Header().Get("X-Request-Id"))
}

func TestRouter_NotFound(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/nonexistent", http.NoBody)
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
