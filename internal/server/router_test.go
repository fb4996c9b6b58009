package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eion/accounts/internal/accounts/profiles"
	"github.com/eion/accounts/internal/accounts/users"
	"github.com/eion/accounts/internal/health"
	"github.com/eion/accounts/internal/metrics"
	"github.com/eion/accounts/internal/middleware"
)

type testServer struct {
	router   *gin.Engine
	registry *prometheus.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	userStore := users.NewInMemoryStore()
	profileStore := profiles.NewInMemoryStore()
	userService := users.NewUserService(userStore, logger)
	profileService := profiles.NewProfileService(profileStore, userService, logger)
	userService.OnDelete(profileService.ReleaseOwner)

	healthManager := health.NewManager(logger)
	healthManager.AddChecker(userStore)
	healthManager.AddChecker(profileStore)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	collector.RegisterStoreGauges(userStore, profileStore)

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{}, logger)
	t.Cleanup(limiter.Stop)

	router := SetupRouter(&AppState{
		UserService:    userService,
		ProfileService: profileService,
		Health:         healthManager,
		Logger:         logger,
		RateLimiter:    limiter,
		Metrics:        collector,
		Gatherer:       registry,
		AllowedOrigins: []string{"*"},
		MaxRequestSize: 1 << 20,
	})
	return &testServer{router: router, registry: registry}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, w)["detail"]
}

func userBody(name, email, phone string) map[string]interface{} {
	return map[string]interface{}{
		"name":     name,
		"email":    email,
		"phone":    phone,
		"password": "s3cret",
	}
}

func (s *testServer) createUser(t *testing.T, name, email, phone string) users.User {
	t.Helper()
	w := s.do(t, http.MethodPost, "/users", userBody(name, email, phone))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[users.User](t, w)
}

func (s *testServer) createProfile(t *testing.T, userID, username string) profiles.Profile {
	t.Helper()
	w := s.do(t, http.MethodPost, "/profiles", map[string]interface{}{"user_id": userID, "username": username})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[profiles.Profile](t, w)
}

func TestRootAndHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Welcome to the User & Profile Service."}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]interface{}](t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, map[string]interface{}{"user_store": "healthy", "profile_store": "healthy"}, body["components"])
}

func TestUserAndProfileLifecycle(t *testing.T) {
	s := newTestServer(t)

	alice := s.createUser(t, "Alice", "alice@example.com", "+12025550101")
	assert.Equal(t, users.TierFree, alice.MembershipTier)

	w := s.do(t, http.MethodPost, "/users", userBody("Bob", "alice@example.com", "+12025550102"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email already exists", detail(t, w))

	bob := s.createUser(t, "Bob", "bob@example.com", "+12025550102")

	profile := s.createProfile(t, alice.ID.String(), "alice")
	assert.Equal(t, alice.ID, profile.UserID)
	assert.Equal(t, []string{}, profile.StyleTags)
	assert.Nil(t, profile.Bio)

	w = s.do(t, http.MethodPost, "/profiles", map[string]interface{}{"user_id": alice.ID.String(), "username": "alice2"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User already has a profile", detail(t, w))

	w = s.do(t, http.MethodPost, "/profiles", map[string]interface{}{"user_id": bob.ID.String(), "username": "ALICE"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Username already exists", detail(t, w))

	w = s.do(t, http.MethodDelete, "/users/"+alice.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = s.do(t, http.MethodGet, "/users/"+alice.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", detail(t, w))

	w = s.do(t, http.MethodGet, "/profiles/"+profile.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", decode[profiles.Profile](t, w).Username)
}

func TestProfileRequiresExistingUser(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/profiles", map[string]interface{}{
		"user_id":  "7f1d2a4e-0000-4000-8000-000000000000",
		"username": "ghost",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User does not exist", detail(t, w))

	w = s.do(t, http.MethodGet, "/profiles", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestProfileOwnerIDIsCaseInsensitive(t *testing.T) {
	s := newTestServer(t)
	alice := s.createUser(t, "Alice", "alice@example.com", "+12025550101")
	upper := strings.ToUpper(alice.ID.String())

	w := s.do(t, http.MethodGet, "/users/"+upper, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/profiles", map[string]interface{}{"user_id": upper, "username": "alice"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, alice.ID, decode[profiles.Profile](t, w).UserID)

	w = s.do(t, http.MethodGet, "/profiles?user_id="+upper, nil)
	assert.Len(t, decode[[]profiles.Profile](t, w), 1)

	w = s.do(t, http.MethodPost, "/profiles", map[string]interface{}{"user_id": "nope", "username": "ghost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "user_id must be a valid UUID", detail(t, w))
}

func TestCreateUserRejectsNullTier(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/users", `{"name":"Alice","email":"alice@example.com","phone":"+12025550101","password":"pw","membership_tier":null}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "membership_tier cannot be null", detail(t, w))

	w = s.do(t, http.MethodGet, "/users", nil)
	assert.Empty(t, decode[[]users.User](t, w))
}

func TestUserPartialUpdate(t *testing.T) {
	s := newTestServer(t)
	alice := s.createUser(t, "Alice", "alice@example.com", "+12025550101")
	s.createUser(t, "Bob", "bob@example.com", "+12025550102")

	w := s.do(t, http.MethodPatch, "/users/"+alice.ID.String(), map[string]interface{}{"membership_tier": "PRO"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[users.User](t, w)
	assert.Equal(t, users.TierPro, updated.MembershipTier)
	assert.Equal(t, "Alice", updated.Name)
	assert.Equal(t, "alice@example.com", updated.Email)
	assert.False(t, updated.UpdatedAt.Before(alice.UpdatedAt))

	w = s.do(t, http.MethodPatch, "/users/"+alice.ID.String(), map[string]interface{}{"phone": "+12025550102"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Phone already exists", detail(t, w))

	w = s.do(t, http.MethodPatch, "/users/"+alice.ID.String(), map[string]interface{}{"email": "alice@example.com"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPatch, "/users/"+alice.ID.String(), `{"name": null}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "name cannot be null", detail(t, w))

	w = s.do(t, http.MethodGet, "/users/"+alice.ID.String(), nil)
	current := decode[users.User](t, w)
	assert.Equal(t, "+12025550101", current.Phone)
	assert.Equal(t, users.TierPro, current.MembershipTier)

	w = s.do(t, http.MethodPatch, "/users/7f1d2a4e-0000-4000-8000-000000000000", map[string]interface{}{"name": "X"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProfileUpdate(t *testing.T) {
	s := newTestServer(t)
	alice := s.createUser(t, "Alice", "alice@example.com", "+12025550101")
	bob := s.createUser(t, "Bob", "bob@example.com", "+12025550102")
	profile := s.createProfile(t, alice.ID.String(), "alice")
	s.createProfile(t, bob.ID.String(), "bob")

	path := "/profiles/" + profile.ID.String()

	w := s.do(t, http.MethodPatch, path, map[string]interface{}{"bio": "hello", "style_tags": []string{"minimal"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[profiles.Profile](t, w)
	require.NotNil(t, updated.Bio)
	assert.Equal(t, "hello", *updated.Bio)
	assert.Equal(t, []string{"minimal"}, updated.StyleTags)
	assert.Equal(t, "alice", updated.Username)

	w = s.do(t, http.MethodPatch, path, map[string]interface{}{"user_id": bob.ID.String()})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "user_id is immutable", detail(t, w))

	w = s.do(t, http.MethodPatch, path, map[string]interface{}{"username": "Bob"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Username already exists", detail(t, w))

	w = s.do(t, http.MethodPatch, path, map[string]interface{}{"username": "Alice"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPatch, path, `{"bio": null}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode[profiles.Profile](t, w).Bio)

	w = s.do(t, http.MethodPatch, path, map[string]interface{}{"avatar_url": "not a url"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListFilters(t *testing.T) {
	s := newTestServer(t)
	alice := s.createUser(t, "Alice", "alice@example.com", "+12025550101")
	s.createUser(t, "Bob", "bob@example.com", "+12025550102")
	s.createProfile(t, alice.ID.String(), "alice")

	w := s.do(t, http.MethodGet, "/users", nil)
	assert.Len(t, decode[[]users.User](t, w), 2)

	w = s.do(t, http.MethodGet, "/users?name=Alice", nil)
	list := decode[[]users.User](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, alice.ID, list[0].ID)

	w = s.do(t, http.MethodGet, "/users?membership_tier=PRO", nil)
	assert.Empty(t, decode[[]users.User](t, w))

	w = s.do(t, http.MethodGet, "/profiles?user_id="+alice.ID.String(), nil)
	assert.Len(t, decode[[]profiles.Profile](t, w), 1)

	w = s.do(t, http.MethodGet, "/profiles?username=nobody", nil)
	assert.Empty(t, decode[[]profiles.Profile](t, w))

	w = s.do(t, http.MethodGet, "/profiles?user_id=nope", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMalformedRequests(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/users/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/users", `{"name": "Alice",`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", detail(t, w))

	w = s.do(t, http.MethodPost, "/users", userBody("Alice", "not-an-email", "+12025550101"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, detail(t, w), "email")

	w = s.do(t, http.MethodPost, "/users", userBody("Alice", "alice@example.com", "555-0101"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, detail(t, w), "phone")

	w = s.do(t, http.MethodDelete, "/profiles/7f1d2a4e-0000-4000-8000-000000000000", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Profile not found", detail(t, w))

	w = s.do(t, http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPut, "/users", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "Alice", "alice@example.com", "+12025550101")
	s.do(t, http.MethodPost, "/users", userBody("Alice", "alice@example.com", "+12025550101"))

	w := s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "accounts_users 1"), body)
	assert.Contains(t, body, `accounts_http_requests_total{method="POST",route="/users",status="201"} 1`)
	assert.Contains(t, body, `accounts_constraint_violations_total{field="email"} 1`)
}
