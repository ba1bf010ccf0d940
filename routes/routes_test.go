package routes

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/learnhub/app"
	"github.com/upb/learnhub/config"
	"github.com/upb/learnhub/repositories/postgres"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T, metricsEnabled bool) (http.Handler, *app.Dependencies, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.Config{
		Environment: "test",
		Server:      config.ServerConfig{RequestTimeout: 5 * time.Second},
		Auth: config.AuthConfig{
			JWTSecret:  "routes-test-secret",
			JWTIssuer:  "learnhub",
			TokenTTL:   config.TokenTTL,
			BcryptCost: 4,
		},
		CORS:          config.CORSConfig{FrontendURL: "http://localhost:5173"},
		Content:       config.ContentConfig{SanitizeLessonHTML: true},
		Observability: config.ObservabilityConfig{MetricsEnabled: metricsEnabled},
	}

	logger := zap.NewNop()
	factory := postgres.NewRepositoryFactoryFromDB(postgres.Wrap(db, logger), logger)
	deps := app.NewDependenciesWithFactory(cfg, factory, logger)

	return SetupRoutes(deps), deps, mock
}

func bearer(t *testing.T, deps *app.Dependencies, id uuid.UUID) string {
	t.Helper()
	token, err := deps.Tokens.Issue(id)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestHealthz(t *testing.T) {
	router, _, _ := newTestRouter(t, false)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPublicReadsRequireAuthentication(t *testing.T) {
	router, _, mock := newTestRouter(t, false)

	for _, path := range []string{"/api/categories", "/api/sites", "/api/lessons/" + uuid.NewString()} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublicReadDoesNotCheckRole(t *testing.T) {
	router, deps, mock := newTestRouter(t, false)

	mock.ExpectQuery(regexp.QuoteMeta("FROM categories ORDER BY")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "sort_order", "created_at", "updated_at"}))

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	req.Header.Set("Authorization", bearer(t, deps, uuid.New()))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRoutesRequireAdministrator(t *testing.T) {
	t.Run("operator role is forbidden", func(t *testing.T) {
		router, deps, mock := newTestRouter(t, false)
		id := uuid.New()

		mock.ExpectQuery(regexp.QuoteMeta("SELECT role FROM operators WHERE id = $1")).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("OPERATOR"))

		req := httptest.NewRequest(http.MethodPost, "/api/admin/categories", strings.NewReader(`{"name":"Go"}`))
		req.Header.Set("Authorization", bearer(t, deps, id))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deleted operator is forbidden", func(t *testing.T) {
		router, deps, mock := newTestRouter(t, false)
		id := uuid.New()

		mock.ExpectQuery(regexp.QuoteMeta("SELECT role FROM operators WHERE id = $1")).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"role"}))

		req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
		req.Header.Set("Authorization", bearer(t, deps, id))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("administrator is admitted", func(t *testing.T) {
		router, deps, mock := newTestRouter(t, false)
		id := uuid.New()
		now := time.Now()

		mock.ExpectQuery(regexp.QuoteMeta("SELECT role FROM operators WHERE id = $1")).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("ADMINISTRATOR"))
		mock.ExpectQuery(regexp.QuoteMeta("FROM operators ORDER BY created_at DESC, seq DESC")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "role", "created_at", "updated_at"}).
				AddRow(id.String(), "root", "$2a$04$hash", "ADMINISTRATOR", now, now))

		req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
		req.Header.Set("Authorization", bearer(t, deps, id))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"username":"root"`)
		assert.NotContains(t, w.Body.String(), "$2a$04$hash")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMetricsEndpoint(t *testing.T) {
	t.Run("served when enabled", func(t *testing.T) {
		router, _, _ := newTestRouter(t, true)

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "learnhub_http_requests_total")
	})

	t.Run("absent when disabled", func(t *testing.T) {
		router, _, _ := newTestRouter(t, false)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestUnknownEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t, false)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
