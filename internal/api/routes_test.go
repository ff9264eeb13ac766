package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferry-trace/verifier/internal/checker"
	"github.com/ferry-trace/verifier/internal/session"
	"github.com/ferry-trace/verifier/internal/testutil"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	store := testutil.NewMockStorage(t.TempDir())
	deps := &Dependencies{
		Store:    store,
		Runs:     session.NewManager(session.WithLogger(quietLogger()), session.WithFileStore(store)),
		Registry: checker.NewRegistry(),
		Defaults: testutil.SmallConfig(),
		Logger:   quietLogger(),
		Version:  "test",
	}
	e := echo.New()
	SetupMiddleware(e, MiddlewareOptions{BodyLimit: "1M"})
	RegisterRoutes(e, NewHandlers(deps))
	return e
}

func TestRoutes_HealthAndVerify(t *testing.T) {
	e := newTestServer(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","version":"test","history":false}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/api/verify", strings.NewReader(testutil.SmallTrace))
	req.Header.Set(echo.HeaderContentType, echo.MIMETextPlain)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"passed":true`)
}

func TestRoutes_ErrorsAreStructured(t *testing.T) {
	e := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
		wantCode   string
	}{
		{"unknown run", http.MethodGet, "/api/runs/missing", http.StatusNotFound, "NOT_FOUND"},
		{"history disabled", http.MethodGet, "/api/history", http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"unknown route", http.MethodGet, "/api/nothing", http.StatusNotFound, "HTTP_ERROR"},
		{"bad config", http.MethodPost, "/api/verify?capacity=0", http.StatusUnprocessableEntity, "INVALID_CONFIG"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(testutil.SmallTrace))
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body APIError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
		})
	}
}

func TestErrorHandler_UnknownError(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	ShowErrorDetails = false
	defer func() { ShowErrorDetails = true }()
	ErrorHandler(errors.New("disk on fire"), c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk on fire")
	assert.Contains(t, rec.Body.String(), "UNKNOWN_ERROR")
}
