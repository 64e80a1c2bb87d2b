package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/infra/token"
	"storefront/internal/middleware"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type mwErrorResponse struct {
	Error string `json:"error"`
}

type mwOKResponse struct {
	SessionID string `json:"session_id"`
}

func newProtected(verifier middleware.SessionVerifier) *echo.Echo {
	e := echo.New()
	e.GET("/protected", func(c echo.Context) error {
		sid, _ := middleware.SessionID(c)
		return c.JSON(http.StatusOK, mwOKResponse{SessionID: sid})
	}, middleware.AuthSession(verifier))
	return e
}

func runRequest(t *testing.T, e *echo.Echo, path string, authHeader string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeMWError(t *testing.T, rec *httptest.ResponseRecorder) mwErrorResponse {
	t.Helper()
	var r mwErrorResponse
	_ = json.NewDecoder(rec.Body).Decode(&r)
	return r
}

func TestMiddleware_AuthSession_Unauthorized(t *testing.T) {
	j := token.NewSessionJWT("test-secret", time.Hour)
	other, _, err := token.NewSessionJWT("wrong-secret", time.Hour).Issue("sid-1", time.Now())
	require.NoError(t, err)

	cases := map[string]string{
		"no header":     "",
		"bad scheme":    "Token abc.def.ghi",
		"empty bearer":  "Bearer ",
		"bad signature": "Bearer " + other,
		"garbage":       "Bearer garbage",
	}

	e := newProtected(j)
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			rec := runRequest(t, e, "/protected", header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "unauthorized", decodeMWError(t, rec).Error)
		})
	}
}

// 正常：ctxにsession_idが入る
func TestMiddleware_AuthSession_Success_SetsContext(t *testing.T) {
	j := token.NewSessionJWT("test-secret", time.Hour)
	raw, _, err := j.Issue("sid-123", time.Now())
	require.NoError(t, err)

	rec := runRequest(t, newProtected(j), "/protected", "Bearer "+raw)
	require.Equal(t, http.StatusOK, rec.Code)

	var body mwOKResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "sid-123", body.SessionID)
}

// EventSource用のクエリトークン
func TestMiddleware_AuthSession_QueryToken(t *testing.T) {
	j := token.NewSessionJWT("test-secret", time.Hour)
	raw, _, err := j.Issue("sid-q", time.Now())
	require.NoError(t, err)

	rec := runRequest(t, newProtected(j), "/protected?token="+raw, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body mwOKResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "sid-q", body.SessionID)
}

func TestMiddleware_RequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	e := echo.New()
	e.Use(middleware.RequestLogger(zap.New(core)))
	e.GET("/ok", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/missing", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "nope")
	})

	rec := runRequest(t, e, "/ok", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = runRequest(t, e, "/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, "/ok", entries[0].ContextMap()["path"])
	assert.Equal(t, int64(http.StatusOK), entries[0].ContextMap()["status"])
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, int64(http.StatusNotFound), entries[1].ContextMap()["status"])
}
