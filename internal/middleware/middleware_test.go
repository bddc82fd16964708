package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"campus_lostfound_backend/internal/common"
	"campus_lostfound_backend/internal/config"
	"campus_lostfound_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubVerifier struct {
	identity *shared.Identity
	err      error
	gotToken string
}

func (s *stubVerifier) VerifyToken(_ context.Context, token string) (*shared.Identity, error) {
	s.gotToken = token
	return s.identity, s.err
}

func newTestRouter(mws ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ZapLogger(zap.NewNop(), &config.Config{GinMode: "test"}))
	r.Use(ErrorHandler(zap.NewNop()))
	handlers := append(mws, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"userId": common.GetUserIDFromContext(c).String(),
			"role":   common.GetUserRoleFromContext(c),
		})
	})
	r.GET("/protected", handlers...)
	return r
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	r := newTestRouter(AuthMiddleware(&stubVerifier{}, zap.NewNop()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	verifier := &stubVerifier{err: common.ErrUnauthorized.WithDetails("bad")}
	r := newTestRouter(AuthMiddleware(verifier, zap.NewNop()))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer nope")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "nope", verifier.gotToken)
}

func TestAuthMiddleware_SetsIdentity(t *testing.T) {
	userID := uuid.New()
	verifier := &stubVerifier{identity: &shared.Identity{UserID: userID, Email: "a@campus.edu", Role: common.RoleStudent}}
	r := newTestRouter(AuthMiddleware(verifier, zap.NewNop()))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestAuthMiddleware_TokenFromQuery(t *testing.T) {
	verifier := &stubVerifier{identity: &shared.Identity{UserID: uuid.New(), Role: common.RoleStudent}}

	r := newTestRouter(AuthMiddleware(verifier, zap.NewNop()))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected?token=ws-token", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code, "query tokens are only read on opted-in routes")
	assert.Empty(t, verifier.gotToken)

	r = newTestRouter(common.AllowQueryToken, AuthMiddleware(verifier, zap.NewNop()))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected?token=ws-token", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ws-token", verifier.gotToken)
}

func TestZapLogger_RedactsQueryToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(ZapLogger(zap.New(core), &config.Config{GinMode: "test"}))
	r.GET("/ws", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws?token=secret-jwt&room=7", nil))
	require.Equal(t, http.StatusOK, w.Code)

	entries := logs.FilterMessage("Request handled").All()
	require.Len(t, entries, 1)
	query := entries[0].ContextMap()["query"].(string)
	assert.NotContains(t, query, "secret-jwt")
	assert.Contains(t, query, "room=7")
	assert.Contains(t, query, "token=%5BREDACTED%5D")
}

func TestRoleAuthMiddleware(t *testing.T) {
	verifier := &stubVerifier{identity: &shared.Identity{UserID: uuid.New(), Role: common.RoleStudent}}
	r := newTestRouter(AuthMiddleware(verifier, zap.NewNop()), RoleAuthMiddleware(common.RoleAdmin))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	verifier.identity.Role = common.RoleAdmin
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUserRateLimiter(t *testing.T) {
	limiter := NewUserRateLimiter(0.001, 2)
	alice, bob := uuid.New(), uuid.New()

	assert.True(t, limiter.Allow(alice))
	assert.True(t, limiter.Allow(alice))
	assert.False(t, limiter.Allow(alice))
	assert.True(t, limiter.Allow(bob))
}

func TestUserRateLimiter_Middleware(t *testing.T) {
	verifier := &stubVerifier{identity: &shared.Identity{UserID: uuid.New(), Role: common.RoleStudent}}
	limiter := NewUserRateLimiter(0.001, 1)
	r := newTestRouter(AuthMiddleware(verifier, zap.NewNop()), limiter.Middleware())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestErrorHandler_UnknownRoute(t *testing.T) {
	r := newTestRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}
