package user

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"campus_lostfound_backend/internal/common"
	"campus_lostfound_backend/internal/config"
	"campus_lostfound_backend/internal/middleware"
	"campus_lostfound_backend/internal/platform/database/dbtest"
	"campus_lostfound_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T, actor uuid.UUID, role string) (*gin.Engine, *ServiceImplementation) {
	gin.SetMode(gin.TestMode)
	db := dbtest.Open(t, &User{})
	svc := NewService(NewGORMRepository(db), &config.Config{}, zap.NewNop())

	fakeAuth := func(c *gin.Context) {
		c.Set(common.UserIDKey, actor)
		c.Set(common.UserRoleKey, role)
		c.Next()
	}
	router := gin.New()
	NewHandler(svc, zap.NewNop()).RegisterRoutes(router.Group("/api"), fakeAuth, middleware.RoleAuthMiddleware(common.RoleAdmin))
	return router, svc
}

func TestHandler_UpdateMe(t *testing.T) {
	actor := uuid.New()
	router, svc := newTestRouter(t, actor, common.RoleStudent)
	_, err := svc.EnsureUser(context.Background(), shared.Identity{UserID: actor, Email: "ivy@campus.edu"})
	require.NoError(t, err)

	body, _ := json.Marshal(map[string]string{"displayName": "Ivy", "contactNumber": "555"})
	req := httptest.NewRequest(http.MethodPut, "/api/users/me", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Ivy", resp.Data.DisplayName)
	assert.Equal(t, "555", resp.Data.ContactNumber)
}

func TestHandler_AdminRoutesRequireAdmin(t *testing.T) {
	router, _ := newTestRouter(t, uuid.New(), common.RoleStudent)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/admin", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandler_SetRoleValidatesPayload(t *testing.T) {
	router, _ := newTestRouter(t, uuid.New(), common.RoleAdmin)

	req := httptest.NewRequest(http.MethodPatch, "/api/users/admin/"+uuid.NewString()+"/role", bytes.NewBufferString(`{"role":"janitor"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}
