package claim

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"campus_lostfound_backend/internal/common"
	"campus_lostfound_backend/internal/domain"
	"campus_lostfound_backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Submit(ctx context.Context, claimantID uuid.UUID, ref domain.ItemRef, req SubmitRequest, proof *multipart.FileHeader) (*Claim, error) {
	args := m.Called(ctx, claimantID, ref, req, proof)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Claim), args.Error(1)
}

func (m *MockService) SetStatus(ctx context.Context, reviewerID, claimID uuid.UUID, status Status) (*Claim, error) {
	args := m.Called(ctx, reviewerID, claimID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Claim), args.Error(1)
}

func (m *MockService) ListMine(ctx context.Context, claimantID uuid.UUID) ([]Claim, error) {
	args := m.Called(ctx, claimantID)
	return args.Get(0).([]Claim), args.Error(1)
}

func (m *MockService) ListAll(ctx context.Context, filter ListFilter, page, pageSize int) ([]Claim, *common.Pagination, error) {
	args := m.Called(ctx, filter, page, pageSize)
	return args.Get(0).([]Claim), args.Get(1).(*common.Pagination), args.Error(2)
}

func (m *MockService) CountStalePending(ctx context.Context, olderThan time.Duration) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

func newTestRouter(svc Service, userID uuid.UUID, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	fakeAuth := func(c *gin.Context) {
		c.Set(common.UserIDKey, userID)
		c.Set(common.UserRoleKey, role)
		c.Next()
	}
	NewHandler(svc, zap.NewNop()).RegisterRoutes(router.Group("/api"), fakeAuth, middleware.RoleAuthMiddleware(common.RoleAdmin))
	return router
}

func TestHandler_SubmitMultipartDecodesPrefixedItemID(t *testing.T) {
	svc := new(MockService)
	userID := uuid.New()
	itemID := uuid.New()
	router := newTestRouter(svc, userID, common.RoleStudent)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range map[string]string{
		"itemId":        "found_" + itemID.String(),
		"name":          "Casey",
		"email":         "casey@campus.edu",
		"studentId":     "S1",
		"contactNumber": "555",
	} {
		require.NoError(t, w.WriteField(k, v))
	}
	part, err := w.CreateFormFile("proofImage", "proof.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("\x89PNG\r\n\x1a\n"))
	require.NoError(t, w.Close())

	expectedRef := domain.ItemRef{Kind: domain.KindFound, ID: itemID}
	svc.On("Submit", mock.Anything, userID, expectedRef, mock.AnythingOfType("SubmitRequest"), mock.MatchedBy(func(fh *multipart.FileHeader) bool {
		return fh != nil && fh.Filename == "proof.png"
	})).Return(&Claim{Status: StatusPending}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/claim/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	svc.AssertExpectations(t)
}

func TestHandler_SubmitRejectsMissingIdentityFields(t *testing.T) {
	svc := new(MockService)
	router := newTestRouter(svc, uuid.New(), common.RoleStudent)

	req := httptest.NewRequest(http.MethodPost, "/api/claim/", bytes.NewBufferString(`{"itemId":"`+uuid.NewString()+`"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_SetStatusIsAdminOnly(t *testing.T) {
	svc := new(MockService)
	claimID := uuid.New()
	payload, _ := json.Marshal(SetStatusRequest{Status: "approved"})

	student := newTestRouter(svc, uuid.New(), common.RoleStudent)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/claim/"+claimID.String()+"/status", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	student.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	adminID := uuid.New()
	svc.On("SetStatus", mock.Anything, adminID, claimID, StatusApproved).Return(&Claim{Status: StatusApproved}, nil).Once()
	admin := newTestRouter(svc, adminID, common.RoleAdmin)
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPatch, "/api/claim/"+claimID.String()+"/status", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	admin.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}
