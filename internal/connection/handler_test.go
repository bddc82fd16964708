package connection

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"campus_lostfound_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const testUserHeader = "X-Test-User"

func (s *ConnectionServiceTestSuite) router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	fakeAuth := func(c *gin.Context) {
		id, err := uuid.Parse(c.GetHeader(testUserHeader))
		if err != nil {
			common.RespondWithError(c, common.ErrUnauthorized)
			return
		}
		c.Set(common.UserIDKey, id)
		c.Set(common.UserRoleKey, common.RoleStudent)
		c.Next()
	}
	NewHandler(s.service, zap.NewNop()).RegisterRoutes(router.Group("/api"), fakeAuth, nil)
	return router
}

func (s *ConnectionServiceTestSuite) do(router *gin.Engine, method, path string, userID uuid.UUID, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(testUserHeader, userID.String())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type requestEnvelope struct {
	Data struct {
		ID       uuid.UUID `json:"id"`
		Status   Status    `json:"status"`
		Messages []Message `json:"messages"`
	} `json:"data"`
}

func (s *ConnectionServiceTestSuite) TestHTTP_InitiateScenario() {
	router := s.router()
	body := map[string]interface{}{
		"itemId":          "found_" + s.found.ID.String(),
		"verification":    map[string]string{"color": "blue", "mark": "scratch on back", "location": "library"},
		"templateMessage": "Is this yours?",
	}

	rec := s.do(router, http.MethodPost, "/api/connections/request", s.claimant, body)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var first requestEnvelope
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &first))
	s.Equal(StatusAccepted, first.Data.Status)
	s.Len(first.Data.Messages, 1)

	rec = s.do(router, http.MethodPost, "/api/connections/request", s.claimant, body)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var second requestEnvelope
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &second))
	s.Equal(first.Data.ID, second.Data.ID)
	s.Len(second.Data.Messages, 2)

	rec = s.do(router, http.MethodGet, "/api/connections/"+first.Data.ID.String(), s.stranger, nil)
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(router, http.MethodPut, "/api/connections/"+first.Data.ID.String()+"/respond", s.claimant, map[string]string{"action": "accept"})
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(router, http.MethodPut, "/api/connections/"+first.Data.ID.String()+"/respond", s.finder, map[string]string{"action": "reject"})
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(router, http.MethodPost, "/api/connections/"+first.Data.ID.String()+"/message", s.claimant, map[string]string{"text": "hello?"})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "STATE_CONFLICT")

	rec = s.do(router, http.MethodGet, "/api/connections/my-requests", s.finder, nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"itemTitle":"Blue water bottle"`)

	body["itemId"] = uuid.NewString()
	rec = s.do(router, http.MethodPost, "/api/connections/request", s.claimant, body)
	s.Equal(http.StatusNotFound, rec.Code)
}
