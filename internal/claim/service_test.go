package claim

import (
	"context"
	"mime/multipart"
	"sync"
	"testing"
	"time"

	"campus_lostfound_backend/internal/common"
	"campus_lostfound_backend/internal/config"
	"campus_lostfound_backend/internal/domain"
	"campus_lostfound_backend/internal/item"
	"campus_lostfound_backend/internal/mailer"
	"campus_lostfound_backend/internal/notification"
	"campus_lostfound_backend/internal/platform/database/dbtest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (m *recordingMailer) SendAsync(msg mailer.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
}

type stubProofEncoder struct{}

func (stubProofEncoder) EncodeDataURI(*multipart.FileHeader) (string, error) {
	return "data:image/png;base64,iVBORw0KGgo=", nil
}

type ClaimServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	ctx      context.Context
	itemRepo item.Repository
	notifs   notification.Service
	mail     *recordingMailer
	service  *ServiceImplementation
	reporter uuid.UUID
	claimant uuid.UUID
	admin    uuid.UUID
}

func (s *ClaimServiceTestSuite) SetupTest() {
	s.db = dbtest.Open(s.T(), &item.Item{}, &Claim{}, &notification.Notification{})
	s.ctx = context.Background()
	s.itemRepo = item.NewGORMRepository(s.db)
	s.notifs = notification.NewService(notification.NewGORMRepository(s.db), nil, zap.NewNop())
	items := item.NewService(s.itemRepo, nil, nil, nil, s.notifs, nil, &config.Config{}, zap.NewNop())
	s.mail = &recordingMailer{}
	s.service = NewService(NewGORMRepository(s.db), items, s.itemRepo, stubProofEncoder{}, s.notifs, s.mail, zap.NewNop())
	s.reporter, s.claimant, s.admin = uuid.New(), uuid.New(), uuid.New()
}

func TestClaimServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ClaimServiceTestSuite))
}

func (s *ClaimServiceTestSuite) newItem(kind domain.ItemKind) *item.Item {
	it := &item.Item{
		Kind:           kind,
		Title:          "Grey hoodie",
		Category:       "Clothing",
		Location:       "Library",
		ReporterID:     s.reporter,
		Status:         domain.ItemOpen,
		ApprovalStatus: domain.ApprovalApproved,
	}
	s.Require().NoError(s.itemRepo.Create(s.ctx, it))
	return it
}

func (s *ClaimServiceTestSuite) validRequest() SubmitRequest {
	return SubmitRequest{
		Name:             "Casey",
		Email:            "Casey@Campus.edu",
		StudentID:        "S1234",
		ContactNumber:    "555-0101",
		ProofDescription: "Has my initials inside the hood.",
	}
}

func (s *ClaimServiceTestSuite) submit(it *item.Item, claimant uuid.UUID) *Claim {
	c, err := s.service.Submit(s.ctx, claimant, domain.ItemRef{ID: it.ID}, s.validRequest(), nil)
	s.Require().NoError(err)
	return c
}

func (s *ClaimServiceTestSuite) TestSubmit_CreatesPendingClaim() {
	it := s.newItem(domain.KindFound)

	c, err := s.service.Submit(s.ctx, s.claimant, domain.ItemRef{Kind: domain.KindLost, ID: it.ID}, s.validRequest(), &multipart.FileHeader{Filename: "proof.png"})
	s.Require().NoError(err)

	s.Equal(StatusPending, c.Status)
	s.Equal(domain.KindFound, c.ItemKind)
	s.Equal("casey@campus.edu", c.Email)
	s.Contains(c.ProofImage, "data:image/png;base64,")

	notes, _, err := s.notifs.GetNotificationsForUser(s.ctx, s.claimant, 1, 10)
	s.Require().NoError(err)
	s.Require().Len(notes, 1)
	s.Equal(notification.ClaimSubmitted, notes[0].Type)
	s.Require().NotNil(notes[0].ClaimID)
	s.Equal(c.ID, *notes[0].ClaimID)

	s.Require().Len(s.mail.sent, 1)
	s.Equal("casey@campus.edu", s.mail.sent[0].To)
}

func (s *ClaimServiceTestSuite) TestSubmit_Rejections() {
	it := s.newItem(domain.KindFound)

	_, err := s.service.Submit(s.ctx, s.reporter, domain.ItemRef{ID: it.ID}, s.validRequest(), nil)
	s.ErrorIs(err, common.ErrBadRequest)

	_, err = s.service.Submit(s.ctx, s.claimant, domain.ItemRef{ID: uuid.New()}, s.validRequest(), nil)
	s.ErrorIs(err, common.ErrNotFound)

	req := s.validRequest()
	req.StudentID = "  "
	_, err = s.service.Submit(s.ctx, s.claimant, domain.ItemRef{ID: it.ID}, req, nil)
	apiErr, ok := common.IsAPIError(err)
	s.Require().True(ok)
	s.Equal("VALIDATION_ERROR", apiErr.Code)
}

func (s *ClaimServiceTestSuite) TestSetStatus_ApprovingFoundClaimMarksItemClaimed() {
	it := s.newItem(domain.KindFound)
	c := s.submit(it, s.claimant)

	approved, err := s.service.SetStatus(s.ctx, s.admin, c.ID, StatusApproved)
	s.Require().NoError(err)
	s.Equal(StatusApproved, approved.Status)
	s.Require().NotNil(approved.ReviewedBy)
	s.Equal(s.admin, *approved.ReviewedBy)

	stored, err := s.itemRepo.FindByID(s.ctx, it.ID)
	s.Require().NoError(err)
	s.Equal(domain.ItemClaimed, stored.Status)
	s.Require().NotNil(stored.ClaimantID)
	s.Equal(s.claimant, *stored.ClaimantID)

	notes, _, err := s.notifs.GetNotificationsForUser(s.ctx, s.claimant, 1, 10)
	s.Require().NoError(err)
	s.Len(notes, 2)
	s.Len(s.mail.sent, 2)
}

func (s *ClaimServiceTestSuite) TestSetStatus_SecondApprovalRollsBack() {
	it := s.newItem(domain.KindFound)
	first := s.submit(it, s.claimant)
	other := uuid.New()
	second := s.submit(it, other)

	_, err := s.service.SetStatus(s.ctx, s.admin, first.ID, StatusApproved)
	s.Require().NoError(err)

	_, err = s.service.SetStatus(s.ctx, s.admin, second.ID, StatusApproved)
	s.ErrorIs(err, common.ErrStateConflict)

	var reloaded Claim
	s.Require().NoError(s.db.First(&reloaded, "id = ?", second.ID).Error)
	s.Equal(StatusPending, reloaded.Status)
	s.Nil(reloaded.ReviewedBy)
}

func (s *ClaimServiceTestSuite) TestSetStatus_ApprovesClaimOnDeletedItem() {
	it := s.newItem(domain.KindFound)
	c := s.submit(it, s.claimant)
	s.Require().NoError(s.itemRepo.Delete(s.ctx, it.ID))

	approved, err := s.service.SetStatus(s.ctx, s.admin, c.ID, StatusApproved)
	s.Require().NoError(err)
	s.Equal(StatusApproved, approved.Status)

	var reloaded Claim
	s.Require().NoError(s.db.First(&reloaded, "id = ?", c.ID).Error)
	s.Equal(StatusApproved, reloaded.Status)
}

func (s *ClaimServiceTestSuite) TestSetStatus_LostClaimLeavesItemAlone() {
	it := s.newItem(domain.KindLost)
	c := s.submit(it, s.claimant)

	_, err := s.service.SetStatus(s.ctx, s.admin, c.ID, StatusApproved)
	s.Require().NoError(err)

	stored, err := s.itemRepo.FindByID(s.ctx, it.ID)
	s.Require().NoError(err)
	s.Equal(domain.ItemOpen, stored.Status)
	s.Nil(stored.ClaimantID)
}

func (s *ClaimServiceTestSuite) TestSetStatus_Transitions() {
	it := s.newItem(domain.KindFound)
	c := s.submit(it, s.claimant)

	rejected, err := s.service.SetStatus(s.ctx, s.admin, c.ID, StatusRejected)
	s.Require().NoError(err)
	s.Equal(StatusRejected, rejected.Status)

	again, err := s.service.SetStatus(s.ctx, s.admin, c.ID, StatusRejected)
	s.Require().NoError(err)
	s.Equal(StatusRejected, again.Status)
	s.Len(s.mail.sent, 2, "a repeated status sends nothing")

	_, err = s.service.SetStatus(s.ctx, s.admin, c.ID, StatusPending)
	s.Require().NoError(err)
	_, err = s.service.SetStatus(s.ctx, s.admin, c.ID, StatusApproved)
	s.Require().NoError(err)

	_, err = s.service.SetStatus(s.ctx, s.admin, c.ID, StatusRejected)
	s.ErrorIs(err, common.ErrStateConflict)

	_, err = s.service.SetStatus(s.ctx, s.admin, c.ID, Status("archived"))
	s.ErrorIs(err, common.ErrBadRequest)

	_, err = s.service.SetStatus(s.ctx, s.admin, uuid.New(), StatusApproved)
	s.ErrorIs(err, common.ErrNotFound)
}

func (s *ClaimServiceTestSuite) TestListAllAndStaleCount() {
	it := s.newItem(domain.KindFound)
	old := s.submit(it, s.claimant)
	fresh := s.submit(it, uuid.New())
	_, err := s.service.SetStatus(s.ctx, s.admin, fresh.ID, StatusRejected)
	s.Require().NoError(err)

	pending, pagination, err := s.service.ListAll(s.ctx, ListFilter{Status: StatusPending}, 1, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(old.ID, pending[0].ID)
	s.Equal(int64(1), pagination.TotalItems)

	mine, err := s.service.ListMine(s.ctx, s.claimant)
	s.Require().NoError(err)
	s.Len(mine, 1)

	count, err := s.service.CountStalePending(s.ctx, time.Hour)
	s.Require().NoError(err)
	s.Zero(count)

	s.Require().NoError(s.db.Model(&Claim{}).Where("id = ?", old.ID).Update("created_at", time.Now().Add(-3*time.Hour)).Error)
	count, err = s.service.CountStalePending(s.ctx, time.Hour)
	s.Require().NoError(err)
	s.Equal(int64(1), count)
}
