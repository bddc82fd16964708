package item

import (
	"context"
	"mime/multipart"
	"sync"
	"testing"

	"campus_lostfound_backend/internal/common"
	"campus_lostfound_backend/internal/config"
	"campus_lostfound_backend/internal/domain"
	"campus_lostfound_backend/internal/notification"
	"campus_lostfound_backend/internal/platform/database/dbtest"
	"campus_lostfound_backend/internal/shared"
	"campus_lostfound_backend/internal/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeImageStore struct {
	deleted []string
}

func (f *fakeImageStore) SaveImage(_ *multipart.FileHeader, subDir string) (string, error) {
	return "/images/" + subDir + "/" + uuid.NewString() + ".png", nil
}

func (f *fakeImageStore) DeleteByURL(url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

type fakeSearchIndex struct {
	mu      sync.Mutex
	indexed map[uuid.UUID]Item
	deleted []uuid.UUID
	hits    []uuid.UUID
}

func newFakeSearchIndex() *fakeSearchIndex {
	return &fakeSearchIndex{indexed: map[uuid.UUID]Item{}}
}

func (f *fakeSearchIndex) EnsureIndex(context.Context) error { return nil }

func (f *fakeSearchIndex) Index(_ context.Context, it *Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed[it.ID] = *it
	return nil
}

func (f *fakeSearchIndex) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSearchIndex) Search(_ context.Context, _ BrowseFilter, _, _ int) ([]uuid.UUID, int64, error) {
	return f.hits, int64(len(f.hits)), nil
}

type ItemServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	cfg      *config.Config
	repo     Repository
	users    *user.ServiceImplementation
	notifs   notification.Service
	images   *fakeImageStore
	search   *fakeSearchIndex
	service  *ServiceImplementation
	ctx      context.Context
	reporter uuid.UUID
	other    uuid.UUID
	admin    uuid.UUID
}

func (s *ItemServiceTestSuite) SetupTest() {
	s.db = dbtest.Open(s.T(), &user.User{}, &Item{}, &notification.Notification{})
	s.cfg = &config.Config{}
	s.ctx = context.Background()
	s.repo = NewGORMRepository(s.db)
	s.users = user.NewService(user.NewGORMRepository(s.db), s.cfg, zap.NewNop())
	s.notifs = notification.NewService(notification.NewGORMRepository(s.db), nil, zap.NewNop())
	s.images = &fakeImageStore{}
	s.search = newFakeSearchIndex()
	s.service = NewService(s.repo, s.search, s.images, s.users, s.notifs, nil, s.cfg, zap.NewNop())

	s.reporter, s.other, s.admin = uuid.New(), uuid.New(), uuid.New()
	for id, email := range map[uuid.UUID]string{s.reporter: "rita@campus.edu", s.other: "otto@campus.edu"} {
		_, err := s.users.EnsureUser(s.ctx, shared.Identity{UserID: id, Email: email})
		s.Require().NoError(err)
	}
	_, err := s.users.EnsureUser(s.ctx, shared.Identity{UserID: s.admin, Email: "admin@campus.edu", Role: common.RoleAdmin})
	s.Require().NoError(err)
}

func TestItemServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ItemServiceTestSuite))
}

func (s *ItemServiceTestSuite) createItem(kind domain.ItemKind, title string) *Item {
	it, err := s.service.CreateItem(s.ctx, s.reporter, kind, CreateItemRequest{
		Title: title, Category: "Electronics & Gadgets", Location: "Library", Date: "2024-03-01",
	}, nil)
	s.Require().NoError(err)
	return it
}

func (s *ItemServiceTestSuite) TestCreateItem_SnapshotsReporterAndSlug() {
	it := s.createItem(domain.KindFound, "Blue umbrella")

	s.Equal(domain.KindFound, it.Kind)
	s.Equal("electronics-gadgets", it.CategorySlug)
	s.Equal("rita", it.ReporterName)
	s.Equal("rita@campus.edu", it.ReporterEmail)
	s.Equal(domain.ItemOpen, it.Status)
	s.Equal(domain.ApprovalApproved, it.ApprovalStatus)
	s.Require().NotNil(it.OccurredOn)
	s.Contains(s.search.indexed, it.ID)
}

func (s *ItemServiceTestSuite) TestCreateItem_RequiresApprovalWhenConfigured() {
	s.cfg.ItemRequireApproval = true
	it := s.createItem(domain.KindLost, "Wallet")
	s.Equal(domain.ApprovalPending, it.ApprovalStatus)

	items, _, err := s.service.Browse(s.ctx, BrowseFilter{}, 1, 10)
	s.Require().NoError(err)
	s.Empty(items)

	_, err = s.service.GetItem(s.ctx, it.ID, s.other, false)
	s.ErrorIs(err, common.ErrNotFound)
	_, err = s.service.GetItem(s.ctx, it.ID, s.reporter, false)
	s.NoError(err)
}

func (s *ItemServiceTestSuite) TestCreateItem_ImageStored() {
	it, err := s.service.CreateItem(s.ctx, s.reporter, domain.KindFound, CreateItemRequest{
		Title: "Keys", Category: "Keys", Location: "Gym",
	}, &multipart.FileHeader{Filename: "keys.png"})
	s.Require().NoError(err)
	s.Contains(it.ImageURL, "/images/items/")
}

func (s *ItemServiceTestSuite) TestBrowse_FiltersAndSearchIndexOrder() {
	first := s.createItem(domain.KindFound, "Black backpack")
	second := s.createItem(domain.KindLost, "Red backpack")

	found, _, err := s.service.Browse(s.ctx, BrowseFilter{Kind: domain.KindFound}, 1, 10)
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal(first.ID, found[0].ID)

	s.search.hits = []uuid.UUID{second.ID, first.ID}
	ranked, pagination, err := s.service.Browse(s.ctx, BrowseFilter{Query: "backpack"}, 1, 10)
	s.Require().NoError(err)
	s.Require().Len(ranked, 2)
	s.Equal(second.ID, ranked[0].ID)
	s.Equal(int64(2), pagination.TotalItems)
}

func (s *ItemServiceTestSuite) TestBrowse_DatabaseSearchWithoutIndex() {
	s.service.search = nil
	s.createItem(domain.KindFound, "Silver Watch")
	s.createItem(domain.KindFound, "Notebook")

	items, _, err := s.service.Browse(s.ctx, BrowseFilter{Query: "WATCH"}, 1, 10)
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Equal("Silver Watch", items[0].Title)
}

func (s *ItemServiceTestSuite) TestResolve_StoredKindWins() {
	it := s.createItem(domain.KindFound, "Calculator")

	resolved, err := s.service.Resolve(s.ctx, domain.ItemRef{Kind: domain.KindLost, ID: it.ID})
	s.Require().NoError(err)
	s.Equal(domain.KindFound, resolved.Kind)

	_, err = s.service.Resolve(s.ctx, domain.ItemRef{ID: uuid.New()})
	s.ErrorIs(err, common.ErrNotFound)
}

func (s *ItemServiceTestSuite) TestResolve_HidesUnapprovedItems() {
	s.cfg.ItemRequireApproval = true
	it := s.createItem(domain.KindFound, "Umbrella")

	_, err := s.service.Resolve(s.ctx, domain.ItemRef{ID: it.ID})
	s.ErrorIs(err, common.ErrNotFound)

	approved := string(domain.ApprovalApproved)
	_, err = s.service.AdminUpdate(s.ctx, s.admin, it.ID, AdminUpdateRequest{ApprovalStatus: &approved})
	s.Require().NoError(err)
	resolved, err := s.service.Resolve(s.ctx, domain.ItemRef{ID: it.ID})
	s.Require().NoError(err)
	s.Equal(it.ID, resolved.ID)

	rejected := string(domain.ApprovalRejected)
	_, err = s.service.AdminUpdate(s.ctx, s.admin, it.ID, AdminUpdateRequest{ApprovalStatus: &rejected})
	s.Require().NoError(err)
	_, err = s.service.Resolve(s.ctx, domain.ItemRef{ID: it.ID})
	s.ErrorIs(err, common.ErrNotFound)
}

func (s *ItemServiceTestSuite) TestDeleteItem() {
	it, err := s.service.CreateItem(s.ctx, s.reporter, domain.KindLost, CreateItemRequest{
		Title: "Scarf", Category: "Clothing", Location: "Cafeteria",
	}, &multipart.FileHeader{Filename: "scarf.png"})
	s.Require().NoError(err)

	s.ErrorIs(s.service.DeleteItem(s.ctx, it.ID, s.other), common.ErrForbidden)

	s.Require().NoError(s.service.DeleteItem(s.ctx, it.ID, s.reporter))
	s.Equal([]string{it.ImageURL}, s.images.deleted)
	s.Contains(s.search.deleted, it.ID)

	s.ErrorIs(s.service.DeleteItem(s.ctx, it.ID, s.reporter), common.ErrNotFound)
}

func (s *ItemServiceTestSuite) TestDeleteItem_OnlyOpen() {
	it := s.createItem(domain.KindFound, "Charger")
	_, err := s.repo.MarkClaimed(s.ctx, it.ID, s.other)
	s.Require().NoError(err)

	err = s.service.DeleteItem(s.ctx, it.ID, s.reporter)
	s.ErrorIs(err, common.ErrStateConflict)
}

func (s *ItemServiceTestSuite) TestAdminUpdate_ClaimantInvariantAndNotification() {
	it := s.createItem(domain.KindFound, "Headphones")

	claimed := string(domain.ItemClaimed)
	_, err := s.service.AdminUpdate(s.ctx, s.admin, it.ID, AdminUpdateRequest{Status: &claimed})
	s.ErrorIs(err, common.ErrBadRequest)

	claimant := s.other.String()
	updated, err := s.service.AdminUpdate(s.ctx, s.admin, it.ID, AdminUpdateRequest{Status: &claimed, ClaimantID: &claimant})
	s.Require().NoError(err)
	s.Equal(domain.ItemClaimed, updated.Status)
	s.Equal(s.other, *updated.ClaimantID)

	notes, _, err := s.notifs.GetNotificationsForUser(s.ctx, s.reporter, 1, 10)
	s.Require().NoError(err)
	s.Require().Len(notes, 1)
	s.Equal(notification.ItemStatusChanged, notes[0].Type)

	open := string(domain.ItemOpen)
	reopened, err := s.service.AdminUpdate(s.ctx, s.admin, it.ID, AdminUpdateRequest{Status: &open})
	s.Require().NoError(err)
	s.Nil(reopened.ClaimantID)
}

func (s *ItemServiceTestSuite) TestSummary_CachedUntilRefresh() {
	it := s.createItem(domain.KindFound, "Glasses")

	summary, err := s.service.Summary(s.ctx, it.ID)
	s.Require().NoError(err)
	s.Equal("Glasses", summary.Title)

	s.Require().NoError(s.db.Model(&Item{}).Where("id = ?", it.ID).Update("title", "Reading glasses").Error)
	cached, err := s.service.Summary(s.ctx, it.ID)
	s.Require().NoError(err)
	s.Equal("Glasses", cached.Title)

	it.Title = "Reading glasses"
	s.service.Refresh(s.ctx, it)
	fresh, err := s.service.Summary(s.ctx, it.ID)
	s.Require().NoError(err)
	s.Equal("Reading glasses", fresh.Title)
}

func (s *ItemServiceTestSuite) TestMarkClaimed_ConflictForSecondClaimant() {
	it := s.createItem(domain.KindFound, "Bike lock")

	_, err := s.repo.MarkClaimed(s.ctx, it.ID, s.other)
	s.Require().NoError(err)
	_, err = s.repo.MarkClaimed(s.ctx, it.ID, s.other)
	s.NoError(err)
	_, err = s.repo.MarkClaimed(s.ctx, it.ID, s.admin)
	s.ErrorIs(err, common.ErrStateConflict)
}
