// File: internal/item/service.go
package item

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"campus_lostfound_backend/internal/common"
	"campus_lostfound_backend/internal/config"
	"campus_lostfound_backend/internal/domain"
	"campus_lostfound_backend/internal/filestorage"
	"campus_lostfound_backend/internal/notification"
	"campus_lostfound_backend/internal/platform/worker"
	"campus_lostfound_backend/internal/user"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Service defines the item catalog operations.
type Service interface {
	CreateItem(ctx context.Context, reporterID uuid.UUID, kind domain.ItemKind, req CreateItemRequest, image *multipart.FileHeader) (*Item, error)
	GetItem(ctx context.Context, id uuid.UUID, viewerID uuid.UUID, viewerIsAdmin bool) (*Item, error)
	// Resolve looks an item up by reference. The stored kind wins when the hint disagrees.
	Resolve(ctx context.Context, ref domain.ItemRef) (*Item, error)
	Browse(ctx context.Context, filter BrowseFilter, page, pageSize int) ([]Item, *common.Pagination, error)
	ListMine(ctx context.Context, reporterID uuid.UUID, page, pageSize int) ([]Item, *common.Pagination, error)
	DeleteItem(ctx context.Context, id, actorID uuid.UUID) error
	AdminList(ctx context.Context, filter BrowseFilter, page, pageSize int) ([]Item, *common.Pagination, error)
	AdminUpdate(ctx context.Context, actorID, id uuid.UUID, req AdminUpdateRequest) (*Item, error)
	Summary(ctx context.Context, id uuid.UUID) (*Summary, error)
	// Refresh drops cached state for an item changed outside this service and re-indexes it.
	Refresh(ctx context.Context, it *Item)
}

// ImageStore persists item images.
type ImageStore interface {
	SaveImage(fileHeader *multipart.FileHeader, subDir string) (string, error)
	DeleteByURL(publicURL string) error
}

// ReporterDirectory supplies the profile used to fill reporter contact fields.
type ReporterDirectory interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// TaskRunner runs best-effort work off the request path.
type TaskRunner interface {
	Submit(name string, task worker.Task) bool
}

type ServiceImplementation struct {
	repo          Repository
	search        SearchIndex
	images        ImageStore
	users         ReporterDirectory
	notifications notification.Service
	tasks         TaskRunner
	summaries     *cache.Cache
	cfg           *config.Config
	logger        *zap.Logger
}

// NewService creates the item service. search and tasks may be nil.
func NewService(
	repo Repository,
	search SearchIndex,
	images ImageStore,
	users ReporterDirectory,
	notifications notification.Service,
	tasks TaskRunner,
	cfg *config.Config,
	logger *zap.Logger,
) *ServiceImplementation {
	ttl := cfg.ItemSummaryCacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ServiceImplementation{
		repo:          repo,
		search:        search,
		images:        images,
		users:         users,
		notifications: notifications,
		tasks:         tasks,
		summaries:     cache.New(ttl, 2*ttl),
		cfg:           cfg,
		logger:        logger.Named("ItemService"),
	}
}

var _ Service = (*ServiceImplementation)(nil)

func (s *ServiceImplementation) background(name string, task worker.Task) {
	if s.tasks != nil && s.tasks.Submit(name, task) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := task(ctx); err != nil {
		s.logger.Warn("Inline background task failed", zap.String("task", name), zap.Error(err))
	}
}

func (s *ServiceImplementation) indexAsync(it *Item) {
	if s.search == nil {
		return
	}
	doc := *it
	s.background("index-item", func(ctx context.Context) error {
		return s.search.Index(ctx, &doc)
	})
}

func (s *ServiceImplementation) unindexAsync(id uuid.UUID) {
	if s.search == nil {
		return
	}
	s.background("unindex-item", func(ctx context.Context) error {
		return s.search.Delete(ctx, id)
	})
}

func (s *ServiceImplementation) CreateItem(ctx context.Context, reporterID uuid.UUID, kind domain.ItemKind, req CreateItemRequest, image *multipart.FileHeader) (*Item, error) {
	if !kind.Valid() {
		return nil, common.ErrBadRequest.WithDetails("Item kind must be lost or found.")
	}
	title := strings.TrimSpace(req.Title)
	category := strings.TrimSpace(req.Category)
	location := strings.TrimSpace(req.Location)
	if title == "" || category == "" || location == "" {
		return nil, common.NewValidationAPIError(map[string]string{"title": "Title, category and location are required."})
	}

	reporter, err := s.users.GetUserByID(ctx, reporterID)
	if err != nil {
		return nil, err
	}

	it := &Item{
		Kind:            kind,
		Title:           title,
		Description:     strings.TrimSpace(req.Description),
		Category:        category,
		SubCategory:     strings.TrimSpace(req.SubCategory),
		CategorySlug:    slug.Make(category),
		Location:        location,
		ReporterID:      reporterID,
		ReporterName:    firstNonBlank(req.ContactName, reporter.DisplayName),
		ReporterContact: firstNonBlank(req.ContactNumber, reporter.ContactNumber),
		ReporterEmail:   strings.ToLower(firstNonBlank(req.ContactEmail, reporter.Email)),
		Status:          domain.ItemOpen,
		ApprovalStatus:  domain.ApprovalApproved,
	}
	if s.cfg.ItemRequireApproval && !reporter.IsAdmin() {
		it.ApprovalStatus = domain.ApprovalPending
	}
	if req.Date != "" {
		day, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return nil, common.NewValidationAPIError(map[string]string{"date": "The date field must be formatted as YYYY-MM-DD."})
		}
		it.OccurredOn = &day
	}

	if image != nil {
		url, err := s.images.SaveImage(image, "items")
		if err != nil {
			if errors.Is(err, filestorage.ErrUnsupportedType) || errors.Is(err, filestorage.ErrTooLarge) {
				return nil, common.ErrBadRequest.WithDetails(err.Error())
			}
			s.logger.Error("Failed to store item image", zap.Error(err))
			return nil, common.ErrInternalServer.WithDetails("Could not store the image.")
		}
		it.ImageURL = url
	}

	if err := s.repo.Create(ctx, it); err != nil {
		if it.ImageURL != "" {
			_ = s.images.DeleteByURL(it.ImageURL)
		}
		s.logger.Error("Failed to create item", zap.Error(err), zap.String("reporter_id", reporterID.String()))
		return nil, common.ErrInternalServer.WithDetails("Could not create item.")
	}

	s.logger.Info("Item reported",
		zap.String("item_id", it.ID.String()),
		zap.String("kind", string(kind)),
		zap.String("approval_status", string(it.ApprovalStatus)),
	)
	s.indexAsync(it)
	return it, nil
}

func (s *ServiceImplementation) GetItem(ctx context.Context, id uuid.UUID, viewerID uuid.UUID, viewerIsAdmin bool) (*Item, error) {
	it, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.repoError(err, "load item")
	}
	if it.ApprovalStatus != domain.ApprovalApproved && !viewerIsAdmin && it.ReporterID != viewerID {
		return nil, common.ErrNotFound.WithDetails("Item not found.")
	}
	return it, nil
}

// Resolve loads the target of a claim, connection request or chat. Only approved
// items can be targeted; anything else reads as not found, as it does in GetItem.
func (s *ServiceImplementation) Resolve(ctx context.Context, ref domain.ItemRef) (*Item, error) {
	it, err := s.repo.FindByID(ctx, ref.ID)
	if err != nil {
		return nil, s.repoError(err, "resolve item")
	}
	if it.ApprovalStatus != domain.ApprovalApproved {
		return nil, common.ErrNotFound.WithDetails("Item not found.")
	}
	if ref.Kind != "" && ref.Kind != it.Kind {
		s.logger.Debug("Item reference kind hint did not match stored kind",
			zap.String("item_id", ref.ID.String()),
			zap.String("hint", string(ref.Kind)),
			zap.String("stored", string(it.Kind)),
		)
	}
	return it, nil
}

// Browse lists approved items. Text queries go to Elasticsearch when configured.
func (s *ServiceImplementation) Browse(ctx context.Context, filter BrowseFilter, page, pageSize int) ([]Item, *common.Pagination, error) {
	filter.ApprovalStatus = domain.ApprovalApproved
	filter.ReporterID = nil
	return s.list(ctx, filter, page, pageSize)
}

func (s *ServiceImplementation) ListMine(ctx context.Context, reporterID uuid.UUID, page, pageSize int) ([]Item, *common.Pagination, error) {
	return s.list(ctx, BrowseFilter{ReporterID: &reporterID}, page, pageSize)
}

func (s *ServiceImplementation) AdminList(ctx context.Context, filter BrowseFilter, page, pageSize int) ([]Item, *common.Pagination, error) {
	return s.list(ctx, filter, page, pageSize)
}

func (s *ServiceImplementation) list(ctx context.Context, filter BrowseFilter, page, pageSize int) ([]Item, *common.Pagination, error) {
	if s.search != nil && strings.TrimSpace(filter.Query) != "" {
		items, pagination, err := s.searchIndex(ctx, filter, page, pageSize)
		if err == nil {
			return items, pagination, nil
		}
		s.logger.Warn("Elasticsearch query failed, falling back to database search", zap.Error(err))
	}

	items, pagination, err := s.repo.List(ctx, filter, page, pageSize)
	if err != nil {
		s.logger.Error("Failed to list items", zap.Error(err))
		return nil, nil, common.ErrInternalServer.WithDetails("Could not retrieve items.")
	}
	return items, pagination, nil
}

func (s *ServiceImplementation) searchIndex(ctx context.Context, filter BrowseFilter, page, pageSize int) ([]Item, *common.Pagination, error) {
	ids, total, err := s.search.Search(ctx, filter, page, pageSize)
	if err != nil {
		return nil, nil, err
	}
	found, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[uuid.UUID]Item, len(found))
	for _, it := range found {
		byID[it.ID] = it
	}
	ordered := make([]Item, 0, len(ids))
	for _, id := range ids {
		if it, ok := byID[id]; ok {
			ordered = append(ordered, it)
		}
	}
	return ordered, common.NewPagination(total, page, pageSize), nil
}

// DeleteItem removes an open item. Only its reporter may delete it.
func (s *ServiceImplementation) DeleteItem(ctx context.Context, id, actorID uuid.UUID) error {
	it, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.repoError(err, "load item")
	}
	if it.ReporterID != actorID {
		return common.ErrForbidden.WithDetails("Only the reporter can delete this item.")
	}
	if it.Status != domain.ItemOpen {
		return common.ErrStateConflict.WithDetails("Only open items can be deleted.")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.repoError(err, "delete item")
	}

	s.summaries.Delete(id.String())
	if it.ImageURL != "" {
		if err := s.images.DeleteByURL(it.ImageURL); err != nil {
			s.logger.Warn("Failed to delete item image", zap.Error(err), zap.String("item_id", id.String()))
		}
	}
	s.unindexAsync(id)
	s.logger.Info("Item deleted", zap.String("item_id", id.String()), zap.String("actor_id", actorID.String()))
	return nil
}

// AdminUpdate changes status, approval and claimant. Claimed and returned items must
// keep a claimant; reopening clears it.
func (s *ServiceImplementation) AdminUpdate(ctx context.Context, actorID, id uuid.UUID, req AdminUpdateRequest) (*Item, error) {
	it, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.repoError(err, "load item")
	}
	prevStatus, prevApproval := it.Status, it.ApprovalStatus

	if req.ClaimantID != nil {
		raw := strings.TrimSpace(*req.ClaimantID)
		if raw == "" {
			it.ClaimantID = nil
		} else {
			claimant, err := uuid.Parse(raw)
			if err != nil {
				return nil, common.ErrBadRequest.WithDetails("Invalid claimantId format.")
			}
			it.ClaimantID = &claimant
		}
	}
	if req.Status != nil {
		status := domain.ItemStatus(*req.Status)
		if !status.Valid() {
			return nil, common.ErrBadRequest.WithDetails("Status must be open, claimed or returned.")
		}
		it.Status = status
		if status == domain.ItemOpen && req.ClaimantID == nil {
			it.ClaimantID = nil
		}
	}
	if req.ApprovalStatus != nil {
		approval := domain.ApprovalStatus(*req.ApprovalStatus)
		if !approval.Valid() {
			return nil, common.ErrBadRequest.WithDetails("Approval status must be pending, approved or rejected.")
		}
		it.ApprovalStatus = approval
	}
	if it.Status.RequiresClaimant() && it.ClaimantID == nil {
		return nil, common.ErrBadRequest.WithDetails("A claimant is required for claimed or returned items.")
	}

	if err := s.repo.Update(ctx, it); err != nil {
		return nil, s.repoError(err, "update item")
	}
	s.Refresh(ctx, it)

	s.logger.Info("Item updated by admin",
		zap.String("item_id", id.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("status", string(it.Status)),
		zap.String("approval_status", string(it.ApprovalStatus)),
	)

	if it.Status != prevStatus || it.ApprovalStatus != prevApproval {
		ref := it.Ref()
		s.notifications.Notify(ctx, notification.CreateInput{
			UserID:  it.ReporterID,
			Type:    notification.ItemStatusChanged,
			Title:   "Your item was updated",
			Message: fmt.Sprintf("%q is now %s (%s).", it.Title, it.Status, it.ApprovalStatus),
			Item:    &ref,
		})
	}
	return it, nil
}

// Summary returns title and image for enrichment, cached in-process.
func (s *ServiceImplementation) Summary(ctx context.Context, id uuid.UUID) (*Summary, error) {
	key := id.String()
	if cached, ok := s.summaries.Get(key); ok {
		return cached.(*Summary), nil
	}
	it, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.repoError(err, "load item summary")
	}
	summary := &Summary{ID: it.ID, Kind: it.Kind, Title: it.Title, ImageURL: it.ImageURL}
	s.summaries.Set(key, summary, cache.DefaultExpiration)
	return summary, nil
}

func (s *ServiceImplementation) Refresh(_ context.Context, it *Item) {
	s.summaries.Delete(it.ID.String())
	s.indexAsync(it)
}

func (s *ServiceImplementation) repoError(err error, op string) error {
	if _, ok := common.IsAPIError(err); ok {
		return err
	}
	s.logger.Error("Item repository failure", zap.String("op", op), zap.Error(err))
	return common.ErrInternalServer
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			return t
		}
	}
	return ""
}
