// File: internal/claim/service.go
package claim

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"campus_lostfound_backend/internal/common"
	"campus_lostfound_backend/internal/domain"
	"campus_lostfound_backend/internal/filestorage"
	"campus_lostfound_backend/internal/item"
	"campus_lostfound_backend/internal/mailer"
	"campus_lostfound_backend/internal/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service interface {
	Submit(ctx context.Context, claimantID uuid.UUID, ref domain.ItemRef, req SubmitRequest, proof *multipart.FileHeader) (*Claim, error)
	SetStatus(ctx context.Context, reviewerID, claimID uuid.UUID, status Status) (*Claim, error)
	ListMine(ctx context.Context, claimantID uuid.UUID) ([]Claim, error)
	ListAll(ctx context.Context, filter ListFilter, page, pageSize int) ([]Claim, *common.Pagination, error)
	CountStalePending(ctx context.Context, olderThan time.Duration) (int64, error)
}

// ItemResolver is the slice of the item catalog the claim workflow needs.
type ItemResolver interface {
	Resolve(ctx context.Context, ref domain.ItemRef) (*item.Item, error)
	Refresh(ctx context.Context, it *item.Item)
}

// ProofEncoder turns an uploaded proof image into an embeddable data URI.
type ProofEncoder interface {
	EncodeDataURI(fileHeader *multipart.FileHeader) (string, error)
}

type ServiceImplementation struct {
	repo          Repository
	items         ItemResolver
	itemRepo      item.Repository
	proofs        ProofEncoder
	notifications notification.Service
	mail          mailer.Service
	logger        *zap.Logger
}

// NewService creates the claim service. mail may be nil.
func NewService(
	repo Repository,
	items ItemResolver,
	itemRepo item.Repository,
	proofs ProofEncoder,
	notifications notification.Service,
	mail mailer.Service,
	logger *zap.Logger,
) *ServiceImplementation {
	return &ServiceImplementation{
		repo:          repo,
		items:         items,
		itemRepo:      itemRepo,
		proofs:        proofs,
		notifications: notifications,
		mail:          mail,
		logger:        logger.Named("ClaimService"),
	}
}

var _ Service = (*ServiceImplementation)(nil)

func (s *ServiceImplementation) Submit(ctx context.Context, claimantID uuid.UUID, ref domain.ItemRef, req SubmitRequest, proof *multipart.FileHeader) (*Claim, error) {
	fields := map[string]string{}
	for name, value := range map[string]string{
		"name":          req.Name,
		"email":         req.Email,
		"studentId":     req.StudentID,
		"contactNumber": req.ContactNumber,
	} {
		if strings.TrimSpace(value) == "" {
			fields[name] = "This field is required."
		}
	}
	if len(fields) > 0 {
		return nil, common.NewValidationAPIError(fields)
	}

	it, err := s.items.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if it.ReporterID == claimantID {
		return nil, common.ErrBadRequest.WithDetails("You cannot claim an item you reported.")
	}

	c := &Claim{
		ClaimantID:       claimantID,
		ItemID:           it.ID,
		ItemKind:         it.Kind,
		Name:             strings.TrimSpace(req.Name),
		Email:            strings.ToLower(strings.TrimSpace(req.Email)),
		StudentID:        strings.TrimSpace(req.StudentID),
		ContactNumber:    strings.TrimSpace(req.ContactNumber),
		ProofDescription: strings.TrimSpace(req.ProofDescription),
		Status:           StatusPending,
	}
	if proof != nil {
		uri, err := s.proofs.EncodeDataURI(proof)
		if err != nil {
			if errors.Is(err, filestorage.ErrUnsupportedType) || errors.Is(err, filestorage.ErrTooLarge) {
				return nil, common.ErrBadRequest.WithDetails(err.Error())
			}
			s.logger.Error("Failed to read proof image", zap.Error(err))
			return nil, common.ErrBadRequest.WithDetails("Could not read the proof image.")
		}
		c.ProofImage = uri
	}

	if err := s.repo.Create(ctx, c); err != nil {
		s.logger.Error("Failed to create claim", zap.Error(err), zap.String("item_id", it.ID.String()))
		return nil, common.ErrInternalServer.WithDetails("Could not submit claim.")
	}
	s.logger.Info("Claim submitted",
		zap.String("claim_id", c.ID.String()),
		zap.String("item_id", it.ID.String()),
		zap.String("claimant_id", claimantID.String()),
	)

	ref = it.Ref()
	s.notifications.Notify(ctx, notification.CreateInput{
		UserID:  claimantID,
		Type:    notification.ClaimSubmitted,
		Title:   "Claim submitted",
		Message: fmt.Sprintf("Your claim for %q was received and is awaiting review.", it.Title),
		Item:    &ref,
		ClaimID: &c.ID,
	})
	s.sendMail(c.Email, "Your claim was received",
		fmt.Sprintf("Hi %s,\n\nWe received your claim for %q. An administrator will review it shortly.\n", c.Name, it.Title))
	return c, nil
}

// SetStatus reviews a claim. Approving a found-item claim marks the item claimed in the same transaction.
func (s *ServiceImplementation) SetStatus(ctx context.Context, reviewerID, claimID uuid.UUID, status Status) (*Claim, error) {
	if !status.Valid() {
		return nil, common.ErrBadRequest.WithDetails("Status must be pending, approved or rejected.")
	}

	var claimedItem *item.Item
	c, changed, err := s.repo.ApplyStatus(ctx, claimID, status, reviewerID, func(tx *gorm.DB, c *Claim) error {
		if c.ItemKind != domain.KindFound {
			return nil
		}
		it, err := s.itemRepo.WithTx(tx).MarkClaimed(ctx, c.ItemID, c.ClaimantID)
		if errors.Is(err, common.ErrNotFound) {
			// reporter deleted the item; the claim is still decided
			s.logger.Warn("Approved claim targets a deleted item", zap.String("claim_id", c.ID.String()), zap.String("item_id", c.ItemID.String()))
			return nil
		}
		if err != nil {
			return err
		}
		claimedItem = it
		return nil
	})
	if err != nil {
		if _, ok := common.IsAPIError(err); ok {
			return nil, err
		}
		s.logger.Error("Failed to update claim status", zap.Error(err), zap.String("claim_id", claimID.String()))
		return nil, common.ErrInternalServer.WithDetails("Could not update claim status.")
	}
	if !changed {
		return c, nil
	}

	s.logger.Info("Claim status changed",
		zap.String("claim_id", c.ID.String()),
		zap.String("status", string(status)),
		zap.String("reviewer_id", reviewerID.String()),
	)
	if claimedItem != nil {
		s.items.Refresh(ctx, claimedItem)
	}

	ref := c.Ref()
	s.notifications.Notify(ctx, notification.CreateInput{
		UserID:  c.ClaimantID,
		Type:    notification.ClaimStatusChanged,
		Title:   "Claim " + string(status),
		Message: fmt.Sprintf("Your claim is now %s.", status),
		Item:    &ref,
		ClaimID: &c.ID,
	})
	s.sendMail(c.Email, "Your claim was "+string(status),
		fmt.Sprintf("Hi %s,\n\nThe status of your claim is now: %s.\n", c.Name, status))
	return c, nil
}

func (s *ServiceImplementation) ListMine(ctx context.Context, claimantID uuid.UUID) ([]Claim, error) {
	claims, err := s.repo.ListByClaimant(ctx, claimantID)
	if err != nil {
		s.logger.Error("Failed to list claims", zap.Error(err), zap.String("claimant_id", claimantID.String()))
		return nil, common.ErrInternalServer.WithDetails("Could not retrieve claims.")
	}
	return claims, nil
}

func (s *ServiceImplementation) ListAll(ctx context.Context, filter ListFilter, page, pageSize int) ([]Claim, *common.Pagination, error) {
	claims, pagination, err := s.repo.List(ctx, filter, page, pageSize)
	if err != nil {
		s.logger.Error("Failed to list claims", zap.Error(err))
		return nil, nil, common.ErrInternalServer.WithDetails("Could not retrieve claims.")
	}
	return claims, pagination, nil
}

// CountStalePending counts claims that have waited for review longer than olderThan.
func (s *ServiceImplementation) CountStalePending(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.repo.CountPendingBefore(ctx, time.Now().Add(-olderThan))
}

func (s *ServiceImplementation) sendMail(to, subject, body string) {
	if s.mail == nil {
		return
	}
	s.mail.SendAsync(mailer.Message{To: to, Subject: subject, Body: body})
}
