// File: internal/connection/service.go
package connection

import (
	"context"
	"fmt"
	"strings"

	"campus_lostfound_backend/internal/common"
	"campus_lostfound_backend/internal/domain"
	"campus_lostfound_backend/internal/item"
	"campus_lostfound_backend/internal/mailer"
	"campus_lostfound_backend/internal/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// EventMessage is the realtime event name for new request messages.
const EventMessage = "connection:message"

const unavailableItemTitle = "Item unavailable"

// InitiateInput is an initiation after the item reference has been decoded.
type InitiateInput struct {
	Item         domain.ItemRef
	Verification Verification
	Message      string
}

type Service interface {
	Initiate(ctx context.Context, claimantID uuid.UUID, in InitiateInput) (*Request, bool, error)
	Respond(ctx context.Context, requestID, actorID uuid.UUID, action string) (*Request, error)
	PostMessage(ctx context.Context, requestID, actorID uuid.UUID, text string) (*Message, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]View, error)
	GetOne(ctx context.Context, requestID, actorID uuid.UUID) (*View, error)
}

// ItemSource resolves item references and summaries.
type ItemSource interface {
	Resolve(ctx context.Context, ref domain.ItemRef) (*item.Item, error)
	Summary(ctx context.Context, id uuid.UUID) (*item.Summary, error)
}

type ServiceImplementation struct {
	repo          Repository
	items         ItemSource
	notifications notification.Service
	mail          mailer.Service
	logger        *zap.Logger
}

// NewService creates the connection-request service. mail may be nil.
func NewService(repo Repository, items ItemSource, notifications notification.Service, mail mailer.Service, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		repo:          repo,
		items:         items,
		notifications: notifications,
		mail:          mail,
		logger:        logger.Named("ConnectionService"),
	}
}

var _ Service = (*ServiceImplementation)(nil)

func trimVerification(v Verification) Verification {
	return Verification{
		Color:    strings.TrimSpace(v.Color),
		Mark:     strings.TrimSpace(v.Mark),
		Location: strings.TrimSpace(v.Location),
	}
}

// Initiate opens a request with the item's finder, or merges into the existing one.
// New requests start accepted so both sides can message right away.
func (s *ServiceImplementation) Initiate(ctx context.Context, claimantID uuid.UUID, in InitiateInput) (*Request, bool, error) {
	verification := trimVerification(in.Verification)
	text := strings.TrimSpace(in.Message)
	fields := map[string]string{}
	if verification.Color == "" {
		fields["verification.color"] = "This field is required."
	}
	if verification.Mark == "" {
		fields["verification.mark"] = "This field is required."
	}
	if verification.Location == "" {
		fields["verification.location"] = "This field is required."
	}
	if text == "" {
		fields["templateMessage"] = "This field is required."
	}
	if len(fields) > 0 {
		return nil, false, common.NewValidationAPIError(fields)
	}

	it, err := s.items.Resolve(ctx, in.Item)
	if err != nil {
		return nil, false, err
	}
	if it.ReporterID == claimantID {
		return nil, false, common.ErrBadRequest.WithDetails("You cannot send a connection request for your own item.")
	}

	candidate := &Request{
		FinderID:     it.ReporterID,
		ClaimantID:   claimantID,
		ItemID:       it.ID,
		ItemKind:     it.Kind,
		Status:       StatusAccepted,
		Verification: datatypes.NewJSONType(verification),
	}
	msg := &Message{SenderID: claimantID, Text: text}
	req, created, err := s.repo.CreateOrMerge(ctx, candidate, msg, func(existing *Request) {
		existing.Verification = datatypes.NewJSONType(existing.Verification.Data().BackFill(verification))
		existing.Status = StatusAccepted
	})
	if err != nil {
		s.logger.Error("Failed to initiate connection request", zap.Error(err),
			zap.String("item_id", it.ID.String()), zap.String("claimant_id", claimantID.String()))
		return nil, false, common.ErrInternalServer.WithDetails("Could not create connection request.")
	}

	s.logger.Info("Connection request initiated",
		zap.String("request_id", req.ID.String()),
		zap.Bool("created", created),
		zap.Int("messages", len(req.Messages)),
	)

	ref := it.Ref()
	s.notifications.Notify(ctx, notification.CreateInput{
		UserID:  it.ReporterID,
		Type:    notification.ConnectionRequestReceived,
		Title:   "New connection request",
		Message: fmt.Sprintf("Someone believes %q belongs to them.", it.Title),
		Item:    &ref,
	})
	if created && s.mail != nil {
		s.mail.SendAsync(mailer.Message{
			To:      it.ReporterEmail,
			Subject: "Someone is asking about an item you reported",
			Body: fmt.Sprintf("Hello %s,\n\nA user has requested to connect about %q:\n\n%s\n\nSign in to reply.\n",
				it.ReporterName, it.Title, text),
		})
	}
	return req, created, nil
}

// Respond lets the finder accept or reject a request.
func (s *ServiceImplementation) Respond(ctx context.Context, requestID, actorID uuid.UUID, action string) (*Request, error) {
	var status Status
	switch strings.ToLower(action) {
	case "accept":
		status = StatusAccepted
	case "reject":
		status = StatusRejected
	default:
		return nil, common.ErrBadRequest.WithDetails("Action must be accept or reject.")
	}

	req, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, s.repoError(err, "load request")
	}
	if req.FinderID != actorID {
		return nil, common.ErrForbidden.WithDetails("Only the finder can respond to this request.")
	}
	if err := s.repo.UpdateStatus(ctx, requestID, status); err != nil {
		return nil, s.repoError(err, "update status")
	}
	req.Status = status

	ref := domain.ItemRef{Kind: req.ItemKind, ID: req.ItemID}
	s.notifications.Notify(ctx, notification.CreateInput{
		UserID:  req.ClaimantID,
		Type:    notification.ConnectionResponded,
		Title:   "Connection request " + string(status),
		Message: fmt.Sprintf("The finder has %s your connection request.", status),
		Item:    &ref,
	})
	return req, nil
}

// PostMessage appends to an accepted request's thread.
func (s *ServiceImplementation) PostMessage(ctx context.Context, requestID, actorID uuid.UUID, text string) (*Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, common.NewValidationAPIError(map[string]string{"text": "This field is required."})
	}
	req, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, s.repoError(err, "load request")
	}
	if !req.IsParticipant(actorID) {
		return nil, common.ErrForbidden.WithDetails("You are not a participant in this request.")
	}
	if req.Status != StatusAccepted {
		return nil, common.ErrStateConflict.WithDetails("Messages can only be sent on accepted requests.")
	}

	msg := &Message{RequestID: requestID, SenderID: actorID, Text: text}
	if err := s.repo.AppendMessage(ctx, msg); err != nil {
		return nil, s.repoError(err, "append message")
	}

	other := req.Counterpart(actorID)
	ref := domain.ItemRef{Kind: req.ItemKind, ID: req.ItemID}
	s.notifications.Notify(ctx, notification.CreateInput{
		UserID:  other,
		Type:    notification.ConnectionMessageReceived,
		Title:   "New message",
		Message: preview(text),
		Item:    &ref,
	})
	event := MessageEvent{RequestID: requestID, Message: *msg}
	s.notifications.Push(actorID, EventMessage, event)
	s.notifications.Push(other, EventMessage, event)
	return msg, nil
}

func (s *ServiceImplementation) ListMine(ctx context.Context, userID uuid.UUID) ([]View, error) {
	requests, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, s.repoError(err, "list requests")
	}
	views := make([]View, 0, len(requests))
	for _, req := range requests {
		views = append(views, s.enrich(ctx, req))
	}
	return views, nil
}

func (s *ServiceImplementation) GetOne(ctx context.Context, requestID, actorID uuid.UUID) (*View, error) {
	req, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, s.repoError(err, "load request")
	}
	if !req.IsParticipant(actorID) {
		return nil, common.ErrForbidden.WithDetails("You are not a participant in this request.")
	}
	view := s.enrich(ctx, *req)
	return &view, nil
}

func (s *ServiceImplementation) enrich(ctx context.Context, req Request) View {
	view := View{Request: req, ItemTitle: unavailableItemTitle}
	summary, err := s.items.Summary(ctx, req.ItemID)
	if err != nil {
		s.logger.Debug("Could not resolve item for connection request",
			zap.String("request_id", req.ID.String()), zap.Error(err))
		return view
	}
	view.ItemTitle = summary.Title
	view.ItemImage = summary.ImageURL
	return view
}

func (s *ServiceImplementation) repoError(err error, op string) error {
	if _, ok := common.IsAPIError(err); ok {
		return err
	}
	s.logger.Error("Connection repository failure", zap.String("op", op), zap.Error(err))
	return common.ErrInternalServer
}

func preview(text string) string {
	const max = 120
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}
