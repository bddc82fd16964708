// File: internal/chat/service.go
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"campus_lostfound_backend/internal/common"
	"campus_lostfound_backend/internal/domain"
	"campus_lostfound_backend/internal/item"
	"campus_lostfound_backend/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventMessage is pushed to every participant, sender included, for multi-device sync.
const EventMessage = "chat:message"

type Service interface {
	GetOrCreate(ctx context.Context, requesterID uuid.UUID, ref domain.ItemRef, ownerID *uuid.UUID) (*Chat, bool, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]View, error)
	GetOne(ctx context.Context, chatID, userID uuid.UUID) (*View, error)
	PostMessage(ctx context.Context, chatID, userID uuid.UUID, text string) (*Message, error)
	ListMessages(ctx context.Context, chatID, userID uuid.UUID, page, pageSize int) ([]Message, *common.Pagination, error)
}

// ItemSource resolves item references and summaries.
type ItemSource interface {
	Resolve(ctx context.Context, ref domain.ItemRef) (*item.Item, error)
	Summary(ctx context.Context, id uuid.UUID) (*item.Summary, error)
}

// ParticipantDirectory confirms that an explicitly named counterpart exists.
type ParticipantDirectory interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Pusher delivers realtime events.
type Pusher interface {
	Push(userID uuid.UUID, event string, payload interface{})
}

type ServiceImplementation struct {
	repo   Repository
	items  ItemSource
	users  ParticipantDirectory
	pusher Pusher
	logger *zap.Logger
}

// NewService creates the chat service. pusher may be nil.
func NewService(repo Repository, items ItemSource, users ParticipantDirectory, pusher Pusher, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{repo: repo, items: items, users: users, pusher: pusher, logger: logger.Named("ChatService")}
}

var _ Service = (*ServiceImplementation)(nil)

// GetOrCreate returns the chat between requester and owner about an item, creating it if needed.
// The owner defaults to the item's reporter. Every chat includes the reporter, so only the
// reporter may name a different counterpart, and that user must exist.
func (s *ServiceImplementation) GetOrCreate(ctx context.Context, requesterID uuid.UUID, ref domain.ItemRef, ownerID *uuid.UUID) (*Chat, bool, error) {
	it, err := s.items.Resolve(ctx, ref)
	if err != nil {
		return nil, false, err
	}
	owner := it.ReporterID
	if ownerID != nil && *ownerID != uuid.Nil && *ownerID != it.ReporterID {
		if requesterID != it.ReporterID {
			return nil, false, common.ErrBadRequest.WithDetails("A chat about this item must include its reporter.")
		}
		if _, err := s.users.GetUserByID(ctx, *ownerID); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, false, common.ErrBadRequest.WithDetails("The requested chat participant does not exist.")
			}
			return nil, false, err
		}
		owner = *ownerID
	}
	if owner == requesterID {
		return nil, false, common.ErrBadRequest.WithDetails("You cannot start a chat with yourself.")
	}

	low, high := orderedPair(requesterID, owner)
	candidate := &Chat{
		ItemID:          it.ID,
		ItemKind:        it.Kind,
		ParticipantLow:  low,
		ParticipantHigh: high,
		OwnerID:         owner,
		RequesterID:     requesterID,
	}
	c, created, err := s.repo.GetOrCreate(ctx, candidate)
	if err != nil {
		return nil, false, s.repoError(err, "get or create chat")
	}
	if created {
		s.logger.Info("Chat created",
			zap.String("chat_id", c.ID.String()),
			zap.String("item_id", it.ID.String()),
		)
	}
	return c, created, nil
}

func (s *ServiceImplementation) ListMine(ctx context.Context, userID uuid.UUID) ([]View, error) {
	chats, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, s.repoError(err, "list chats")
	}
	views := make([]View, 0, len(chats))
	for _, c := range chats {
		views = append(views, s.enrich(ctx, c))
	}
	return views, nil
}

func (s *ServiceImplementation) GetOne(ctx context.Context, chatID, userID uuid.UUID) (*View, error) {
	c, err := s.participantChat(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	view := s.enrich(ctx, *c)
	return &view, nil
}

func (s *ServiceImplementation) PostMessage(ctx context.Context, chatID, userID uuid.UUID, text string) (*Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, common.NewValidationAPIError(map[string]string{"text": "This field is required."})
	}
	c, err := s.participantChat(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}

	msg := &Message{ChatID: chatID, SenderID: userID, Text: text, CreatedAt: time.Now()}
	if err := s.repo.AddMessage(ctx, msg); err != nil {
		return nil, s.repoError(err, "add message")
	}

	for _, participant := range c.Participants() {
		s.push(participant, msg)
	}
	return msg, nil
}

// push is best-effort; the message is already stored.
func (s *ServiceImplementation) push(userID uuid.UUID, msg *Message) {
	if s.pusher == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Realtime push panicked", zap.Any("panic", r), zap.String("chat_id", msg.ChatID.String()))
		}
	}()
	s.pusher.Push(userID, EventMessage, msg)
}

func (s *ServiceImplementation) ListMessages(ctx context.Context, chatID, userID uuid.UUID, page, pageSize int) ([]Message, *common.Pagination, error) {
	if _, err := s.participantChat(ctx, chatID, userID); err != nil {
		return nil, nil, err
	}
	messages, pagination, err := s.repo.ListMessages(ctx, chatID, page, pageSize)
	if err != nil {
		return nil, nil, s.repoError(err, "list messages")
	}
	return messages, pagination, nil
}

func (s *ServiceImplementation) participantChat(ctx context.Context, chatID, userID uuid.UUID) (*Chat, error) {
	c, err := s.repo.FindByID(ctx, chatID)
	if err != nil {
		return nil, s.repoError(err, "load chat")
	}
	if !c.IsParticipant(userID) {
		return nil, common.ErrForbidden.WithDetails("You are not a participant in this chat.")
	}
	return c, nil
}

func (s *ServiceImplementation) enrich(ctx context.Context, c Chat) View {
	view := View{Chat: c, ItemTitle: "Item unavailable"}
	if summary, err := s.items.Summary(ctx, c.ItemID); err == nil {
		view.ItemTitle = summary.Title
		view.ItemImage = summary.ImageURL
	}
	return view
}

func (s *ServiceImplementation) repoError(err error, op string) error {
	if _, ok := common.IsAPIError(err); ok {
		return err
	}
	s.logger.Error("Chat repository failure", zap.String("op", op), zap.Error(err))
	return common.ErrInternalServer
}
