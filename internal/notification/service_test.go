package notification

import (
	"context"
	"errors"
	"testing"

	"campus_lostfound_backend/internal/common"
	"campus_lostfound_backend/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockNotificationRepository is a mock type for notification.Repository
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, notification *Notification) error {
	args := m.Called(ctx, notification)
	if args.Error(0) == nil && notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockNotificationRepository) GetByUserID(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Notification, *common.Pagination, error) {
	args := m.Called(ctx, userID, page, pageSize)
	var notifications []Notification
	if args.Get(0) != nil {
		notifications = args.Get(0).([]Notification)
	}
	var pagination *common.Pagination
	if args.Get(1) != nil {
		pagination = args.Get(1).(*common.Pagination)
	}
	return notifications, pagination, args.Error(2)
}

func (m *MockNotificationRepository) FindByID(ctx context.Context, notificationID uuid.UUID) (*Notification, error) {
	args := m.Called(ctx, notificationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Notification), args.Error(1)
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) MarkAsRead(ctx context.Context, notificationID uuid.UUID) error {
	args := m.Called(ctx, notificationID)
	return args.Error(0)
}

func (m *MockNotificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type MockPusher struct {
	mock.Mock
}

func (m *MockPusher) Push(userID uuid.UUID, event string, payload interface{}) {
	m.Called(userID, event, payload)
}

type NotificationServiceTestSuite struct {
	service       Service
	mockNotifRepo *MockNotificationRepository
	mockPusher    *MockPusher
}

func setupNotificationServiceTestSuite(t *testing.T) *NotificationServiceTestSuite {
	ts := &NotificationServiceTestSuite{
		mockNotifRepo: new(MockNotificationRepository),
		mockPusher:    new(MockPusher),
	}
	ts.service = NewService(ts.mockNotifRepo, ts.mockPusher, zap.NewNop())
	return ts
}

// --- Test Cases ---

func TestNotificationService_CreateNotification_Success(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()
	userID := uuid.New()
	ref := domain.ItemRef{Kind: domain.KindFound, ID: uuid.New()}

	ts.mockNotifRepo.On("Create", ctx, mock.AnythingOfType("*notification.Notification")).Run(func(args mock.Arguments) {
		n := args.Get(1).(*Notification)
		assert.Equal(t, userID, n.UserID)
		assert.Equal(t, ConnectionRequestReceived, n.Type)
		assert.Equal(t, ref.ID, *n.ItemID)
		assert.Equal(t, domain.KindFound, *n.ItemKind)
		assert.False(t, n.IsRead)
	}).Return(nil)
	ts.mockPusher.On("Push", userID, EventNew, mock.AnythingOfType("*notification.Notification")).Return()

	created, err := ts.service.CreateNotification(ctx, CreateInput{
		UserID:  userID,
		Type:    ConnectionRequestReceived,
		Title:   "New connection request",
		Message: "Someone thinks they own your item.",
		Item:    &ref,
	})

	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	ts.mockNotifRepo.AssertExpectations(t)
	ts.mockPusher.AssertExpectations(t)
}

func TestNotificationService_CreateNotification_RejectsUnknownType(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)

	_, err := ts.service.CreateNotification(context.Background(), CreateInput{
		UserID:  uuid.New(),
		Type:    NotificationType("listing_created_live"),
		Title:   "t",
		Message: "m",
	})

	assert.ErrorIs(t, err, common.ErrBadRequest)
	ts.mockNotifRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestNotificationService_CreateNotification_RepoErrorSkipsPush(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()

	ts.mockNotifRepo.On("Create", ctx, mock.Anything).Return(errors.New("repo error"))

	created, err := ts.service.CreateNotification(ctx, CreateInput{
		UserID: uuid.New(), Type: ClaimSubmitted, Title: "t", Message: "m",
	})

	assert.Nil(t, created)
	assert.ErrorIs(t, err, common.ErrInternalServer)
	ts.mockPusher.AssertNotCalled(t, "Push", mock.Anything, mock.Anything, mock.Anything)
}

func TestNotificationService_Notify_SwallowsErrors(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()
	ts.mockNotifRepo.On("Create", ctx, mock.Anything).Return(errors.New("db down"))

	assert.NotPanics(t, func() {
		ts.service.Notify(ctx, CreateInput{UserID: uuid.New(), Type: ClaimStatusChanged, Title: "t", Message: "m"})
	})
}

func TestNotificationService_PushWithoutChannelIsNoop(t *testing.T) {
	svc := NewService(new(MockNotificationRepository), nil, zap.NewNop())
	assert.NotPanics(t, func() { svc.Push(uuid.New(), "chat:message", nil) })
}

func TestNotificationService_GetNotificationsForUser_Error(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()
	userID := uuid.New()

	ts.mockNotifRepo.On("GetByUserID", ctx, userID, 1, 5).Return(nil, nil, errors.New("repo error"))

	notifications, pagination, err := ts.service.GetNotificationsForUser(ctx, userID, 1, 5)

	assert.Nil(t, notifications)
	assert.Nil(t, pagination)
	apiErr, ok := common.IsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, common.ErrInternalServer.Code, apiErr.Code)
}

func TestNotificationService_MarkNotificationAsRead(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	notificationID := uuid.New()

	t.Run("owner marks unread", func(t *testing.T) {
		ts := setupNotificationServiceTestSuite(t)
		ts.mockNotifRepo.On("FindByID", ctx, notificationID).Return(&Notification{ID: notificationID, UserID: owner}, nil)
		ts.mockNotifRepo.On("MarkAsRead", ctx, notificationID).Return(nil)

		assert.NoError(t, ts.service.MarkNotificationAsRead(ctx, notificationID, owner))
		ts.mockNotifRepo.AssertExpectations(t)
	})

	t.Run("already read is a no-op", func(t *testing.T) {
		ts := setupNotificationServiceTestSuite(t)
		ts.mockNotifRepo.On("FindByID", ctx, notificationID).Return(&Notification{ID: notificationID, UserID: owner, IsRead: true}, nil)

		assert.NoError(t, ts.service.MarkNotificationAsRead(ctx, notificationID, owner))
		ts.mockNotifRepo.AssertNotCalled(t, "MarkAsRead", mock.Anything, mock.Anything)
	})

	t.Run("other user is forbidden", func(t *testing.T) {
		ts := setupNotificationServiceTestSuite(t)
		ts.mockNotifRepo.On("FindByID", ctx, notificationID).Return(&Notification{ID: notificationID, UserID: owner}, nil)

		err := ts.service.MarkNotificationAsRead(ctx, notificationID, uuid.New())
		assert.ErrorIs(t, err, common.ErrForbidden)
	})

	t.Run("missing is not found", func(t *testing.T) {
		ts := setupNotificationServiceTestSuite(t)
		ts.mockNotifRepo.On("FindByID", ctx, notificationID).Return(nil, common.ErrNotFound.WithDetails("Notification not found."))

		err := ts.service.MarkNotificationAsRead(ctx, notificationID, owner)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestNotificationService_MarkAllUserNotificationsAsRead(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()
	userID := uuid.New()

	ts.mockNotifRepo.On("MarkAllAsRead", ctx, userID).Return(int64(5), nil)

	count, err := ts.service.MarkAllUserNotificationsAsRead(ctx, userID)

	assert.NoError(t, err)
	assert.Equal(t, int64(5), count)
}
