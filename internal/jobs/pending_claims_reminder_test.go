package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"campus_lostfound_backend/internal/config"
	"campus_lostfound_backend/internal/notification"
	"campus_lostfound_backend/internal/platform/database/dbtest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubCounter struct {
	count int64
	err   error
	asked time.Duration
}

func (s *stubCounter) CountStalePending(_ context.Context, olderThan time.Duration) (int64, error) {
	s.asked = olderThan
	return s.count, s.err
}

type stubAdmins []uuid.UUID

func (s stubAdmins) AdminIDs(context.Context) ([]uuid.UUID, error) { return s, nil }

func TestRunOnce_NotifiesEveryAdmin(t *testing.T) {
	db := dbtest.Open(t, &notification.Notification{})
	notifs := notification.NewService(notification.NewGORMRepository(db), nil, zap.NewNop())
	admins := stubAdmins{uuid.New(), uuid.New()}
	counter := &stubCounter{count: 3}
	cfg := &config.Config{ClaimReminderAfter: 24 * time.Hour}

	job := NewPendingClaimsReminderJob(counter, admins, notifs, zap.NewNop(), cfg)
	notified, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, notified)
	assert.Equal(t, 24*time.Hour, counter.asked)

	for _, id := range admins {
		notes, _, err := notifs.GetNotificationsForUser(context.Background(), id, 1, 10)
		require.NoError(t, err)
		require.Len(t, notes, 1)
		assert.Equal(t, notification.ClaimsPendingReview, notes[0].Type)
		assert.Contains(t, notes[0].Message, "3 claim(s)")
	}
}

func TestRunOnce_NothingStale(t *testing.T) {
	job := NewPendingClaimsReminderJob(&stubCounter{}, stubAdmins{uuid.New()}, nil, zap.NewNop(), &config.Config{})
	notified, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, notified)
}

func TestRunOnce_CounterError(t *testing.T) {
	job := NewPendingClaimsReminderJob(&stubCounter{err: errors.New("db down")}, stubAdmins{}, nil, zap.NewNop(), &config.Config{})
	_, err := job.RunOnce(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestSetupAndStart(t *testing.T) {
	job := NewPendingClaimsReminderJob(&stubCounter{}, stubAdmins{}, nil, zap.NewNop(), &config.Config{})
	assert.NoError(t, job.SetupAndStart(), "an empty schedule disables the job")

	job = NewPendingClaimsReminderJob(&stubCounter{}, stubAdmins{}, nil, zap.NewNop(), &config.Config{ClaimReminderJobSchedule: "not a schedule"})
	assert.Error(t, job.SetupAndStart())

	job = NewPendingClaimsReminderJob(&stubCounter{}, stubAdmins{}, nil, zap.NewNop(), &config.Config{ClaimReminderJobSchedule: "@hourly"})
	require.NoError(t, job.SetupAndStart())
	job.Stop()
}

func TestCronLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewCronLogger(zap.New(core))

	l.Info("wake", "now", "x", "dangling")
	l.Error(errors.New("boom"), "failed", "entry", 1)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "MISSING_VALUE", entries[0].ContextMap()["dangling"])
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}
