// File: internal/jobs/pending_claims_reminder.go
package jobs

import (
	"context"
	"fmt"
	"time"

	"campus_lostfound_backend/internal/config"
	"campus_lostfound_backend/internal/notification"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StaleClaimCounter counts claims waiting for review.
type StaleClaimCounter interface {
	CountStalePending(ctx context.Context, olderThan time.Duration) (int64, error)
}

// AdminDirectory lists the users to remind.
type AdminDirectory interface {
	AdminIDs(ctx context.Context) ([]uuid.UUID, error)
}

// PendingClaimsReminderJob periodically reminds admins about claims left in review.
type PendingClaimsReminderJob struct {
	claims        StaleClaimCounter
	admins        AdminDirectory
	notifications notification.Service
	logger        *zap.Logger
	cfg           *config.Config
	cronScheduler *cron.Cron
}

func NewPendingClaimsReminderJob(
	claims StaleClaimCounter,
	admins AdminDirectory,
	notifications notification.Service,
	logger *zap.Logger,
	cfg *config.Config,
) *PendingClaimsReminderJob {
	scheduler := cron.New(
		cron.WithLogger(NewCronLogger(logger.Named("cron"))),
		cron.WithChain(cron.SkipIfStillRunning(NewCronLogger(logger.Named("cron")))),
	)
	return &PendingClaimsReminderJob{
		claims:        claims,
		admins:        admins,
		notifications: notifications,
		logger:        logger.Named("PendingClaimsReminderJob"),
		cfg:           cfg,
		cronScheduler: scheduler,
	}
}

// SetupAndStart schedules and starts the cron job.
func (j *PendingClaimsReminderJob) SetupAndStart() error {
	jobSpec := j.cfg.ClaimReminderJobSchedule
	if jobSpec == "" {
		j.logger.Warn("Claim reminder schedule not defined (CLAIM_REMINDER_JOB_SCHEDULE). Job will not run.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule claim reminder job", zap.String("spec", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Claim reminder job scheduled", zap.String("spec", jobSpec), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

func (j *PendingClaimsReminderJob) runJob() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	notified, err := j.RunOnce(ctx)
	if err != nil {
		j.logger.Error("Claim reminder job run failed", zap.Error(err))
		return
	}
	j.logger.Info("Claim reminder job run completed", zap.Int("admins_notified", notified))
}

// RunOnce sends one reminder to every admin if any claim has waited longer than the
// configured threshold. It returns the number of admins notified.
func (j *PendingClaimsReminderJob) RunOnce(ctx context.Context) (int, error) {
	after := j.cfg.ClaimReminderAfter
	if after <= 0 {
		after = 48 * time.Hour
	}
	stale, err := j.claims.CountStalePending(ctx, after)
	if err != nil {
		return 0, fmt.Errorf("counting stale claims: %w", err)
	}
	if stale == 0 {
		return 0, nil
	}

	adminIDs, err := j.admins.AdminIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing admins: %w", err)
	}
	message := fmt.Sprintf("%d claim(s) have been waiting for review for more than %s.", stale, after)
	for _, id := range adminIDs {
		j.notifications.Notify(ctx, notification.CreateInput{
			UserID:  id,
			Type:    notification.ClaimsPendingReview,
			Title:   "Claims awaiting review",
			Message: message,
		})
	}
	return len(adminIDs), nil
}

// Stop gracefully stops the cron scheduler.
func (j *PendingClaimsReminderJob) Stop() {
	if j.cronScheduler == nil {
		return
	}
	j.logger.Info("Stopping claim reminder job scheduler...")
	stopCtx := j.cronScheduler.Stop()
	select {
	case <-stopCtx.Done():
		j.logger.Info("Claim reminder job scheduler stopped gracefully.")
	case <-time.After(10 * time.Second):
		j.logger.Warn("Claim reminder job scheduler stop timed out.")
	}
}
