package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sanjayvanan/IntelliBid/internal/domain"
	"github.com/sanjayvanan/IntelliBid/pkg/logger"
	"github.com/sanjayvanan/IntelliBid/pkg/utils"
)

const dueJobBatch = 200

// CronJobScheduler is a durable delayed-job facility on top of the
// scheduled_jobs table: enqueue upserts a pending row keyed by the dedup
// key, a cron loop polls due rows and dispatches to registered handlers.
// Delivery is at-least-once; a row stays pending until its handler
// succeeds, so retryable failures simply fire again on the next poll.
type CronJobScheduler struct {
	cron       *cron.Cron
	repo       domain.JobRepository
	leader     domain.LeaderElection
	instanceID string
	interval   time.Duration
	log        logger.Logger

	mu       sync.RWMutex
	handlers map[domain.JobType]domain.JobHandler
}

func NewCronJobScheduler(repo domain.JobRepository, leader domain.LeaderElection,
	instanceID string, interval time.Duration, log logger.Logger) *CronJobScheduler {
	return &CronJobScheduler{
		cron:       cron.New(cron.WithSeconds()),
		repo:       repo,
		leader:     leader,
		instanceID: instanceID,
		interval:   interval,
		log:        log,
		handlers:   make(map[domain.JobType]domain.JobHandler),
	}
}

// Register subscribes a handler for a job type. Must be called before
// Start.
func (s *CronJobScheduler) Register(jobType domain.JobType, handler domain.JobHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[jobType] = handler
}

// Enqueue schedules a job. The dedup key guarantees at most one pending
// job of a given type per item regardless of how often it is rescheduled.
func (s *CronJobScheduler) Enqueue(ctx context.Context, jobType domain.JobType,
	itemID int64, fireAt time.Time, dedupKey string) error {
	job := &domain.ScheduledJob{
		ID:        utils.GenerateID("job"),
		ItemID:    itemID,
		JobType:   jobType,
		RunAt:     fireAt,
		Status:    domain.JobPending,
		DedupKey:  dedupKey,
		CreatedAt: time.Now(),
	}
	return s.repo.UpsertPendingJob(ctx, job)
}

func (s *CronJobScheduler) Start(ctx context.Context) error {
	s.log.Info("starting job scheduler", "poll_interval", s.interval)

	spec := fmt.Sprintf("@every %s", s.interval)
	_, err := s.cron.AddFunc(spec, func() {
		s.processDueJobs(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *CronJobScheduler) Stop() error {
	s.log.Info("stopping job scheduler")
	s.cron.Stop()
	return nil
}

func (s *CronJobScheduler) processDueJobs(ctx context.Context) {
	isLeader, err := s.leader.IsLeader(ctx, s.instanceID)
	if err != nil {
		s.log.Error("leader check failed", "error", err)
		return
	}
	if !isLeader {
		return
	}

	jobs, err := s.repo.DueJobs(ctx, time.Now(), dueJobBatch)
	if err != nil {
		s.log.Error("failed to fetch due jobs", "error", err)
		return
	}

	for _, job := range jobs {
		s.dispatch(ctx, job)
	}
}

func (s *CronJobScheduler) dispatch(ctx context.Context, job *domain.ScheduledJob) {
	s.mu.RLock()
	handler, ok := s.handlers[job.JobType]
	s.mu.RUnlock()

	if !ok {
		s.log.Error("no handler registered for job type", "job_id", job.ID, "type", job.JobType)
		return
	}

	s.log.Info("processing job", "job_id", job.ID, "type", job.JobType, "item_id", job.ItemID)

	err := handler(ctx, job.ItemID)
	switch {
	case err == nil:
		if err := s.repo.MarkExecuted(ctx, job.ID, job.RunAt); err != nil {
			// The handler is idempotent under redelivery, so the job
			// firing again is safe. Leave it pending.
			s.log.Error("failed to mark job executed", "job_id", job.ID, "error", err)
		}
	case domain.IsRetryable(err):
		s.log.Warn("job failed, will retry", "job_id", job.ID, "attempt", job.Attempts+1, "error", err)
		if err := s.repo.RecordAttempt(ctx, job.ID); err != nil {
			s.log.Error("failed to record job attempt", "job_id", job.ID, "error", err)
		}
	default:
		s.log.Error("job failed terminally", "job_id", job.ID, "error", err)
		if err := s.repo.MarkFailed(ctx, job.ID); err != nil {
			s.log.Error("failed to mark job failed", "job_id", job.ID, "error", err)
		}
	}
}
