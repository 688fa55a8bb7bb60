package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/sanjayvanan/IntelliBid/internal/domain"
)

// MySQLJobRepository backs the job scheduler with the scheduled_jobs
// table. dedup_key carries a UNIQUE index, which is what bounds pending
// jobs to one per type+item.
type MySQLJobRepository struct {
	db *sql.DB
}

func NewMySQLJobRepository(db *sql.DB) *MySQLJobRepository {
	return &MySQLJobRepository{db: db}
}

// UpsertPendingJob inserts the job, or on a dedup-key collision revives
// the existing row as pending with the new run_at. Moving run_at forward
// also invalidates the MarkExecuted acknowledgement of an in-flight
// firing, so a handler can restart its own timer under the same key.
func (r *MySQLJobRepository) UpsertPendingJob(ctx context.Context, job *domain.ScheduledJob) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO scheduled_jobs (id, item_id, job_type, run_at, status, dedup_key, attempts, created_at)
        VALUES (?, ?, ?, ?, 'pending', ?, 0, ?)
        ON DUPLICATE KEY UPDATE
            run_at   = VALUES(run_at),
            attempts = 0,
            status   = 'pending'`,
		job.ID, job.ItemID, string(job.JobType), job.RunAt, job.DedupKey, job.CreatedAt)
	return err
}

func (r *MySQLJobRepository) DueJobs(ctx context.Context, before time.Time, limit int) ([]*domain.ScheduledJob, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, item_id, job_type, run_at, status, dedup_key, attempts, created_at
        FROM scheduled_jobs
        WHERE status = 'pending' AND run_at <= ?
        ORDER BY run_at ASC LIMIT ?`, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.ScheduledJob
	for rows.Next() {
		var job domain.ScheduledJob
		var jobType, status string

		err := rows.Scan(&job.ID, &job.ItemID, &jobType, &job.RunAt,
			&status, &job.DedupKey, &job.Attempts, &job.CreatedAt)
		if err != nil {
			return nil, err
		}

		job.JobType = domain.JobType(jobType)
		job.Status = domain.JobStatus(status)
		jobs = append(jobs, &job)
	}
	return jobs, rows.Err()
}

// MarkExecuted retires the firing only when the row still carries the
// run_at the handler saw. A re-enqueue that moved run_at wins the race.
func (r *MySQLJobRepository) MarkExecuted(ctx context.Context, jobID string, firedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
        UPDATE scheduled_jobs SET status = 'executed'
        WHERE id = ? AND status = 'pending' AND run_at = ?`, jobID, firedAt)
	return err
}

func (r *MySQLJobRepository) MarkFailed(ctx context.Context, jobID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE scheduled_jobs SET status = 'failed' WHERE id = ?`, jobID)
	return err
}

func (r *MySQLJobRepository) RecordAttempt(ctx context.Context, jobID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE scheduled_jobs SET attempts = attempts + 1 WHERE id = ?`, jobID)
	return err
}
