package jobs

import (
	"context"
	"log/slog"
	"time"
)

const (
	JobPayslipEmail = "payslip_email"

	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// RunLog records job executions. Failed rows are the dead-letter
// channel: an operator can see what ran out of attempts and why.
type RunLog interface {
	Begin(ctx context.Context, jobType string) (string, error)
	Finish(ctx context.Context, runID, status string, attempts int, details any, runErr error) error
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

// Service is a small in-process task queue: buffered channel, one
// worker, per-job bookkeeping, bounded retries with exponential
// backoff. Callers fire and forget; nothing on the request path ever
// waits for a job.
type Service struct {
	log         RunLog
	queue       chan job
	maxAttempts int
	backoff     time.Duration
}

func New(log RunLog, queueSize, maxAttempts int, backoff time.Duration) *Service {
	if queueSize <= 0 {
		queueSize = 128
	}
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Service{
		log:         log,
		queue:       make(chan job, queueSize),
		maxAttempts: maxAttempts,
		backoff:     backoff,
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
}

// Enqueue never blocks; when the queue is full the job is dropped and
// logged, matching the at-least-once posture of the delivery path
// (the caller can re-trigger).
func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
	default:
		slog.Warn("job queue full, dropping job", "jobType", jobType)
	}
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			s.runJob(ctx, j)
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) {
	runID := ""
	if s.log != nil {
		id, err := s.log.Begin(ctx, j.Type)
		if err != nil {
			slog.Warn("job run insert failed", "jobType", j.Type, "err", err)
		} else {
			runID = id
		}
	}

	var details any
	var err error
	attempts := 0
	for attempts < s.maxAttempts {
		attempts++
		details, err = j.Run(ctx)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if attempts < s.maxAttempts {
			delay := s.backoff * time.Duration(1<<(attempts-1))
			slog.Warn("job attempt failed, retrying", "jobType", j.Type, "attempt", attempts, "delay", delay, "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}
	}

	status := StatusCompleted
	if err != nil {
		status = StatusFailed
		slog.Error("job exhausted attempts", "jobType", j.Type, "attempts", attempts, "err", err)
	}
	if s.log != nil && runID != "" {
		if logErr := s.log.Finish(ctx, runID, status, attempts, details, err); logErr != nil {
			slog.Warn("job run update failed", "jobType", j.Type, "err", logErr)
		}
	}
}
