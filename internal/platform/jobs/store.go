package jobs

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgRunLog persists job runs to the job_runs table.
type PgRunLog struct {
	DB *pgxpool.Pool
}

func NewPgRunLog(pool *pgxpool.Pool) *PgRunLog {
	return &PgRunLog{DB: pool}
}

func (l *PgRunLog) Begin(ctx context.Context, jobType string) (string, error) {
	var id string
	err := l.DB.QueryRow(ctx, `
		INSERT INTO job_runs (job_type, status, started_at)
		VALUES ($1, $2, now())
		RETURNING id`, jobType, StatusRunning).Scan(&id)
	return id, err
}

func (l *PgRunLog) Finish(ctx context.Context, runID, status string, attempts int, details any, runErr error) error {
	var detailsJSON []byte
	if details != nil {
		encoded, err := json.Marshal(details)
		if err == nil {
			detailsJSON = encoded
		}
	}
	errText := ""
	if runErr != nil {
		errText = runErr.Error()
	}
	_, err := l.DB.Exec(ctx, `
		UPDATE job_runs
		SET status = $2, attempts = $3, details = $4, error = NULLIF($5, ''), finished_at = now()
		WHERE id = $1`, runID, status, attempts, detailsJSON, errText)
	return err
}
