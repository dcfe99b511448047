package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"lol-reporter/internal/domain"
)

// JournalRepository records cycle executions. The journal is observational
// only: nothing in it ever feeds back into report computation.
type JournalRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewJournalRepository(db *sql.DB, logger zerolog.Logger) *JournalRepository {
	return &JournalRepository{db: db, logger: logger}
}

func (r *JournalRepository) Record(ctx context.Context, run domain.CycleRun) error {
	if run.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("generate journal id: %w", err)
		}
		run.ID = id
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cycle_runs (id, kind, triggered_by, started_at, finished_at, status, matches, wins, losses, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.Kind), run.Trigger, run.StartedAt, run.FinishedAt,
		run.Status, run.Matches, run.Wins, run.Losses, run.Error, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("record cycle run: %w", err)
	}

	r.logger.Debug().
		Str("id", run.ID).
		Str("kind", string(run.Kind)).
		Str("status", run.Status).
		Msg("cycle run journaled")
	return nil
}

func (r *JournalRepository) Recent(ctx context.Context, limit int) ([]domain.CycleRun, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, triggered_by, started_at, finished_at, status, matches, wins, losses, error, created_at
		FROM cycle_runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list cycle runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.CycleRun
	for rows.Next() {
		var run domain.CycleRun
		var kind string
		if err := rows.Scan(&run.ID, &kind, &run.Trigger, &run.StartedAt, &run.FinishedAt,
			&run.Status, &run.Matches, &run.Wins, &run.Losses, &run.Error, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cycle run: %w", err)
		}
		run.Kind = domain.CycleKind(kind)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
