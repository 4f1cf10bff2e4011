package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/disiplinku/backend/core/notification"
)

type attemptRow struct {
	RunID     string      `db:"run_id"`
	Kind      string      `db:"kind"`
	EventKey  string      `db:"event_key"`
	Outcome   string      `db:"outcome"`
	Error     null.String `db:"error"`
	CreatedAt time.Time   `db:"created_at"`
}

func toRow(a notification.Attempt) attemptRow {
	return attemptRow{
		RunID:     a.RunID,
		Kind:      string(a.Kind),
		EventKey:  a.Key,
		Outcome:   string(a.Outcome),
		Error:     null.NewString(a.Error, a.Error != ""),
		CreatedAt: a.At,
	}
}

func (r attemptRow) attempt() notification.Attempt {
	return notification.Attempt{
		RunID:   r.RunID,
		Kind:    notification.Kind(r.Kind),
		Key:     r.EventKey,
		Outcome: notification.Outcome(r.Outcome),
		Error:   r.Error.String,
		At:      r.CreatedAt,
	}
}

const insertAttempt = `INSERT INTO delivery_attempt (run_id, kind, event_key, outcome, error, created_at)
VALUES (:run_id, :kind, :event_key, :outcome, :error, :created_at)`

// AttemptRepository is the delivery audit log.
type AttemptRepository struct {
	db *sqlx.DB
}

var _ notification.AttemptRecorder = (*AttemptRepository)(nil)

func NewAttemptRepository(db *sqlx.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// RecordAttempts inserts the attempts in a single transaction.
func (repo *AttemptRepository) RecordAttempts(ctx context.Context, attempts []notification.Attempt) (err error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareNamedContext(ctx, insertAttempt)
	if err != nil {
		return errors.Wrap(err, "preparing insert")
	}
	defer func() { _ = stmt.Close() }()

	for _, a := range attempts {
		if _, err = stmt.ExecContext(ctx, toRow(a)); err != nil {
			return errors.Wrapf(err, "recording attempt %s/%s", a.Kind, a.Key)
		}
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing attempts")
	}
	return nil
}

// RecentAttempts returns the latest attempts, newest first.
func (repo *AttemptRepository) RecentAttempts(ctx context.Context, limit int) ([]notification.Attempt, error) {
	var rows []attemptRow
	q := `SELECT run_id, kind, event_key, outcome, error, created_at
FROM delivery_attempt ORDER BY created_at DESC, id DESC LIMIT $1`
	if err := repo.db.SelectContext(ctx, &rows, q, limit); err != nil {
		return nil, errors.Wrap(err, "querying attempts")
	}

	attempts := make([]notification.Attempt, len(rows))
	for i, r := range rows {
		attempts[i] = r.attempt()
	}
	return attempts, nil
}
