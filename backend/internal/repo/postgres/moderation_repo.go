package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kaze3114/castket/backend/internal/domain/model"
)

// ModerationRepo reads and writes the moderation columns of the profiles row.
type ModerationRepo struct {
	pool *pgxpool.Pool
}

func NewModerationRepo(pool *pgxpool.Pool) *ModerationRepo {
	return &ModerationRepo{pool: pool}
}

const selectModerationColumns = `
SELECT
	user_id::text,
	is_banned,
	suspended_until,
	violation_count,
	first_violation_at,
	suspension_count,
	first_suspension_at
FROM profiles
WHERE user_id = $1
`

func (r *ModerationRepo) Get(ctx context.Context, userID string) (model.ModerationRecord, error) {
	if r.pool == nil {
		return model.ModerationRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if userID == "" {
		return model.ModerationRecord{}, fmt.Errorf("invalid user id")
	}

	return scanModerationRecord(r.pool.QueryRow(ctx, selectModerationColumns, userID))
}

// ResetViolationWindow clears the violation window only if it still starts at
// seen, so concurrent evaluations reset a given window at most once.
func (r *ModerationRepo) ResetViolationWindow(ctx context.Context, userID string, seen time.Time) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE profiles
SET violation_count = 0,
	first_violation_at = NULL
WHERE user_id = $1
  AND first_violation_at = $2
`, userID, seen)
	if err != nil {
		return false, fmt.Errorf("reset violation window: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ModerationRepo) ResetSuspensionWindow(ctx context.Context, userID string, seen time.Time) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE profiles
SET suspension_count = 0,
	first_suspension_at = NULL
WHERE user_id = $1
  AND first_suspension_at = $2
`, userID, seen)
	if err != nil {
		return false, fmt.Errorf("reset suspension window: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Mutate locks the profile row, hands the current record to fn and persists
// whatever fn returns, all in one transaction.
func (r *ModerationRepo) Mutate(
	ctx context.Context,
	userID string,
	fn func(model.ModerationRecord) (model.ModerationRecord, error),
) (model.ModerationRecord, error) {
	if r.pool == nil {
		return model.ModerationRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if userID == "" {
		return model.ModerationRecord{}, fmt.Errorf("invalid user id")
	}

	var out model.ModerationRecord
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		current, err := scanModerationRecord(tx.QueryRow(ctx, selectModerationColumns+"FOR UPDATE", userID))
		if err != nil {
			return err
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
UPDATE profiles
SET is_banned = $2,
	suspended_until = $3,
	violation_count = $4,
	first_violation_at = $5,
	suspension_count = $6,
	first_suspension_at = $7,
	updated_at = NOW()
WHERE user_id = $1
`,
			userID,
			next.IsBanned,
			next.SuspendedUntil,
			next.ViolationCount,
			next.FirstViolationAt,
			next.SuspensionCount,
			next.FirstSuspensionAt,
		); err != nil {
			return fmt.Errorf("update moderation record: %w", err)
		}

		out = next
		out.UserID = userID
		return nil
	})
	if err != nil {
		return model.ModerationRecord{}, err
	}

	return out, nil
}

// SweepExpiredWindows applies the same window expiry the gate applies lazily,
// for every profile at once. Banned and currently suspended rows are skipped,
// as the gate never resets those either.
func (r *ModerationRepo) SweepExpiredWindows(
	ctx context.Context,
	now time.Time,
	violationWindow time.Duration,
	suspensionWindow time.Duration,
) (int64, int64, error) {
	if r.pool == nil {
		return 0, 0, fmt.Errorf("postgres pool is nil")
	}

	violationTag, err := r.pool.Exec(ctx, `
UPDATE profiles
SET violation_count = 0,
	first_violation_at = NULL
WHERE first_violation_at IS NOT NULL
  AND first_violation_at < $1
  AND is_banned = false
  AND (suspended_until IS NULL OR suspended_until <= $2)
`, now.Add(-violationWindow), now)
	if err != nil {
		return 0, 0, fmt.Errorf("sweep violation windows: %w", err)
	}

	suspensionTag, err := r.pool.Exec(ctx, `
UPDATE profiles
SET suspension_count = 0,
	first_suspension_at = NULL
WHERE first_suspension_at IS NOT NULL
  AND first_suspension_at < $1
  AND is_banned = false
  AND (suspended_until IS NULL OR suspended_until <= $2)
`, now.Add(-suspensionWindow), now)
	if err != nil {
		return violationTag.RowsAffected(), 0, fmt.Errorf("sweep suspension windows: %w", err)
	}

	return violationTag.RowsAffected(), suspensionTag.RowsAffected(), nil
}

func scanModerationRecord(row pgx.Row) (model.ModerationRecord, error) {
	var rec model.ModerationRecord
	err := row.Scan(
		&rec.UserID,
		&rec.IsBanned,
		&rec.SuspendedUntil,
		&rec.ViolationCount,
		&rec.FirstViolationAt,
		&rec.SuspensionCount,
		&rec.FirstSuspensionAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ModerationRecord{}, ErrProfileNotFound
		}
		return model.ModerationRecord{}, fmt.Errorf("query moderation record: %w", err)
	}
	return rec, nil
}
