package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kaze3114/castket/backend/internal/domain/enums"
	"github.com/kaze3114/castket/backend/internal/domain/model"
)

var (
	ErrEntryExists = errors.New("entry already exists")
	ErrEventFull   = errors.New("event capacity reached")
)

const uniqueViolationCode = "23505"

type EntryRepo struct {
	pool *pgxpool.Pool
}

func NewEntryRepo(pool *pgxpool.Pool) *EntryRepo {
	return &EntryRepo{pool: pool}
}

// Create inserts an entry after checking the event's accepted count against its
// capacity. The event row is locked so two acceptances cannot race the check.
func (r *EntryRepo) Create(ctx context.Context, entry model.Entry) (model.Entry, error) {
	if r.pool == nil {
		return model.Entry{}, fmt.Errorf("postgres pool is nil")
	}
	if entry.EventID == "" || entry.CastID == "" {
		return model.Entry{}, fmt.Errorf("invalid entry payload")
	}

	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var capacity *int
		if err := tx.QueryRow(ctx, `
SELECT capacity
FROM events
WHERE id = $1
FOR SHARE
`, entry.EventID).Scan(&capacity); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrEventNotFound
			}
			return fmt.Errorf("lock event: %w", err)
		}

		if capacity != nil {
			var accepted int
			if err := tx.QueryRow(ctx, `
SELECT COUNT(*)
FROM entries
WHERE event_id = $1
  AND status = $2
`, entry.EventID, string(enums.EntryStatusAccepted)).Scan(&accepted); err != nil {
				return fmt.Errorf("count accepted entries: %w", err)
			}
			if accepted >= *capacity {
				return ErrEventFull
			}
		}

		if err := tx.QueryRow(ctx, `
INSERT INTO entries (
	event_id,
	cast_id,
	type,
	status,
	message,
	created_at
) VALUES ($1, $2, $3, $4, $5, NOW())
RETURNING id::text, created_at
`,
			entry.EventID,
			entry.CastID,
			string(entry.Type),
			string(entry.Status),
			entry.Message,
		).Scan(&entry.ID, &entry.CreatedAt); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
				return ErrEntryExists
			}
			return fmt.Errorf("insert entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Entry{}, err
	}

	return entry, nil
}
