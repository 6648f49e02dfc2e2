package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kaze3114/castket/backend/internal/domain/model"
)

type FeedbackRepo struct {
	pool *pgxpool.Pool
}

func NewFeedbackRepo(pool *pgxpool.Pool) *FeedbackRepo {
	return &FeedbackRepo{pool: pool}
}

func (r *FeedbackRepo) Create(ctx context.Context, f model.Feedback) (model.Feedback, error) {
	if r.pool == nil {
		return model.Feedback{}, fmt.Errorf("postgres pool is nil")
	}

	if err := r.pool.QueryRow(ctx, `
INSERT INTO feedbacks (
	user_id,
	category,
	content,
	page_url,
	status,
	created_at
) VALUES ($1, $2, $3, NULLIF($4, ''), $5, NOW())
RETURNING id::text, created_at
`,
		f.UserID,
		f.Category,
		f.Content,
		f.PageURL,
		string(f.Status),
	).Scan(&f.ID, &f.CreatedAt); err != nil {
		return model.Feedback{}, fmt.Errorf("insert feedback: %w", err)
	}

	return f, nil
}
