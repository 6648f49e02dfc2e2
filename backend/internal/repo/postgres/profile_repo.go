package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kaze3114/castket/backend/internal/domain/enums"
	"github.com/kaze3114/castket/backend/internal/domain/model"
)

var ErrProfileNotFound = errors.New("profile not found")

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

// Upsert writes the display fields only; moderation columns keep their values
// on conflict and take table defaults on insert.
func (r *ProfileRepo) Upsert(ctx context.Context, p model.Profile) (model.Profile, error) {
	if r.pool == nil {
		return model.Profile{}, fmt.Errorf("postgres pool is nil")
	}
	if p.UserID == "" {
		return model.Profile{}, fmt.Errorf("invalid user id")
	}

	const query = `
INSERT INTO profiles (
	user_id,
	display_name,
	role,
	sub_role_1,
	sub_role_2,
	play_style,
	bio,
	avatar_url,
	updated_at
) VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, NOW())
ON CONFLICT (user_id) DO UPDATE SET
	display_name = EXCLUDED.display_name,
	role = EXCLUDED.role,
	sub_role_1 = EXCLUDED.sub_role_1,
	sub_role_2 = EXCLUDED.sub_role_2,
	play_style = EXCLUDED.play_style,
	bio = EXCLUDED.bio,
	avatar_url = EXCLUDED.avatar_url,
	updated_at = NOW()
RETURNING updated_at
`

	if err := r.pool.QueryRow(ctx, query,
		p.UserID,
		p.DisplayName,
		string(p.Role),
		string(p.SubRole1),
		string(p.SubRole2),
		p.PlayStyle,
		p.Bio,
		p.AvatarURL,
	).Scan(&p.UpdatedAt); err != nil {
		return model.Profile{}, fmt.Errorf("upsert profile: %w", err)
	}

	return p, nil
}

func (r *ProfileRepo) Get(ctx context.Context, userID string) (model.Profile, error) {
	if r.pool == nil {
		return model.Profile{}, fmt.Errorf("postgres pool is nil")
	}

	var (
		p                model.Profile
		role, sub1, sub2 string
	)
	err := r.pool.QueryRow(ctx, `
SELECT
	user_id::text,
	COALESCE(display_name, ''),
	COALESCE(role, ''),
	COALESCE(sub_role_1, ''),
	COALESCE(sub_role_2, ''),
	COALESCE(play_style, ''),
	COALESCE(bio, ''),
	COALESCE(avatar_url, ''),
	updated_at
FROM profiles
WHERE user_id = $1
`, userID).Scan(
		&p.UserID,
		&p.DisplayName,
		&role,
		&sub1,
		&sub2,
		&p.PlayStyle,
		&p.Bio,
		&p.AvatarURL,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, ErrProfileNotFound
		}
		return model.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	p.Role = enums.Role(role)
	p.SubRole1 = enums.Role(sub1)
	p.SubRole2 = enums.Role(sub2)

	return p, nil
}
