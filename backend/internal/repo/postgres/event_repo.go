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

var ErrEventNotFound = errors.New("event not found")

type EventRepo struct {
	pool *pgxpool.Pool
}

func NewEventRepo(pool *pgxpool.Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

func (r *EventRepo) Create(ctx context.Context, e model.Event) (model.Event, error) {
	if r.pool == nil {
		return model.Event{}, fmt.Errorf("postgres pool is nil")
	}
	if e.OrganizerID == "" {
		return model.Event{}, fmt.Errorf("invalid organizer id")
	}

	const query = `
INSERT INTO events (
	organizer_id,
	title,
	description,
	requirements,
	banner_url,
	tags,
	private_info,
	capacity,
	schedule_type,
	start_time,
	end_time,
	event_date,
	weekdays,
	irregular_dates,
	created_at
) VALUES (
	$1,
	$2,
	$3,
	$4,
	NULLIF($5, ''),
	$6::text[],
	$7,
	$8,
	$9,
	NULLIF($10, '')::time,
	NULLIF($11, '')::time,
	NULLIF($12, '')::date,
	$13::text[],
	$14::text[]::date[],
	NOW()
)
RETURNING id::text, created_at
`

	if err := r.pool.QueryRow(ctx, query,
		e.OrganizerID,
		e.Title,
		e.Description,
		e.Requirements,
		e.BannerURL,
		nonNilStrings(e.Tags),
		e.PrivateInfo,
		e.Capacity,
		string(e.ScheduleType),
		e.StartTime,
		e.EndTime,
		e.EventDate,
		nullableStrings(e.Weekdays),
		nullableStrings(e.IrregularDates),
	).Scan(&e.ID, &e.CreatedAt); err != nil {
		return model.Event{}, fmt.Errorf("insert event: %w", err)
	}

	return e, nil
}

func (r *EventRepo) Get(ctx context.Context, eventID string) (model.Event, error) {
	if r.pool == nil {
		return model.Event{}, fmt.Errorf("postgres pool is nil")
	}

	var (
		e            model.Event
		scheduleType string
	)
	err := r.pool.QueryRow(ctx, `
SELECT
	id::text,
	organizer_id::text,
	title,
	COALESCE(description, ''),
	COALESCE(requirements, ''),
	COALESCE(banner_url, ''),
	COALESCE(tags, '{}'),
	COALESCE(private_info, ''),
	capacity,
	schedule_type,
	COALESCE(to_char(start_time, 'HH24:MI'), ''),
	COALESCE(to_char(end_time, 'HH24:MI'), ''),
	COALESCE(to_char(event_date, 'YYYY-MM-DD'), ''),
	COALESCE(weekdays, '{}'),
	COALESCE(irregular_dates::text[], '{}'),
	created_at
FROM events
WHERE id = $1
`, eventID).Scan(
		&e.ID,
		&e.OrganizerID,
		&e.Title,
		&e.Description,
		&e.Requirements,
		&e.BannerURL,
		&e.Tags,
		&e.PrivateInfo,
		&e.Capacity,
		&scheduleType,
		&e.StartTime,
		&e.EndTime,
		&e.EventDate,
		&e.Weekdays,
		&e.IrregularDates,
		&e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Event{}, ErrEventNotFound
		}
		return model.Event{}, fmt.Errorf("get event: %w", err)
	}
	e.ScheduleType = enums.ScheduleType(scheduleType)

	return e, nil
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func nullableStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	return values
}
