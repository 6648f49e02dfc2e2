package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kaze3114/castket/backend/internal/domain/enums"
	"github.com/kaze3114/castket/backend/internal/domain/model"
	"github.com/kaze3114/castket/backend/internal/pkg/validate"
	pgrepo "github.com/kaze3114/castket/backend/internal/repo/postgres"
	"github.com/kaze3114/castket/backend/internal/services/moderation"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrEventNotFound = errors.New("event not found")
	ErrEntryExists   = errors.New("already applied")
	ErrEventFull     = errors.New("event is full")
)

const (
	maxTitleLength = 100
	maxTextLength  = 4000
	maxTags        = 7
)

type EventStore interface {
	Create(ctx context.Context, event model.Event) (model.Event, error)
	Get(ctx context.Context, eventID string) (model.Event, error)
}

type EntryStore interface {
	Create(ctx context.Context, entry model.Entry) (model.Entry, error)
}

type Moderator interface {
	CheckRestriction(ctx context.Context, userID string) (moderation.RestrictionResult, error)
	CheckText(ctx context.Context, userID, text string) (moderation.CheckResult, error)
	CheckImage(ctx context.Context, userID, imageURL string) (moderation.CheckResult, error)
}

type Service struct {
	events    EventStore
	entries   EntryStore
	moderator Moderator
	logger    *zap.Logger
}

func NewService(events EventStore, entries EntryStore, moderator Moderator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		events:    events,
		entries:   entries,
		moderator: moderator,
		logger:    logger,
	}
}

type CreateEventInput struct {
	Title          string
	Description    string
	Requirements   string
	BannerURL      string
	Tags           []string
	PrivateInfo    string
	Capacity       *int
	ScheduleType   string
	StartTime      string
	EndTime        string
	EventDate      string
	Weekdays       []string
	IrregularDates []string
}

// Create screens the listing text and banner, then stores the event. A denial
// comes back as *moderation.DeniedError.
func (s *Service) Create(ctx context.Context, organizerID string, in CreateEventInput) (model.Event, error) {
	if organizerID == "" {
		return model.Event{}, fmt.Errorf("organizer id is required: %w", ErrValidation)
	}
	if s.events == nil || s.moderator == nil {
		return model.Event{}, fmt.Errorf("events service is not wired")
	}

	event, err := normalizeEvent(in)
	if err != nil {
		return model.Event{}, err
	}
	event.OrganizerID = organizerID

	text, err := s.moderator.CheckText(ctx, organizerID, listingText(event))
	if err != nil {
		return model.Event{}, err
	}
	if err := text.Err(); err != nil {
		return model.Event{}, err
	}

	if event.BannerURL != "" {
		banner, err := s.moderator.CheckImage(ctx, organizerID, event.BannerURL)
		if err != nil {
			return model.Event{}, err
		}
		if err := banner.Err(); err != nil {
			return model.Event{}, err
		}
	}

	created, err := s.events.Create(ctx, event)
	if err != nil {
		return model.Event{}, fmt.Errorf("create event: %w", err)
	}

	s.logger.Info("event created",
		zap.String("event_id", created.ID),
		zap.String("organizer_id", organizerID),
		zap.String("schedule_type", string(created.ScheduleType)),
	)
	return created, nil
}

func (s *Service) Get(ctx context.Context, eventID string) (model.Event, error) {
	if strings.TrimSpace(eventID) == "" {
		return model.Event{}, fmt.Errorf("event id is required: %w", ErrValidation)
	}
	event, err := s.events.Get(ctx, eventID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrEventNotFound) {
			return model.Event{}, ErrEventNotFound
		}
		return model.Event{}, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// Apply files a cast's application to an event once the gate allows it.
func (s *Service) Apply(ctx context.Context, castID, eventID, message string) (model.Entry, error) {
	if castID == "" || strings.TrimSpace(eventID) == "" {
		return model.Entry{}, fmt.Errorf("cast id and event id are required: %w", ErrValidation)
	}
	if s.entries == nil || s.moderator == nil {
		return model.Entry{}, fmt.Errorf("events service is not wired")
	}
	if !validate.MaxRunes(message, maxTextLength) {
		return model.Entry{}, fmt.Errorf("message is too long: %w", ErrValidation)
	}

	gate, err := s.moderator.CheckRestriction(ctx, castID)
	if err != nil {
		return model.Entry{}, err
	}
	if err := gate.Err(); err != nil {
		return model.Entry{}, err
	}

	entry, err := s.entries.Create(ctx, model.Entry{
		EventID: strings.TrimSpace(eventID),
		CastID:  castID,
		Type:    enums.EntryTypeApply,
		Status:  enums.EntryStatusPending,
		Message: strings.TrimSpace(message),
	})
	if err != nil {
		switch {
		case errors.Is(err, pgrepo.ErrEntryExists):
			return model.Entry{}, ErrEntryExists
		case errors.Is(err, pgrepo.ErrEventFull):
			return model.Entry{}, ErrEventFull
		case errors.Is(err, pgrepo.ErrEventNotFound):
			return model.Entry{}, ErrEventNotFound
		}
		return model.Entry{}, fmt.Errorf("create entry: %w", err)
	}
	return entry, nil
}

func listingText(e model.Event) string {
	return fmt.Sprintf("タイトル: %s\n詳細: %s\n要項: %s", e.Title, e.Description, e.Requirements)
}

func normalizeEvent(in CreateEventInput) (model.Event, error) {
	out := model.Event{
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Requirements: strings.TrimSpace(in.Requirements),
		BannerURL:    strings.TrimSpace(in.BannerURL),
		PrivateInfo:  strings.TrimSpace(in.PrivateInfo),
		ScheduleType: enums.ScheduleType(strings.TrimSpace(in.ScheduleType)),
		StartTime:    strings.TrimSpace(in.StartTime),
		EndTime:      strings.TrimSpace(in.EndTime),
	}

	if !validate.Required(out.Title) {
		return model.Event{}, fmt.Errorf("title is required: %w", ErrValidation)
	}
	if !validate.MaxRunes(out.Title, maxTitleLength) {
		return model.Event{}, fmt.Errorf("title is too long: %w", ErrValidation)
	}
	if !validate.MaxRunes(out.Description, maxTextLength) || !validate.MaxRunes(out.Requirements, maxTextLength) {
		return model.Event{}, fmt.Errorf("description is too long: %w", ErrValidation)
	}
	if in.Capacity != nil {
		if *in.Capacity <= 0 {
			return model.Event{}, fmt.Errorf("capacity must be positive: %w", ErrValidation)
		}
		capacity := *in.Capacity
		out.Capacity = &capacity
	}

	tags, err := normalizeTags(in.Tags)
	if err != nil {
		return model.Event{}, err
	}
	out.Tags = tags

	for _, clock := range []string{out.StartTime, out.EndTime} {
		if clock == "" {
			continue
		}
		if _, err := time.Parse("15:04", clock); err != nil {
			return model.Event{}, fmt.Errorf("invalid time %q: %w", clock, ErrValidation)
		}
	}

	switch out.ScheduleType {
	case enums.ScheduleOneTime:
		date := strings.TrimSpace(in.EventDate)
		if !validDate(date) {
			return model.Event{}, fmt.Errorf("event_date is required for one_time events: %w", ErrValidation)
		}
		out.EventDate = date
	case enums.ScheduleWeekly:
		weekdays, err := normalizeWeekdays(in.Weekdays)
		if err != nil {
			return model.Event{}, err
		}
		out.Weekdays = weekdays
	case enums.ScheduleIrregular:
		dates, err := normalizeIrregularDates(in.IrregularDates)
		if err != nil {
			return model.Event{}, err
		}
		out.IrregularDates = dates
	default:
		return model.Event{}, fmt.Errorf("unknown schedule_type %q: %w", in.ScheduleType, ErrValidation)
	}

	return out, nil
}

func normalizeTags(values []string) ([]string, error) {
	if len(values) > maxTags {
		return nil, fmt.Errorf("too many tags: %w", ErrValidation)
	}
	allowed := make(map[string]struct{}, len(enums.EventTags))
	for _, tag := range enums.EventTags {
		allowed[tag] = struct{}{}
	}

	result := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		tag := strings.TrimSpace(value)
		if _, ok := allowed[tag]; !ok {
			return nil, fmt.Errorf("unknown tag %q: %w", tag, ErrValidation)
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		result = append(result, tag)
	}
	return result, nil
}

func normalizeWeekdays(values []string) ([]string, error) {
	allowed := make(map[string]struct{}, len(enums.Weekdays))
	for _, day := range enums.Weekdays {
		allowed[day] = struct{}{}
	}

	picked := make(map[string]struct{}, len(values))
	for _, value := range values {
		day := strings.TrimSpace(value)
		if _, ok := allowed[day]; !ok {
			return nil, fmt.Errorf("unknown weekday %q: %w", day, ErrValidation)
		}
		picked[day] = struct{}{}
	}
	if len(picked) == 0 {
		return nil, fmt.Errorf("weekly events need at least one weekday: %w", ErrValidation)
	}

	result := make([]string, 0, len(picked))
	for _, day := range enums.Weekdays {
		if _, ok := picked[day]; ok {
			result = append(result, day)
		}
	}
	return result, nil
}

// normalizeIrregularDates accepts dates as separate items or as one
// comma/newline separated string, the way the form submits them.
func normalizeIrregularDates(values []string) ([]string, error) {
	result := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		for _, part := range strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == '\n' }) {
			date := strings.TrimSpace(part)
			if date == "" {
				continue
			}
			if !validDate(date) {
				return nil, fmt.Errorf("invalid date %q: %w", date, ErrValidation)
			}
			if _, dup := seen[date]; dup {
				continue
			}
			seen[date] = struct{}{}
			result = append(result, date)
		}
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("irregular events need at least one date: %w", ErrValidation)
	}
	return result, nil
}

func validDate(value string) bool {
	_, err := time.Parse("2006-01-02", value)
	return err == nil
}
