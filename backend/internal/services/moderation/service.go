package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kaze3114/castket/backend/internal/domain/model"
	"github.com/kaze3114/castket/backend/internal/domain/rules"
	pgrepo "github.com/kaze3114/castket/backend/internal/repo/postgres"
)

var (
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("moderation record not found")
	ErrPersistence = errors.New("moderation record persistence failed")
	ErrRateLimited = errors.New("too many checks")
	ErrDenied      = errors.New("moderation denied")
)

// DeniedError carries a denial to callers that act on a check result. It is
// not a failure: Message is meant for the user.
type DeniedError struct {
	Reason  DenialReason
	Message string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("moderation denied (%s)", e.Reason)
}

func (e *DeniedError) Is(target error) bool {
	return target == ErrDenied
}

func AsDenied(err error) (*DeniedError, bool) {
	var denied *DeniedError
	if errors.As(err, &denied) {
		return denied, true
	}
	return nil, false
}

type TooFastError struct {
	RetryAfterSec int64
}

func (e TooFastError) Error() string {
	return "too many checks"
}

func (e TooFastError) Is(target error) bool {
	return target == ErrRateLimited
}

func (e TooFastError) RetryAfter() int64 {
	if e.RetryAfterSec <= 0 {
		return 1
	}
	return e.RetryAfterSec
}

func IsTooFast(err error) (*TooFastError, bool) {
	var tf TooFastError
	if errors.As(err, &tf) {
		return &tf, true
	}
	return nil, false
}

// Store is the per-user moderation record. Mutate must run fn under a
// single-writer guarantee for userID and persist its result atomically.
type Store interface {
	Get(ctx context.Context, userID string) (model.ModerationRecord, error)
	ResetViolationWindow(ctx context.Context, userID string, seen time.Time) (bool, error)
	ResetSuspensionWindow(ctx context.Context, userID string, seen time.Time) (bool, error)
	Mutate(ctx context.Context, userID string, fn func(model.ModerationRecord) (model.ModerationRecord, error)) (model.ModerationRecord, error)
}

type Service struct {
	store  Store
	policy Policy
	logger *zap.Logger
	now    func() time.Time

	classifier  Classifier
	images      ImageFetcher
	rateLimiter CheckLimiter
}

type Option func(*Service)

func WithClassifier(c Classifier) Option {
	return func(s *Service) { s.classifier = c }
}

func WithImageFetcher(f ImageFetcher) Option {
	return func(s *Service) { s.images = f }
}

func WithRateLimiter(l CheckLimiter) Option {
	return func(s *Service) { s.rateLimiter = l }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(store Store, policy Policy, opts ...Option) *Service {
	s := &Service{
		store:  store,
		policy: policy.normalize(),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Policy() Policy {
	return s.policy
}

type RestrictionResult struct {
	Allowed bool
	Record  model.ModerationRecord
	Message string
	Reason  DenialReason
}

// Evaluate decides whether userID may act right now. Expired strike windows are
// cleared on the way, and the returned record reflects those resets.
func (s *Service) Evaluate(ctx context.Context, userID string) (RestrictionResult, error) {
	if userID == "" {
		return RestrictionResult{}, fmt.Errorf("empty user id: %w", ErrValidation)
	}
	if s.store == nil {
		return RestrictionResult{}, fmt.Errorf("moderation store is nil")
	}

	rec, err := s.load(ctx, userID)
	if err != nil {
		return RestrictionResult{}, err
	}
	now := s.now()

	if rec.IsBanned {
		denials.WithLabelValues(string(DenialBanned)).Inc()
		return RestrictionResult{
			Allowed: false,
			Record:  rec,
			Message: bannedMessage(),
			Reason:  DenialBanned,
		}, nil
	}

	if rules.IsSuspended(rec, now) {
		denials.WithLabelValues(string(DenialSuspended)).Inc()
		return RestrictionResult{
			Allowed: false,
			Record:  rec,
			Message: suspendedMessage(*rec.SuspendedUntil, rules.RemainingHours(*rec.SuspendedUntil, now), s.policy.DisplayLocation),
			Reason:  DenialSuspended,
		}, nil
	}

	next, violationReset, suspensionReset := rules.ResetExpiredWindows(rec, now, s.policy.Policy)
	if violationReset {
		fired, err := s.store.ResetViolationWindow(ctx, userID, *rec.FirstViolationAt)
		if err != nil {
			return RestrictionResult{}, fmt.Errorf("reset violation window: %v: %w", err, ErrPersistence)
		}
		if fired {
			windowResets.WithLabelValues("violation").Inc()
		}
	}
	if suspensionReset {
		fired, err := s.store.ResetSuspensionWindow(ctx, userID, *rec.FirstSuspensionAt)
		if err != nil {
			return RestrictionResult{}, fmt.Errorf("reset suspension window: %v: %w", err, ErrPersistence)
		}
		if fired {
			windowResets.WithLabelValues("suspension").Inc()
		}
	}

	return RestrictionResult{Allowed: true, Record: next}, nil
}

// Err returns a DeniedError when the user may not act, nil otherwise.
func (r RestrictionResult) Err() error {
	if r.Allowed {
		return nil
	}
	return &DeniedError{Reason: r.Reason, Message: r.Message}
}

type EscalationResult struct {
	// ViolationCountAfter is the strike count including this one, before any
	// reset caused by a suspension.
	ViolationCountAfter int
	Suspended           bool
	Banned              bool
	// AlreadyBanned is set when the user was banned before this strike; nothing was written.
	AlreadyBanned bool
	Record        model.ModerationRecord
}

// RecordViolation adds one strike to userID. The record is re-read under the
// store's lock, expired windows are dropped first, then the strike is applied.
func (s *Service) RecordViolation(ctx context.Context, userID string) (EscalationResult, error) {
	if userID == "" {
		return EscalationResult{}, fmt.Errorf("empty user id: %w", ErrValidation)
	}
	if s.store == nil {
		return EscalationResult{}, fmt.Errorf("moderation store is nil")
	}

	var esc rules.Escalation
	rec, err := s.store.Mutate(ctx, userID, func(current model.ModerationRecord) (model.ModerationRecord, error) {
		if current.IsBanned {
			// the ban landed after this request passed the gate
			_, esc = rules.ApplyViolation(current, s.now(), s.policy.Policy)
			return current, nil
		}
		now := s.now()
		fresh, _, _ := rules.ResetExpiredWindows(current, now, s.policy.Policy)
		var next model.ModerationRecord
		next, esc = rules.ApplyViolation(fresh, now, s.policy.Policy)
		return next, nil
	})
	if err != nil {
		if errors.Is(err, pgrepo.ErrProfileNotFound) {
			return EscalationResult{}, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return EscalationResult{}, fmt.Errorf("record violation: %v: %w", err, ErrPersistence)
	}

	if esc.AlreadyBanned {
		s.logger.Info("moderation violation ignored for banned user", zap.String("user_id", userID))
		return EscalationResult{
			ViolationCountAfter: esc.ViolationCountAfter,
			AlreadyBanned:       true,
			Record:              rec,
		}, nil
	}

	if err := rec.Validate(s.policy.ViolationLimit, s.policy.SuspensionLimit); err != nil {
		s.logger.Warn("moderation record inconsistent after strike",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	violationsRecorded.Inc()
	switch {
	case esc.Banned:
		escalations.WithLabelValues("ban").Inc()
	case esc.Suspended:
		escalations.WithLabelValues("suspension").Inc()
	}

	s.logger.Info("moderation violation recorded",
		zap.String("user_id", userID),
		zap.Int("violation_count_after", esc.ViolationCountAfter),
		zap.Int("suspension_count", rec.SuspensionCount),
		zap.Bool("suspended", esc.Suspended),
		zap.Bool("banned", esc.Banned),
	)

	return EscalationResult{
		ViolationCountAfter: esc.ViolationCountAfter,
		Suspended:           esc.Suspended,
		Banned:              esc.Banned,
		Record:              rec,
	}, nil
}

func (s *Service) load(ctx context.Context, userID string) (model.ModerationRecord, error) {
	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrProfileNotFound) {
			return model.ModerationRecord{}, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return model.ModerationRecord{}, fmt.Errorf("load moderation record: %v: %w", err, ErrPersistence)
	}
	return rec, nil
}
