package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kaze3114/castket/backend/internal/domain/enums"
	"github.com/kaze3114/castket/backend/internal/services/classifier"
	mediasvc "github.com/kaze3114/castket/backend/internal/services/media"
)

type Classifier interface {
	Classify(ctx context.Context, content classifier.Content) (classifier.Verdict, error)
}

type ImageFetcher interface {
	FetchImage(ctx context.Context, rawURL string) ([]byte, string, error)
}

type CheckLimiter interface {
	AllowCheck(ctx context.Context, userID string) (int64, bool, error)
}

// CheckResult is the outcome of a content check. A denial is a normal result,
// not an error; Escalation is set only when a strike was recorded.
type CheckResult struct {
	Safe       bool
	Message    string
	Reason     DenialReason
	Escalation *EscalationResult
}

// Err returns a DeniedError for unsafe results, nil otherwise.
func (r CheckResult) Err() error {
	if r.Safe {
		return nil
	}
	return &DeniedError{Reason: r.Reason, Message: r.Message}
}

func denied(reason DenialReason, message string) CheckResult {
	denials.WithLabelValues(string(reason)).Inc()
	return CheckResult{Safe: false, Message: message, Reason: reason}
}

func fromRestriction(r RestrictionResult) CheckResult {
	return CheckResult{Safe: false, Message: r.Message, Reason: r.Reason}
}

// CheckRestriction runs the gate only, for actions that carry no content.
func (s *Service) CheckRestriction(ctx context.Context, userID string) (RestrictionResult, error) {
	return s.Evaluate(ctx, userID)
}

// CheckText gates userID, classifies text and records a strike when it is unsafe.
func (s *Service) CheckText(ctx context.Context, userID, text string) (CheckResult, error) {
	gate, err := s.Evaluate(ctx, userID)
	if err != nil {
		return CheckResult{}, err
	}
	if !gate.Allowed {
		return fromRestriction(gate), nil
	}
	if strings.TrimSpace(text) == "" {
		return CheckResult{Safe: true}, nil
	}
	if err := s.allowCheck(ctx, userID); err != nil {
		return CheckResult{}, err
	}
	if s.classifier == nil {
		return denied(DenialNotConfigured, msgSystemError), nil
	}

	verdict, err := s.classifier.Classify(ctx, classifier.TextContent(text))
	if err != nil {
		return s.classifierFailed(enums.ContentKindText, userID, err), nil
	}
	if verdict.Judged && !verdict.Safe {
		return s.strike(ctx, userID, verdict.Reason)
	}
	return CheckResult{Safe: true}, nil
}

// CheckImage gates userID, fetches the uploaded image, classifies it and records
// a strike when it is unsafe. Unjudged images are rejected without a strike.
func (s *Service) CheckImage(ctx context.Context, userID, imageURL string) (CheckResult, error) {
	gate, err := s.Evaluate(ctx, userID)
	if err != nil {
		return CheckResult{}, err
	}
	if !gate.Allowed {
		return fromRestriction(gate), nil
	}
	if err := s.allowCheck(ctx, userID); err != nil {
		return CheckResult{}, err
	}
	if s.classifier == nil || s.images == nil {
		return denied(DenialNotConfigured, msgSystemError), nil
	}

	data, mimeType, err := s.images.FetchImage(ctx, imageURL)
	if err != nil {
		if errors.Is(err, mediasvc.ErrForeignURL) {
			return CheckResult{}, fmt.Errorf("image url: %v: %w", err, ErrValidation)
		}
		return s.classifierFailed(enums.ContentKindImage, userID, err), nil
	}

	verdict, err := s.classifier.Classify(ctx, classifier.ImageContent(data, mimeType))
	if err != nil {
		return s.classifierFailed(enums.ContentKindImage, userID, err), nil
	}
	if !verdict.Judged {
		reason := verdict.Reason
		if reason == "" {
			reason = msgUnjudged
		}
		return denied(DenialUnjudged, reason), nil
	}
	if !verdict.Safe {
		return s.strike(ctx, userID, verdict.Reason)
	}
	return CheckResult{Safe: true}, nil
}

func (s *Service) strike(ctx context.Context, userID, reason string) (CheckResult, error) {
	esc, err := s.RecordViolation(ctx, userID)
	if err != nil {
		return CheckResult{}, err
	}
	if esc.AlreadyBanned {
		res := denied(DenialBanned, bannedMessage())
		res.Escalation = &esc
		return res, nil
	}
	res := denied(DenialUnsafeContent, ViolationMessage(reason, esc, s.policy))
	res.Escalation = &esc
	return res, nil
}

// classifierFailed applies the per-kind fail policy. A missing API key is
// always fail-closed. Failures never count as strikes.
func (s *Service) classifierFailed(kind enums.ContentKind, userID string, err error) CheckResult {
	s.logger.Warn("content classification failed",
		zap.String("user_id", userID),
		zap.String("kind", string(kind)),
		zap.Error(err),
	)

	if errors.Is(err, classifier.ErrNotConfigured) {
		return denied(DenialNotConfigured, msgSystemError)
	}

	switch kind {
	case enums.ContentKindImage:
		if s.policy.FailOpenImage {
			return CheckResult{Safe: true}
		}
		return denied(DenialClassifierFailure, msgImageError)
	default:
		if s.policy.FailOpenText {
			return CheckResult{Safe: true}
		}
		return denied(DenialClassifierFailure, msgSystemError)
	}
}

// allowCheck enforces the per-user classification rate. A broken limiter does
// not block checks.
func (s *Service) allowCheck(ctx context.Context, userID string) error {
	if s.rateLimiter == nil {
		return nil
	}
	retryAfter, allowed, err := s.rateLimiter.AllowCheck(ctx, userID)
	if err != nil {
		s.logger.Warn("check rate limiter failed", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	if !allowed {
		return TooFastError{RetryAfterSec: retryAfter}
	}
	return nil
}
