package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kaze3114/castket/backend/internal/domain/enums"
	"github.com/kaze3114/castket/backend/internal/domain/model"
	"github.com/kaze3114/castket/backend/internal/pkg/validate"
	"github.com/kaze3114/castket/backend/internal/services/classifier"
)

var ErrValidation = errors.New("validation error")

const maxContentLength = 4000

var categories = map[string]struct{}{
	"機能リクエスト": {},
	"バグ・不具合":  {},
	"感想・応援":   {},
	"その他":     {},
}

type Store interface {
	Create(ctx context.Context, f model.Feedback) (model.Feedback, error)
}

type Classifier interface {
	Classify(ctx context.Context, content classifier.Content) (classifier.Verdict, error)
}

type Service struct {
	store      Store
	classifier Classifier
	logger     *zap.Logger
}

type SubmitInput struct {
	Category string
	Content  string
	PageURL  string
}

func NewService(store Store, clf Classifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:      store,
		classifier: clf,
		logger:     logger,
	}
}

// Submit stores feedback, flagging hostile content for attention. Triage is
// best effort: without a verdict the feedback is filed as open.
func (s *Service) Submit(ctx context.Context, userID string, in SubmitInput) (model.Feedback, error) {
	if s.store == nil {
		return model.Feedback{}, fmt.Errorf("feedback store is nil")
	}

	f := model.Feedback{
		Category: strings.TrimSpace(in.Category),
		Content:  strings.TrimSpace(in.Content),
		PageURL:  strings.TrimSpace(in.PageURL),
		Status:   enums.FeedbackStatusOpen,
	}
	if userID != "" {
		f.UserID = &userID
	}
	if _, ok := categories[f.Category]; !ok {
		return model.Feedback{}, fmt.Errorf("unknown category %q: %w", in.Category, ErrValidation)
	}
	if !validate.Required(f.Content) {
		return model.Feedback{}, fmt.Errorf("content is required: %w", ErrValidation)
	}
	if !validate.MaxRunes(f.Content, maxContentLength) {
		return model.Feedback{}, fmt.Errorf("content is too long: %w", ErrValidation)
	}

	f.Status = s.triage(ctx, f.Content)

	saved, err := s.store.Create(ctx, f)
	if err != nil {
		return model.Feedback{}, fmt.Errorf("save feedback: %w", err)
	}
	return saved, nil
}

func (s *Service) triage(ctx context.Context, content string) enums.FeedbackStatus {
	if s.classifier == nil {
		return enums.FeedbackStatusOpen
	}

	verdict, err := s.classifier.Classify(ctx, classifier.FeedbackContent(content))
	if err != nil {
		s.logger.Warn("feedback triage failed", zap.Error(err))
		return enums.FeedbackStatusOpen
	}
	if verdict.Judged && !verdict.Safe {
		s.logger.Info("feedback flagged for attention", zap.String("reason", verdict.Reason))
		return enums.FeedbackStatusAttention
	}
	return enums.FeedbackStatusOpen
}
