package classifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/kaze3114/castket/backend/internal/domain/enums"
)

var (
	// ErrUnavailable covers every way a classification can fail to produce a verdict.
	ErrUnavailable   = errors.New("classifier unavailable")
	ErrNotConfigured = fmt.Errorf("classifier not configured: %w", ErrUnavailable)
)

type Purpose string

const (
	// PurposeListing judges text a user wants to publish (event listings, profiles).
	PurposeListing Purpose = "listing"
	// PurposeFeedback triages feedback for hostility; it never produces a strike.
	PurposeFeedback Purpose = "feedback"
)

type Content struct {
	Kind     enums.ContentKind
	Purpose  Purpose
	Text     string
	Data     []byte
	MIMEType string
}

func TextContent(text string) Content {
	return Content{Kind: enums.ContentKindText, Purpose: PurposeListing, Text: text}
}

func FeedbackContent(text string) Content {
	return Content{Kind: enums.ContentKindText, Purpose: PurposeFeedback, Text: text}
}

func ImageContent(data []byte, mimeType string) Content {
	return Content{Kind: enums.ContentKindImage, Purpose: PurposeListing, Data: data, MIMEType: mimeType}
}

// Verdict is the classifier's answer. Judged is false when the reply carried no
// safety flag at all; Safe is then meaningless.
type Verdict struct {
	Safe   bool
	Judged bool
	Reason string
}

type Classifier interface {
	Classify(ctx context.Context, content Content) (Verdict, error)
}
