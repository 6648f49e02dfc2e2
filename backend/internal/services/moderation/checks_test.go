package moderation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kaze3114/castket/backend/internal/domain/enums"
	"github.com/kaze3114/castket/backend/internal/domain/model"
	"github.com/kaze3114/castket/backend/internal/services/classifier"
	mediasvc "github.com/kaze3114/castket/backend/internal/services/media"
)

type stubClassifier struct {
	verdict classifier.Verdict
	err     error
	calls   int
	last    classifier.Content
}

func (c *stubClassifier) Classify(_ context.Context, content classifier.Content) (classifier.Verdict, error) {
	c.calls++
	c.last = content
	return c.verdict, c.err
}

type stubFetcher struct {
	data []byte
	mime string
	err  error
}

func (f stubFetcher) FetchImage(context.Context, string) ([]byte, string, error) {
	return f.data, f.mime, f.err
}

type stubLimiter struct {
	allowed    bool
	retryAfter int64
	err        error
}

func (l stubLimiter) AllowCheck(context.Context, string) (int64, bool, error) {
	return l.retryAfter, l.allowed, l.err
}

func newCheckService(store *memStore, clf Classifier, policy Policy, opts ...Option) *Service {
	opts = append([]Option{
		WithClassifier(clf),
		WithImageFetcher(stubFetcher{data: []byte{0xff, 0xd8, 0xff}, mime: "image/jpeg"}),
	}, opts...)
	return NewService(store, policy, opts...)
}

func TestCheckTextSafe(t *testing.T) {
	store := newMemStore(model.ModerationRecord{UserID: testUser})
	clf := &stubClassifier{verdict: classifier.Verdict{Safe: true, Judged: true}}
	svc := newCheckService(store, clf, DefaultPolicy())

	res, err := svc.CheckText(context.Background(), testUser, "初心者歓迎のイベントです")
	if err != nil {
		t.Fatalf("check text: %v", err)
	}
	if !res.Safe || res.Escalation != nil {
		t.Fatalf("expected safe result, got %+v", res)
	}
	if clf.last.Kind != enums.ContentKindText {
		t.Fatalf("expected text content, got %s", clf.last.Kind)
	}
	if store.mutations != 0 {
		t.Fatalf("safe content must not record a strike")
	}
}

func TestCheckTextUnsafeRecordsStrike(t *testing.T) {
	clock := newTestClock()
	store := newMemStore(model.ModerationRecord{UserID: testUser})
	clf := &stubClassifier{verdict: classifier.Verdict{Safe: false, Judged: true, Reason: "暴力的な表現"}}
	svc := newCheckService(store, clf, DefaultPolicy(), WithClock(clock.Now))

	res, err := svc.CheckText(context.Background(), testUser, "bad text")
	if err != nil {
		t.Fatalf("check text: %v", err)
	}
	if res.Safe || res.Reason != DenialUnsafeContent || res.Escalation == nil {
		t.Fatalf("expected strike, got %+v", res)
	}
	if res.Escalation.ViolationCountAfter != 1 {
		t.Fatalf("expected first strike, got %d", res.Escalation.ViolationCountAfter)
	}
	if !strings.Contains(res.Message, "理由: 暴力的な表現") || !strings.Contains(res.Message, "あと 4 回") {
		t.Fatalf("unexpected violation message: %q", res.Message)
	}
	if got := store.record(testUser); got.ViolationCount != 1 || !got.FirstViolationAt.Equal(clock.Now()) {
		t.Fatalf("strike not persisted: %+v", got)
	}
}

func TestCheckTextEmptySkipsClassifier(t *testing.T) {
	store := newMemStore(model.ModerationRecord{UserID: testUser})
	clf := &stubClassifier{}
	svc := newCheckService(store, clf, DefaultPolicy())

	res, err := svc.CheckText(context.Background(), testUser, "  \n ")
	if err != nil {
		t.Fatalf("check text: %v", err)
	}
	if !res.Safe || clf.calls != 0 {
		t.Fatalf("blank text must pass without a classifier call, got %+v calls=%d", res, clf.calls)
	}
}

func TestCheckTextRestrictedUserSkipsClassifier(t *testing.T) {
	store := newMemStore(model.ModerationRecord{UserID: testUser, IsBanned: true, SuspensionCount: 3, FirstSuspensionAt: timePtr(time.Now())})
	clf := &stubClassifier{}
	svc := newCheckService(store, clf, DefaultPolicy())

	res, err := svc.CheckText(context.Background(), testUser, "hello")
	if err != nil {
		t.Fatalf("check text: %v", err)
	}
	if res.Safe || res.Reason != DenialBanned || !res.Reason.IsRestriction() {
		t.Fatalf("expected ban denial, got %+v", res)
	}
	if clf.calls != 0 {
		t.Fatalf("classifier must not be called for restricted users")
	}
}

func TestCheckTextClassifierFailurePolicy(t *testing.T) {
	store := newMemStore(model.ModerationRecord{UserID: testUser})
	clf := &stubClassifier{err: errors.New("upstream 503: " + classifier.ErrUnavailable.Error())}

	svc := newCheckService(store, clf, DefaultPolicy())
	res, err := svc.CheckText(context.Background(), testUser, "text")
	if err != nil {
		t.Fatalf("check text: %v", err)
	}
	if !res.Safe {
		t.Fatalf("text is fail-open by default, got %+v", res)
	}

	closed := DefaultPolicy()
	closed.FailOpenText = false
	svc = newCheckService(store, clf, closed)
	res, err = svc.CheckText(context.Background(), testUser, "text")
	if err != nil {
		t.Fatalf("check text: %v", err)
	}
	if res.Safe || res.Reason != DenialClassifierFailure || res.Message != msgSystemError {
		t.Fatalf("expected fail-closed denial, got %+v", res)
	}

	if store.mutations != 0 {
		t.Fatalf("classifier failures must never count as strikes")
	}
}

func TestCheckTextNotConfiguredIsAlwaysClosed(t *testing.T) {
	store := newMemStore(model.ModerationRecord{UserID: testUser})
	clf := &stubClassifier{err: classifier.ErrNotConfigured}
	svc := newCheckService(store, clf, DefaultPolicy())

	res, err := svc.CheckText(context.Background(), testUser, "text")
	if err != nil {
		t.Fatalf("check text: %v", err)
	}
	if res.Safe || res.Reason != DenialNotConfigured {
		t.Fatalf("missing api key must fail closed, got %+v", res)
	}
}

func TestCheckImageUnsafeRecordsStrike(t *testing.T) {
	store := newMemStore(model.ModerationRecord{UserID: testUser})
	clf := &stubClassifier{verdict: classifier.Verdict{Safe: false, Judged: true, Reason: "露出が多い"}}
	svc := newCheckService(store, clf, DefaultPolicy())

	res, err := svc.CheckImage(context.Background(), testUser, "https://pub.example.r2.dev/a.jpg")
	if err != nil {
		t.Fatalf("check image: %v", err)
	}
	if res.Safe || res.Escalation == nil {
		t.Fatalf("expected strike, got %+v", res)
	}
	if clf.last.Kind != enums.ContentKindImage || clf.last.MIMEType != "image/jpeg" {
		t.Fatalf("unexpected content sent to classifier: %+v", clf.last)
	}
}

func TestCheckImageUnjudgedRejectsWithoutStrike(t *testing.T) {
	store := newMemStore(model.ModerationRecord{UserID: testUser})
	clf := &stubClassifier{verdict: classifier.Verdict{Judged: false}}
	svc := newCheckService(store, clf, DefaultPolicy())

	res, err := svc.CheckImage(context.Background(), testUser, "https://pub.example.r2.dev/a.jpg")
	if err != nil {
		t.Fatalf("check image: %v", err)
	}
	if res.Safe || res.Reason != DenialUnjudged || res.Message != msgUnjudged {
		t.Fatalf("expected unjudged rejection, got %+v", res)
	}
	if store.mutations != 0 {
		t.Fatalf("unjudged images must not record a strike")
	}
}

func TestCheckImageFailurePolicy(t *testing.T) {
	store := newMemStore(model.ModerationRecord{UserID: testUser})
	clf := &stubClassifier{err: classifier.ErrUnavailable}

	svc := newCheckService(store, clf, DefaultPolicy())
	res, err := svc.CheckImage(context.Background(), testUser, "https://pub.example.r2.dev/a.jpg")
	if err != nil {
		t.Fatalf("check image: %v", err)
	}
	if res.Safe || res.Message != msgImageError {
		t.Fatalf("image is fail-closed by default, got %+v", res)
	}

	open := DefaultPolicy()
	open.FailOpenImage = true
	svc = newCheckService(store, clf, open, WithImageFetcher(stubFetcher{err: errors.New("timeout")}))
	res, err = svc.CheckImage(context.Background(), testUser, "https://pub.example.r2.dev/a.jpg")
	if err != nil {
		t.Fatalf("check image: %v", err)
	}
	if !res.Safe {
		t.Fatalf("fail-open image policy must pass on fetch failure, got %+v", res)
	}
	if store.mutations != 0 {
		t.Fatalf("failures must never count as strikes")
	}
}

func TestCheckImageForeignURLIsValidationError(t *testing.T) {
	store := newMemStore(model.ModerationRecord{UserID: testUser})
	clf := &stubClassifier{}
	svc := newCheckService(store, clf, DefaultPolicy(), WithImageFetcher(stubFetcher{err: mediasvc.ErrForeignURL}))

	_, err := svc.CheckImage(context.Background(), testUser, "http://169.254.169.254/latest")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if clf.calls != 0 {
		t.Fatalf("classifier must not run for foreign urls")
	}
}

func TestChecksAreRateLimited(t *testing.T) {
	store := newMemStore(model.ModerationRecord{UserID: testUser})
	clf := &stubClassifier{verdict: classifier.Verdict{Safe: true, Judged: true}}
	svc := newCheckService(store, clf, DefaultPolicy(), WithRateLimiter(stubLimiter{allowed: false, retryAfter: 7}))

	_, err := svc.CheckText(context.Background(), testUser, "text")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	tf, ok := IsTooFast(err)
	if !ok || tf.RetryAfter() != 7 {
		t.Fatalf("expected TooFastError with retry 7, got %v", err)
	}
	if clf.calls != 0 || store.mutations != 0 {
		t.Fatalf("rate limited check must not classify or strike")
	}
}

func TestBrokenRateLimiterDoesNotBlock(t *testing.T) {
	store := newMemStore(model.ModerationRecord{UserID: testUser})
	clf := &stubClassifier{verdict: classifier.Verdict{Safe: true, Judged: true}}
	svc := newCheckService(store, clf, DefaultPolicy(), WithRateLimiter(stubLimiter{err: errors.New("redis down")}))

	res, err := svc.CheckText(context.Background(), testUser, "text")
	if err != nil {
		t.Fatalf("check text: %v", err)
	}
	if !res.Safe || clf.calls != 1 {
		t.Fatalf("expected classification to proceed, got %+v", res)
	}
}

func TestBlockedPromptIsClassifierFailureNotStrike(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"promptFeedback": {"blockReason": "OTHER"}}`))
	}))
	defer srv.Close()

	gemini := classifier.NewGeminiClient(classifier.GeminiConfig{APIKey: "secret", Endpoint: srv.URL}, srv.Client(), nil)
	store := newMemStore(model.ModerationRecord{UserID: testUser})
	svc := newCheckService(store, gemini, DefaultPolicy())

	res, err := svc.CheckText(context.Background(), testUser, "hello")
	if err != nil {
		t.Fatalf("check text: %v", err)
	}
	if !res.Safe || res.Escalation != nil {
		t.Fatalf("blocked text prompt must fall back to fail-open, got %+v", res)
	}

	res, err = svc.CheckImage(context.Background(), testUser, "https://pub.example.r2.dev/a.jpg")
	if err != nil {
		t.Fatalf("check image: %v", err)
	}
	if res.Safe || res.Reason != DenialClassifierFailure || res.Message != msgImageError {
		t.Fatalf("blocked image prompt must be an image analysis error, got %+v", res)
	}

	if store.mutations != 0 {
		t.Fatalf("a blocked prompt must not record a strike, got %d mutations", store.mutations)
	}
	if rec := store.record(testUser); rec.ViolationCount != 0 {
		t.Fatalf("violation count changed: %d", rec.ViolationCount)
	}
}
