package moderation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kaze3114/castket/backend/internal/domain/model"
)

func newGateService(store *memStore, clock *testClock) *Service {
	return NewService(store, DefaultPolicy(), WithClock(clock.Now))
}

func TestEvaluateBannedIsTerminal(t *testing.T) {
	clock := newTestClock()
	store := newMemStore(model.ModerationRecord{UserID: testUser, IsBanned: true, SuspensionCount: 3, FirstSuspensionAt: timePtr(clock.Now())})
	svc := newGateService(store, clock)

	for _, advance := range []time.Duration{0, 48 * time.Hour, 400 * 24 * time.Hour} {
		clock.Advance(advance)
		res, err := svc.Evaluate(context.Background(), testUser)
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if res.Allowed || res.Reason != DenialBanned {
			t.Fatalf("banned user must stay denied, got %+v", res)
		}
		if res.Message != msgBanned {
			t.Fatalf("unexpected ban message: %q", res.Message)
		}
	}
}

func TestEvaluateSuspendedReportsCeilHours(t *testing.T) {
	clock := newTestClock()
	store := newMemStore(model.ModerationRecord{UserID: testUser, SuspendedUntil: timePtr(clock.Now().Add(2 * time.Hour))})
	svc := newGateService(store, clock)

	res, err := svc.Evaluate(context.Background(), testUser)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Allowed || res.Reason != DenialSuspended {
		t.Fatalf("expected suspension denial, got %+v", res)
	}
	if !strings.Contains(res.Message, "2026/03/01 23:00 (JST)") {
		t.Fatalf("message must carry the unblock time in display timezone: %q", res.Message)
	}
	if !strings.Contains(res.Message, "あと約 2 時間") {
		t.Fatalf("exactly 2h must round to 2 hours: %q", res.Message)
	}

	store.records[testUser] = model.ModerationRecord{UserID: testUser, SuspendedUntil: timePtr(clock.Now().Add(2*time.Hour + 6*time.Minute))}
	res, err = svc.Evaluate(context.Background(), testUser)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !strings.Contains(res.Message, "あと約 3 時間") {
		t.Fatalf("2.1h must round up to 3 hours: %q", res.Message)
	}
}

func TestEvaluateExpiredSuspensionIsAllowed(t *testing.T) {
	clock := newTestClock()
	store := newMemStore(model.ModerationRecord{
		UserID:            testUser,
		SuspendedUntil:    timePtr(clock.Now().Add(-time.Hour)),
		SuspensionCount:   1,
		FirstSuspensionAt: timePtr(clock.Now().Add(-25 * time.Hour)),
	})
	svc := newGateService(store, clock)

	res, err := svc.Evaluate(context.Background(), testUser)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.Allowed {
		t.Fatalf("expired suspension must allow, got %+v", res)
	}
	if res.Record.SuspensionCount != 1 {
		t.Fatalf("suspension count inside its window must survive, got %d", res.Record.SuspensionCount)
	}
}

func TestEvaluateResetsExpiredViolationWindowOnce(t *testing.T) {
	clock := newTestClock()
	store := newMemStore(model.ModerationRecord{
		UserID:           testUser,
		ViolationCount:   3,
		FirstViolationAt: timePtr(clock.Now().Add(-31 * time.Minute)),
	})
	svc := newGateService(store, clock)

	for i := 0; i < 3; i++ {
		res, err := svc.Evaluate(context.Background(), testUser)
		if err != nil {
			t.Fatalf("evaluate #%d: %v", i+1, err)
		}
		if !res.Allowed || res.Record.ViolationCount != 0 || res.Record.FirstViolationAt != nil {
			t.Fatalf("expected reset record on evaluate #%d, got %+v", i+1, res.Record)
		}
	}

	if store.violationResets != 1 {
		t.Fatalf("window reset must fire exactly once, fired %d", store.violationResets)
	}
	if got := store.record(testUser); got.ViolationCount != 0 || got.FirstViolationAt != nil {
		t.Fatalf("reset must be persisted, got %+v", got)
	}
}

func TestEvaluateKeepsViolationWindowAtBoundary(t *testing.T) {
	clock := newTestClock()
	store := newMemStore(model.ModerationRecord{
		UserID:           testUser,
		ViolationCount:   2,
		FirstViolationAt: timePtr(clock.Now().Add(-30 * time.Minute)),
	})
	svc := newGateService(store, clock)

	res, err := svc.Evaluate(context.Background(), testUser)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Record.ViolationCount != 2 || store.violationResets != 0 {
		t.Fatalf("window of exactly 30m is not expired, got %+v", res.Record)
	}
}

func TestEvaluateResetsExpiredSuspensionWindow(t *testing.T) {
	clock := newTestClock()
	store := newMemStore(model.ModerationRecord{
		UserID:            testUser,
		SuspensionCount:   2,
		FirstSuspensionAt: timePtr(clock.Now().Add(-31 * 24 * time.Hour)),
	})
	svc := newGateService(store, clock)

	res, err := svc.Evaluate(context.Background(), testUser)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Record.SuspensionCount != 0 || res.Record.FirstSuspensionAt != nil {
		t.Fatalf("expected suspension window reset, got %+v", res.Record)
	}
	if store.suspensionResets != 1 {
		t.Fatalf("expected one persisted suspension reset, got %d", store.suspensionResets)
	}
}

func TestEvaluateErrors(t *testing.T) {
	clock := newTestClock()
	store := newMemStore()
	svc := newGateService(store, clock)

	if _, err := svc.Evaluate(context.Background(), testUser); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Evaluate(context.Background(), ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	store.getErr = errors.New("connection reset")
	if _, err := svc.Evaluate(context.Background(), testUser); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence on read failure, got %v", err)
	}

	store.getErr = nil
	store.records[testUser] = model.ModerationRecord{UserID: testUser, ViolationCount: 1, FirstViolationAt: timePtr(clock.Now().Add(-time.Hour))}
	store.resetErr = errors.New("write failed")
	if _, err := svc.Evaluate(context.Background(), testUser); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence on reset failure, got %v", err)
	}
}
