package moderation

import (
	"context"
	"sync"
	"time"

	"github.com/kaze3114/castket/backend/internal/domain/model"
	pgrepo "github.com/kaze3114/castket/backend/internal/repo/postgres"
)

// memStore mirrors ModerationRepo: a mutex stands in for the row lock.
type memStore struct {
	mu      sync.Mutex
	records map[string]model.ModerationRecord

	getErr    error
	resetErr  error
	mutateErr error

	violationResets  int
	suspensionResets int
	mutations        int
}

func newMemStore(records ...model.ModerationRecord) *memStore {
	s := &memStore{records: make(map[string]model.ModerationRecord)}
	for _, r := range records {
		s.records[r.UserID] = r.Clone()
	}
	return s
}

func (s *memStore) Get(_ context.Context, userID string) (model.ModerationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return model.ModerationRecord{}, s.getErr
	}
	rec, ok := s.records[userID]
	if !ok {
		return model.ModerationRecord{}, pgrepo.ErrProfileNotFound
	}
	return rec.Clone(), nil
}

func (s *memStore) ResetViolationWindow(_ context.Context, userID string, seen time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resetErr != nil {
		return false, s.resetErr
	}
	rec, ok := s.records[userID]
	if !ok || rec.FirstViolationAt == nil || !rec.FirstViolationAt.Equal(seen) {
		return false, nil
	}
	rec.ViolationCount = 0
	rec.FirstViolationAt = nil
	s.records[userID] = rec
	s.violationResets++
	return true, nil
}

func (s *memStore) ResetSuspensionWindow(_ context.Context, userID string, seen time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resetErr != nil {
		return false, s.resetErr
	}
	rec, ok := s.records[userID]
	if !ok || rec.FirstSuspensionAt == nil || !rec.FirstSuspensionAt.Equal(seen) {
		return false, nil
	}
	rec.SuspensionCount = 0
	rec.FirstSuspensionAt = nil
	s.records[userID] = rec
	s.suspensionResets++
	return true, nil
}

func (s *memStore) Mutate(
	_ context.Context,
	userID string,
	fn func(model.ModerationRecord) (model.ModerationRecord, error),
) (model.ModerationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mutateErr != nil {
		return model.ModerationRecord{}, s.mutateErr
	}
	rec, ok := s.records[userID]
	if !ok {
		return model.ModerationRecord{}, pgrepo.ErrProfileNotFound
	}
	next, err := fn(rec.Clone())
	if err != nil {
		return model.ModerationRecord{}, err
	}
	next.UserID = userID
	s.records[userID] = next.Clone()
	s.mutations++
	return next, nil
}

func (s *memStore) record(userID string) model.ModerationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[userID].Clone()
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func timePtr(t time.Time) *time.Time {
	return &t
}

const testUser = "2f4b6c8d-1e3a-4b5c-8d7e-9f0a1b2c3d4e"
