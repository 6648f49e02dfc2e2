package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kaze3114/castket/backend/internal/domain/model"
	pgrepo "github.com/kaze3114/castket/backend/internal/repo/postgres"
	modsvc "github.com/kaze3114/castket/backend/internal/services/moderation"
	profilesvc "github.com/kaze3114/castket/backend/internal/services/profiles"
	"github.com/kaze3114/castket/backend/internal/transport/http/dto"
)

type profileStoreStub struct {
	profiles map[string]model.Profile
	upserts  int
}

func newProfileStoreStub() *profileStoreStub {
	return &profileStoreStub{profiles: map[string]model.Profile{}}
}

func (s *profileStoreStub) Upsert(_ context.Context, p model.Profile) (model.Profile, error) {
	s.upserts++
	p.UpdatedAt = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	s.profiles[p.UserID] = p
	return p, nil
}

func (s *profileStoreStub) Get(_ context.Context, userID string) (model.Profile, error) {
	p, ok := s.profiles[userID]
	if !ok {
		return model.Profile{}, pgrepo.ErrProfileNotFound
	}
	return p, nil
}

func newProfileHandlerForTest(records ...model.ModerationRecord) (*ProfileHandler, *profileStoreStub) {
	store := newProfileStoreStub()
	gate := modsvc.NewService(newModerationStoreStub(records...), modsvc.DefaultPolicy())
	return NewProfileHandler(profilesvc.NewService(store, gate)), store
}

func TestUpdateProfileFirstSave(t *testing.T) {
	h, store := newProfileHandlerForTest()

	req := withUser(httptest.NewRequest(http.MethodPut, "/v1/profile", jsonBody(t, map[string]string{
		"display_name": "みかん",
		"role":         "DJ",
		"sub_role_1":   "Cast",
		"bio":          "週末にDJしてます",
	})))
	rr := httptest.NewRecorder()
	h.Update(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d (%s)", rr.Code, http.StatusOK, rr.Body.String())
	}
	var payload dto.ProfileResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.UserID != testUserID || payload.Role != "DJ" || payload.RoleLabel != "DJ" {
		t.Fatalf("unexpected profile payload: %+v", payload)
	}
	if payload.SubRole1 != "Cast" {
		t.Fatalf("unexpected sub role: %q", payload.SubRole1)
	}
	if store.upserts != 1 {
		t.Fatalf("expected one upsert, got %d", store.upserts)
	}
}

func TestUpdateProfileSuspendedUser(t *testing.T) {
	until := time.Now().Add(3 * time.Hour)
	h, store := newProfileHandlerForTest(model.ModerationRecord{UserID: testUserID, SuspendedUntil: &until})

	req := withUser(httptest.NewRequest(http.MethodPut, "/v1/profile", jsonBody(t, map[string]string{
		"display_name": "みかん",
		"role":         "Cast",
	})))
	rr := httptest.NewRecorder()
	h.Update(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusForbidden)
	}
	code, message := decodeAPIError(t, rr)
	if code != "MODERATION_DENIED" || message == "" {
		t.Fatalf("unexpected error: %s %q", code, message)
	}
	if store.upserts != 0 {
		t.Fatalf("suspended user must not write the profile")
	}
}

func TestUpdateProfileUnknownRole(t *testing.T) {
	h, _ := newProfileHandlerForTest(model.ModerationRecord{UserID: testUserID})

	req := withUser(httptest.NewRequest(http.MethodPut, "/v1/profile", jsonBody(t, map[string]string{
		"display_name": "みかん",
		"role":         "Wizard",
	})))
	rr := httptest.NewRecorder()
	h.Update(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestGetProfileNotFound(t *testing.T) {
	h, _ := newProfileHandlerForTest()

	req := withUser(httptest.NewRequest(http.MethodGet, "/v1/profile", nil))
	rr := httptest.NewRecorder()
	h.Get(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNotFound)
	}
	if code, _ := decodeAPIError(t, rr); code != "PROFILE_NOT_FOUND" {
		t.Fatalf("unexpected code: %s", code)
	}
}

func TestProfileRequiresAuth(t *testing.T) {
	h, _ := newProfileHandlerForTest()

	rr := httptest.NewRecorder()
	h.Get(rr, httptest.NewRequest(http.MethodGet, "/v1/profile", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}
