package profiles

import (
	"context"
	"errors"
	"testing"

	"github.com/kaze3114/castket/backend/internal/domain/enums"
	"github.com/kaze3114/castket/backend/internal/domain/model"
	pgrepo "github.com/kaze3114/castket/backend/internal/repo/postgres"
	"github.com/kaze3114/castket/backend/internal/services/moderation"
)

const userID = "5d1f0e2a-8b7c-4d3e-9f1a-2b3c4d5e6f70"

type fakeStore struct {
	lastCall *model.Profile
}

func (f *fakeStore) Upsert(_ context.Context, profile model.Profile) (model.Profile, error) {
	f.lastCall = &profile
	return profile, nil
}

func (f *fakeStore) Get(context.Context, string) (model.Profile, error) {
	return model.Profile{}, pgrepo.ErrProfileNotFound
}

type fakeGate struct {
	result moderation.RestrictionResult
	err    error
}

func (f fakeGate) CheckRestriction(context.Context, string) (moderation.RestrictionResult, error) {
	return f.result, f.err
}

func allowed() fakeGate {
	return fakeGate{result: moderation.RestrictionResult{Allowed: true}}
}

func TestUpdateNormalizesRoles(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, allowed())

	_, err := svc.Update(context.Background(), userID, UpdateInput{
		DisplayName: "  みけ ",
		Role:        "Cast",
		SubRole1:    "Cast",
		SubRole2:    "DJ",
		Bio:         "よろしく",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if store.lastCall == nil {
		t.Fatalf("expected profile to be saved")
	}
	if store.lastCall.DisplayName != "みけ" || store.lastCall.Role != enums.RoleCast {
		t.Fatalf("unexpected saved profile: %+v", store.lastCall)
	}
	if store.lastCall.SubRole1 != "" || store.lastCall.SubRole2 != enums.RoleDJ {
		t.Fatalf("sub role equal to main role must be dropped: %+v", store.lastCall)
	}
}

func TestUpdateValidation(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, allowed())

	for _, in := range []UpdateInput{
		{DisplayName: "", Role: "Cast"},
		{DisplayName: "name", Role: "Boss"},
		{DisplayName: "name", Role: "Cast", SubRole1: "Boss"},
	} {
		if _, err := svc.Update(context.Background(), userID, in); !errors.Is(err, ErrValidation) {
			t.Fatalf("expected validation error for %+v, got %v", in, err)
		}
	}
	if store.lastCall != nil {
		t.Fatalf("invalid input must not be saved")
	}
}

func TestUpdateRestrictedUser(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, fakeGate{result: moderation.RestrictionResult{Reason: moderation.DenialBanned, Message: "banned"}})

	_, err := svc.Update(context.Background(), userID, UpdateInput{DisplayName: "name", Role: "Cast"})
	if !errors.Is(err, moderation.ErrDenied) {
		t.Fatalf("expected denial, got %v", err)
	}
	if store.lastCall != nil {
		t.Fatalf("banned user must not update the profile")
	}
}

func TestUpdateCreatesMissingProfile(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, fakeGate{err: moderation.ErrNotFound})

	if _, err := svc.Update(context.Background(), userID, UpdateInput{DisplayName: "name", Role: "Organizer"}); err != nil {
		t.Fatalf("first profile save must be allowed: %v", err)
	}
	if store.lastCall == nil || store.lastCall.UserID != userID {
		t.Fatalf("profile was not created")
	}
}

func TestUpdateGateFailure(t *testing.T) {
	svc := NewService(&fakeStore{}, fakeGate{err: moderation.ErrPersistence})
	if _, err := svc.Update(context.Background(), userID, UpdateInput{DisplayName: "name", Role: "Cast"}); !errors.Is(err, moderation.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestGetMapsNotFound(t *testing.T) {
	svc := NewService(&fakeStore{}, allowed())
	if _, err := svc.Get(context.Background(), userID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
