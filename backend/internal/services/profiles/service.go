package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kaze3114/castket/backend/internal/domain/enums"
	"github.com/kaze3114/castket/backend/internal/domain/model"
	"github.com/kaze3114/castket/backend/internal/pkg/validate"
	pgrepo "github.com/kaze3114/castket/backend/internal/repo/postgres"
	"github.com/kaze3114/castket/backend/internal/services/moderation"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("profile not found")
)

const (
	maxDisplayNameLength = 50
	maxPlayStyleLength   = 200
	maxBioLength         = 2000
)

type ProfileStore interface {
	Upsert(ctx context.Context, profile model.Profile) (model.Profile, error)
	Get(ctx context.Context, userID string) (model.Profile, error)
}

type Gate interface {
	CheckRestriction(ctx context.Context, userID string) (moderation.RestrictionResult, error)
}

type Service struct {
	store ProfileStore
	gate  Gate
}

type UpdateInput struct {
	DisplayName string
	Role        string
	SubRole1    string
	SubRole2    string
	PlayStyle   string
	Bio         string
	AvatarURL   string
}

func NewService(store ProfileStore, gate Gate) *Service {
	return &Service{
		store: store,
		gate:  gate,
	}
}

func (s *Service) Get(ctx context.Context, userID string) (model.Profile, error) {
	if userID == "" {
		return model.Profile{}, fmt.Errorf("invalid user id: %w", ErrValidation)
	}
	profile, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrProfileNotFound) {
			return model.Profile{}, ErrNotFound
		}
		return model.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

// Update writes the display fields of userID's profile. Banned and suspended
// users are refused; a user without a profile row yet may create one.
func (s *Service) Update(ctx context.Context, userID string, in UpdateInput) (model.Profile, error) {
	if userID == "" {
		return model.Profile{}, fmt.Errorf("invalid user id: %w", ErrValidation)
	}
	if s.store == nil || s.gate == nil {
		return model.Profile{}, fmt.Errorf("profile service is not wired")
	}

	profile, err := normalizeAndValidateInput(in)
	if err != nil {
		return model.Profile{}, err
	}
	profile.UserID = userID

	gate, err := s.gate.CheckRestriction(ctx, userID)
	switch {
	case errors.Is(err, moderation.ErrNotFound):
		// first save, no moderation state yet
	case err != nil:
		return model.Profile{}, err
	default:
		if err := gate.Err(); err != nil {
			return model.Profile{}, err
		}
	}

	saved, err := s.store.Upsert(ctx, profile)
	if err != nil {
		return model.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return saved, nil
}

func normalizeAndValidateInput(in UpdateInput) (model.Profile, error) {
	out := model.Profile{
		DisplayName: strings.TrimSpace(in.DisplayName),
		PlayStyle:   strings.TrimSpace(in.PlayStyle),
		Bio:         strings.TrimSpace(in.Bio),
		AvatarURL:   strings.TrimSpace(in.AvatarURL),
	}

	if !validate.Required(out.DisplayName) {
		return model.Profile{}, fmt.Errorf("display_name is required: %w", ErrValidation)
	}
	if !validate.MaxRunes(out.DisplayName, maxDisplayNameLength) {
		return model.Profile{}, fmt.Errorf("display_name is too long: %w", ErrValidation)
	}
	if !validate.MaxRunes(out.PlayStyle, maxPlayStyleLength) || !validate.MaxRunes(out.Bio, maxBioLength) {
		return model.Profile{}, fmt.Errorf("profile text is too long: %w", ErrValidation)
	}

	role, ok := enums.ParseRole(in.Role)
	if !ok {
		return model.Profile{}, fmt.Errorf("unknown role %q: %w", in.Role, ErrValidation)
	}
	out.Role = role

	subRoles := make([]enums.Role, 0, 2)
	for _, raw := range []string{in.SubRole1, in.SubRole2} {
		if !validate.Required(raw) {
			subRoles = append(subRoles, "")
			continue
		}
		sub, ok := enums.ParseRole(raw)
		if !ok {
			return model.Profile{}, fmt.Errorf("unknown sub role %q: %w", raw, ErrValidation)
		}
		if sub == role {
			sub = ""
		}
		subRoles = append(subRoles, sub)
	}
	if subRoles[0] != "" && subRoles[0] == subRoles[1] {
		subRoles[1] = ""
	}
	out.SubRole1, out.SubRole2 = subRoles[0], subRoles[1]

	return out, nil
}
