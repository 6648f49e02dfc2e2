package handlers

import (
	"errors"
	"net/http"

	"github.com/kaze3114/castket/backend/internal/domain/model"
	authsvc "github.com/kaze3114/castket/backend/internal/services/auth"
	profilesvc "github.com/kaze3114/castket/backend/internal/services/profiles"
	"github.com/kaze3114/castket/backend/internal/transport/http/dto"
	httperrors "github.com/kaze3114/castket/backend/internal/transport/http/errors"
)

type ProfileHandler struct {
	service *profilesvc.Service
}

func NewProfileHandler(service *profilesvc.Service) *ProfileHandler {
	return &ProfileHandler{service: service}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	profile, err := h.service.Get(r.Context(), identity.UserID)
	if err != nil {
		handleProfileError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, profileResponse(profile))
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	var req dto.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	profile, err := h.service.Update(r.Context(), identity.UserID, profilesvc.UpdateInput{
		DisplayName: req.DisplayName,
		Role:        req.Role,
		SubRole1:    req.SubRole1,
		SubRole2:    req.SubRole2,
		PlayStyle:   req.PlayStyle,
		Bio:         req.Bio,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		handleProfileError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, profileResponse(profile))
}

func profileResponse(p model.Profile) dto.ProfileResponse {
	return dto.ProfileResponse{
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		Role:        string(p.Role),
		RoleLabel:   p.Role.Label(),
		SubRole1:    string(p.SubRole1),
		SubRole2:    string(p.SubRole2),
		PlayStyle:   p.PlayStyle,
		Bio:         p.Bio,
		AvatarURL:   p.AvatarURL,
		UpdatedAt:   p.UpdatedAt,
	}
}

func handleProfileError(w http.ResponseWriter, err error) {
	if writeModerationError(w, err) {
		return
	}
	switch {
	case errors.Is(err, profilesvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, profilesvc.ErrNotFound):
		writeNotFound(w, "PROFILE_NOT_FOUND", "profile not found")
	default:
		writeInternal(w, "INTERNAL_ERROR", msgSystemError)
	}
}
