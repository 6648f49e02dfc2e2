package handlers

import (
	"net/http"

	authsvc "github.com/kaze3114/castket/backend/internal/services/auth"
	modsvc "github.com/kaze3114/castket/backend/internal/services/moderation"
	"github.com/kaze3114/castket/backend/internal/transport/http/dto"
	httperrors "github.com/kaze3114/castket/backend/internal/transport/http/errors"
)

type ModerationHandler struct {
	service *modsvc.Service
}

func NewModerationHandler(service *modsvc.Service) *ModerationHandler {
	return &ModerationHandler{service: service}
}

func (h *ModerationHandler) Status(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	res, err := h.service.CheckRestriction(r.Context(), identity.UserID)
	if err != nil {
		if !writeModerationError(w, err) {
			writeInternal(w, "INTERNAL_ERROR", msgSystemError)
		}
		return
	}

	policy := h.service.Policy()
	httperrors.Write(w, http.StatusOK, dto.ModerationStatusResponse{
		Allowed:           res.Allowed,
		Reason:            string(res.Reason),
		Message:           res.Message,
		IsBanned:          res.Record.IsBanned,
		SuspendedUntil:    res.Record.SuspendedUntil,
		ViolationCount:    res.Record.ViolationCount,
		ViolationLimit:    policy.ViolationLimit,
		SuspensionCount:   res.Record.SuspensionCount,
		SuspensionLimit:   policy.SuspensionLimit,
		FirstViolationAt:  res.Record.FirstViolationAt,
		FirstSuspensionAt: res.Record.FirstSuspensionAt,
	})
}

// CheckText answers the client's pre-submit check. Denials are a 200 with
// isSafe=false; only failures use error statuses.
func (h *ModerationHandler) CheckText(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	var req dto.CheckTextRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	res, err := h.service.CheckText(r.Context(), identity.UserID, req.Text)
	h.writeCheck(w, res, err)
}

func (h *ModerationHandler) CheckImage(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	var req dto.CheckImageRequest
	if err := decodeJSON(r, &req); err != nil || req.ImageURL == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "image_url is required")
		return
	}

	res, err := h.service.CheckImage(r.Context(), identity.UserID, req.ImageURL)
	h.writeCheck(w, res, err)
}

func (h *ModerationHandler) writeCheck(w http.ResponseWriter, res modsvc.CheckResult, err error) {
	if err != nil {
		if !writeModerationError(w, err) {
			writeInternal(w, "INTERNAL_ERROR", msgSystemError)
		}
		return
	}
	if res.Safe {
		httperrors.Write(w, http.StatusOK, dto.CheckResponse{IsSafe: true})
		return
	}
	httperrors.Write(w, http.StatusOK, dto.CheckResponse{
		IsSafe: false,
		Reason: res.Message,
		Code:   string(res.Reason),
	})
}
