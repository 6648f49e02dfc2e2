package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	modsvc "github.com/kaze3114/castket/backend/internal/services/moderation"
	httperrors "github.com/kaze3114/castket/backend/internal/transport/http/errors"
)

const maxJSONBody = 1 << 20

const msgSystemError = "システムエラーが発生しました。時間をおいて再度お試しください。"

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeNotFound(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: code, Message: message})
}

func writeConflict(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusConflict, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}

func denialCode(reason modsvc.DenialReason) string {
	if reason.IsRestriction() {
		return "MODERATION_DENIED"
	}
	return "CONTENT_REJECTED"
}

// writeModerationError maps the moderation outcomes every gated action can hit.
// It reports false when err is none of them and the caller must handle it.
func writeModerationError(w http.ResponseWriter, err error) bool {
	if denied, ok := modsvc.AsDenied(err); ok {
		httperrors.Write(w, http.StatusForbidden, httperrors.APIError{
			Code:    denialCode(denied.Reason),
			Message: denied.Message,
		})
		return true
	}
	if tf, ok := modsvc.IsTooFast(err); ok {
		httperrors.WriteRateLimit(w, httperrors.RateLimitError{
			Code:          "TOO_FAST",
			Message:       "too many checks, slow down",
			RetryAfterSec: tf.RetryAfter(),
		})
		return true
	}

	switch {
	case errors.Is(err, modsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request")
	case errors.Is(err, modsvc.ErrNotFound):
		writeInternal(w, "PROFILE_NOT_FOUND", msgSystemError)
	case errors.Is(err, modsvc.ErrPersistence):
		writeInternal(w, "INTERNAL_ERROR", msgSystemError)
	default:
		return false
	}
	return true
}
