package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/kaze3114/castket/backend/internal/services/auth"
	mediasvc "github.com/kaze3114/castket/backend/internal/services/media"
	"github.com/kaze3114/castket/backend/internal/transport/http/dto"
	httperrors "github.com/kaze3114/castket/backend/internal/transport/http/errors"
)

type MediaHandler struct {
	service *mediasvc.Service
}

func NewMediaHandler(service *mediasvc.Service) *MediaHandler {
	return &MediaHandler{service: service}
}

// PrepareUpload hands out a short-lived presigned PUT for one image. The
// browser uploads directly to storage.
func (h *MediaHandler) PrepareUpload(w http.ResponseWriter, r *http.Request) {
	if _, ok := authsvc.IdentityFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MEDIA_SERVICE_UNAVAILABLE", "media service is unavailable")
		return
	}

	var req dto.UploadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	upload, err := h.service.PrepareUpload(r.Context(), req.ContentType)
	if err != nil {
		handleMediaError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.UploadResponse{
		ObjectKey: upload.ObjectKey,
		UploadURL: upload.UploadURL,
		PublicURL: upload.PublicURL,
		ExpiresAt: upload.ExpiresAt,
	})
}

func handleMediaError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, mediasvc.ErrUnsupportedType):
		httperrors.Write(w, http.StatusUnsupportedMediaType, httperrors.APIError{
			Code:    "UNSUPPORTED_MEDIA_TYPE",
			Message: "jpeg, png, webp or gif only",
		})
	case errors.Is(err, mediasvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid upload request")
	case errors.Is(err, mediasvc.ErrNotConfigured):
		writeInternal(w, "MEDIA_SERVICE_UNAVAILABLE", "media storage is not configured")
	default:
		writeInternal(w, "INTERNAL_ERROR", "upload preparation failed")
	}
}
