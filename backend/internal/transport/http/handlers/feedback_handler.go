package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/kaze3114/castket/backend/internal/services/auth"
	feedbacksvc "github.com/kaze3114/castket/backend/internal/services/feedback"
	"github.com/kaze3114/castket/backend/internal/transport/http/dto"
	httperrors "github.com/kaze3114/castket/backend/internal/transport/http/errors"
)

type FeedbackHandler struct {
	service *feedbacksvc.Service
}

func NewFeedbackHandler(service *feedbacksvc.Service) *FeedbackHandler {
	return &FeedbackHandler{service: service}
}

// Submit accepts feedback from signed-in and anonymous visitors alike.
func (h *FeedbackHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "FEEDBACK_SERVICE_UNAVAILABLE", "feedback service is unavailable")
		return
	}

	var req dto.FeedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	var userID string
	if identity, ok := authsvc.IdentityFromContext(r.Context()); ok {
		userID = identity.UserID
	}

	if _, err := h.service.Submit(r.Context(), userID, feedbacksvc.SubmitInput{
		Category: req.Category,
		Content:  req.Content,
		PageURL:  req.PageURL,
	}); err != nil {
		switch {
		case errors.Is(err, feedbacksvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", err.Error())
		default:
			writeInternal(w, "INTERNAL_ERROR", "Failed to send feedback")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.FeedbackResponse{Success: true})
}
