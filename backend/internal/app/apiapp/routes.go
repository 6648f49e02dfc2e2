package apiapp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	authsvc "github.com/kaze3114/castket/backend/internal/services/auth"
	eventsvc "github.com/kaze3114/castket/backend/internal/services/events"
	feedbacksvc "github.com/kaze3114/castket/backend/internal/services/feedback"
	mediasvc "github.com/kaze3114/castket/backend/internal/services/media"
	modsvc "github.com/kaze3114/castket/backend/internal/services/moderation"
	profilesvc "github.com/kaze3114/castket/backend/internal/services/profiles"
	httperrors "github.com/kaze3114/castket/backend/internal/transport/http/errors"
	"github.com/kaze3114/castket/backend/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService       *authsvc.Service
	EventService      *eventsvc.Service
	FeedbackService   *feedbacksvc.Service
	MediaService      *mediasvc.Service
	ModerationService *modsvc.Service
	ProfileService    *profilesvc.Service
	HealthChecks      map[string]handlers.HealthCheck
	Logger            *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler(deps.HealthChecks)
	eventsHandler := handlers.NewEventsHandler(deps.EventService)
	feedbackHandler := handlers.NewFeedbackHandler(deps.FeedbackService)
	mediaHandler := handlers.NewMediaHandler(deps.MediaService)
	moderationHandler := handlers.NewModerationHandler(deps.ModerationService)
	profileHandler := handlers.NewProfileHandler(deps.ProfileService)

	r.Get("/healthz", healthHandler.Get)
	r.Handle("/metrics", promhttp.Handler())

	authMW := AuthMiddleware(deps.AuthService, deps.Logger)
	optionalAuthMW := OptionalAuthMiddleware(deps.AuthService, deps.Logger)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/events/{eventID}", eventsHandler.Get)
		r.With(authMW).Post("/events", eventsHandler.Create)
		r.With(authMW).Post("/events/{eventID}/entries", eventsHandler.Apply)
		r.With(authMW).Get("/profile", profileHandler.Get)
		r.With(authMW).Put("/profile", profileHandler.Update)
		r.With(authMW).Post("/uploads", mediaHandler.PrepareUpload)
		r.With(authMW).Get("/moderation/status", moderationHandler.Status)
		r.With(authMW).Post("/moderation/check-text", moderationHandler.CheckText)
		r.With(authMW).Post("/moderation/check-image", moderationHandler.CheckImage)
		r.With(optionalAuthMW).Post("/feedback", feedbackHandler.Submit)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.Write(w, http.StatusNotFound, httperrors.APIError{
			Code:    "NOT_FOUND",
			Message: "route not found",
		})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.Write(w, http.StatusMethodNotAllowed, httperrors.APIError{
			Code:    "METHOD_NOT_ALLOWED",
			Message: "method not allowed",
		})
	})
}
