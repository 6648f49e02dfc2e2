package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kaze3114/castket/backend/internal/domain/model"
	authsvc "github.com/kaze3114/castket/backend/internal/services/auth"
	eventsvc "github.com/kaze3114/castket/backend/internal/services/events"
	"github.com/kaze3114/castket/backend/internal/transport/http/dto"
	httperrors "github.com/kaze3114/castket/backend/internal/transport/http/errors"
)

type EventsHandler struct {
	service *eventsvc.Service
}

func NewEventsHandler(service *eventsvc.Service) *EventsHandler {
	return &EventsHandler{service: service}
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "EVENTS_SERVICE_UNAVAILABLE", "events service is unavailable")
		return
	}

	var req dto.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	event, err := h.service.Create(r.Context(), identity.UserID, eventsvc.CreateEventInput{
		Title:          req.Title,
		Description:    req.Description,
		Requirements:   req.Requirements,
		BannerURL:      req.BannerURL,
		Tags:           req.Tags,
		PrivateInfo:    req.PrivateInfo,
		Capacity:       req.Capacity,
		ScheduleType:   req.ScheduleType,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		EventDate:      req.EventDate,
		Weekdays:       req.Weekdays,
		IrregularDates: req.IrregularDates,
	})
	if err != nil {
		handleEventsError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, eventResponse(event))
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "EVENTS_SERVICE_UNAVAILABLE", "events service is unavailable")
		return
	}

	event, err := h.service.Get(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		handleEventsError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, eventResponse(event))
}

func (h *EventsHandler) Apply(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "EVENTS_SERVICE_UNAVAILABLE", "events service is unavailable")
		return
	}

	var req dto.CreateEntryRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
			return
		}
	}

	entry, err := h.service.Apply(r.Context(), identity.UserID, chi.URLParam(r, "eventID"), req.Message)
	if err != nil {
		handleEventsError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.EntryResponse{
		ID:        entry.ID,
		EventID:   entry.EventID,
		CastID:    entry.CastID,
		Type:      string(entry.Type),
		Status:    string(entry.Status),
		Message:   entry.Message,
		CreatedAt: entry.CreatedAt,
	})
}

func eventResponse(event model.Event) dto.EventResponse {
	tags := event.Tags
	if tags == nil {
		tags = []string{}
	}
	return dto.EventResponse{
		ID:             event.ID,
		OrganizerID:    event.OrganizerID,
		Title:          event.Title,
		Description:    event.Description,
		Requirements:   event.Requirements,
		BannerURL:      event.BannerURL,
		Tags:           tags,
		Capacity:       event.Capacity,
		ScheduleType:   string(event.ScheduleType),
		StartTime:      event.StartTime,
		EndTime:        event.EndTime,
		EventDate:      event.EventDate,
		Weekdays:       event.Weekdays,
		IrregularDates: event.IrregularDates,
		CreatedAt:      event.CreatedAt,
	}
}

func handleEventsError(w http.ResponseWriter, err error) {
	if writeModerationError(w, err) {
		return
	}
	switch {
	case errors.Is(err, eventsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, eventsvc.ErrEventNotFound):
		writeNotFound(w, "EVENT_NOT_FOUND", "event not found")
	case errors.Is(err, eventsvc.ErrEntryExists):
		writeConflict(w, "ALREADY_APPLIED", "すでに応募済みです")
	case errors.Is(err, eventsvc.ErrEventFull):
		writeConflict(w, "EVENT_FULL", "募集人数に達しています")
	default:
		writeInternal(w, "INTERNAL_ERROR", msgSystemError)
	}
}
