package model

import (
	"time"

	"github.com/kaze3114/castket/backend/internal/domain/enums"
)

// Entry is a cast's application to an event, or an organizer's offer to a cast.
type Entry struct {
	ID        string            `json:"id"`
	EventID   string            `json:"event_id"`
	CastID    string            `json:"cast_id"`
	Type      enums.EntryType   `json:"type"`
	Status    enums.EntryStatus `json:"status"`
	Message   string            `json:"message"`
	CreatedAt time.Time         `json:"created_at"`
}
