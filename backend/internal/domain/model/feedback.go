package model

import (
	"time"

	"github.com/kaze3114/castket/backend/internal/domain/enums"
)

type Feedback struct {
	ID        string               `json:"id"`
	UserID    *string              `json:"user_id"`
	Category  string               `json:"category"`
	Content   string               `json:"content"`
	PageURL   string               `json:"page_url"`
	Status    enums.FeedbackStatus `json:"status"`
	CreatedAt time.Time            `json:"created_at"`
}
