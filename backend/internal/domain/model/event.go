package model

import (
	"time"

	"github.com/kaze3114/castket/backend/internal/domain/enums"
)

type Event struct {
	ID             string             `json:"id"`
	OrganizerID    string             `json:"organizer_id"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	Requirements   string             `json:"requirements"`
	BannerURL      string             `json:"banner_url"`
	Tags           []string           `json:"tags"`
	PrivateInfo    string             `json:"private_info"`
	Capacity       *int               `json:"capacity"`
	ScheduleType   enums.ScheduleType `json:"schedule_type"`
	StartTime      string             `json:"start_time"`
	EndTime        string             `json:"end_time"`
	EventDate      string             `json:"event_date"`
	Weekdays       []string           `json:"weekdays"`
	IrregularDates []string           `json:"irregular_dates"`
	CreatedAt      time.Time          `json:"created_at"`
}
