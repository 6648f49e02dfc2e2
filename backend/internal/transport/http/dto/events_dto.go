package dto

import "time"

type CreateEventRequest struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Requirements   string   `json:"requirements"`
	BannerURL      string   `json:"banner_url"`
	Tags           []string `json:"tags"`
	PrivateInfo    string   `json:"private_info"`
	Capacity       *int     `json:"capacity"`
	ScheduleType   string   `json:"schedule_type"`
	StartTime      string   `json:"start_time"`
	EndTime        string   `json:"end_time"`
	EventDate      string   `json:"event_date"`
	Weekdays       []string `json:"weekdays"`
	IrregularDates []string `json:"irregular_dates"`
}

type EventResponse struct {
	ID             string    `json:"id"`
	OrganizerID    string    `json:"organizer_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Requirements   string    `json:"requirements"`
	BannerURL      string    `json:"banner_url,omitempty"`
	Tags           []string  `json:"tags"`
	Capacity       *int      `json:"capacity"`
	ScheduleType   string    `json:"schedule_type"`
	StartTime      string    `json:"start_time,omitempty"`
	EndTime        string    `json:"end_time,omitempty"`
	EventDate      string    `json:"event_date,omitempty"`
	Weekdays       []string  `json:"weekdays,omitempty"`
	IrregularDates []string  `json:"irregular_dates,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type CreateEntryRequest struct {
	Message string `json:"message"`
}

type EntryResponse struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	CastID    string    `json:"cast_id"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
