package dto

import "time"

type ModerationStatusResponse struct {
	Allowed           bool       `json:"allowed"`
	Reason            string     `json:"reason,omitempty"`
	Message           string     `json:"message,omitempty"`
	IsBanned          bool       `json:"is_banned"`
	SuspendedUntil    *time.Time `json:"suspended_until"`
	ViolationCount    int        `json:"violation_count"`
	ViolationLimit    int        `json:"violation_limit"`
	SuspensionCount   int        `json:"suspension_count"`
	SuspensionLimit   int        `json:"suspension_limit"`
	FirstViolationAt  *time.Time `json:"first_violation_at"`
	FirstSuspensionAt *time.Time `json:"first_suspension_at"`
}

type CheckTextRequest struct {
	Text string `json:"text"`
}

type CheckImageRequest struct {
	ImageURL string `json:"image_url"`
}

// CheckResponse mirrors what the web client shows: isSafe plus the reason to
// display when it is false.
type CheckResponse struct {
	IsSafe bool   `json:"isSafe"`
	Reason string `json:"reason,omitempty"`
	Code   string `json:"code,omitempty"`
}
