package dto

import "time"

type UploadRequest struct {
	ContentType string `json:"content_type"`
}

type UploadResponse struct {
	ObjectKey string    `json:"object_key"`
	UploadURL string    `json:"upload_url"`
	PublicURL string    `json:"public_url"`
	ExpiresAt time.Time `json:"expires_at"`
}
