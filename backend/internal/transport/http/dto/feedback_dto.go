package dto

type FeedbackRequest struct {
	Category string `json:"category"`
	Content  string `json:"content"`
	PageURL  string `json:"page_url"`
}

type FeedbackResponse struct {
	Success bool `json:"success"`
}
