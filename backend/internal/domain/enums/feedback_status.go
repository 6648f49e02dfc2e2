package enums

type FeedbackStatus string

const (
	FeedbackStatusOpen      FeedbackStatus = "open"
	FeedbackStatusAttention FeedbackStatus = "attention"
)
