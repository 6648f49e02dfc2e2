package moderation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var violationsRecorded = promauto.NewCounter(prometheus.CounterOpts{
	Name: "castket_moderation_violations_total",
	Help: "Number of strikes recorded against users",
})

var escalations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "castket_moderation_escalations_total",
	Help: "Number of strikes that escalated, by kind (suspension, ban)",
}, []string{"kind"})

var denials = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "castket_moderation_denials_total",
	Help: "Number of denied actions, by denial reason",
}, []string{"reason"})

var windowResets = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "castket_moderation_window_resets_total",
	Help: "Number of expired strike windows cleared, by window (violation, suspension)",
}, []string{"window"})
