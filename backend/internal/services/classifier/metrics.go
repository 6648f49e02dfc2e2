package classifier

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var classifierDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "castket_classifier_duration_seconds",
	Help: "Duration of content classifier API calls",
})

var classifierRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "castket_classifier_requests_total",
	Help: "Number of content classifier API calls, by content kind and HTTP status code",
}, []string{"kind", "status"})

var verdictCacheHits = promauto.NewCounter(prometheus.CounterOpts{
	Name: "castket_classifier_cache_hits_total",
	Help: "Number of classifier verdicts served from cache",
})
