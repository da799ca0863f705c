package backend

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "earnquest_backend_request_duration_sec",
	Help:    "Duration of backend API requests",
	Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
}, []string{"endpoint", "status"})

var skippedPosts = promauto.NewCounter(prometheus.CounterOpts{
	Name: "earnquest_backend_scheduled_posts_skipped_total",
	Help: "Scheduled posts dropped because they could not be decoded",
})
