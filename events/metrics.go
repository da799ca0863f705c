package events

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var reportedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "earnquest_events_reported_total",
	Help: "Audit events reported, by event type and delivery result",
}, []string{"event_type", "result"})
