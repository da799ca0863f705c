package policy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "earnquest_policy_refresh_total",
	Help: "Number of moderation settings refresh attempts, by result",
}, []string{"result"})
