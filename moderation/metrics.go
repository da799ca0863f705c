package moderation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var verdictTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "earnquest_moderation_verdicts_total",
	Help: "Number of group messages evaluated, by verdict",
}, []string{"action"})

var enforcementFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "earnquest_moderation_enforcement_failures_total",
	Help: "Number of enforcement calls that failed, by operation",
}, []string{"op"})

var warningsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "earnquest_moderation_warnings_total",
	Help: "Number of warnings issued",
})

var bansTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "earnquest_moderation_bans_total",
	Help: "Number of users banned after repeated warnings",
})

var roleLookupErrors = promauto.NewCounter(prometheus.CounterOpts{
	Name: "earnquest_moderation_role_lookup_errors_total",
	Help: "Number of messages skipped because the sender's role could not be determined",
})
