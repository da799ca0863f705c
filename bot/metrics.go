package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var jobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "earnquest_scheduler_job_runs_total",
	Help: "Scheduled job runs by job and result",
}, []string{"job", "result"})

var pollingErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "earnquest_polling_errors_total",
	Help: "Errors reported by the Telegram long-polling loop",
}, []string{"kind"})
