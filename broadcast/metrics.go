package broadcast

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var sendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "earnquest_broadcast_sends_total",
	Help: "Scheduled post deliveries per target, by result",
}, []string{"result"})

var cyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "earnquest_broadcast_cycles_total",
	Help: "Broadcast polling cycles, by result",
}, []string{"result"})
