package bandit

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	BanditUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bandit_updates_total",
			Help: "Count of bandit parameter updates by reward direction.",
		},
		[]string{"direction"},
	)
)

func init() {
	prometheus.MustRegister(BanditUpdatesTotal)
}
