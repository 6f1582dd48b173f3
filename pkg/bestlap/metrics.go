package bestlap

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lapsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bestlap",
		Name:      "laps_total",
		Help:      "Completed laps seen, by acceptance decision.",
	}, []string{"decision"})

	personalBestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bestlap",
		Name:      "personal_bests_total",
		Help:      "Accepted laps that improved a best time, by table.",
	}, []string{"table"})

	snapshotWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bestlap",
		Name:      "snapshot_writes_total",
		Help:      "Best lap snapshot writes, by result.",
	}, []string{"result"})

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bestlap",
		Name:      "notifications_total",
		Help:      "Notifications sent to the collector, by result.",
	}, []string{"result"})

	driversTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "bestlap",
		Name:      "drivers",
		Help:      "Drivers in the all-time best lap table.",
	})
)
