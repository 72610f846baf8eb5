package dispatcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesProcessedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dispatch",
			Name:      "messages_processed_total",
			Help:      "Total number of due messages processed, by outcome.",
		},
		[]string{"result"}, // sent, failed, lost_race
	)
	tickDurationHist = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "dispatch",
			Name:      "tick_duration_seconds",
			Help:      "Duration of one scan-and-dispatch tick.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

const (
	resultSent     = "sent"
	resultFailed   = "failed"
	resultLostRace = "lost_race"
)
