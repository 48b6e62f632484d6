package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScoreDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "oniki_match_score_duration_seconds",
			Help:    "Duration of one pair scoring in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12),
		},
	)

	ScoreConfidence = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oniki_match_scores_total",
			Help: "Total number of scored pairs by confidence",
		},
		[]string{"confidence"},
	)

	MatchesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oniki_matches_created_total",
			Help: "Total number of create attempts by outcome",
		},
		[]string{"outcome"},
	)

	MatchResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oniki_match_responses_total",
			Help: "Total number of responses by decision and outcome",
		},
		[]string{"decision", "outcome"},
	)

	RecommendationCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oniki_recommendation_cache_total",
			Help: "Recommendation cache lookups by result",
		},
		[]string{"result"},
	)

	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oniki_notifications_dispatched_total",
			Help: "Notifications dispatched by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "oniki_websocket_clients",
			Help: "Number of connected notification websocket clients",
		},
	)
)

// Outcome labels shared by the counters above.
const (
	OutcomeOK        = "ok"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
	OutcomeError     = "error"
)
