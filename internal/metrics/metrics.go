package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hunt"

var (
	// RequestCounter counts HTTP requests by route name, method and status code.
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// RequestDuration measures HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// RequestInProgress counts HTTP requests currently being processed.
	RequestInProgress = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_progress",
			Help:      "Number of HTTP requests currently being processed",
		},
		[]string{"route"},
	)

	AnswersRegistered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_registered_total",
			Help:      "Answers registered, by counter bumped",
		},
		[]string{"counter"},
	)

	ChallengesRegistered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenges_registered_total",
			Help:      "Challenges registered, by difficulty",
		},
		[]string{"difficulty"},
	)

	ChallengesFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenges_finished_total",
			Help:      "Challenges finished, by result",
		},
		[]string{"result"},
	)

	// QuestionDraws counts random draws made by the rejection-sampling fallback.
	QuestionDraws = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "question_draws_total",
			Help:      "Random question draws made while selecting an unanswered question",
		},
	)

	// FeedSubscribers tracks live clear board connections.
	FeedSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "clear_feed_subscribers",
			Help:      "Number of live clear board subscribers",
		},
	)
)
