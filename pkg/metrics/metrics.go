package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QuestionsServed counts question sets served by source (cache|generated|fallback).
	QuestionsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vimquiz_questions_served_total",
			Help: "Total number of question sets served",
		},
		[]string{"source"},
	)

	// ModelCalls counts external model calls and their outcome (ok|error).
	ModelCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vimquiz_model_calls_total",
			Help: "Total number of external model calls",
		},
		[]string{"model", "result"},
	)

	// ModelCostUSD accumulates the estimated spend on external model calls.
	ModelCostUSD = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vimquiz_model_cost_usd_total",
			Help: "Estimated cumulative model cost in USD",
		},
		[]string{"model"},
	)

	// RateLimited counts requests rejected by the rate limiter.
	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vimquiz_rate_limited_total",
			Help: "Total number of rate-limited requests",
		},
		[]string{"path"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vimquiz_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
