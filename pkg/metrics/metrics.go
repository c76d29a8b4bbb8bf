// Package metrics registers the Prometheus collectors this system exposes
// when running as a long-lived "flipsim serve" process: injection counts,
// failures, campaign duration, and active snapshots (SPEC_FULL.md §4.S).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InjectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flipsim_injections_total",
		Help: "Total number of fault injections performed, by kind (ram|reg).",
	}, []string{"kind"})

	InjectionFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flipsim_injection_failures_total",
		Help: "Total number of hard-failed fault injections, by kind (ram|reg).",
	}, []string{"kind"})

	CampaignDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flipsim_campaign_duration_seconds",
		Help:    "Wall-clock duration of a single campaign run.",
		Buckets: prometheus.DefBuckets,
	})

	SnapshotsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "flipsim_snapshots_active",
		Help: "Number of guest snapshots currently outstanding (not yet deleted).",
	})
)
