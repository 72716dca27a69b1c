// Package metrics exposes the agent's Prometheus collectors.
//
// Primary series:
//   - voltagent_cycles_total{agent}              – completed decision cycles
//   - voltagent_decisions_total{action,source}   – decisions by action and origin
//   - voltagent_position_closes_total{reason}    – closes split by exit reason
//   - voltagent_equity_usd{agent}                – account equity gauge
//   - voltagent_reasoning_calls_total{result}    – reasoning calls (ok|error|budget)
//   - voltagent_reasoning_cache_hits_total       – cache short-circuits
//   - voltagent_fallback_decisions_total         – deterministic fallback activations
//
// Collectors are registered in init() and served at /metrics by the CLI.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Cycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voltagent_cycles_total",
			Help: "Completed decision cycles",
		},
		[]string{"agent"},
	)

	Decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voltagent_decisions_total",
			Help: "Decisions produced, by action and source",
		},
		[]string{"action", "source"},
	)

	PositionCloses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voltagent_position_closes_total",
			Help: "Position closes split by exit reason",
		},
		[]string{"reason"},
	)

	Equity = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "voltagent_equity_usd",
			Help: "Account equity in USD (capital plus realized P&L)",
		},
		[]string{"agent"},
	)

	ReasoningCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voltagent_reasoning_calls_total",
			Help: "Reasoning service calls by result",
		},
		[]string{"result"},
	)

	ReasoningCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "voltagent_reasoning_cache_hits_total",
			Help: "Reasoning calls answered from the response cache",
		},
	)

	FallbackDecisions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "voltagent_fallback_decisions_total",
			Help: "Decisions produced by the deterministic fallback engine",
		},
	)
)

func init() {
	prometheus.MustRegister(
		Cycles,
		Decisions,
		PositionCloses,
		Equity,
		ReasoningCalls,
		ReasoningCacheHits,
		FallbackDecisions,
	)
}
