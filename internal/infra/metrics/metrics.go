// Package metrics provides Prometheus metrics for sentinel:
// counters, gauges, and histograms for the behavioral, risk, access,
// lateral movement, and policy subsystems.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Behavioral ─────────────────────────────────────────────────────────────

// BaselineObservations tracks behavioral observations recorded per entity kind.
var BaselineObservations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sentinel",
	Name:      "baseline_observations_total",
	Help:      "Total behavioral observations recorded.",
}, []string{"entity_kind"})

// AnomalyScores tracks the distribution of computed anomaly scores.
var AnomalyScores = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "sentinel",
	Name:      "anomaly_score",
	Help:      "Distribution of computed anomaly scores.",
	Buckets:   []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1},
})

// ─── Risk ───────────────────────────────────────────────────────────────────

// RiskScoresCalculated tracks risk score calculations by resulting level.
var RiskScoresCalculated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sentinel",
	Name:      "risk_scores_calculated_total",
	Help:      "Total risk scores calculated, by risk level.",
}, []string{"level"})

// RiskCalculationLatency tracks time spent computing a risk score.
var RiskCalculationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "sentinel",
	Name:      "risk_calculation_latency_seconds",
	Help:      "Time spent computing a risk score.",
	Buckets:   prometheus.DefBuckets,
})

// ─── Access ─────────────────────────────────────────────────────────────────

// AccessDecisions tracks access decisions by outcome.
var AccessDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sentinel",
	Name:      "access_decisions_total",
	Help:      "Total access decisions, by decision.",
}, []string{"decision"})

// ActiveSessions tracks currently tracked sessions under continuous verification.
var ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "sentinel",
	Name:      "active_sessions",
	Help:      "Number of sessions under continuous verification.",
})

// SessionEscalations tracks reverification outcomes that escalated a decision.
var SessionEscalations = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "sentinel",
	Name:      "session_escalations_total",
	Help:      "Total session reverifications that escalated the access decision.",
})

// ─── Lateral movement ───────────────────────────────────────────────────────

// LateralAlerts tracks lateral movement alerts by type.
var LateralAlerts = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sentinel",
	Name:      "lateral_alerts_total",
	Help:      "Total lateral movement alerts raised, by alert type.",
}, []string{"alert_type"})

// GraphNodes tracks the current access graph size.
var GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "sentinel",
	Name:      "lateral_graph_nodes",
	Help:      "Current number of nodes in the access graph.",
})

// DetectionLatency tracks time spent running a lateral movement detection pass.
var DetectionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "sentinel",
	Name:      "lateral_detection_latency_seconds",
	Help:      "Time spent running a lateral movement detection pass.",
	Buckets:   prometheus.DefBuckets,
})

// ─── Policy ─────────────────────────────────────────────────────────────────

// PolicyEvaluations tracks policy evaluations by resulting effect.
var PolicyEvaluations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sentinel",
	Name:      "policy_evaluations_total",
	Help:      "Total policy evaluations, by effect.",
}, []string{"effect"})

// PolicyConflicts tracks detected policy conflicts.
var PolicyConflicts = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "sentinel",
	Name:      "policy_conflicts",
	Help:      "Number of conflicting policy rule pairs currently detected.",
})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthCheckStatus tracks health check results (1=healthy, 0=unhealthy).
var HealthCheckStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "sentinel",
	Name:      "health_check_status",
	Help:      "Health check result per component (1=healthy, 0=unhealthy).",
}, []string{"check"})
