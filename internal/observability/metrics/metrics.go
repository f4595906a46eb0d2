package metrics

import "github.com/prometheus/client_golang/prometheus"

// IntakeMetrics exposes counters/histograms for the dialogue and commit flows.
type IntakeMetrics struct {
	dialogueTurns  *prometheus.CounterVec
	oracleResults  *prometheus.CounterVec
	commitOutcomes *prometheus.CounterVec
	effectFailures *prometheus.CounterVec
	commitDuration prometheus.Histogram
}

func NewIntakeMetrics(reg prometheus.Registerer) *IntakeMetrics {
	m := &IntakeMetrics{
		dialogueTurns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "dialogue_turns_total",
			Help:      "Dialogue turns handled, by resulting mode and outcome",
		}, []string{"mode", "outcome"}),
		oracleResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "oracle_results_total",
			Help:      "Oracle extraction results (ok, malformed, error, offline)",
		}, []string{"result"}),
		commitOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "commit_outcomes_total",
			Help:      "Booking commit outcomes by reason",
		}, []string{"reason"}),
		effectFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "side_effect_failures_total",
			Help:      "Best-effort side effects that failed (persist, notify)",
		}, []string{"effect"}),
		commitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "intake",
			Name:      "commit_duration_seconds",
			Help:      "Latency of booking commits",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.dialogueTurns, m.oracleResults, m.commitOutcomes, m.effectFailures, m.commitDuration)
	return m
}

func (m *IntakeMetrics) ObserveTurn(mode, outcome string) {
	if m == nil {
		return
	}
	m.dialogueTurns.WithLabelValues(mode, outcome).Inc()
}

func (m *IntakeMetrics) ObserveOracle(result string) {
	if m == nil {
		return
	}
	m.oracleResults.WithLabelValues(result).Inc()
}

// ObserveCommit records a commit outcome; an empty reason is recorded as "ok".
func (m *IntakeMetrics) ObserveCommit(reason string, seconds float64) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "ok"
	}
	m.commitOutcomes.WithLabelValues(reason).Inc()
	m.commitDuration.Observe(seconds)
}

func (m *IntakeMetrics) ObserveEffectFailure(effect string) {
	if m == nil {
		return
	}
	m.effectFailures.WithLabelValues(effect).Inc()
}
