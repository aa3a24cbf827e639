package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for turn orchestration.
type Metrics struct {
	// Turn outcomes by kind
	TurnOutcome *prometheus.CounterVec

	// Full turn latency by outcome
	TurnLatency *prometheus.HistogramVec

	// Verification round trips by result ("ok", "error")
	VerifyLatency *prometheus.HistogramVec

	// Candidates proposed per turn that carried any
	Candidates prometheus.Histogram

	// Rows whose reason could not be found in the chat payload
	ReasonMismatches prometheus.Counter

	// Candidates the verification backend did not return
	OmittedCandidates prometheus.Counter

	// Sends rejected because a turn was already in flight or the text was blank
	Rejected *prometheus.CounterVec

	// 1 while the verification circuit is open
	VerifyCircuitOpen prometheus.Gauge
}

// New registers the turn metrics with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TurnOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "domainagent_turn_outcomes_total",
			Help: "Total turn outcomes by kind",
		}, []string{"outcome"}), // outcome: "replied", "verified", "verification_unavailable", "chat_failed"

		TurnLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "domainagent_turn_duration_seconds",
			Help:    "Duration of a full turn including chat and verification",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"outcome"}),

		VerifyLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "domainagent_turn_verify_duration_seconds",
			Help:    "Duration of the batched domain verification call",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"result"}),

		Candidates: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "domainagent_turn_candidates",
			Help:    "Number of candidate domains proposed in a turn",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		}),

		ReasonMismatches: factory.NewCounter(prometheus.CounterOpts{
			Name: "domainagent_turn_reason_mismatches_total",
			Help: "Verified rows with no matching reason in the chat payload",
		}),

		OmittedCandidates: factory.NewCounter(prometheus.CounterOpts{
			Name: "domainagent_turn_omitted_candidates_total",
			Help: "Candidates missing from the verification response",
		}),

		Rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "domainagent_turn_rejected_total",
			Help: "Sends rejected before any backend call",
		}, []string{"reason"}), // reason: "blank", "busy"

		VerifyCircuitOpen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "domainagent_verify_circuit_open",
			Help: "Whether the verification circuit breaker is open (1) or closed (0)",
		}),
	}
}

// ObserveTurn records the outcome and duration of a finished turn.
func (m *Metrics) ObserveTurn(outcome string, d time.Duration) {
	if m != nil {
		m.TurnOutcome.WithLabelValues(outcome).Inc()
		m.TurnLatency.WithLabelValues(outcome).Observe(d.Seconds())
	}
}

// ObserveVerify records a verification round trip.
func (m *Metrics) ObserveVerify(ok bool, d time.Duration) {
	if m != nil {
		result := "ok"
		if !ok {
			result = "error"
		}
		m.VerifyLatency.WithLabelValues(result).Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveCandidates(n int) {
	if m != nil {
		m.Candidates.Observe(float64(n))
	}
}

func (m *Metrics) IncrementReasonMismatch() {
	if m != nil {
		m.ReasonMismatches.Inc()
	}
}

func (m *Metrics) AddOmittedCandidates(n int) {
	if m != nil && n > 0 {
		m.OmittedCandidates.Add(float64(n))
	}
}

// IncrementRejected records a send that never reached the chat backend.
func (m *Metrics) IncrementRejected(reason string) {
	if m != nil {
		m.Rejected.WithLabelValues(reason).Inc()
	}
}

// SetVerifyCircuitOpen mirrors the verification breaker state.
func (m *Metrics) SetVerifyCircuitOpen(open bool) {
	if m != nil {
		if open {
			m.VerifyCircuitOpen.Set(1)
			return
		}
		m.VerifyCircuitOpen.Set(0)
	}
}
