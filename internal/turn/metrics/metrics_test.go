package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveTurn("verified", 200*time.Millisecond)
	m.ObserveTurn("verified", 300*time.Millisecond)
	m.ObserveTurn("chat_failed", time.Second)
	m.IncrementReasonMismatch()
	m.AddOmittedCandidates(2)
	m.AddOmittedCandidates(0)
	m.IncrementRejected("busy")
	m.SetVerifyCircuitOpen(true)

	assert.InDelta(t, 2, testutil.ToFloat64(m.TurnOutcome.WithLabelValues("verified")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.TurnOutcome.WithLabelValues("chat_failed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ReasonMismatches), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.OmittedCandidates), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Rejected.WithLabelValues("busy")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.VerifyCircuitOpen), 0)

	m.SetVerifyCircuitOpen(false)
	assert.InDelta(t, 0, testutil.ToFloat64(m.VerifyCircuitOpen), 0)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTurn("replied", time.Millisecond)
		m.ObserveVerify(true, time.Millisecond)
		m.ObserveCandidates(3)
		m.IncrementReasonMismatch()
		m.AddOmittedCandidates(1)
		m.IncrementRejected("blank")
		m.SetVerifyCircuitOpen(true)
	})
}
