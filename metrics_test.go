package ambre

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetrics_RegistersAgainstGivenRegistererOnly(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.observeTransaction()
	m.observeTransaction()
	m.setTrieNodes(7)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.transactionsIngested))
	assert.Equal(t, float64(7), testutil.ToFloat64(m.trieNodes))
}

func TestMetrics_NilReceiverIsANoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.observeTransaction()
		m.setTrieNodes(3)
		m.observeDerivation(0.1)
	})
}
