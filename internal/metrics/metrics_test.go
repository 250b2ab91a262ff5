package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusCollector_Counts(t *testing.T) {
	m := NewPrometheusCollector()

	m.RecordTransition("initiated", "compliance_check")
	m.RecordTransition("initiated", "compliance_check")
	m.RecordRateLookup(true)
	m.RecordRateLookup(false)
	m.RecordRateLookup(true)
	m.RecordDispatch("equity-bank", "sent", 120*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("initiated", "compliance_check")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.rateLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLookups.WithLabelValues("miss")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.dispatchDuration))
}

func TestNoop_SatisfiesCollector(t *testing.T) {
	var c Collector = Noop{}
	c.RecordTransition("a", "b")
	c.RecordReportGenerated(true)
}
