package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordFlow("login", "success")
	m.RecordFlow("login", "success")
	m.RecordFlow("login", "wrong_password")
	m.RecordNotification("forgot_password", ResultSent)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuthFlows.WithLabelValues("login", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthFlows.WithLabelValues("login", "wrong_password")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("forgot_password", ResultSent)))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordFlow("signup", "success")
		m.RecordNotification("signup_verification", ResultDropped)
	})
}

func TestNew_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
