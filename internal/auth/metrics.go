package auth

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "auth"

const (
	resultSuccess  = "success"
	resultInvalid  = "invalid"
	resultConflict = "conflict"
	resultRejected = "rejected"
	resultError    = "error"
)

// Metrics は登録・ログインの結果を数える Prometheus カウンターです。
// nil のまま使うと何も記録しません。
type Metrics struct {
	Registrations *prometheus.CounterVec
	Logins        *prometheus.CounterVec
}

// NewMetrics はメトリクスを作成して reg に登録します。
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Registration submissions by result.",
		}, []string{"result"}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login submissions by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.Registrations, m.Logins)
	return m
}

func (m *Metrics) registration(result string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(result).Inc()
}

func (m *Metrics) login(result string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(result).Inc()
}
