package metrics

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	PollAttempts  *prometheus.CounterVec
	PollOutcomes  *prometheus.CounterVec
	Requests      *prometheus.CounterVec
	RequestRetry  prometheus.Counter
	StepsInFlight *prometheus.GaugeVec
}

func New(reg prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		PollAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "poll_attempts_total",
			Help: "total number of non-terminal status checks",
		}, []string{"kind"}),
		PollOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "poll_outcomes_total",
			Help: "total number of finished waits",
		}, []string{"kind", "outcome"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "requests_total",
			Help: "total number of cloud api requests",
		}, []string{"status"}),
		RequestRetry: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "request_retries_total",
			Help: "total number of retried cloud api requests",
		}),
		StepsInFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "steps_in_flight",
			Help: "number of in flight setup steps",
		}, []string{"step"}),
	}

	metrics.Enable(reg)
	return metrics
}

// Noop returns metrics that are registered nowhere.
func Noop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) Enable(reg prometheus.Registerer) {
	reg.MustRegister(m.PollAttempts)
	reg.MustRegister(m.PollOutcomes)
	reg.MustRegister(m.Requests)
	reg.MustRegister(m.RequestRetry)
	reg.MustRegister(m.StepsInFlight)
}
