package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the timer. Each instance owns
// its registry so several services can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	Ticks            prometheus.Counter
	SamplesMatched   *prometheus.CounterVec
	SampleErrors     prometheus.Counter
	Transitions      *prometheus.CounterVec
	Alerts           prometheus.Counter
	SessionsRecorded prometheus.Counter
	SessionsEvicted  prometheus.Counter
	SaveFailures     prometheus.Counter
	Elapsed          prometheus.Gauge
	TodayTotal       prometheus.Gauge
	Running          prometheus.Gauge
	HTTPRequests     *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "worktimer_ticks_total",
			Help: "Scheduler ticks processed",
		}),
		SamplesMatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worktimer_samples_total",
			Help: "Foreground samples by match result",
		}, []string{"result"}),
		SampleErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "worktimer_sample_errors_total",
			Help: "Foreground samples that failed at the platform layer",
		}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worktimer_transitions_total",
			Help: "Timer state transitions by target status and cause",
		}, []string{"to", "cause"}),
		Alerts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "worktimer_alerts_total",
			Help: "Interval alerts fired",
		}),
		SessionsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "worktimer_sessions_recorded_total",
			Help: "Sessions appended to history",
		}),
		SessionsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "worktimer_sessions_evicted_total",
			Help: "Sessions dropped by the retention cap",
		}),
		SaveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "worktimer_save_failures_total",
			Help: "Failed writes of persisted state",
		}),
		Elapsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "worktimer_elapsed_seconds",
			Help: "Current timer value",
		}),
		TodayTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "worktimer_today_total_seconds",
			Help: "Seconds spent running today",
		}),
		Running: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "worktimer_running",
			Help: "1 while the timer is running",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worktimer_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		m.Ticks, m.SamplesMatched, m.SampleErrors, m.Transitions, m.Alerts,
		m.SessionsRecorded, m.SessionsEvicted, m.SaveFailures,
		m.Elapsed, m.TodayTotal, m.Running, m.HTTPRequests,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveSample(matched bool) {
	if matched {
		m.SamplesMatched.WithLabelValues("match").Inc()
	} else {
		m.SamplesMatched.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) ObserveTransition(to, cause string) {
	m.Transitions.WithLabelValues(to, cause).Inc()
}

// SetTimer updates the timer gauges.
func (m *Metrics) SetTimer(elapsed, todayTotal int64, running bool) {
	m.Elapsed.Set(float64(elapsed))
	m.TodayTotal.Set(float64(todayTotal))
	if running {
		m.Running.Set(1)
	} else {
		m.Running.Set(0)
	}
}
