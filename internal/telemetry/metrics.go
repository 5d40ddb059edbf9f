package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Исходы коммита для метки outcome.
const (
	OutcomeSuccess = "success"
	OutcomeInvalid = "invalid"
	OutcomeFailed  = "failed"
	OutcomeBusy    = "busy"
)

// Metrics — Prometheus метрики редактора.
type Metrics struct {
	CommitsTotal   *prometheus.CounterVec
	CommitDuration prometheus.Histogram
	DraftSaves     *prometheus.CounterVec
	HTTPRequests   *prometheus.CounterVec
}

// NewMetrics создаёт метрики и регистрирует их в reg.
// reg == nil — метрики создаются, но не регистрируются (удобно в тестах).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CommitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskflow_commits_total",
			Help: "Commit attempts by outcome",
		}, []string{"outcome"}),
		CommitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taskflow_commit_duration_seconds",
			Help:    "Duration of bulk task creation requests",
			Buckets: prometheus.DefBuckets,
		}),
		DraftSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskflow_draft_saves_total",
			Help: "Draft snapshot writes by result",
		}, []string{"result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskflow_http_requests_total",
			Help: "HTTP requests handled by taskflow-api",
		}, []string{"method", "code"}),
	}

	if reg != nil {
		reg.MustRegister(m.CommitsTotal, m.CommitDuration, m.DraftSaves, m.HTTPRequests)
	}
	return m
}

// ObserveCommit учитывает попытку коммита.
func (m *Metrics) ObserveCommit(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.CommitsTotal.WithLabelValues(outcome).Inc()
	if d > 0 {
		m.CommitDuration.Observe(d.Seconds())
	}
}

// ObserveDraftSave учитывает запись черновика.
func (m *Metrics) ObserveDraftSave(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.DraftSaves.WithLabelValues(result).Inc()
}

// ObserveRequest учитывает обработанный HTTP запрос.
func (m *Metrics) ObserveRequest(method string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
}
