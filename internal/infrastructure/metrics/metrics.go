package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"intel_service/internal/domain/model"
)

// Metrics implements core.Observer on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	modelEvaluations  *prometheus.CounterVec
	alertsRaised      *prometheus.CounterVec
	alertsDispatched  *prometheus.CounterVec
	alertsResolved    *prometheus.CounterVec
	ticksTotal        prometheus.Counter
	tickDuration      prometheus.Histogram
	unitsByStatus     *prometheus.GaugeVec
	coverageKm        prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prediction_cache_hits_total",
			Help: "Prediction cache hits by operation.",
		}, []string{"op"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prediction_cache_misses_total",
			Help: "Prediction cache misses by operation.",
		}, []string{"op"}),
		modelEvaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "model_evaluations_total",
			Help: "Rate function evaluations by model.",
		}, []string{"model"}),
		alertsRaised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alerts_raised_total",
			Help: "Alerts created by risk level.",
		}, []string{"level"}),
		alertsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alerts_dispatched_total",
			Help: "Alerts handed to a patrol unit by risk level.",
		}, []string{"level"}),
		alertsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alerts_resolved_total",
			Help: "Alerts removed from the active set by reason.",
		}, []string{"reason"}),
		ticksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_ticks_total",
			Help: "Completed simulation ticks.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dispatch_tick_duration_seconds",
			Help:    "Wall time spent inside a tick.",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}),
		unitsByStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "patrol_units",
			Help: "Patrol units of the active session by status.",
		}, []string{"status"}),
		coverageKm: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hotspot_coverage_km",
			Help: "Mean distance from each hotspot to its nearest unit.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.cacheHits,
		m.cacheMisses,
		m.modelEvaluations,
		m.alertsRaised,
		m.alertsDispatched,
		m.alertsResolved,
		m.ticksTotal,
		m.tickDuration,
		m.unitsByStatus,
		m.coverageKm,
	)

	for _, s := range []model.UnitStatus{model.UnitIdle, model.UnitEnRoute, model.UnitResponding} {
		m.unitsByStatus.WithLabelValues(string(s)).Set(0)
	}

	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		duration := time.Since(start).Seconds()
		if m != nil {
			m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(duration)
		}
	})
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) CacheHit(op string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(op).Inc()
}

func (m *Metrics) CacheMiss(op string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(op).Inc()
}

func (m *Metrics) ModelEvaluated(id model.ModelID) {
	if m == nil {
		return
	}
	m.modelEvaluations.WithLabelValues(string(id)).Inc()
}

func (m *Metrics) AlertRaised(level model.RiskLevel) {
	if m == nil {
		return
	}
	m.alertsRaised.WithLabelValues(level.String()).Inc()
}

func (m *Metrics) AlertDispatched(level model.RiskLevel) {
	if m == nil {
		return
	}
	m.alertsDispatched.WithLabelValues(level.String()).Inc()
}

func (m *Metrics) AlertResolved(reason model.ResolutionReason) {
	if m == nil {
		return
	}
	m.alertsResolved.WithLabelValues(string(reason)).Inc()
}

func (m *Metrics) TickCompleted(elapsed time.Duration, units []model.PatrolUnit, coverageKm float64) {
	if m == nil {
		return
	}
	m.ticksTotal.Inc()
	m.tickDuration.Observe(elapsed.Seconds())

	counts := map[model.UnitStatus]int{model.UnitIdle: 0, model.UnitEnRoute: 0, model.UnitResponding: 0}
	for _, u := range units {
		counts[u.Status]++
	}
	for status, n := range counts {
		m.unitsByStatus.WithLabelValues(string(status)).Set(float64(n))
	}
	m.coverageKm.Set(coverageKm)
}
