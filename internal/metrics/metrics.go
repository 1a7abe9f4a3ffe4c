package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's collectors on a private registry. A nil *Metrics is
// valid and records nothing, which is how METRICS_ENABLED=false is wired.
type Metrics struct {
	registry *prometheus.Registry

	dispatchesCreated  prometheus.Counter
	unitsReserved      prometheus.Counter
	dispatchesUpdated  prometheus.Counter
	dispatchesReceived prometheus.Counter
	unitsReceived      prometheus.Counter
	transfers          *prometheus.CounterVec
	unitsTransferred   prometheus.Counter
	failures           *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		dispatchesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sample_dispatches_created_total",
			Help: "Dispatches created with their stock reserved.",
		}),
		unitsReserved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sample_units_reserved_total",
			Help: "Product units taken out of sellable stock by dispatch creation.",
		}),
		dispatchesUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sample_dispatches_updated_total",
			Help: "Shipping edits applied to dispatches.",
		}),
		dispatchesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sample_dispatches_received_total",
			Help: "Dispatches received into a warehouse.",
		}),
		unitsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sample_units_received_total",
			Help: "Units credited to warehouse ledgers by receipts.",
		}),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sample_transfers_total",
			Help: "Completed sample transfers by source and destination kind.",
		}, []string{"from", "to"}),
		unitsTransferred: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sample_units_transferred_total",
			Help: "Units moved between warehouses and showrooms.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sample_operation_failures_total",
			Help: "Rejected or failed operations by operation and reason.",
		}, []string{"operation", "reason"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.dispatchesCreated, m.unitsReserved, m.dispatchesUpdated,
		m.dispatchesReceived, m.unitsReceived, m.transfers, m.unitsTransferred,
		m.failures, m.httpRequests, m.httpDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) DispatchCreated(units int) {
	if m == nil {
		return
	}
	m.dispatchesCreated.Inc()
	m.unitsReserved.Add(float64(units))
}

func (m *Metrics) DispatchUpdated() {
	if m == nil {
		return
	}
	m.dispatchesUpdated.Inc()
}

func (m *Metrics) DispatchReceived(units int) {
	if m == nil {
		return
	}
	m.dispatchesReceived.Inc()
	m.unitsReceived.Add(float64(units))
}

func (m *Metrics) SampleTransferred(from, to string, units int) {
	if m == nil {
		return
	}
	m.transfers.WithLabelValues(from, to).Inc()
	m.unitsTransferred.Add(float64(units))
}

// Failure counts a rejected operation. reason is a short stable code such as
// "insufficient_stock".
func (m *Metrics) Failure(operation, reason string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(operation, reason).Inc()
}

// ObserveHTTP records one finished request. route must be the router pattern,
// never the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
