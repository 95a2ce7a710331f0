// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Collector owns every metric the process exports.
type Collector struct {
	reg *prometheus.Registry

	exchanges *prometheus.CounterVec
	latency   *prometheus.HistogramVec

	health         *prometheus.GaugeVec
	lastErrorCode  *prometheus.GaugeVec
	secondsInError *prometheus.GaugeVec
}

// New creates a Collector registered on its own registry.
func New() *Collector {
	c := &Collector{
		reg: prometheus.NewRegistry(),

		exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mbsync_exchanges_total",
			Help: "Modbus request/response exchanges by connection, operation and outcome.",
		}, []string{"connection", "op", "status"}),

		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mbsync_exchange_duration_seconds",
			Help:    "Time from submitting an exchange to its resolution.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"connection", "op"}),

		health: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mbsync_unit_health",
			Help: "Unit health code (0 unknown, 1 ok, 2 error).",
		}, []string{"unit"}),

		lastErrorCode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mbsync_unit_last_error_code",
			Help: "Last error code seen for the unit (Modbus exception code or 1).",
		}, []string{"unit"}),

		secondsInError: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mbsync_unit_seconds_in_error",
			Help: "Seconds the unit has been out of the OK state.",
		}, []string{"unit"}),
	}

	c.reg.MustRegister(
		c.exchanges,
		c.latency,
		c.health,
		c.lastErrorCode,
		c.secondsInError,
	)
	return c
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

// Connection returns an exchange observer labelled with name.
func (c *Collector) Connection(name string) *ConnectionObserver {
	return &ConnectionObserver{c: c, name: name}
}

// SetUnitStatus publishes one unit's status snapshot.
func (c *Collector) SetUnitStatus(unit string, health, lastErrorCode, secondsInError uint16) {
	c.health.WithLabelValues(unit).Set(float64(health))
	c.lastErrorCode.WithLabelValues(unit).Set(float64(lastErrorCode))
	c.secondsInError.WithLabelValues(unit).Set(float64(secondsInError))
}

// ConnectionObserver implements reactor.Observer for one connection.
type ConnectionObserver struct {
	c    *Collector
	name string
}

func (o *ConnectionObserver) Observe(op string, d time.Duration, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusFailed
	}
	o.c.exchanges.WithLabelValues(o.name, op, status).Inc()
	o.c.latency.WithLabelValues(o.name, op).Observe(d.Seconds())
}
