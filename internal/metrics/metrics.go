// Package metrics owns the Prometheus collectors exposed at /metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry      *prometheus.Registry
	gateDecisions *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	heartbeats    *prometheus.CounterVec
	smsTests      *prometheus.CounterVec
	maintenance   prometheus.Gauge
}

// New registers every collector on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sectorgate_gate_decisions_total",
			Help: "Maintenance gate decisions by outcome.",
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sectorgate_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		heartbeats: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sectorgate_heartbeats_total",
			Help: "Vendor heartbeats by result.",
		}, []string{"result"}),
		smsTests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sectorgate_sms_tests_total",
			Help: "SMS test sends by result.",
		}, []string{"result"}),
		maintenance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sectorgate_maintenance_mode",
			Help: "1 while maintenance mode is active.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.gateDecisions, m.httpRequests, m.heartbeats, m.smsTests, m.maintenance,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) GateDecision(blocked bool) {
	outcome := "pass"
	if blocked {
		outcome = "lockdown"
	}
	m.gateDecisions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) HTTPRequest(method, route string, status int) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func (m *Metrics) Heartbeat(result string) {
	m.heartbeats.WithLabelValues(result).Inc()
}

func (m *Metrics) SMSTest(result string) {
	m.smsTests.WithLabelValues(result).Inc()
}

func (m *Metrics) SetMaintenance(active bool) {
	if active {
		m.maintenance.Set(1)
		return
	}
	m.maintenance.Set(0)
}
