// Package metrics exposes Prometheus instrumentation for the msgserve
// serving core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "msgserve"

var (
	// ConnectionsAccepted counts connections accepted by the listener.
	ConnectionsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "server",
		Name:      "connections_accepted_total",
		Help:      "Number of connections accepted by the listener.",
	})

	// ConnectionsActive tracks connection handler goroutines currently live.
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "server",
		Name:      "connections_active",
		Help:      "Number of connection handlers currently running.",
	})

	// RequestsHandled counts request/response round trips completed.
	RequestsHandled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "server",
		Name:      "requests_handled_total",
		Help:      "Number of framed requests dispatched and answered.",
	})

	// ConnectionFaults counts connection-local read/write failures.
	ConnectionFaults = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "server",
		Name:      "connection_faults_total",
		Help:      "Number of connections terminated by a local transport or decode fault.",
	})

	// AcceptFailures counts accept errors, each of which is server-fatal.
	AcceptFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "server",
		Name:      "accept_failures_total",
		Help:      "Number of accept errors that triggered global cancellation.",
	})
)

// Handler returns the HTTP handler serving the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
