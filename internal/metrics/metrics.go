package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	serviceStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "relayctl",
			Subsystem: "service",
			Name:      "starts_total",
			Help:      "Number of confirmed service starts.",
		}, []string{"service"},
	)
	serviceStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "relayctl",
			Subsystem: "service",
			Name:      "stops_total",
			Help:      "Number of confirmed service stops.",
		}, []string{"service"},
	)
	spawnFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "relayctl",
			Subsystem: "service",
			Name:      "spawn_failures_total",
			Help:      "Number of spawn attempts that did not yield a running service.",
		}, []string{"service"},
	)
	probeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "relayctl",
			Subsystem: "service",
			Name:      "health_probe_failures_total",
			Help:      "Number of services that never reached healthy within the attempt budget.",
		}, []string{"service"},
	)
	killEscalations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "relayctl",
			Subsystem: "service",
			Name:      "kill_escalations_total",
			Help:      "Number of stops that escalated from graceful to forceful termination.",
		}, []string{"service"},
	)
	serviceUp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "relayctl",
			Subsystem: "service",
			Name:      "up",
			Help:      "Whether the service was alive at last reconciliation (1 alive, 0 not).",
		}, []string{"service"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{
		serviceStarts, serviceStops, spawnFailures, probeFailures, killEscalations, serviceUp,
	}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns the prometheus scrape handler for the default gatherer.
func Handler() http.Handler { return promhttp.Handler() }

func IncStart(service string)      { serviceStarts.WithLabelValues(service).Inc() }
func IncStop(service string)       { serviceStops.WithLabelValues(service).Inc() }
func IncSpawnFail(service string)  { spawnFailures.WithLabelValues(service).Inc() }
func IncProbeFail(service string)  { probeFailures.WithLabelValues(service).Inc() }
func IncEscalation(service string) { killEscalations.WithLabelValues(service).Inc() }

func SetUp(service string, alive bool) {
	v := 0.0
	if alive {
		v = 1.0
	}
	serviceUp.WithLabelValues(service).Set(v)
}
