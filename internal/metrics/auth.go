package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Auth-related Prometheus metrics. Defined in a standalone package to avoid
// import cycles between the session store and HTTP packages.

var (
	LoginOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_login_total",
		Help: "Resultados de login() por outcome",
	}, []string{"outcome"})

	RestoreOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_restore_total",
		Help: "Resultados de restore_session() por outcome",
	}, []string{"outcome"})

	ProviderRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "provider_request_duration_ms",
		Help:    "Latencia de requests al credential provider en milisegundos",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"op"})
)

// Register registers the auth metrics on the given registry (or default if nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{LoginOutcomes, RestoreOutcomes, ProviderRequestDuration} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
