// Package metrics holds the Prometheus instruments exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	LoginSuccessTotal    *prometheus.CounterVec
	LoginFailureTotal    *prometheus.CounterVec
	UsersRegisteredTotal prometheus.Counter
	TokensIssuedTotal    prometheus.Counter
	TokensRefreshedTotal prometheus.Counter
)

// InitCustomMetrics initializes and registers the custom metrics. It should
// be called once at application startup.
func InitCustomMetrics(reg prometheus.Registerer) {
	LoginSuccessTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wordnest_logins_success_total",
		Help: "Successful social logins by provider.",
	}, []string{"provider"})
	LoginFailureTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wordnest_logins_failure_total",
		Help: "Failed social logins by provider.",
	}, []string{"provider"})
	UsersRegisteredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wordnest_users_registered_total",
		Help: "Accounts created through social login.",
	})
	TokensIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wordnest_tokens_issued_total",
		Help: "Access/refresh token pairs issued at login.",
	})
	TokensRefreshedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wordnest_tokens_refreshed_total",
		Help: "Access tokens issued from a refresh token.",
	})

	if reg == nil {
		return
	}
	for _, c := range []prometheus.Collector{
		LoginSuccessTotal,
		LoginFailureTotal,
		UsersRegisteredTotal,
		TokensIssuedTotal,
		TokensRefreshedTotal,
	} {
		if err := reg.Register(c); err != nil {
			log.Warn().Err(err).Msg("Failed to register custom metric")
		}
	}
}
