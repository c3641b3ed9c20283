package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	TokensIssuedTotal    prometheus.Counter
	TokensRefreshedTotal prometheus.Counter
	ActiveSessionsGauge  prometheus.Gauge
	LoginSuccessTotal    prometheus.Counter
	LoginFailureTotal    prometheus.Counter
	LoginThrottledTotal  prometheus.Counter
	UserRegisteredTotal  prometheus.Counter
	ProductsCreatedTotal prometheus.Counter
)

// InitCustomMetrics initializes and registers custom Prometheus metrics.
// It should be called once at application startup.
func InitCustomMetrics(reg prometheus.Registerer) {
	TokensIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shopd_tokens_issued_total",
		Help: "Total number of access/refresh tokens issued.",
	})
	TokensRefreshedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shopd_tokens_refreshed_total",
		Help: "Total number of access tokens reissued from a refresh token.",
	})
	ActiveSessionsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "shopd_active_sessions_gauge",
		Help: "Current number of active user sessions.",
	})
	LoginSuccessTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shopd_logins_success_total",
		Help: "Total number of successful logins.",
	})
	LoginFailureTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shopd_logins_failure_total",
		Help: "Total number of failed logins.",
	})
	LoginThrottledTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shopd_logins_throttled_total",
		Help: "Total number of logins rejected by the attempt limiter.",
	})
	UserRegisteredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shopd_users_registered_total",
		Help: "Total number of users registered.",
	})
	ProductsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shopd_products_created_total",
		Help: "Total number of products created.",
	})

	if reg == nil {
		log.Error().Msg("Prometheus registry is nil, cannot register custom metrics.")
		return
	}

	collectors := map[string]prometheus.Collector{
		"TokensIssuedTotal":    TokensIssuedTotal,
		"TokensRefreshedTotal": TokensRefreshedTotal,
		"ActiveSessionsGauge":  ActiveSessionsGauge,
		"LoginSuccessTotal":    LoginSuccessTotal,
		"LoginFailureTotal":    LoginFailureTotal,
		"LoginThrottledTotal":  LoginThrottledTotal,
		"UserRegisteredTotal":  UserRegisteredTotal,
		"ProductsCreatedTotal": ProductsCreatedTotal,
	}
	for name, c := range collectors {
		if err := reg.Register(c); err != nil {
			log.Warn().Err(err).Msgf("Failed to register %s metric", name)
		}
	}
	log.Info().Msg("Custom Prometheus metrics registered.")
}
