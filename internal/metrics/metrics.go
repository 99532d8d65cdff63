// Package metrics defines the Prometheus metrics served on /metrics.
//
// Metric naming follows Prometheus conventions:
//   - minicms_ prefix for all custom metrics
//   - _total suffix for counters
//   - _seconds suffix for duration histograms
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OAuth login outcomes.
const (
	OutcomeSuccess         = "success"
	OutcomeUnknownProvider = "unknown_provider"
	OutcomeStateMismatch   = "state_mismatch"
	OutcomeMissingCode     = "missing_code"
	OutcomeTokenExchange   = "token_exchange_failed"
	OutcomeProfileFetch    = "profile_fetch_failed"
	OutcomeMissingID       = "missing_provider_id"
	OutcomeLinkFailed      = "link_failed"
	OutcomeAccountDisabled = "account_disabled"
)

// Registry holds every metric below plus the Go runtime collectors.
var Registry = prometheus.NewRegistry()

var (
	// OAuthLoginsTotal counts terminal OAuth callback outcomes by provider.
	OAuthLoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minicms_oauth_logins_total",
			Help: "Total OAuth login attempts by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	// PasswordLoginsTotal counts password login attempts by result.
	PasswordLoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minicms_password_logins_total",
			Help: "Total password login attempts by result.",
		},
		[]string{"result"},
	)

	// DispatchTotal counts router dispatches. route is the matched template,
	// or "none" for not-found.
	DispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minicms_dispatch_total",
			Help: "Total admin router dispatches by method and matched route.",
		},
		[]string{"method", "route"},
	)

	// RequestDurationSeconds is a histogram of HTTP request durations.
	RequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "minicms_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "code"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		OAuthLoginsTotal,
		PasswordLoginsTotal,
		DispatchTotal,
		RequestDurationSeconds,
	)
}

// RecordOAuthLogin records one terminal OAuth callback outcome.
func RecordOAuthLogin(provider, outcome string) {
	OAuthLoginsTotal.WithLabelValues(provider, outcome).Inc()
}

// RecordPasswordLogin records a password login attempt.
func RecordPasswordLogin(ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	PasswordLoginsTotal.WithLabelValues(result).Inc()
}

// RecordDispatch matches the router observer signature.
func RecordDispatch(method, template string) {
	if template == "" {
		template = "none"
	}
	DispatchTotal.WithLabelValues(method, template).Inc()
}

// RecordRequest records a served HTTP request.
func RecordRequest(method string, code int, d time.Duration) {
	RequestDurationSeconds.WithLabelValues(method, strconv.Itoa(code)).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
