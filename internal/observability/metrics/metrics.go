package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qorlia_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "qorlia_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	authAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qorlia_auth_attempts_total",
		Help: "Count of authentication operations by result",
	}, []string{"operation", "result"})

	provisionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qorlia_provision_requests_total",
		Help: "Count of workspace provisioning requests by stack",
	}, []string{"stack"})

	subscriptionsByStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "qorlia_subscriptions",
		Help: "Number of subscription records by lifecycle status",
	}, []string{"status"})

	workspaceJobsByStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "qorlia_workspace_jobs",
		Help: "Number of workspace provisioning jobs by lifecycle status",
	}, []string{"status"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveAuthAttempt counts a register/login/refresh outcome.
func ObserveAuthAttempt(operation, result string) {
	authAttempts.WithLabelValues(operation, result).Inc()
}

// ObserveProvisionRequest counts a workspace request for a stack.
func ObserveProvisionRequest(stack string) {
	provisionRequests.WithLabelValues(stack).Inc()
}

// SetSubscriptions sets the subscription gauge for one status.
func SetSubscriptions(status string, count int) {
	subscriptionsByStatus.WithLabelValues(status).Set(float64(count))
}

// SetWorkspaceJobs sets the workspace job gauge for one status.
func SetWorkspaceJobs(status string, count int) {
	workspaceJobsByStatus.WithLabelValues(status).Set(float64(count))
}
