package observability

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	paymentStatusApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_status_applied_total",
			Help: "Payment status changes applied, by new status",
		},
		[]string{"status"},
	)

	cascadeStepFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cascade_step_failures_total",
			Help: "Failed sub-steps of the payment approval cascade",
		},
		[]string{"step"},
	)

	eventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Lifecycle events handed to the event sink, by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(paymentStatusApplied)
	prometheus.MustRegister(cascadeStepFailures)
	prometheus.MustRegister(eventsPublished)
}

func PrometheusHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func RecordPaymentStatus(status string) {
	paymentStatusApplied.WithLabelValues(status).Inc()
}

func RecordCascadeFailure(step string) {
	cascadeStepFailures.WithLabelValues(step).Inc()
}

// RecordEvent counts an event delivery outcome: "ok", "retry", "dropped".
func RecordEvent(result string) {
	eventsPublished.WithLabelValues(result).Inc()
}
