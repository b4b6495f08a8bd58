// internal/pkg/metrics/metrics.go
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PaymentMetrics tracks how checkout payments resolve.
type PaymentMetrics struct {
	Outcomes     *prometheus.CounterVec
	PollAttempts prometheus.Histogram
}

// NewPaymentMetrics registers and returns the payment metric set.
func NewPaymentMetrics() *PaymentMetrics {
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "store",
		Subsystem: "payments",
		Name:      "outcomes_total",
		Help:      "Terminal payment outcomes by gateway and state.",
	}, []string{"gateway", "state"})

	pollAttempts := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "store",
		Subsystem: "payments",
		Name:      "poll_attempts",
		Help:      "Status-lookup attempts consumed before a poll resolved.",
		Buckets:   []float64{1, 2, 3, 5, 8, 12, 16, 20},
	})

	prometheus.MustRegister(outcomes, pollAttempts)
	return &PaymentMetrics{Outcomes: outcomes, PollAttempts: pollAttempts}
}

// ObserveOutcome records one resolved payment attempt.
func (m *PaymentMetrics) ObserveOutcome(gateway, state string, attempts int) {
	if m == nil {
		return
	}
	m.Outcomes.WithLabelValues(gateway, state).Inc()
	if attempts > 0 {
		m.PollAttempts.Observe(float64(attempts))
	}
}

// Handler exposes the prometheus scrape endpoint as a gin handler.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
