package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trainerbook",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trainerbook",
			Name:      "booking_transitions_total",
			Help:      "Booking status transitions by target status.",
		},
		[]string{"status"},
	)

	cascadeCancellations = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "trainerbook",
			Name:      "cascade_cancellations",
			Help:      "Pending bookings cancelled per confirmation.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8},
		},
	)

	slotResolveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "trainerbook",
			Name:      "slot_resolve_duration_seconds",
			Help:      "Time to resolve availability and generate slots.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingTransitions, cascadeCancellations, slotResolveDuration)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncBookingTransition counts a booking entering the given status.
func IncBookingTransition(status string) {
	bookingTransitions.WithLabelValues(status).Inc()
}

// ObserveCascade records how many pendings a confirmation cancelled.
func ObserveCascade(cancelled int) {
	cascadeCancellations.Observe(float64(cancelled))
}

// ObserveSlotResolve records a slot computation duration in seconds.
func ObserveSlotResolve(seconds float64) {
	slotResolveDuration.Observe(seconds)
}
