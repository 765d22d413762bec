package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "washbook",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	submissions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "washbook",
			Name:      "reservations_created_total",
			Help:      "Reservations persisted by guest submissions.",
		},
	)

	statusUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "washbook",
			Name:      "status_updates_total",
			Help:      "Status overwrites by resulting status.",
		},
		[]string{"status"},
	)

	doneToggles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "washbook",
			Name:      "done_toggles_total",
			Help:      "Done flag overwrites.",
		},
	)

	writeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "washbook",
			Name:      "write_failures_total",
			Help:      "Failed store writes by operation.",
		},
		[]string{"op"},
	)

	snapshotDeliveries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "washbook",
			Name:      "snapshot_deliveries_total",
			Help:      "Full snapshots delivered to subscribers.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			submissions,
			statusUpdates,
			doneToggles,
			writeFailures,
			snapshotDeliveries,
		)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncSubmission() {
	submissions.Inc()
}

func IncStatusUpdate(status string) {
	statusUpdates.WithLabelValues(status).Inc()
}

func IncDoneToggle() {
	doneToggles.Inc()
}

func IncWriteFailure(op string) {
	writeFailures.WithLabelValues(op).Inc()
}

func IncSnapshotDelivered() {
	snapshotDeliveries.Inc()
}
