package notifier

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// deliveries cuenta intentos de entrega por canal.
	// Labels: channel, status (ok, unavailable, error)
	deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "med_reminder",
		Subsystem: "notify",
		Name:      "deliveries_total",
		Help:      "Notification delivery attempts by channel and status",
	}, []string{"channel", "status"})

	// failures cuenta entregas fallidas (incluye canales no disponibles).
	failures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "med_reminder",
		Subsystem: "notify",
		Name:      "failures_total",
		Help:      "Failed notification deliveries by channel",
	}, []string{"channel"})
)

func recordDelivery(channel, status string) {
	deliveries.WithLabelValues(channel, status).Inc()
	if status != statusOK {
		failures.WithLabelValues(channel).Inc()
	}
}
