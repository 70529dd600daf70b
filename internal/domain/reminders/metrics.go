package reminders

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "med_reminder",
		Subsystem: "scheduler",
		Name:      "ticks_total",
		Help:      "Dispatcher evaluations",
	})

	// ticksBusy cuenta ticks en los que el slot de alarma estaba ocupado.
	ticksBusy = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "med_reminder",
		Subsystem: "scheduler",
		Name:      "ticks_skipped_total",
		Help:      "Ticks evaluated while an alarm session was active",
	})

	invalidSchedules = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "med_reminder",
		Subsystem: "scheduler",
		Name:      "invalid_schedules_total",
		Help:      "Medications skipped by the dispatcher because of a malformed schedule",
	})

	pendingGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "med_reminder",
		Subsystem: "scheduler",
		Name:      "pending_occurrences",
		Help:      "Occurrences waiting for the alarm slot",
	})

	// alarmsTotal cuenta transiciones de sesión.
	// Labels: outcome (raised, acknowledged, postponed, dismissed, cancelled)
	alarmsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "med_reminder",
		Subsystem: "alarms",
		Name:      "total",
		Help:      "Alarm session transitions by outcome",
	}, []string{"outcome"})

	persistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "med_reminder",
		Name:      "persist_failures_total",
		Help:      "Medication store writes that failed and were left for retry",
	})
)

const (
	outcomeRaised       = "raised"
	outcomeAcknowledged = "acknowledged"
	outcomePostponed    = "postponed"
	outcomeDismissed    = "dismissed"
	outcomeCancelled    = "cancelled"
)

func recordTick(d Decision, pending int) {
	ticksTotal.Inc()
	if d.Busy {
		ticksBusy.Inc()
	}
	if n := len(d.Skipped); n > 0 {
		invalidSchedules.Add(float64(n))
	}
	if d.Raise != nil {
		alarmsTotal.WithLabelValues(outcomeRaised).Inc()
	}
	pendingGauge.Set(float64(pending))
}

func recordOutcome(outcome string) {
	alarmsTotal.WithLabelValues(outcome).Inc()
}

func recordPersistFailure() {
	persistFailures.Inc()
}
