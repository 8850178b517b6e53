package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AlertsFired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantcare_alerts_fired_total",
			Help: "Total number of alerts whose trigger fired",
		},
		[]string{"kind"}, // daily, weekly, once
	)

	AlertSendFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "plantcare_alert_send_failures_total",
			Help: "Total number of fired alerts that could not be delivered",
		},
	)

	AlertsReconciled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantcare_alerts_reconciled_total",
			Help: "Total number of alerts registered or cancelled by reconciliation",
		},
		[]string{"action"}, // registered, cancelled
	)

	TickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "plantcare_scheduler_tick_duration_seconds",
			Help:    "Duration of scheduler ticks",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	RemindersDue = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "plantcare_reminders_due",
			Help: "Enabled reminders due today or overdue at the last tick",
		},
	)
)
