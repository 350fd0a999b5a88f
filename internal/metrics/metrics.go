package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Technical metrics
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	ResponseTime = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_response_time_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
	}, []string{"method", "route"})

	// Business metrics
	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rental_status_transitions_total",
		Help: "Rental status changes by resulting status and outcome",
	}, []string{"to", "outcome"})

	EmailsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "emails_total",
		Help: "Notification emails by type and logged status",
	}, []string{"type", "status"})

	RemindersSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "return_reminders_total",
		Help: "Return reminder sweep results",
	}, []string{"result"})

	OutboxProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_entries_processed_total",
		Help: "Outbox entries processed by final status",
	}, []string{"status"})

	PaymentsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_recorded_total",
		Help: "Total number of payments recorded",
	})

	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cron_job_runs_total",
		Help: "Scheduled job executions by job and outcome",
	}, []string{"job", "outcome"})
)
