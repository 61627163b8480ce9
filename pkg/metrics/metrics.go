package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Notification outcome metrics. outcome is one of sent, validation_error,
	// template_error or transport_error.
	NotificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_notifications_total",
		Help: "Total number of notification requests grouped by template type and outcome",
	}, []string{"type", "outcome"})
	HealthChecksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_health_checks_total",
		Help: "Total number of mail transport health probes grouped by result",
	}, []string{"result"})

	// Mail metrics
	MailSendSuccess = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_mail_send_success_total",
		Help: "Total number of successful mail sends",
	}, []string{"host"})
	MailSendFailure = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_mail_send_failure_total",
		Help: "Total number of failed mail sends",
	}, []string{"host"})
)

func init() {
	prometheus.MustRegister(NotificationsTotal)
	prometheus.MustRegister(HealthChecksTotal)
	prometheus.MustRegister(MailSendSuccess)
	prometheus.MustRegister(MailSendFailure)
}

// MetricsHandler returns an http.Handler exposing Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
