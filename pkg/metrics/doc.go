// Package metrics defines Prometheus metrics for the notification service,
// covering notification outcomes, transport health probes and mail delivery.
package metrics
