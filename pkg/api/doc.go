// Package api implements the Gin-based HTTP server hosting the notification
// controllers, the service banner, Prometheus metrics and request-scoped logging.
package api
