// Package client is a small HTTP client for the notification service, used by
// the notifier CLI to send notifications and probe a running server.
package client
