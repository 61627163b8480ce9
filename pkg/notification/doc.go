// Package notification implements the notification and health endpoints:
// request parsing and defaulting, template rendering, message construction
// and dispatch through the configured mail transport.
package notification
