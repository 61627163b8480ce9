// Package apiresponses provides the JSON response envelope shared by the
// notification and health endpoints and the server's fallback handlers.
package apiresponses
