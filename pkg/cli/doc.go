// Package cli implements the notifier command line: the serve command that runs
// the HTTP service, local template tooling, and thin remote commands that talk
// to a running server.
package cli
