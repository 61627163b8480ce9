// Package config loads the notifier configuration.
//
// Values come from, in increasing order of precedence, built-in defaults, an
// optional config file, .env files and the process environment. Keys are the
// usual MAIL_* environment names (MAIL_SERVER, MAIL_PORT and friends).
package config
