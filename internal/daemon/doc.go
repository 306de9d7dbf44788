// Package daemon hosts margind's long-running services: the HTTP API that
// the dashboard and CLI talk to, the reminder sweeper, and the
// single-instance lock that keeps two daemons off one database.
package daemon
