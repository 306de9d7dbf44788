// Package api defines the transport DTOs shared by the daemon's HTTP
// surface and the CLI client, plus thin services that adapt store records
// into them.
package api
