// Command margin is the CLI for the margin daemon: paper management,
// reading sessions, the personal dashboard, and daemon control.
package main
