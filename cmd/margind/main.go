// Command margind is the margin daemon: it owns the SQLite store,
// serves the dashboard HTTP API, runs the reminder sweeper, and answers
// CLI control requests over a Unix socket.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"margin/internal/config"
	"margin/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "Configuration file path")
	logLevel := flag.String("log-level", "", "Override the configured log level")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{LogLevel: *logLevel}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
