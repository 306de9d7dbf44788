// Package daemonctl drives the daemon process from the CLI. It spawns
// margind when no control socket answers, polls until the IPC surface is
// up, and handles stop and restart with a force-kill fallback.
package daemonctl

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"margin/internal/ipc"
)

const pollInterval = 200 * time.Millisecond

// LaunchOptions controls how the daemon process is spawned.
type LaunchOptions struct {
	ConfigPath string
}

// StartState describes the outcome of EnsureStarted.
type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
	StartStateRequested      StartState = "start_requested"
)

// StartResult captures what EnsureStarted did and observed.
type StartResult struct {
	State    StartState
	Launched bool
	Message  string
}

// StopResult captures what StopAndTerminate did and observed.
type StopResult struct {
	StopAcknowledged bool
	ForcedKill       bool
	PID              int
}

// RestartResult combines the stop and start halves of a restart.
type RestartResult struct {
	WasRunning bool
	Stop       StopResult
	Start      StartResult
}

// ErrDaemonNotRunning indicates no daemon answered on the control socket.
var ErrDaemonNotRunning = errors.New("daemon not running")

// EnsureStarted guarantees a running daemon: it connects to an existing
// one or spawns margind and waits for its socket, then issues a Start in
// case the process is up but idle.
func EnsureStarted(socketPath, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	launched := false
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if err := spawn(executablePath, opts); err != nil {
			return StartResult{}, err
		}
		client, err = awaitSocket(socketPath, waitTimeout)
		if err != nil {
			return StartResult{}, err
		}
		launched = true
	}
	defer client.Close()

	if status, err := client.Status(); err == nil && status != nil && status.Running {
		if launched {
			return StartResult{State: StartStateStarted, Launched: true}, nil
		}
		return StartResult{State: StartStateAlreadyRunning}, nil
	}

	resp, err := client.Start()
	if err != nil {
		return StartResult{}, err
	}
	result := StartResult{State: StartStateRequested, Launched: launched, Message: "Start request sent"}
	if resp == nil {
		return result, nil
	}
	result.Message = strings.TrimSpace(resp.Message)
	switch {
	case resp.Started:
		result.State = StartStateStarted
	case strings.EqualFold(result.Message, "daemon already running"):
		// The process raced us and started itself between our Status
		// check and the Start call.
		if launched {
			result.State = StartStateStarted
		} else {
			result.State = StartStateAlreadyRunning
		}
	case result.Message == "":
		result.Message = "Start request sent"
	}
	return result, nil
}

// StopAndTerminate asks the daemon to stop and, if it is still answering
// after gracePeriod, kills the process outright.
func StopAndTerminate(socketPath string, gracePeriod time.Duration) (StopResult, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if socketGone(err) {
			return StopResult{}, ErrDaemonNotRunning
		}
		return StopResult{}, err
	}
	var result StopResult
	if status, err := client.Status(); err == nil && status != nil {
		result.PID = status.PID
	}
	resp, err := client.Stop()
	_ = client.Close()
	if err != nil {
		return StopResult{}, err
	}
	if resp != nil {
		result.StopAcknowledged = resp.Stopped
	}

	_ = awaitShutdown(socketPath, gracePeriod)

	// The daemon answers on the socket until its process exits, so a
	// reachable socket after the grace period means the process is still
	// alive even when it reports itself stopped.
	state, err := probe(socketPath)
	if err != nil || !state.reachable {
		return result, nil
	}

	pid := state.pid
	if pid == 0 {
		pid = result.PID
	}
	if pid <= 0 {
		return result, fmt.Errorf("daemon still running and pid unknown")
	}
	if pid == os.Getpid() {
		return result, fmt.Errorf("refusing to kill current process (pid %d)", pid)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return result, fmt.Errorf("locate daemon process %d: %w", pid, err)
	}
	if err := proc.Kill(); err != nil {
		return result, fmt.Errorf("kill daemon process %d: %w", pid, err)
	}
	_ = os.Remove(socketPath)
	result.ForcedKill = true
	result.PID = pid
	return result, nil
}

// Restart stops a running daemon, tolerating one that is not running,
// then ensures a fresh one is started.
func Restart(socketPath, executablePath string, opts LaunchOptions, stopGracePeriod, startWaitTimeout time.Duration) (RestartResult, error) {
	stop, stopErr := StopAndTerminate(socketPath, stopGracePeriod)
	if stopErr != nil && !errors.Is(stopErr, ErrDaemonNotRunning) {
		return RestartResult{}, stopErr
	}
	start, err := EnsureStarted(socketPath, executablePath, opts, startWaitTimeout)
	if err != nil {
		return RestartResult{}, err
	}
	return RestartResult{WasRunning: stopErr == nil, Stop: stop, Start: start}, nil
}

// spawn starts a detached margind process and disowns it.
func spawn(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return errors.New("daemon executable path is empty")
	}
	var args []string
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}
	proc := exec.Command(executablePath, args...)
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// awaitSocket polls the control socket until it accepts a connection.
func awaitSocket(socketPath string, timeout time.Duration) (*ipc.Client, error) {
	var lastErr error
	for deadline := time.Now().Add(timeout); time.Now().Before(deadline); time.Sleep(pollInterval) {
		client, err := ipc.Dial(socketPath)
		if err == nil {
			return client, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("timeout waiting for daemon")
	}
	return nil, fmt.Errorf("daemon failed to start: %w", lastErr)
}

// awaitShutdown polls until the socket disappears or the daemon reports
// itself stopped.
func awaitShutdown(socketPath string, timeout time.Duration) error {
	var lastErr error
	for deadline := time.Now().Add(timeout); time.Now().Before(deadline); time.Sleep(pollInterval) {
		state, err := probe(socketPath)
		if err == nil && (!state.reachable || !state.running) {
			return nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = errors.New("daemon still running")
		}
	}
	if lastErr == nil {
		lastErr = errors.New("timeout waiting for shutdown")
	}
	return fmt.Errorf("daemon did not stop: %w", lastErr)
}

type probeState struct {
	reachable bool
	running   bool
	pid       int
}

// probe reports whether anything answers on the socket and what the
// daemon says about itself.
func probe(socketPath string) (probeState, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if socketGone(err) {
			return probeState{}, nil
		}
		return probeState{}, err
	}
	defer client.Close()
	status, err := client.Status()
	if err != nil {
		return probeState{reachable: true}, err
	}
	state := probeState{reachable: true}
	if status != nil {
		state.running = status.Running
		state.pid = status.PID
	}
	return state, nil
}

func socketGone(err error) bool {
	return os.IsNotExist(err) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ECONNREFUSED)
}
