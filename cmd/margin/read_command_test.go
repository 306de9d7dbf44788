package main

import (
	"context"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"
)

func TestWatchSuspendFlushesBeforeStopping(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var order []string
	stopped := make(chan struct{})

	suspends := make(chan os.Signal, 1)
	go watchSuspend(ctx, suspends,
		func() {
			mu.Lock()
			order = append(order, "flush")
			mu.Unlock()
		},
		func() {
			mu.Lock()
			order = append(order, "stop")
			mu.Unlock()
			close(stopped)
		})

	suspends <- syscall.SIGTSTP
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("suspend was never handled")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "flush" || order[1] != "stop" {
		t.Fatalf("order = %v", order)
	}
}

func TestWatchSuspendStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	suspends := make(chan os.Signal, 1)
	done := make(chan struct{})
	go func() {
		watchSuspend(ctx, suspends, func() {}, func() {})
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not exit on cancel")
	}
}
