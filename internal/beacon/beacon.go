// Package beacon sends small fire-and-forget notifications whose delivery
// must be initiated even when the sender is about to exit. Send starts the
// request before returning; whether it completes is not observable.
package beacon

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"margin/internal/logging"
)

const defaultTimeout = 5 * time.Second

// Dispatcher posts JSON payloads without waiting for the response.
type Dispatcher struct {
	httpClient *http.Client
	logger     *slog.Logger
	wg         sync.WaitGroup
}

// New builds a Dispatcher. A nil client gets a short-timeout default; the
// deadline only bounds the in-flight request, the caller never waits on it.
func New(client *http.Client, logger *slog.Logger) *Dispatcher {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Dispatcher{
		httpClient: client,
		logger:     logging.NewComponentLogger(logger, "beacon"),
	}
}

// Send serializes payload and starts a POST to url in the background. It
// returns once the request has been handed off; failures are logged, never
// returned. A payload that cannot be serialized is dropped.
func (d *Dispatcher) Send(url string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		d.logger.Warn("beacon payload not serializable", logging.Error(err))
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.post(url, body)
	}()
}

func (d *Dispatcher) post(url string, body []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		d.logger.Warn("beacon request invalid", logging.String("url", url), logging.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := d.httpClient.Do(req)
	if err != nil {
		d.logger.Debug("beacon delivery failed", logging.String("url", url), logging.Error(err))
		return
	}
	resp.Body.Close()
}

// Flush blocks until every dispatched beacon has finished or failed. Used
// by tests and orderly shutdown paths that can afford to wait.
func (d *Dispatcher) Flush() {
	d.wg.Wait()
}
