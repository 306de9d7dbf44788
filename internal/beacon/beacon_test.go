package beacon_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"margin/internal/beacon"
)

func TestSendDeliversPayload(t *testing.T) {
	received := make(chan map[string]any, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		var payload map[string]any
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		received <- payload
	}))
	defer server.Close()

	d := beacon.New(server.Client(), nil)
	d.Send(server.URL, map[string]any{"status": "read", "outcome": "useful"})
	d.Flush()

	select {
	case payload := <-received:
		if payload["status"] != "read" {
			t.Fatalf("payload = %v", payload)
		}
	default:
		t.Fatal("beacon never arrived")
	}
}

func TestSendReturnsBeforeResponse(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()

	d := beacon.New(server.Client(), nil)
	d.Send(server.URL, map[string]string{"k": "v"})
	// Send must not block on the slow handler.
	close(release)
	d.Flush()
}

func TestSendSurvivesUnreachableTarget(t *testing.T) {
	d := beacon.New(nil, nil)
	d.Send("http://127.0.0.1:0/beacon", map[string]string{"k": "v"})
	d.Flush()
}
