package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/status/bridge":
			_, _ = w.Write([]byte(`{"value": {"state": "ready"}}`))
		case "/status/viewer":
			_, _ = w.Write([]byte(`{"state": "IDLE"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	status := GetStatus(context.Background(), server.URL)
	if status.Bridge != "ready" {
		t.Errorf("Bridge = %q, want ready", status.Bridge)
	}
	if status.Viewer != "idle" {
		t.Errorf("Viewer = %q, want idle", status.Viewer)
	}
}

func TestGetStatusUnreachable(t *testing.T) {
	status := GetStatus(context.Background(), "http://127.0.0.1:1")
	if status.Bridge != "error" || status.Viewer != "error" {
		t.Errorf("status = %+v, want error/error", status)
	}
}

func TestCommandAsync(t *testing.T) {
	got := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		got <- r.URL.Path + " " + body["value"].(string)
	}))
	defer server.Close()

	if err := CommandAsync(server.URL, "load", "m51.fits"); err != nil {
		t.Fatalf("CommandAsync failed: %v", err)
	}

	select {
	case req := <-got:
		if req != "/command/load m51.fits" {
			t.Errorf("request = %q", req)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("command never reached the bridge")
	}
}

func TestCommandAsyncValidation(t *testing.T) {
	if err := CommandAsync("", "load", nil); err == nil {
		t.Errorf("empty base url accepted")
	}
	if err := CommandAsync("http://localhost:7002", "", nil); err == nil {
		t.Errorf("empty command accepted")
	}
}
