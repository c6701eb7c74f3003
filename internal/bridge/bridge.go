// Package bridge is an HTTP client for the control surface of the ds9
// bridge sidecar: a health/status endpoint and fire-and-forget
// commands such as loading a file into the viewer. The examination
// session itself talks to the bridge over its CBOR socket; this
// surface exists for setup and diagnostics.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var ErrMissingBaseURL = errors.New("bridge: missing base url")

type Status struct {
	Bridge string
	Viewer string
}

// GetStatus fetches the bridge and viewer state. Transport problems
// come back as state "error" rather than a hard failure, so callers
// can report connectivity without special cases.
func GetStatus(ctx context.Context, baseURL string) Status {
	baseURL = strings.TrimRight(baseURL, "/")
	client := &http.Client{Timeout: 2 * time.Second}
	return Status{
		Bridge: fetchState(ctx, client, baseURL+"/status/bridge"),
		Viewer: fetchState(ctx, client, baseURL+"/status/viewer"),
	}
}

// CommandAsync asks the bridge to run a viewer command, e.g. loading
// a FITS file into the displayed frame. It does not wait for the
// command to finish.
func CommandAsync(baseURL, command string, value any) error {
	if baseURL == "" {
		return ErrMissingBaseURL
	}
	if command == "" {
		return errors.New("bridge: missing command")
	}
	baseURL = strings.TrimRight(baseURL, "/")

	var body io.Reader
	if value != nil {
		payload, err := json.Marshal(map[string]any{"value": value})
		if err != nil {
			return fmt.Errorf("bridge: encode command value: %w", err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(http.MethodPut, baseURL+"/command/"+command, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 2 * time.Second}
	go func() {
		resp, err := client.Do(req)
		if err != nil {
			return
		}
		_, _ = io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		_ = resp.Body.Close()
	}()
	return nil
}

func fetchState(ctx context.Context, client *http.Client, endpoint string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "error"
	}
	resp, err := client.Do(req)
	if err != nil {
		return "error"
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("http_%d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "error"
	}
	if len(body) == 0 {
		return "ok"
	}
	state, ok := extractState(body)
	if !ok {
		return "ok"
	}
	return state
}

func extractState(payload []byte) (string, bool) {
	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", false
	}
	state := findState(decoded)
	if state == "" {
		return "", false
	}
	return strings.ToLower(state), true
}

func findState(value any) string {
	switch v := value.(type) {
	case map[string]any:
		for _, key := range []string{"state", "status", "value"} {
			if entry, ok := v[key]; ok {
				switch inner := entry.(type) {
				case string:
					return inner
				default:
					if nested := findState(inner); nested != "" {
						return nested
					}
				}
			}
		}
	case []any:
		for _, entry := range v {
			if nested := findState(entry); nested != "" {
				return nested
			}
		}
	}
	return ""
}
