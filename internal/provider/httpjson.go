package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// httpTimeout bounds every provider HTTP call. Local backends can be slow on
// first token, so this is generous.
const httpTimeout = 120 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// postJSON issues a POST with a JSON body and returns the raw response. The
// caller owns resp.Body.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return client.Do(req)
}

// statusError drains a bounded slice of the body and folds it into an error
// describing the failed call.
func statusError(backend string, resp *http.Response) error {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return fmt.Errorf("%s: HTTP %d", backend, resp.StatusCode)
	}
	return fmt.Errorf("%s: HTTP %d: %s", backend, resp.StatusCode, msg)
}

// scanSSE reads server-sent event lines from r and invokes fn with each
// "data:" payload. fn returning false stops the scan early.
func scanSSE(r io.Reader, fn func(data string) bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if !fn(data) {
			return nil
		}
	}
	return scanner.Err()
}

// scanLines reads newline-delimited JSON objects from r and invokes fn with
// each line. fn returning false stops the scan early.
func scanLines(r io.Reader, fn func(line string) bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !fn(line) {
			return nil
		}
	}
	return scanner.Err()
}
