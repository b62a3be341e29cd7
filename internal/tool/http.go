package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// httpTimeout bounds a single request.
const httpTimeout = 10 * time.Second

// httpBodyLimit caps response bodies returned to the provider.
const httpBodyLimit = 2000

// HTTPTool makes bounded GET and POST requests.
type HTTPTool struct {
	client *http.Client
}

// NewHTTPTool creates an HTTP tool with the default timeout.
func NewHTTPTool() *HTTPTool {
	return &HTTPTool{client: &http.Client{Timeout: httpTimeout}}
}

func (h *HTTPTool) Name() string { return "http_request" }

func (h *HTTPTool) Description() string {
	return "Make HTTP GET or POST requests to web APIs and services."
}

func (h *HTTPTool) Definition() Definition {
	return Definition{
		Name:        h.Name(),
		Description: h.Description(),
		Parameters: map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "The URL to request",
			},
			"method": map[string]any{
				"type":        "string",
				"enum":        []string{"GET", "POST"},
				"description": "HTTP method to use",
			},
			"headers": map[string]any{
				"type":        "object",
				"description": "Optional HTTP headers as key-value pairs",
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Request body for POST requests",
			},
		},
		Required: []string{"url", "method"},
	}
}

func (h *HTTPTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	url, err := stringArg(args, "url")
	if err != nil {
		return "", err
	}
	method := strings.ToUpper(optionalStringArg(args, "method"))
	if method == "" {
		method = http.MethodGet
	}
	if method != http.MethodGet && method != http.MethodPost {
		return fmt.Sprintf("Error: unsupported method %q", method), nil
	}

	var body io.Reader
	if method == http.MethodPost {
		body = strings.NewReader(optionalStringArg(args, "body"))
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Sprintf("Error: invalid request: %v", err), nil
	}
	if headers, ok := args["headers"].(map[string]any); ok {
		for k, v := range headers {
			if s, ok := v.(string); ok {
				req.Header.Set(k, s)
			}
		}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Sprintf("Error making HTTP request: %v", err), nil
	}
	defer resp.Body.Close()

	// Read past the display limit so truncate can report the overflow,
	// but never unbounded.
	raw, err := io.ReadAll(io.LimitReader(resp.Body, httpBodyLimit*4))
	if err != nil {
		return fmt.Sprintf("Error reading response body: %v", err), nil
	}

	result := map[string]any{
		"status_code": resp.StatusCode,
		"body":        truncate(string(raw), httpBodyLimit),
	}
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding response: %w", err)
	}
	return string(out), nil
}
