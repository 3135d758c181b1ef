// Package aibridge is the optional AI explanation bridge: a thin client
// against a local Ollama-shaped HTTP endpoint, imported by pkg/httpapi only
// behind a capability check. It is never a hard dependency: an unreachable
// endpoint surfaces ErrAIUnavailable without aborting any other request.
package aibridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"netval/pkg/util"
)

const defaultTimeout = 30 * time.Second

// Bridge talks to a local Ollama-shaped generate endpoint. A zero-value
// Bridge (Endpoint == "") is always unavailable, matching a service that
// never configured the AI bridge.
type Bridge struct {
	Endpoint string
	Model    string
	client   *http.Client
}

// New builds a Bridge. timeout defaults to 30s when zero.
func New(endpoint, model string, timeout time.Duration) *Bridge {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Bridge{Endpoint: endpoint, Model: model, client: &http.Client{Timeout: timeout}}
}

// Available reports whether the configured endpoint currently responds,
// without side effects beyond the probe itself. Surfaced verbatim on
// GET /health as ollama_available.
func (b *Bridge) Available(ctx context.Context) bool {
	if b.Endpoint == "" {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.Endpoint+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Explain asks the bridge to produce a human-readable explanation of
// prompt (e.g. a finding's detail + suggested fix). Returns
// util.ErrAIUnavailable, never a transport error, when the bridge cannot be
// reached — callers (pkg/httpapi) translate that into the documented
// AIUnavailable flag rather than an HTTP failure.
func (b *Bridge) Explain(ctx context.Context, prompt string) (string, error) {
	if b.Endpoint == "" {
		return "", util.ErrAIUnavailable
	}

	body, err := json.Marshal(generateRequest{Model: b.Model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.Endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", util.ErrAIUnavailable
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		util.WithField("endpoint", b.Endpoint).Debugf("ai bridge unreachable: %v", err)
		return "", util.ErrAIUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", util.ErrAIUnavailable
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", util.ErrAIUnavailable
	}

	var out generateResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("ai bridge: decoding response: %w", err)
	}
	return out.Response, nil
}
