package webdid

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// KeyState is a snapshot of an identifier's current key material as reported
// by the protocol agent.
type KeyState struct {
	Identifier        string   `json:"i"`
	SequenceNumber    string   `json:"s"`
	CurrentSigningKey []string `json:"k"`
	NextKeyDigests    []string `json:"n"`
	WitnessThreshold  string   `json:"bt"`
	Witnesses         []string `json:"b"`
}

// KeyStateSource provides current key state for an identifier.
type KeyStateSource interface {
	GetKeyState(ctx context.Context, aid string) (*KeyState, error)
}

// EventLogSource provides the raw CESR event-log export for an identifier.
type EventLogSource interface {
	GetEventLog(ctx context.Context, aid string) ([]byte, error)
}

// AgentClient is an HTTP client against the protocol agent. It serves both
// as the direct key-state fallback and as the event-log source.
type AgentClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAgentClient creates an agent client with a sensible default timeout and
// an instrumented transport.
func NewAgentClient(baseURL string) *AgentClient {
	return &AgentClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// GetKeyState fetches the key state for aid, retrying transient failures
// with bounded exponential backoff.
func (c *AgentClient) GetKeyState(ctx context.Context, aid string) (*KeyState, error) {
	var state *KeyState

	operation := func() error {
		body, err := c.get(ctx, fmt.Sprintf("%s/keystate/%s", c.baseURL, url.PathEscape(aid)))
		if err != nil {
			return err
		}

		var ks KeyState
		if err := json.Unmarshal(body, &ks); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to unmarshal key state: %w", err))
		}
		state = &ks
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("failed to fetch key state for %s: %w", aid, err)
	}

	return state, nil
}

// GetEventLog fetches the raw CESR event-log export for aid.
func (c *AgentClient) GetEventLog(ctx context.Context, aid string) ([]byte, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/oobi/%s", c.baseURL, url.PathEscape(aid)))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event log for %s: %w", aid, err)
	}
	return body, nil
}

func (c *AgentClient) get(ctx context.Context, apiURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request to agent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("agent API returned non-200 status: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read agent response body: %w", err)
	}

	return body, nil
}
