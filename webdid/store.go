package webdid

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pilacorp/go-did-linkage/common/credential"
)

// CredentialStore lists issued credentials and exports their event-log
// fragments.
type CredentialStore interface {
	ListCredentials(ctx context.Context, issuerAID, schemaSAID string) ([]*credential.DesignatedAliases, error)
	GetCredentialEventExport(ctx context.Context, said string) ([]byte, error)
}

// HTTPCredentialStore is a CredentialStore backed by the agent's credential
// endpoints.
type HTTPCredentialStore struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPCredentialStore creates a credential store client.
func NewHTTPCredentialStore(baseURL string) *HTTPCredentialStore {
	return &HTTPCredentialStore{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// credentialListResponse wraps the agent's credential list payload.
type credentialListResponse struct {
	Data []json.RawMessage `json:"data"`
}

// ListCredentials fetches credentials issued by issuerAID under schemaSAID.
// Entries that fail to parse are skipped; a response with no parseable
// credential yields an empty list, not an error.
func (s *HTTPCredentialStore) ListCredentials(ctx context.Context, issuerAID, schemaSAID string) ([]*credential.DesignatedAliases, error) {
	apiURL := fmt.Sprintf("%s/credentials?issuer=%s&schema=%s",
		s.baseURL, url.QueryEscape(issuerAID), url.QueryEscape(schemaSAID))

	body, err := s.get(ctx, apiURL)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials for %s: %w", issuerAID, err)
	}

	var resp credentialListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credential list: %w", err)
	}

	creds := make([]*credential.DesignatedAliases, 0, len(resp.Data))
	for _, raw := range resp.Data {
		da, err := credential.Parse(raw)
		if err != nil {
			continue
		}
		creds = append(creds, da)
	}

	return creds, nil
}

// GetCredentialEventExport fetches the CESR event-log fragment for the
// credential identified by said.
func (s *HTTPCredentialStore) GetCredentialEventExport(ctx context.Context, said string) ([]byte, error) {
	body, err := s.get(ctx, fmt.Sprintf("%s/credentials/%s/export", s.baseURL, url.PathEscape(said)))
	if err != nil {
		return nil, fmt.Errorf("failed to export credential %s: %w", said, err)
	}
	return body, nil
}

func (s *HTTPCredentialStore) get(ctx context.Context, apiURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request to credential store: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("credential store API returned non-200 status: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read credential store response body: %w", err)
	}

	return body, nil
}
