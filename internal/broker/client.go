package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/ninelinehq/ConnectPortal_Go/internal/domain"
	"github.com/ninelinehq/ConnectPortal_Go/internal/logger"
)

// Client talks to the external connect broker over HTTPS. All calls are
// authenticated with OAuth2 client credentials; the token source caches
// and refreshes the bearer token transparently.
type Client struct {
	host        string
	projectID   string
	environment string
	httpClient  *http.Client
}

// Config holds the credentials needed to reach the broker
type Config struct {
	Host         string
	ProjectID    string
	ClientID     string
	ClientSecret string
	Environment  string
}

// NewClient creates a broker client with client-credentials auth
func NewClient(cfg Config) *Client {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.Host + PathOAuthToken,
	}

	httpClient := cc.Client(context.Background())
	httpClient.Timeout = DefaultTimeout

	return &Client{
		host:        cfg.Host,
		projectID:   cfg.ProjectID,
		environment: cfg.Environment,
		httpClient:  httpClient,
	}
}

// NewClientWithHTTPClient creates a client with a caller-supplied HTTP
// client. Used by tests to point at an httptest server without the
// OAuth2 exchange.
func NewClientWithHTTPClient(cfg Config, httpClient *http.Client) *Client {
	return &Client{
		host:        cfg.Host,
		projectID:   cfg.ProjectID,
		environment: cfg.Environment,
		httpClient:  httpClient,
	}
}

// Ping verifies the broker is reachable. Used by the readiness probe.
func (c *Client) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set(ParamLimit, "1")
	var out appsResponse
	if err := c.doJSON(ctx, http.MethodGet, PathApps, q, nil, &out); err != nil {
		return fmt.Errorf("broker ping: %w", err)
	}
	return nil
}

// doJSON performs one broker round trip: marshal the body if present,
// send, check the status, decode into out. Non-2xx responses map to
// domain.ErrBrokerUnavailable so callers never branch on raw status
// codes.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	log := logger.FromContext(ctx)

	u := c.host + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set(HeaderContentType, ContentTypeJSON)
	}
	if c.environment != "" {
		req.Header.Set(HeaderEnvironment, c.environment)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error(LogMsgRequestFailed, "method", method, "path", path, "error", err)
		return fmt.Errorf("%w: %v", domain.ErrBrokerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a bounded slice of the body for the log line only;
		// upstream error bodies are not part of our API surface.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Error(LogMsgBadStatus, "method", method, "path", path,
			"status", resp.StatusCode, "body", string(snippet))
		return fmt.Errorf("%w: status %d", domain.ErrBrokerUnavailable, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Error(LogMsgDecodeFailed, "method", method, "path", path, "error", err)
		return fmt.Errorf("%w: %v", domain.ErrBrokerUnavailable, err)
	}
	return nil
}
