package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-electrolux/internal/capability"
)

// DefaultBaseURL is the public appliance API.
const DefaultBaseURL = "https://api.developer.electrolux.one/api/v1"

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 512

// Logger defines the logging interface used by Client and Stream.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures a Client.
type Options struct {
	BaseURL string
	APIKey  string
	Token   string
	Timeout time.Duration

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// Client calls the appliance cloud REST API. It is safe for concurrent use.
type Client struct {
	base   string
	apiKey string
	token  string
	http   *http.Client
	logger Logger
}

// NewClient creates a cloud client.
func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" || opts.Token == "" {
		return nil, ErrMissingCredentials
	}
	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		apiKey: opts.APIKey,
		token:  opts.Token,
		http:   hc,
		logger: noopLogger{},
	}, nil
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// ListAppliances returns the appliances on the account.
func (c *Client) ListAppliances(ctx context.Context) ([]ApplianceSummary, error) {
	var out []ApplianceSummary
	if err := c.do(ctx, http.MethodGet, "/appliances", nil, &out); err != nil {
		return nil, fmt.Errorf("listing appliances: %w", err)
	}
	return out, nil
}

// GetApplianceInfo returns the static description of an appliance.
func (c *Client) GetApplianceInfo(ctx context.Context, id string) (ApplianceInfo, error) {
	info, err := c.info(ctx, id)
	if err != nil {
		return ApplianceInfo{}, err
	}
	return info.Info, nil
}

// GetCapabilities returns the capability registry of an appliance.
// Returns ErrNoCapabilities when the cloud reports none.
func (c *Client) GetCapabilities(ctx context.Context, id string) (capability.Registry, error) {
	info, err := c.info(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(info.Capabilities) == 0 {
		return nil, fmt.Errorf("appliance %s: %w", id, ErrNoCapabilities)
	}
	return capability.Registry(info.Capabilities), nil
}

func (c *Client) info(ctx context.Context, id string) (infoResponse, error) {
	var out infoResponse
	if err := c.do(ctx, http.MethodGet, "/appliances/"+url.PathEscape(id)+"/info", nil, &out); err != nil {
		return infoResponse{}, fmt.Errorf("getting appliance %s info: %w", id, err)
	}
	return out, nil
}

// GetState returns the full state document of an appliance.
func (c *Client) GetState(ctx context.Context, id string) (map[string]any, error) {
	var out map[string]any
	if err := c.do(ctx, http.MethodGet, "/appliances/"+url.PathEscape(id)+"/state", nil, &out); err != nil {
		return nil, fmt.Errorf("getting appliance %s state: %w", id, err)
	}
	return out, nil
}

// SendCommand sends a command payload to an appliance.
func (c *Client) SendCommand(ctx context.Context, id string, payload map[string]any) error {
	if err := c.do(ctx, http.MethodPut, "/appliances/"+url.PathEscape(id)+"/command", payload, nil); err != nil {
		return fmt.Errorf("sending command to %s: %w", id, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.logger.Debug("cloud request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
