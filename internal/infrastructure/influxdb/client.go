package influxdb

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/nerrad567/gray-logic-electrolux/internal/infrastructure/config"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultPingTimeout    = 5 * time.Second

	defaultBatchSize    = 100
	defaultFlushSeconds = 10

	// SiteTag is added to every point so several bridges can share a bucket.
	SiteTag = "site"
)

// Client records appliance entity values and alerts in InfluxDB v2.
//
// Writes are batched by the non-blocking write API. Failures surface
// through the SetOnError callback and are counted by WriteErrors.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI

	open bool
	mu   sync.RWMutex

	onError     func(err error)
	writeErrors atomic.Uint64
}

// Connect creates a token-authenticated client, pings the server and opens
// a batching write API on the configured org and bucket.
//
// Parameters:
//   - cfg: InfluxDB configuration from config.yaml
//   - siteID: Value of the site tag on every point; empty omits the tag
//
// Returns:
//   - *Client: Connected client ready for use
//   - error: ErrDisabled, or a wrapped ErrConnectionFailed
func Connect(cfg config.InfluxDBConfig, siteID string) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, clientOptions(cfg, siteID))

	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
	defer cancel()

	if err := ping(ctx, client); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	c := &Client{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
		open:     true,
	}
	go c.drainErrors(c.writeAPI.Errors())
	return c, nil
}

// clientOptions maps the config onto client options. Batch size and flush
// interval fall back to their defaults when unset.
func clientOptions(cfg config.InfluxDBConfig, siteID string) *influxdb2.Options {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	flush := cfg.FlushInterval
	if flush <= 0 {
		flush = defaultFlushSeconds
	}

	// #nosec G115 -- both values are positive here
	opts := influxdb2.DefaultOptions().
		SetBatchSize(uint(batch)).
		SetFlushInterval(uint(time.Duration(flush) * time.Second / time.Millisecond))
	if siteID != "" {
		opts.AddDefaultTag(SiteTag, siteID)
	}
	return opts
}

func ping(ctx context.Context, client influxdb2.Client) error {
	healthy, err := client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	if !healthy {
		return fmt.Errorf("server not healthy")
	}
	return nil
}

func (c *Client) drainErrors(errs <-chan error) {
	for err := range errs {
		c.writeErrors.Add(1)

		c.mu.RLock()
		callback := c.onError
		c.mu.RUnlock()
		if callback != nil {
			callback(err)
		}
	}
}

// Close flushes pending points and closes the client.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}

	c.mu.Lock()
	wasOpen := c.open
	c.open = false
	c.mu.Unlock()

	if wasOpen {
		c.writeAPI.Flush()
		c.client.Close()
	}
	return nil
}

// HealthCheck pings the server.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	checkCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	if err := ping(checkCtx, c.client); err != nil {
		return fmt.Errorf("influxdb health check: %w", err)
	}
	return nil
}

// IsConnected reports whether the client is open. A nil client is never
// connected, so writers can hold an optional *Client.
func (c *Client) IsConnected() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.open
}

// SetOnError sets the callback for asynchronous write failures.
func (c *Client) SetOnError(callback func(err error)) {
	c.mu.Lock()
	c.onError = callback
	c.mu.Unlock()
}

// WriteErrors returns the number of asynchronous write failures so far.
func (c *Client) WriteErrors() uint64 {
	if c == nil {
		return 0
	}
	return c.writeErrors.Load()
}

// Flush blocks until buffered points are written. No-op after Close.
func (c *Client) Flush() {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.Flush()
}
