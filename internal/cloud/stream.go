package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// DefaultStreamURL is the live update endpoint.
const DefaultStreamURL = "wss://ws.developer.electrolux.one/api/v1/appliances/state"

// Stream timing.
const (
	handshakeTimeout = 15 * time.Second
	writeWait        = 10 * time.Second
)

// StreamOptions configures a Stream.
type StreamOptions struct {
	URL    string
	APIKey string
	Token  string

	// Dialer overrides the default websocket dialer, mainly for tests.
	Dialer *websocket.Dialer
}

// Stream subscribes to live appliance state updates.
type Stream struct {
	url    string
	apiKey string
	token  string
	dialer *websocket.Dialer
	logger Logger
}

// NewStream creates a live update stream.
func NewStream(opts StreamOptions) (*Stream, error) {
	if opts.APIKey == "" || opts.Token == "" {
		return nil, ErrMissingCredentials
	}
	u := opts.URL
	if u == "" {
		u = DefaultStreamURL
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		}
	}
	return &Stream{
		url:    u,
		apiKey: opts.APIKey,
		token:  opts.Token,
		dialer: dialer,
		logger: noopLogger{},
	}, nil
}

// SetLogger sets the logger for the stream.
func (s *Stream) SetLogger(logger Logger) {
	s.logger = logger
}

// subscribeMessage is sent once after connecting.
type subscribeMessage struct {
	Action       string   `json:"action"`
	RequestID    string   `json:"requestId"`
	ApplianceIDs []string `json:"applianceIds"`
}

// updateMessage is one pushed update. The cloud sends either a single
// property or a set of properties per message.
type updateMessage struct {
	ApplianceID string         `json:"applianceId"`
	Property    string         `json:"property"`
	Value       any            `json:"value"`
	Properties  map[string]any `json:"properties"`
}

// Watch connects, subscribes to the given appliances and calls fn with one
// batch per received message until ctx is cancelled or the connection
// fails. fn runs on the reading goroutine; it must not block for long.
//
// Returns ctx.Err() on cancellation, otherwise the connection error.
func (s *Stream) Watch(ctx context.Context, ids []string, fn func(map[string]map[string]any)) error {
	header := http.Header{}
	header.Set("x-api-key", s.apiKey)
	header.Set("Authorization", "Bearer "+s.token)

	conn, resp, err := s.dialer.DialContext(ctx, s.url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dialing stream: %w", &StatusError{Status: resp.StatusCode})
		}
		return fmt.Errorf("dialing stream: %w", err)
	}
	defer conn.Close()

	sub := subscribeMessage{Action: "subscribe", RequestID: uuid.NewString(), ApplianceIDs: ids}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribing: %w", err)
	}
	s.logger.Info("live update stream connected", "appliances", len(ids), "request_id", sub.RequestID)

	// unblock ReadMessage on cancellation
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("reading stream: %w", err)
		}

		batch, err := DecodeBatch(data)
		if err != nil {
			s.logger.Warn("discarding malformed stream message", "error", err)
			continue
		}
		if len(batch) > 0 {
			fn(batch)
		}
	}
}

// errNoAppliance marks a message without an appliance id.
var errNoAppliance = errors.New("message has no appliance id")

// DecodeBatch decodes a stream message into a batch of partial states keyed
// by appliance id. A message may be a single update object or an array of
// them; updates for the same appliance are merged in order.
func DecodeBatch(data []byte) (map[string]map[string]any, error) {
	var msgs []updateMessage
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &msgs); err != nil {
			return nil, err
		}
	} else {
		var m updateMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		msgs = []updateMessage{m}
	}

	batch := make(map[string]map[string]any)
	for _, m := range msgs {
		if m.ApplianceID == "" {
			return nil, errNoAppliance
		}
		partial, ok := batch[m.ApplianceID]
		if !ok {
			partial = make(map[string]any)
			batch[m.ApplianceID] = partial
		}
		for k, v := range m.Properties {
			partial[k] = v
		}
		if m.Property != "" {
			partial[m.Property] = m.Value
		}
	}
	return batch, nil
}
