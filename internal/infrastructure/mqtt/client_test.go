package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-electrolux/internal/infrastructure/config"
)

// testConfig returns a broker config pointing at a local Mosquitto.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "graylogic-electrolux-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
		Topics: config.MQTTTopicConfig{
			Prefix:          "test/electrolux",
			DiscoveryPrefix: "homeassistant",
		},
	}
}

func TestTopicBuilders(t *testing.T) {
	topics := Topics{Prefix: "graylogic/electrolux/", DiscoveryPrefix: "homeassistant"}
	id := "916098431_00:31862190-443E07363DAB"

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"Status", topics.Status(), "graylogic/electrolux/status"},
		{"ApplianceState", topics.ApplianceState(id), "graylogic/electrolux/" + id + "/state"},
		{"ApplianceAvailability", topics.ApplianceAvailability(id), "graylogic/electrolux/" + id + "/availability"},
		{"ApplianceCommand", topics.ApplianceCommand(id), "graylogic/electrolux/" + id + "/command"},
		{"ApplianceAck", topics.ApplianceAck(id), "graylogic/electrolux/" + id + "/ack"},
		{"ApplianceAlert", topics.ApplianceAlert(id), "graylogic/electrolux/" + id + "/alert"},
		{"AllCommands", topics.AllCommands(), "graylogic/electrolux/+/command"},
		{"Discovery", topics.Discovery("sensor", id+"-timeToEnd"),
			"homeassistant/sensor/916098431_00_31862190-443E07363DAB-timeToEnd/config"},
		{"ZeroValueStatus", Topics{}.Status(), "graylogic/electrolux/status"},
		{"DiscoveryDisabled", Topics{}.Discovery("sensor", "x"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestApplianceFromTopic(t *testing.T) {
	topics := Topics{Prefix: "graylogic/electrolux"}
	tests := []struct {
		topic string
		want  string
	}{
		{"graylogic/electrolux/pnc1/command", "pnc1"},
		{"graylogic/electrolux/status", ""},
		{"other/pnc1/command", ""},
	}
	for _, tt := range tests {
		if got := topics.ApplianceFromTopic(tt.topic); got != tt.want {
			t.Errorf("ApplianceFromTopic(%q) = %q, want %q", tt.topic, got, tt.want)
		}
	}
}

func TestSanitizeObjectID(t *testing.T) {
	if got := SanitizeObjectID("a:b/c d-e_f9"); got != "a_b_c_d-e_f9" {
		t.Errorf("SanitizeObjectID() = %q", got)
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Auth = config.MQTTAuthConfig{Username: "u", Password: "p"}

	opts := buildClientOptions(cfg)
	if len(opts.Servers) != 1 || opts.Servers[0].String() != "ssl://127.0.0.1:1883" {
		t.Errorf("Servers = %v", opts.Servers)
	}
	if opts.ClientID != cfg.Broker.ClientID {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "u" || opts.Password != "p" {
		t.Errorf("credentials = %q/%q", opts.Username, opts.Password)
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Error("TLS config not applied")
	}
}

func TestLWT(t *testing.T) {
	c := newClient(testConfig())
	if !c.options.WillEnabled {
		t.Fatal("LWT not configured")
	}
	if c.options.WillTopic != "test/electrolux/status" || !c.options.WillRetained {
		t.Errorf("will = %q retained=%v", c.options.WillTopic, c.options.WillRetained)
	}

	var payload statusPayload
	if err := json.Unmarshal(c.options.WillPayload, &payload); err != nil {
		t.Fatalf("will payload: %v", err)
	}
	if payload.Status != "offline" || payload.Reason != "unexpected_disconnect" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestValidationWithoutBroker(t *testing.T) {
	c := newClient(testConfig())
	noop := func(string, []byte) error { return nil }

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"publish empty topic", c.Publish("", nil, 1, false), ErrInvalidTopic},
		{"publish bad qos", c.Publish("t", nil, 3, false), ErrInvalidQoS},
		{"publish oversize", c.Publish("t", make([]byte, maxPayloadSize+1), 1, false), ErrPublishFailed},
		{"publish oversize reason", c.Publish("t", make([]byte, maxPayloadSize+1), 1, false), ErrPayloadTooLarge},
		{"publish disconnected", c.Publish("t", []byte("x"), 1, false), ErrNotConnected},
		{"publish json disconnected", c.PublishJSON("t", map[string]int{"a": 1}, true), ErrNotConnected},
		{"publish json unmarshalable", c.PublishJSON("t", make(chan int), true), ErrPublishFailed},
		{"subscribe empty topic", c.Subscribe("", 1, noop), ErrInvalidTopic},
		{"subscribe bad qos", c.Subscribe("t", 3, noop), ErrInvalidQoS},
		{"subscribe nil handler", c.Subscribe("t", 1, nil), ErrSubscribeFailed},
		{"subscribe disconnected", c.Subscribe("t", 1, noop), ErrNotConnected},
		{"unsubscribe empty", c.Unsubscribe(""), ErrInvalidTopic},
		{"health disconnected", c.HealthCheck(context.Background()), ErrNotConnected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("error = %v, want %v", tt.err, tt.want)
			}
		})
	}

	if c.SubscriptionCount() != 0 || c.HasSubscription("t") {
		t.Error("failed subscriptions must not be tracked")
	}
}

func TestHealthCheckCancelled(t *testing.T) {
	c := newClient(testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck() error = %v, want context.Canceled", err)
	}
}

func TestCloseNil(t *testing.T) {
	var c *Client
	if err := c.Close(); err != nil {
		t.Errorf("Close() on nil client = %v", err)
	}
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type recordingLogger struct {
	mu     sync.Mutex
	errors []string
	warns  []string
}

func (l *recordingLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}

func TestWrapHandler(t *testing.T) {
	c := newClient(testConfig())
	logger := &recordingLogger{}
	c.SetLogger(logger)

	var got string
	c.wrapHandler(func(topic string, payload []byte) error {
		got = topic + "=" + string(payload)
		return nil
	})(nil, fakeMessage{topic: "a", payload: []byte("1")})
	if got != "a=1" {
		t.Errorf("handler saw %q", got)
	}

	c.wrapHandler(func(string, []byte) error {
		return errors.New("bad command")
	})(nil, fakeMessage{topic: "a"})

	c.wrapHandler(func(string, []byte) error {
		panic("boom")
	})(nil, fakeMessage{topic: "a"})

	if len(logger.warns) != 1 || len(logger.errors) != 1 {
		t.Errorf("warns=%v errors=%v", logger.warns, logger.errors)
	}
}

type fakeToken struct {
	done bool
	err  error
}

func (t fakeToken) Wait() bool                     { return t.done }
func (t fakeToken) WaitTimeout(time.Duration) bool { return t.done }
func (t fakeToken) Done() <-chan struct{}          { return make(chan struct{}) }
func (t fakeToken) Error() error                   { return t.err }

func TestWaitToken(t *testing.T) {
	brokerErr := errors.New("not authorised")

	if err := waitToken(fakeToken{done: true}, ErrPublishFailed); err != nil {
		t.Errorf("completed token error = %v", err)
	}

	err := waitToken(fakeToken{done: false}, ErrSubscribeFailed)
	if !errors.Is(err, ErrSubscribeFailed) || !errors.Is(err, ErrTimeout) {
		t.Errorf("timed out token error = %v, want ErrSubscribeFailed and ErrTimeout", err)
	}

	err = waitToken(fakeToken{done: true, err: brokerErr}, ErrUnsubscribeFailed)
	if !errors.Is(err, ErrUnsubscribeFailed) || !errors.Is(err, brokerErr) {
		t.Errorf("failed token error = %v", err)
	}
}

func TestConnectCallbacks(t *testing.T) {
	c := newClient(testConfig())

	var connects int
	var lost error
	c.SetOnConnect(func() { connects++ })
	c.SetOnDisconnect(func(err error) { lost = err })

	c.handleConnect()
	if c.Reconnects() != 0 {
		t.Errorf("Reconnects() after first connect = %d, want 0", c.Reconnects())
	}

	dropped := errors.New("broker went away")
	c.handleDisconnect(dropped)
	if !errors.Is(lost, dropped) {
		t.Errorf("OnDisconnect error = %v, want %v", lost, dropped)
	}
	if c.IsConnected() {
		t.Error("IsConnected() after disconnect = true")
	}

	c.handleConnect()
	if connects != 2 {
		t.Errorf("OnConnect calls = %d, want 2", connects)
	}
	if c.Reconnects() != 1 {
		t.Errorf("Reconnects() = %d, want 1", c.Reconnects())
	}
}
