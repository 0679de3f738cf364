package electrolux

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-electrolux/internal/appliance"
	"github.com/nerrad567/gray-logic-electrolux/internal/capability"
	"github.com/nerrad567/gray-logic-electrolux/internal/history"
	"github.com/nerrad567/gray-logic-electrolux/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-electrolux/internal/reconciler"
)

// commandTimeout bounds one cloud command round trip.
const commandTimeout = 15 * time.Second

// connectedState is the cloud connection state of a reachable appliance.
const connectedState = "connected"

// Logger defines the logging interface used by the Bridge.
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

// MQTTClient is the interface for MQTT operations.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// Commander sends entity commands to the cloud.
// *reconciler.Reconciler satisfies it.
type Commander interface {
	SendCommand(ctx context.Context, applianceID, ref string, input any) (map[string]any, error)
}

// PointWriter receives time-series points. *influxdb.Client satisfies it.
type PointWriter interface {
	WriteEntityValue(applianceID, entityKey, kind string, value any, at time.Time)
	WriteAlert(applianceID, code, severity, status string, at time.Time)
}

// CommandLog records executed commands. history.Repository satisfies it.
type CommandLog interface {
	LogCommand(ctx context.Context, rec history.CommandRecord) error
}

// BridgeOptions configures a Bridge.
type BridgeOptions struct {
	// MQTTClient is required.
	MQTTClient MQTTClient

	// Topics is the topic layout. The zero value uses the defaults.
	Topics mqtt.Topics

	// QoS for state, discovery and acknowledgements.
	QoS byte

	// Registry holds the appliance states. Required.
	Registry *appliance.Registry

	// Commander executes inbound commands. Required.
	Commander Commander

	// Points is optional; when set, changed values and new alerts are
	// written as time-series points.
	Points PointWriter

	// Commands is optional; when set, every inbound command is logged.
	Commands CommandLog

	// NotifyPolicy selects which alerts are published.
	NotifyPolicy appliance.NotifyPolicy

	// NotificationTitle defaults to appliance.DefaultNotificationTitle.
	NotificationTitle string

	Logger Logger
}

// Bridge publishes appliance state to MQTT and executes commands received
// over MQTT. It handles:
//   - Home Assistant discovery for every entity as it appears
//   - Retained per-appliance state and availability
//   - Alert notifications, once per raised alert
//   - Inbound commands, with acknowledgements
//
// Bridge is a reconciler.Observer; register it before setup so the first
// batch publishes discovery.
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	mqtt      MQTTClient
	topics    mqtt.Topics
	qos       byte
	registry  *appliance.Registry
	commander Commander
	points    PointWriter
	commands  CommandLog
	policy    appliance.NotifyPolicy
	title     string

	// Change detection, keyed by appliance id
	discovered map[string]bool // unique ids with published discovery
	lastValues map[string]map[string]any
	raised     map[string]map[string]bool // notification ids currently raised
	lastConn   map[string]string
	cacheMu    sync.Mutex

	metrics bridgeCounters

	// Shutdown coordination. stopMu orders wg.Add against Stop.
	done      chan struct{}
	stopMu    sync.Mutex
	stopped   bool
	wg        sync.WaitGroup
	stopOnce  sync.Once
	ctx       context.Context
	ctxCancel context.CancelFunc

	logger   Logger
	loggerMu sync.RWMutex
}

var _ reconciler.Observer = (*Bridge)(nil)

type bridgeCounters struct {
	statesPublished    atomic.Uint64
	discoveryPublished atomic.Uint64
	alertsPublished    atomic.Uint64
	commandsReceived   atomic.Uint64
	commandsFailed     atomic.Uint64
}

// NewBridge creates a new bridge instance.
// Call Start() to begin receiving commands.
func NewBridge(opts BridgeOptions) (*Bridge, error) {
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("appliance registry is required")
	}
	if opts.Commander == nil {
		return nil, fmt.Errorf("commander is required")
	}

	title := opts.NotificationTitle
	if title == "" {
		title = appliance.DefaultNotificationTitle
	}

	ctx, ctxCancel := context.WithCancel(context.Background())

	b := &Bridge{
		mqtt:       opts.MQTTClient,
		topics:     opts.Topics,
		qos:        opts.QoS,
		registry:   opts.Registry,
		commander:  opts.Commander,
		points:     opts.Points,   // May be nil (optional)
		commands:   opts.Commands, // May be nil (optional)
		policy:     opts.NotifyPolicy,
		title:      title,
		discovered: make(map[string]bool),
		lastValues: make(map[string]map[string]any),
		raised:     make(map[string]map[string]bool),
		lastConn:   make(map[string]string),
		done:       make(chan struct{}),
		ctx:        ctx,
		ctxCancel:  ctxCancel,
		logger:     opts.Logger,
	}
	if b.logger == nil {
		b.logger = noopLogger{}
	}
	return b, nil
}

// Start subscribes to the command topics and publishes the current state of
// every known appliance.
func (b *Bridge) Start(ctx context.Context) error {
	if b.ctx.Err() != nil {
		return ErrStopped
	}

	commandTopic := b.topics.AllCommands()
	if err := b.mqtt.Subscribe(commandTopic, b.qos, b.handleMQTTMessage); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	b.getLogger().Info("subscribed to commands", "topic", commandTopic)

	b.Republish(ctx)

	b.getLogger().Info("bridge started", "appliances", b.registry.Len())
	return nil
}

// Stop marks every appliance offline and waits for in-flight commands.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.stopMu.Lock()
		b.stopped = true
		close(b.done)
		b.stopMu.Unlock()

		// Abort in-flight commands
		b.ctxCancel()
		b.wg.Wait()

		if b.mqtt.IsConnected() {
			for _, id := range b.registry.IDs() {
				b.publish(b.topics.ApplianceAvailability(id), []byte(PayloadOffline), true)
			}
		}

		b.getLogger().Info("bridge stopped")
	})
}

// Republish forgets what was published and publishes discovery, state and
// availability for every appliance again. Call it after an MQTT reconnect to
// a broker that may have lost retained messages.
func (b *Bridge) Republish(ctx context.Context) {
	b.cacheMu.Lock()
	b.discovered = make(map[string]bool)
	b.lastConn = make(map[string]string)
	b.cacheMu.Unlock()

	b.BatchApplied(ctx, reconciler.Update{
		Origin:     reconciler.OriginSetup,
		Appliances: b.registry.IDs(),
	})
}

// BatchApplied publishes the new state of every appliance in the batch,
// plus discovery for entities not yet announced.
func (b *Bridge) BatchApplied(_ context.Context, u reconciler.Update) {
	now := time.Now().UTC()

	for _, id := range batchIDs(u) {
		st, err := b.registry.Get(id)
		if err != nil {
			// Removed between the batch and the notification.
			continue
		}
		b.publishDiscovery(st)
		b.publishState(st, u.Origin, now)
		b.publishAvailability(st)
		b.publishAlerts(st, now)
	}
}

// batchIDs returns the sorted union of changed appliances and those with
// new entities.
func batchIDs(u reconciler.Update) []string {
	seen := make(map[string]bool, len(u.Appliances)+len(u.Added))
	ids := make([]string, 0, len(u.Appliances)+len(u.Added))
	for _, id := range u.Appliances {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for id := range u.Added {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// publishDiscovery publishes a discovery config for each entity not yet
// announced.
func (b *Bridge) publishDiscovery(st *appliance.State) {
	device := Device(st)
	published := 0

	for _, r := range st.ReadAll() {
		b.cacheMu.Lock()
		done := b.discovered[r.UniqueID]
		b.cacheMu.Unlock()
		if done {
			continue
		}

		topic, cfg := BuildDiscovery(b.topics, st.ID, device, r)
		if topic == "" {
			// Discovery disabled.
			return
		}
		payload, err := json.Marshal(cfg)
		if err != nil {
			b.getLogger().Error("failed to marshal discovery", "unique_id", r.UniqueID, "error", err)
			continue
		}
		if !b.publish(topic, payload, true) {
			continue
		}

		b.cacheMu.Lock()
		b.discovered[r.UniqueID] = true
		b.cacheMu.Unlock()
		published++
	}

	if published > 0 {
		b.metrics.discoveryPublished.Add(uint64(published))
		b.getLogger().Info("discovery published", "appliance_id", st.ID, "entities", published)
	}
}

// publishState publishes the retained state document and writes changed
// values as points.
func (b *Bridge) publishState(st *appliance.State, origin string, now time.Time) {
	msg := StateMessage{
		ApplianceID: st.ID,
		Timestamp:   now,
		Origin:      origin,
		Connection:  st.ConnectionState(),
		Values:      make(map[string]any),
	}

	var changed []string
	b.cacheMu.Lock()
	last := b.lastValues[st.ID]
	if last == nil {
		last = make(map[string]any)
		b.lastValues[st.ID] = last
	}
	readings := st.ReadAll()
	kinds := make(map[string]capability.Kind, len(readings))
	for _, r := range readings {
		if r.Kind == capability.KindButton {
			continue
		}
		msg.Values[r.Key] = r.Value
		kinds[r.Key] = r.Kind
		if prev, ok := last[r.Key]; !ok || !reflect.DeepEqual(prev, r.Value) {
			last[r.Key] = r.Value
			changed = append(changed, r.Key)
		}
	}
	b.cacheMu.Unlock()

	payload, err := json.Marshal(msg)
	if err != nil {
		b.getLogger().Error("failed to marshal state", "appliance_id", st.ID, "error", err)
		return
	}
	if b.publish(b.topics.ApplianceState(st.ID), payload, true) {
		b.metrics.statesPublished.Add(1)
	}

	if b.points == nil {
		return
	}
	for _, key := range changed {
		if v := msg.Values[key]; v != nil {
			b.points.WriteEntityValue(st.ID, key, string(kinds[key]), v, now)
		}
	}
}

// publishAvailability publishes the availability payload when the
// connection state changed.
func (b *Bridge) publishAvailability(st *appliance.State) {
	conn := st.ConnectionState()

	b.cacheMu.Lock()
	prev, seen := b.lastConn[st.ID]
	b.lastConn[st.ID] = conn
	b.cacheMu.Unlock()
	if seen && prev == conn {
		return
	}

	payload := PayloadOffline
	if conn == connectedState {
		payload = PayloadOnline
	}
	b.publish(b.topics.ApplianceAvailability(st.ID), []byte(payload), true)
}

// publishAlerts publishes each notification the first time it is raised.
// A notification that clears may be raised again later.
func (b *Bridge) publishAlerts(st *appliance.State, now time.Time) {
	notes := st.Notifications(b.title, b.policy)

	current := make(map[string]bool, len(notes))
	var fresh []appliance.Notification

	b.cacheMu.Lock()
	prev := b.raised[st.ID]
	for _, n := range notes {
		current[n.ID] = true
		if !prev[n.ID] {
			fresh = append(fresh, n)
		}
	}
	b.raised[st.ID] = current
	b.cacheMu.Unlock()

	for _, n := range fresh {
		payload, err := json.Marshal(AlertMessage{
			ID:          n.ID,
			ApplianceID: n.ApplianceID,
			Timestamp:   now,
			Title:       n.Title,
			Message:     n.Message,
		})
		if err != nil {
			continue
		}
		if b.publish(b.topics.ApplianceAlert(st.ID), payload, false) {
			b.metrics.alertsPublished.Add(1)
		}
		b.getLogger().Warn("appliance alert", "appliance_id", st.ID, "message", n.Message)
	}

	if b.points == nil || len(fresh) == 0 {
		return
	}
	for _, a := range st.Alerts() {
		b.points.WriteAlert(st.ID, a.Code, a.Severity, a.Status, now)
	}
}

// handleMQTTMessage processes a command received on an appliance command
// topic.
func (b *Bridge) handleMQTTMessage(topic string, payload []byte) {
	applianceID := b.topics.ApplianceFromTopic(topic)
	if applianceID == "" {
		b.getLogger().Warn("command on unexpected topic", "topic", topic)
		return
	}

	b.metrics.commandsReceived.Add(1)

	var cmd CommandMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		cmd.ensureID()
		b.publishAck(NewAckError(applianceID, cmd, fmt.Errorf("%w: %w", ErrInvalidCommand, err)))
		return
	}
	cmd.ensureID()
	if cmd.Source == "" {
		cmd.Source = history.SourceMQTT
	}

	if !b.track() {
		b.getLogger().Debug("command dropped, bridge stopping", "appliance_id", applianceID, "command_id", cmd.ID)
		return
	}
	defer b.wg.Done()

	b.publishAck(b.Execute(b.ctx, applianceID, cmd))
}

// track registers in-flight work with the wait group. It reports false once
// Stop has begun.
func (b *Bridge) track() bool {
	b.stopMu.Lock()
	defer b.stopMu.Unlock()
	if b.stopped {
		return false
	}
	b.wg.Add(1)
	return true
}

// Execute sends one command and logs it, returning the acknowledgement.
// Inbound MQTT commands use it; other surfaces may too.
//
// Parameters:
//   - ctx: bounds the cloud call, further limited to commandTimeout
//   - applianceID: target appliance
//   - cmd: entity reference and input; ID is generated when empty
//
// Returns:
//   - AckMessage: accepted with the sent payload, or failed with an error code
func (b *Bridge) Execute(ctx context.Context, applianceID string, cmd CommandMessage) AckMessage {
	cmd.ensureID()
	if cmd.Entity == "" {
		b.metrics.commandsFailed.Add(1)
		return NewAckError(applianceID, cmd, fmt.Errorf("%w: entity is required", ErrInvalidCommand))
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	body, err := b.commander.SendCommand(ctx, applianceID, cmd.Entity, cmd.Value)
	b.logCommand(applianceID, cmd, body, err)

	if err != nil {
		b.metrics.commandsFailed.Add(1)
		b.getLogger().Warn("command failed",
			"command_id", cmd.ID,
			"appliance_id", applianceID,
			"entity", cmd.Entity,
			"error", err)
		return NewAckError(applianceID, cmd, err)
	}

	b.getLogger().Info("command accepted",
		"command_id", cmd.ID,
		"appliance_id", applianceID,
		"entity", cmd.Entity,
		"source", cmd.Source)
	return NewAckMessage(applianceID, cmd, body)
}

func (b *Bridge) logCommand(applianceID string, cmd CommandMessage, body map[string]any, cmdErr error) {
	if b.commands == nil {
		return
	}

	rec := history.CommandRecord{
		ID:          cmd.ID,
		ApplianceID: applianceID,
		EntityKey:   cmd.Entity,
		Source:      cmd.Source,
		Success:     cmdErr == nil,
		CreatedAt:   cmd.Timestamp,
	}
	if cmdErr != nil {
		rec.Error = cmdErr.Error()
	}
	if cmd.Value != nil {
		rec.Input, _ = json.Marshal(cmd.Value) //nolint:errcheck // decoded from JSON
	}
	if body != nil {
		rec.Body, _ = json.Marshal(body) //nolint:errcheck // built from JSON-safe values
	}

	// The command log outlives a cancelled command context.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.commands.LogCommand(ctx, rec); err != nil {
		b.getLogger().Error("failed to log command", "command_id", cmd.ID, "error", err)
	}
}

func (b *Bridge) publishAck(ack AckMessage) {
	payload, err := json.Marshal(ack)
	if err != nil {
		b.getLogger().Error("failed to marshal ack", "error", err)
		return
	}
	b.publish(b.topics.ApplianceAck(ack.ApplianceID), payload, false)
}

// publish sends payload and logs failures. It reports whether the publish
// succeeded.
func (b *Bridge) publish(topic string, payload []byte, retained bool) bool {
	if err := b.mqtt.Publish(topic, payload, b.qos, retained); err != nil {
		b.getLogger().Error("failed to publish", "topic", topic, "error", err)
		return false
	}
	return true
}

// Forget drops cached state for an appliance that was removed.
func (b *Bridge) Forget(applianceID string) {
	b.cacheMu.Lock()
	defer b.cacheMu.Unlock()

	delete(b.lastValues, applianceID)
	delete(b.raised, applianceID)
	delete(b.lastConn, applianceID)
	prefix := applianceID + "-"
	for uid := range b.discovered {
		if strings.HasPrefix(uid, prefix) {
			delete(b.discovered, uid)
		}
	}
}

// SetLogger sets the logger for the bridge.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	defer b.loggerMu.Unlock()
	b.logger = logger
}

func (b *Bridge) getLogger() Logger {
	b.loggerMu.RLock()
	defer b.loggerMu.RUnlock()
	return b.logger
}

// BridgeMetrics contains counters for the API diagnostics endpoint.
type BridgeMetrics struct {
	Connected          bool   `json:"connected"`
	Appliances         int    `json:"appliances"`
	StatesPublished    uint64 `json:"states_published"`
	DiscoveryPublished uint64 `json:"discovery_published"`
	AlertsPublished    uint64 `json:"alerts_published"`
	CommandsReceived   uint64 `json:"commands_received"`
	CommandsFailed     uint64 `json:"commands_failed"`
}

// GetMetrics returns current bridge counters.
func (b *Bridge) GetMetrics() BridgeMetrics {
	return BridgeMetrics{
		Connected:          b.mqtt.IsConnected(),
		Appliances:         b.registry.Len(),
		StatesPublished:    b.metrics.statesPublished.Load(),
		DiscoveryPublished: b.metrics.discoveryPublished.Load(),
		AlertsPublished:    b.metrics.alertsPublished.Load(),
		CommandsReceived:   b.metrics.commandsReceived.Load(),
		CommandsFailed:     b.metrics.commandsFailed.Load(),
	}
}
