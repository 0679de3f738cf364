package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-electrolux/internal/api"
	"github.com/nerrad567/gray-logic-electrolux/internal/appliance"
	"github.com/nerrad567/gray-logic-electrolux/internal/auth"
	"github.com/nerrad567/gray-logic-electrolux/internal/bridges/electrolux"
	"github.com/nerrad567/gray-logic-electrolux/internal/catalog"
	"github.com/nerrad567/gray-logic-electrolux/internal/cloud"
	"github.com/nerrad567/gray-logic-electrolux/internal/entity"
	"github.com/nerrad567/gray-logic-electrolux/internal/history"
	"github.com/nerrad567/gray-logic-electrolux/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-electrolux/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-electrolux/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-electrolux/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-electrolux/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-electrolux/internal/naming"
	"github.com/nerrad567/gray-logic-electrolux/internal/reconciler"
	"github.com/nerrad567/gray-logic-electrolux/migrations"
)

// pruneInterval is how often old history rows are deleted.
const pruneInterval = time.Hour

func newServeCmd(configPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bridge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath())
		},
	}
}

// run is the bridge's lifecycle, separated from the command for
// testability. It blocks until ctx is cancelled.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - configPath: Path to config.yaml
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, configPath string) error { //nolint:gocognit,gocyclo // linear startup sequence
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Gray Logic Electrolux",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	catalogs, err := loadCatalogs(cfg.Catalog)
	if err != nil {
		return err
	}
	names, err := naming.New(namingRules(cfg.Naming))
	if err != nil {
		return fmt.Errorf("compiling naming rules: %w", err)
	}
	factory := entity.NewFactory(names)
	factory.SetLogger(log)

	registry := appliance.NewRegistry()
	registry.SetLogger(log)

	// Open database (history and command log)
	var (
		db   *database.DB
		repo history.Repository
	)
	if cfg.History.Enabled {
		db, err = database.Open(database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		log.Info("database connected", "path", cfg.Database.Path)

		if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		log.Info("database migrations complete")
		repo = history.NewSQLiteRepository(db.DB)
	} else {
		log.Info("history disabled")
	}

	// Cloud client and live stream
	client, err := cloud.NewClient(cloud.Options{
		BaseURL: cfg.Electrolux.BaseURL,
		APIKey:  cfg.Electrolux.APIKey,
		Token:   cfg.Electrolux.AccessToken,
		Timeout: cfg.RequestTimeout(),
	})
	if err != nil {
		return fmt.Errorf("creating cloud client: %w", err)
	}
	client.SetLogger(log.Component("cloud"))
	log.Info("cloud client ready",
		"base_url", cfg.Electrolux.BaseURL,
		"api_key_prefix", logging.Redact(cfg.Electrolux.APIKey),
	)

	recOpts := reconciler.Options{
		Cloud:            client,
		Registry:         registry,
		Catalogs:         catalogs,
		Factory:          factory,
		StaticAttributes: cfg.Naming.StaticAttributes,
		TimeAttributes:   cfg.Reconciler.TimeAttributes,
		RefetchDelay:     cfg.RefetchDelay(),
		PollInterval:     cfg.PollInterval(),
		RenewInterval:    cfg.RenewInterval(),
		Logger:           log.Component("reconciler"),
	}
	if cfg.Electrolux.Stream {
		stream, streamErr := cloud.NewStream(cloud.StreamOptions{
			URL:    cfg.Electrolux.StreamURL,
			APIKey: cfg.Electrolux.APIKey,
			Token:  cfg.Electrolux.AccessToken,
		})
		if streamErr != nil {
			return fmt.Errorf("creating live stream: %w", streamErr)
		}
		stream.SetLogger(log.Component("stream"))
		recOpts.Stream = stream
	}

	// Prometheus metrics
	var promReg *prometheus.Registry
	if cfg.Metrics.Enabled {
		promReg = prometheus.NewRegistry()
		promReg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		recOpts.Metrics = reconciler.NewMetrics(promReg)
	}

	rec, err := reconciler.New(recOpts)
	if err != nil {
		return fmt.Errorf("creating reconciler: %w", err)
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB, cfg.Site.ID)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	policy := appliance.NotifyPolicy{
		Diagnostic: cfg.Notifications.Diagnostic,
		Warning:    cfg.Notifications.Warning,
		Default:    cfg.Notifications.Default,
	}

	// History recorder
	if repo != nil {
		recorder := history.NewRecorder(repo, registry)
		recorder.SetLogger(log.Component("history"))
		rec.AddObserver(recorder)
		go history.RunPruner(ctx, repo, cfg.HistoryRetention(), pruneInterval, log)
	}

	// MQTT bridge (optional)
	var (
		mqttClient *mqtt.Client
		bridge     *electrolux.Bridge
	)
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.Component("mqtt"))
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		bridge, err = startBridge(ctx, mqttClient, registry, rec, influxClient, repo, policy, log)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("stopping MQTT bridge")
			bridge.Stop()
		}()
		rec.AddObserver(bridge)

		// Retained state may be lost while the broker is away.
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT connected, republishing", "reconnects", mqttClient.Reconnects())
			bridge.Republish(ctx)
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT bridge disabled")
	}

	// REST/WebSocket API (optional)
	var server *api.Server
	if cfg.API.Enabled {
		server, err = newAPIServer(cfg, registry, rec, repo, bridge, db, promReg, policy, log)
		if err != nil {
			return err
		}
		rec.AddObserver(server.Hub())
		if startErr := server.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("API disabled")
	}

	// Registered last so it runs first: refetches and queued notifications
	// must finish while the clients they use are still open.
	defer func() {
		log.Info("stopping reconciler")
		rec.Stop()
	}()

	// Materialise appliances, then follow live updates
	if setupErr := rec.Setup(ctx); setupErr != nil {
		if !errors.Is(setupErr, reconciler.ErrNoAppliances) {
			return fmt.Errorf("setting up appliances: %w", setupErr)
		}
		log.Warn("no appliances found on the account")
	}
	log.Info("appliances set up", "appliances", registry.Len())

	if startErr := rec.Start(ctx); startErr != nil {
		return fmt.Errorf("starting reconciler: %w", startErr)
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order: reconciler, API, bridge, MQTT,
	// InfluxDB, database.
	log.Info("Gray Logic Electrolux stopped")
	return nil
}

// startBridge creates and starts the MQTT bridge. Optional collaborators are
// passed through only when set so the bridge sees nil interfaces.
func startBridge(
	ctx context.Context,
	client *mqtt.Client,
	registry *appliance.Registry,
	rec *reconciler.Reconciler,
	influxClient *influxdb.Client,
	repo history.Repository,
	policy appliance.NotifyPolicy,
	log *logging.Logger,
) (*electrolux.Bridge, error) {
	opts := electrolux.BridgeOptions{
		MQTTClient:   &mqttBridgeAdapter{client: client},
		Topics:       client.Topics(),
		QoS:          client.QoS(),
		Registry:     registry,
		Commander:    rec,
		NotifyPolicy: policy,
		Logger:       log.Component("bridge"),
	}
	if influxClient != nil {
		opts.Points = influxClient
	}
	if repo != nil {
		opts.Commands = repo
	}

	bridge, err := electrolux.NewBridge(opts)
	if err != nil {
		return nil, fmt.Errorf("creating MQTT bridge: %w", err)
	}
	if err := bridge.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting MQTT bridge: %w", err)
	}
	log.Info("MQTT bridge started",
		"prefix", client.Topics().Prefix,
		"discovery_prefix", client.Topics().DiscoveryPrefix,
	)
	return bridge, nil
}

// newAPIServer builds the API server and its key ring.
func newAPIServer(
	cfg *config.Config,
	registry *appliance.Registry,
	rec *reconciler.Reconciler,
	repo history.Repository,
	bridge *electrolux.Bridge,
	db *database.DB,
	promReg *prometheus.Registry,
	policy appliance.NotifyPolicy,
	log *logging.Logger,
) (*api.Server, error) {
	keys, err := buildKeyRing(cfg.Security.APIKeys)
	if err != nil {
		return nil, err
	}

	deps := api.Deps{
		Config:       cfg.API,
		WS:           cfg.WebSocket,
		Security:     cfg.Security,
		Logger:       log.Component("api"),
		Registry:     registry,
		Controller:   rec,
		History:      repo,
		Keys:         keys,
		DB:           db,
		MetricsPath:  cfg.Metrics.Path,
		NotifyPolicy: policy,
		Version:      version,
	}
	if bridge != nil {
		deps.Bridge = bridge
	}
	if promReg != nil {
		deps.Gatherer = promReg
	}

	server, err := api.New(deps)
	if err != nil {
		return nil, fmt.Errorf("creating API server: %w", err)
	}
	log.Info("API configured",
		"address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		"api_keys", keys.Len(),
		"metrics", promReg != nil,
	)
	return server, nil
}

// buildKeyRing converts configured API keys. No keys yields a nil ring.
func buildKeyRing(cfgKeys []config.APIKeyConfig) (*auth.KeyRing, error) {
	if len(cfgKeys) == 0 {
		return nil, nil
	}
	keys := make([]auth.APIKey, 0, len(cfgKeys))
	for _, k := range cfgKeys {
		role := auth.Role(k.Role)
		if role == "" {
			role = auth.RoleViewer
		}
		keys = append(keys, auth.APIKey{Name: k.Name, Hash: k.Hash, Role: role})
	}
	ring, err := auth.NewKeyRing(keys)
	if err != nil {
		return nil, fmt.Errorf("loading api keys: %w", err)
	}
	return ring, nil
}

// loadCatalogs returns the built-in catalogs with the optional overrides
// file applied.
func loadCatalogs(cfg config.CatalogConfig) (*catalog.Source, error) {
	src := catalog.NewSource()
	if cfg.OverridesFile == "" {
		return src, nil
	}
	o, err := catalog.LoadOverrides(cfg.OverridesFile)
	if err != nil {
		return nil, err
	}
	src.Apply(o)
	return src, nil
}

// namingRules overlays configured naming rules on the built-in ones. Each
// empty list keeps its default.
func namingRules(cfg config.NamingConfig) naming.Rules {
	rules := naming.DefaultRules()
	if len(cfg.Blacklist) > 0 {
		rules.Blacklist = cfg.Blacklist
	}
	if len(cfg.Whitelist) > 0 {
		rules.Whitelist = cfg.Whitelist
	}
	if len(cfg.Rename) > 0 {
		rules.Rename = cfg.Rename
	}
	return rules
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check (may be nil if history is disabled)
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}

// mqttBridgeAdapter adapts the infrastructure MQTT client to the bridge's
// MQTTClient interface. The difference is the Subscribe handler signature:
// - Infrastructure mqtt: func(topic, payload []byte) error
// - Bridge expects: func(topic, payload []byte)
type mqttBridgeAdapter struct {
	client *mqtt.Client
}

// Publish implements electrolux.MQTTClient.
func (a *mqttBridgeAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

// Subscribe implements electrolux.MQTTClient.
func (a *mqttBridgeAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	return a.client.Subscribe(topic, qos, func(t string, p []byte) error {
		handler(t, p)
		return nil
	})
}

// IsConnected implements electrolux.MQTTClient.
func (a *mqttBridgeAdapter) IsConnected() bool {
	return a.client.IsConnected()
}
