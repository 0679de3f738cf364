package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the Electrolux bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site          SiteConfig         `yaml:"site"`
	Database      DatabaseConfig     `yaml:"database"`
	MQTT          MQTTConfig         `yaml:"mqtt"`
	API           APIConfig          `yaml:"api"`
	WebSocket     WebSocketConfig    `yaml:"websocket"`
	InfluxDB      InfluxDBConfig     `yaml:"influxdb"`
	Logging       LoggingConfig      `yaml:"logging"`
	Security      SecurityConfig     `yaml:"security"`
	Electrolux    ElectroluxConfig   `yaml:"electrolux"`
	Reconciler    ReconcilerConfig   `yaml:"reconciler"`
	Naming        NamingConfig       `yaml:"naming"`
	Catalog       CatalogConfig      `yaml:"catalog"`
	Notifications NotificationConfig `yaml:"notifications"`
	History       HistoryConfig      `yaml:"history"`
	Metrics       MetricsConfig      `yaml:"metrics"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
	Topics    MQTTTopicConfig     `yaml:"topics"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// MQTTTopicConfig contains the topic roots the bridge publishes under.
type MQTTTopicConfig struct {
	// Prefix is the root of state, command and availability topics.
	Prefix string `yaml:"prefix"`

	// DiscoveryPrefix is the root of Home Assistant discovery configs.
	// Empty disables discovery publishing.
	DiscoveryPrefix string `yaml:"discovery_prefix"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT     JWTConfig      `yaml:"jwt"`
	APIKeys []APIKeyConfig `yaml:"api_keys"`
}

// APIKeyConfig is a long-lived key for automation clients. Only the
// argon2id hash is stored; generate one with "graylogic-electrolux hash-key".
type APIKeyConfig struct {
	Name string `yaml:"name"`
	Hash string `yaml:"hash"`
	Role string `yaml:"role"`
}

// JWTConfig contains JWT token settings.
type JWTConfig struct {
	Secret         string `yaml:"secret"`
	AccessTokenTTL int    `yaml:"access_token_ttl"` // minutes
}

// ElectroluxConfig contains the appliance cloud connection settings.
type ElectroluxConfig struct {
	BaseURL        string `yaml:"base_url"`
	StreamURL      string `yaml:"stream_url"`
	APIKey         string `yaml:"api_key"`
	AccessToken    string `yaml:"access_token"`
	RequestTimeout int    `yaml:"request_timeout"` // seconds
	PollInterval   int    `yaml:"poll_interval"`   // seconds, 0 disables polling
	RenewInterval  int    `yaml:"renew_interval"`  // seconds
	Stream         bool   `yaml:"stream"`
}

// ReconcilerConfig contains update reconciliation settings.
type ReconcilerConfig struct {
	// TimeAttributes are the time-remaining attributes watched for the
	// missing end-of-cycle update.
	TimeAttributes []string `yaml:"time_attributes"`

	// RefetchDelay is the wait before the corrective fetch, in seconds.
	RefetchDelay int `yaml:"refetch_delay"`
}

// NamingConfig contains capability filtering and renaming rules.
// Empty lists keep the built-in rules.
type NamingConfig struct {
	Blacklist        []string `yaml:"blacklist"`
	Whitelist        []string `yaml:"whitelist"`
	Rename           []string `yaml:"rename"`
	StaticAttributes []string `yaml:"static_attributes"`
}

// CatalogConfig points at an optional catalog overrides file.
type CatalogConfig struct {
	OverridesFile string `yaml:"overrides_file"`
}

// NotificationConfig selects which alert severities raise notifications.
type NotificationConfig struct {
	Diagnostic bool `yaml:"diagnostic"`
	Warning    bool `yaml:"warning"`
	Default    bool `yaml:"default"`
}

// HistoryConfig contains entity state history settings.
type HistoryConfig struct {
	Enabled       bool `yaml:"enabled"`
	RetentionDays int  `yaml:"retention_days"`
}

// MetricsConfig contains Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GRAYLOGIC_SECTION_KEY
// For example: GRAYLOGIC_DATABASE_PATH, GRAYLOGIC_ELECTROLUX_API_KEY
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults. It is not valid until
// credentials and the JWT secret are set.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			ID:       "site-001",
			Name:     "Home",
			Timezone: "UTC",
		},
		Database: DatabaseConfig{
			Path:        "./data/electrolux.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Enabled: true,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graylogic-electrolux",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
			Topics: MQTTTopicConfig{
				Prefix:          "graylogic/electrolux",
				DiscoveryPrefix: "homeassistant",
			},
		},
		API: APIConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8090,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			Bucket:        "electrolux",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{AccessTokenTTL: 60},
		},
		Electrolux: ElectroluxConfig{
			BaseURL:        "https://api.developer.electrolux.one/api/v1",
			StreamURL:      "wss://ws.developer.electrolux.one/api/v1/appliances/state",
			RequestTimeout: 10,
			PollInterval:   300,
			RenewInterval:  43200,
			Stream:         true,
		},
		Reconciler: ReconcilerConfig{
			TimeAttributes: []string{"timeToEnd"},
			RefetchDelay:   70,
		},
		Notifications: NotificationConfig{Default: true},
		History: HistoryConfig{
			Enabled:       true,
			RetentionDays: 30,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GRAYLOGIC_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("GRAYLOGIC_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("GRAYLOGIC_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GRAYLOGIC_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("GRAYLOGIC_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GRAYLOGIC_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("GRAYLOGIC_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("GRAYLOGIC_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Electrolux cloud credentials
	if v := os.Getenv("GRAYLOGIC_ELECTROLUX_API_KEY"); v != "" {
		cfg.Electrolux.APIKey = v
	}
	if v := os.Getenv("GRAYLOGIC_ELECTROLUX_TOKEN"); v != "" {
		cfg.Electrolux.AccessToken = v
	}

	// Security - JWT secret (IMPORTANT: always override in production)
	if v := os.Getenv("GRAYLOGIC_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
}

// Validate checks the configuration for errors and security issues.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	if c.History.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when history is enabled")
	}
	if c.History.RetentionDays < 0 {
		errs = append(errs, "history.retention_days must not be negative")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.Topics.Prefix == "" {
		errs = append(errs, "mqtt.topics.prefix is required")
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.Electrolux.APIKey == "" {
		errs = append(errs, "electrolux.api_key is required (set GRAYLOGIC_ELECTROLUX_API_KEY environment variable)")
	}
	if c.Electrolux.AccessToken == "" {
		errs = append(errs, "electrolux.access_token is required (set GRAYLOGIC_ELECTROLUX_TOKEN environment variable)")
	}
	if c.Electrolux.PollInterval < 0 {
		errs = append(errs, "electrolux.poll_interval must not be negative")
	}
	if c.Electrolux.RenewInterval <= 0 {
		errs = append(errs, "electrolux.renew_interval must be positive")
	}

	if c.Reconciler.RefetchDelay <= 0 {
		errs = append(errs, "reconciler.refetch_delay must be positive")
	}
	if len(c.Reconciler.TimeAttributes) == 0 {
		errs = append(errs, "reconciler.time_attributes must not be empty")
	}

	for _, group := range []struct {
		name     string
		patterns []string
	}{
		{"naming.blacklist", c.Naming.Blacklist},
		{"naming.whitelist", c.Naming.Whitelist},
		{"naming.rename", c.Naming.Rename},
	} {
		for _, p := range group.patterns {
			if _, err := regexp.Compile(p); err != nil {
				errs = append(errs, fmt.Sprintf("%s: invalid pattern %q", group.name, p))
			}
		}
	}

	// The API exposes appliance controls; a forged token would let anyone
	// operate them.
	const minJWTSecretLength = 32
	if c.API.Enabled {
		if c.Security.JWT.Secret == "" {
			errs = append(errs, "security.jwt.secret is required (set GRAYLOGIC_JWT_SECRET environment variable)")
		} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
			errs = append(errs, "security.jwt.secret must be at least 32 characters for adequate security")
		}
	}

	for i, k := range c.Security.APIKeys {
		if k.Name == "" || !strings.HasPrefix(k.Hash, "$argon2id$") {
			errs = append(errs, fmt.Sprintf("security.api_keys[%d]: name and argon2id hash are required", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// RequestTimeout returns the cloud request timeout as a Duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Electrolux.RequestTimeout) * time.Second
}

// PollInterval returns the full-state polling interval. Zero disables polling.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Electrolux.PollInterval) * time.Second
}

// RenewInterval returns how long a live update session is kept open.
func (c *Config) RenewInterval() time.Duration {
	return time.Duration(c.Electrolux.RenewInterval) * time.Second
}

// RefetchDelay returns the wait before the end-of-cycle corrective fetch.
func (c *Config) RefetchDelay() time.Duration {
	return time.Duration(c.Reconciler.RefetchDelay) * time.Second
}

// AccessTokenTTL returns the lifetime of API tokens.
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.Security.JWT.AccessTokenTTL) * time.Minute
}

// HistoryRetention returns how long state history is kept.
func (c *Config) HistoryRetention() time.Duration {
	return time.Duration(c.History.RetentionDays) * 24 * time.Hour
}
