package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validJWTSecret = "test-secret-key-at-least-32-chars!"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// validConfig returns defaults with the required secrets filled in.
func validConfig() *Config {
	cfg := Default()
	cfg.Electrolux.APIKey = "key"
	cfg.Electrolux.AccessToken = "token"
	cfg.Security.JWT.Secret = validJWTSecret
	return cfg
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
site:
  id: "test-site"
  name: "Test Home"
electrolux:
  api_key: "abc"
  access_token: "def"
  poll_interval: 60
reconciler:
  refetch_delay: 90
  time_attributes: ["timeToEnd", "runningTime"]
naming:
  blacklist: ["^fCMiscellaneous.+"]
notifications:
  warning: true
  default: false
security:
  jwt:
    secret: "`+validJWTSecret+`"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "test-site" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "test-site")
	}
	if cfg.Electrolux.APIKey != "abc" || cfg.Electrolux.AccessToken != "def" {
		t.Errorf("Electrolux credentials = %q/%q", cfg.Electrolux.APIKey, cfg.Electrolux.AccessToken)
	}
	if got := cfg.PollInterval(); got != time.Minute {
		t.Errorf("PollInterval() = %v, want 1m", got)
	}
	if got := cfg.RefetchDelay(); got != 90*time.Second {
		t.Errorf("RefetchDelay() = %v, want 90s", got)
	}
	if len(cfg.Reconciler.TimeAttributes) != 2 {
		t.Errorf("TimeAttributes = %v", cfg.Reconciler.TimeAttributes)
	}
	if len(cfg.Naming.Blacklist) != 1 {
		t.Errorf("Naming.Blacklist = %v", cfg.Naming.Blacklist)
	}
	if !cfg.Notifications.Warning || cfg.Notifications.Default || cfg.Notifications.Diagnostic {
		t.Errorf("Notifications = %+v", cfg.Notifications)
	}

	// Unset keys keep their defaults.
	if cfg.MQTT.Topics.Prefix != "graylogic/electrolux" {
		t.Errorf("MQTT.Topics.Prefix = %q", cfg.MQTT.Topics.Prefix)
	}
	if got := cfg.RenewInterval(); got != 12*time.Hour {
		t.Errorf("RenewInterval() = %v, want 12h", got)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Load() expected error for nonexistent file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "site: [unclosed")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "parsing config file") {
		t.Errorf("Load() error = %v, want parsing error", err)
	}
}

func TestLoad_MissingCredentials(t *testing.T) {
	path := writeConfig(t, `
security:
  jwt:
    secret: "`+validJWTSecret+`"
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected validation error for missing credentials, got nil")
	}
	if !strings.Contains(err.Error(), "electrolux.api_key") {
		t.Errorf("error = %v, want api_key message", err)
	}
}

func TestLoad_EnvCredentials(t *testing.T) {
	t.Setenv("GRAYLOGIC_ELECTROLUX_API_KEY", "env-key")
	t.Setenv("GRAYLOGIC_ELECTROLUX_TOKEN", "env-token")
	t.Setenv("GRAYLOGIC_JWT_SECRET", validJWTSecret)

	cfg, err := Load(writeConfig(t, "site:\n  name: Flat\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Electrolux.APIKey != "env-key" || cfg.Electrolux.AccessToken != "env-token" {
		t.Errorf("credentials = %q/%q", cfg.Electrolux.APIKey, cfg.Electrolux.AccessToken)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{
			name:    "missing site ID",
			mutate:  func(c *Config) { c.Site.ID = "" },
			wantErr: "site.id",
		},
		{
			name:    "missing database path with history",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database.path",
		},
		{
			name: "missing database path without history",
			mutate: func(c *Config) {
				c.Database.Path = ""
				c.History.Enabled = false
			},
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "empty topic prefix",
			mutate:  func(c *Config) { c.MQTT.Topics.Prefix = "" },
			wantErr: "mqtt.topics.prefix",
		},
		{
			name:    "invalid port high",
			mutate:  func(c *Config) { c.API.Port = 70000 },
			wantErr: "api.port",
		},
		{
			name: "port ignored when API disabled",
			mutate: func(c *Config) {
				c.API.Enabled = false
				c.API.Port = 0
				c.Security.JWT.Secret = ""
			},
		},
		{
			name:    "missing token",
			mutate:  func(c *Config) { c.Electrolux.AccessToken = "" },
			wantErr: "electrolux.access_token",
		},
		{
			name:    "negative poll interval",
			mutate:  func(c *Config) { c.Electrolux.PollInterval = -1 },
			wantErr: "poll_interval",
		},
		{
			name:    "zero refetch delay",
			mutate:  func(c *Config) { c.Reconciler.RefetchDelay = 0 },
			wantErr: "refetch_delay",
		},
		{
			name:    "no time attributes",
			mutate:  func(c *Config) { c.Reconciler.TimeAttributes = nil },
			wantErr: "time_attributes",
		},
		{
			name:    "bad naming pattern",
			mutate:  func(c *Config) { c.Naming.Rename = []string{"^(unclosed"} },
			wantErr: "naming.rename",
		},
		{
			name:    "missing JWT secret",
			mutate:  func(c *Config) { c.Security.JWT.Secret = "" },
			wantErr: "security.jwt.secret is required",
		},
		{
			name:    "JWT secret too short",
			mutate:  func(c *Config) { c.Security.JWT.Secret = "short" },
			wantErr: "at least 32 characters",
		},
		{
			name: "API key without hash",
			mutate: func(c *Config) {
				c.Security.APIKeys = []APIKeyConfig{{Name: "ha", Hash: "plaintext"}}
			},
			wantErr: "security.api_keys[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() on defaults should fail without credentials")
	}
	for _, want := range []string{"electrolux.api_key", "electrolux.access_token", "security.jwt.secret"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestConfig_Durations(t *testing.T) {
	cfg := &Config{
		API: APIConfig{Timeouts: APITimeoutConfig{Read: 30, Write: 45, Idle: 60}},
		Electrolux: ElectroluxConfig{
			RequestTimeout: 10,
			PollInterval:   0,
			RenewInterval:  3600,
		},
		Reconciler: ReconcilerConfig{RefetchDelay: 70},
		Security:   SecurityConfig{JWT: JWTConfig{AccessTokenTTL: 15}},
		History:    HistoryConfig{RetentionDays: 2},
	}

	tests := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"read", cfg.GetReadTimeout(), 30 * time.Second},
		{"write", cfg.GetWriteTimeout(), 45 * time.Second},
		{"idle", cfg.GetIdleTimeout(), time.Minute},
		{"request", cfg.RequestTimeout(), 10 * time.Second},
		{"poll", cfg.PollInterval(), 0},
		{"renew", cfg.RenewInterval(), time.Hour},
		{"refetch", cfg.RefetchDelay(), 70 * time.Second},
		{"token ttl", cfg.AccessTokenTTL(), 15 * time.Minute},
		{"retention", cfg.HistoryRetention(), 48 * time.Hour},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()

	t.Setenv("GRAYLOGIC_DATABASE_PATH", "/custom/path.db")
	t.Setenv("GRAYLOGIC_MQTT_HOST", "mqtt.example.com")
	t.Setenv("GRAYLOGIC_MQTT_PORT", "8883")
	t.Setenv("GRAYLOGIC_MQTT_USERNAME", "testuser")
	t.Setenv("GRAYLOGIC_MQTT_PASSWORD", "testpass")
	t.Setenv("GRAYLOGIC_API_HOST", "192.168.1.1")
	t.Setenv("GRAYLOGIC_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("GRAYLOGIC_JWT_SECRET", "jwt-secret")

	applyEnvOverrides(cfg)

	checks := []struct{ name, got, want string }{
		{"Database.Path", cfg.Database.Path, "/custom/path.db"},
		{"MQTT.Broker.Host", cfg.MQTT.Broker.Host, "mqtt.example.com"},
		{"MQTT.Auth.Username", cfg.MQTT.Auth.Username, "testuser"},
		{"MQTT.Auth.Password", cfg.MQTT.Auth.Password, "testpass"},
		{"API.Host", cfg.API.Host, "192.168.1.1"},
		{"InfluxDB.Token", cfg.InfluxDB.Token, "secret-token"},
		{"Security.JWT.Secret", cfg.Security.JWT.Secret, "jwt-secret"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.name, c.got, c.want)
		}
	}
	if cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("MQTT.Broker.Port = %d, want 8883", cfg.MQTT.Broker.Port)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.API.Port != 8090 {
		t.Errorf("API.Port = %d, want 8090", cfg.API.Port)
	}
	if cfg.RefetchDelay() != 70*time.Second {
		t.Errorf("RefetchDelay() = %v, want 70s", cfg.RefetchDelay())
	}
	if !cfg.Notifications.Default || cfg.Notifications.Warning || cfg.Notifications.Diagnostic {
		t.Errorf("Notifications = %+v, want only default", cfg.Notifications)
	}
}
