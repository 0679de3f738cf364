package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-electrolux/internal/auth"
	"github.com/nerrad567/gray-logic-electrolux/internal/infrastructure/config"
)

const testJWTSecret = "test-secret-key-at-least-32-characters-long"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx, "/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
	if !strings.Contains(err.Error(), "loading config") {
		t.Errorf("error = %v, want loading config", err)
	}
}

// TestRun_MissingCredentials verifies run refuses to start without cloud credentials.
func TestRun_MissingCredentials(t *testing.T) {
	path := writeFile(t, "config.yaml", `
site:
  id: test-site
security:
  jwt:
    secret: "`+testJWTSecret+`"
`)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx, path)
	if err == nil || !strings.Contains(err.Error(), "electrolux.api_key") {
		t.Errorf("run() error = %v, want credentials error", err)
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("GRAYLOGIC_CONFIG", "")
	if got := getConfigPath(""); got != defaultConfigPath {
		t.Errorf("default = %q", got)
	}
	t.Setenv("GRAYLOGIC_CONFIG", "/etc/env.yaml")
	if got := getConfigPath(""); got != "/etc/env.yaml" {
		t.Errorf("env = %q", got)
	}
	if got := getConfigPath("/flag.yaml"); got != "/flag.yaml" {
		t.Errorf("flag = %q", got)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "graylogic-electrolux dev") {
		t.Errorf("output = %q", out)
	}
}

const washerCaps = `{
  "capabilities": {
    "timeToEnd": {"access": "read", "type": "number"},
    "executeCommand": {"access": "write", "type": "string", "values": {"START": {}, "STOPRESET": {}}},
    "userSelections": {
      "analogSpinSpeed": {"access": "readwrite", "type": "string", "values": {"0_RPM": {}, "800_RPM": {}}}
    }
  }
}`

const washerState = `{
  "connectionState": "connected",
  "properties": {"reported": {"timeToEnd": 300, "userSelections": {"analogSpinSpeed": "800_RPM"}}}
}`

func TestResolveCommand_JSON(t *testing.T) {
	caps := writeFile(t, "caps.json", washerCaps)
	state := writeFile(t, "state.json", washerState)

	out, err := execute(t, "resolve", caps, "--state", state, "--format", "json", "--name", "Washer")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	var readings []map[string]any
	if err := json.Unmarshal([]byte(out), &readings); err != nil {
		t.Fatalf("unmarshal %q: %v", out, err)
	}
	keys := make(map[string]map[string]any, len(readings))
	for _, r := range readings {
		keys[r["key"].(string)] = r
	}
	for _, want := range []string{"timeToEnd", "userSelections_analogSpinSpeed", "executeCommand_start", "executeCommand_stopreset"} {
		if _, ok := keys[want]; !ok {
			t.Errorf("missing entity %q in %v", want, keys)
		}
	}
	if got := keys["userSelections_analogSpinSpeed"]["value"]; got != "800 Rpm" {
		t.Errorf("select value = %v, want 800 Rpm", got)
	}
}

func TestResolveCommand_Table(t *testing.T) {
	caps := writeFile(t, "caps.json", washerCaps)

	out, err := execute(t, "resolve", caps)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !strings.HasPrefix(out, "KEY") {
		t.Errorf("missing header: %q", out)
	}
	if !strings.Contains(out, "timeToEnd") || !strings.Contains(out, "button") {
		t.Errorf("table = %q", out)
	}
}

func TestResolveCommand_Errors(t *testing.T) {
	if _, err := execute(t, "resolve"); err == nil {
		t.Error("resolve with no input should fail")
	}
	caps := writeFile(t, "caps.json", washerCaps)
	if _, err := execute(t, "resolve", caps, "--format", "xml"); err == nil {
		t.Error("unknown format should fail")
	}
	bad := writeFile(t, "bad.json", "{")
	if _, err := execute(t, "resolve", bad); err == nil {
		t.Error("invalid JSON should fail")
	}
}

func TestTokenCommand(t *testing.T) {
	path := writeFile(t, "config.yaml", `
electrolux:
  api_key: "k"
  access_token: "t"
security:
  jwt:
    secret: "`+testJWTSecret+`"
`)
	out, err := execute(t, "--config", path, "token", "--role", "operator", "--ttl", "10m", "dashboard")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	claims, err := auth.ParseToken(strings.TrimSpace(out), testJWTSecret)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Subject != "dashboard" || claims.Role != auth.RoleOperator {
		t.Errorf("claims = %s/%s", claims.Subject, claims.Role)
	}

	if _, err := execute(t, "--config", path, "token", "--role", "root", "x"); err == nil {
		t.Error("invalid role should fail")
	}
}

func TestHashKeyCommand(t *testing.T) {
	out, err := execute(t, "hash-key", "--name", "ha", "--role", "operator")
	if err != nil {
		t.Fatalf("hash-key: %v", err)
	}

	var key, hash string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "API key (shown once): "); ok {
			key = rest
		}
		if rest, ok := strings.CutPrefix(line, "hash: "); ok {
			hash = strings.Trim(rest, `"`)
		}
	}
	if key == "" || hash == "" {
		t.Fatalf("could not parse output: %q", out)
	}

	ring, err := buildKeyRing([]config.APIKeyConfig{{Name: "ha", Hash: hash, Role: "operator"}})
	if err != nil {
		t.Fatalf("buildKeyRing: %v", err)
	}
	p, err := ring.Authenticate(key)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if p.Subject != "ha" || p.Role != auth.RoleOperator {
		t.Errorf("principal = %+v", p)
	}
}

func TestBuildKeyRing_Empty(t *testing.T) {
	ring, err := buildKeyRing(nil)
	if err != nil || ring != nil {
		t.Errorf("buildKeyRing(nil) = %v, %v", ring, err)
	}
}

func TestNamingRules(t *testing.T) {
	rules := namingRules(config.NamingConfig{Blacklist: []string{"^foo"}})
	if len(rules.Blacklist) != 1 || rules.Blacklist[0] != "^foo" {
		t.Errorf("Blacklist = %v", rules.Blacklist)
	}
	if len(rules.Whitelist) == 0 || len(rules.Rename) == 0 {
		t.Error("unset lists should keep defaults")
	}
}

func TestLoadCatalogs(t *testing.T) {
	if _, err := loadCatalogs(config.CatalogConfig{}); err != nil {
		t.Errorf("loadCatalogs() without overrides = %v", err)
	}
	if _, err := loadCatalogs(config.CatalogConfig{OverridesFile: "/nonexistent.yaml"}); err == nil {
		t.Error("missing overrides file should fail")
	}
}
