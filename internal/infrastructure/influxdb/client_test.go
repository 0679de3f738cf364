package influxdb_test

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-electrolux/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-electrolux/internal/infrastructure/influxdb"
)

// testConfig returns a configuration for a local dev InfluxDB.
func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "graylogic-dev-token",
		Org:           "graylogic",
		Bucket:        "electrolux",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

// skipIfNoInfluxDB skips the test unless an InfluxDB instance answers.
func skipIfNoInfluxDB(t *testing.T) *influxdb.Client {
	t.Helper()
	if os.Getenv("RUN_INTEGRATION") == "" {
		t.Skip("set RUN_INTEGRATION to run against a local InfluxDB")
	}
	client, err := influxdb.Connect(testConfig(), "site-test")
	if err != nil {
		t.Skipf("InfluxDB not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	_, err := influxdb.Connect(cfg, "site-test")
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "http://127.0.0.1:59999"

	_, err := influxdb.Connect(cfg, "site-test")
	if !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestNilClient(t *testing.T) {
	var client *influxdb.Client

	if client.IsConnected() {
		t.Error("nil client reports connected")
	}
	// Writes and lifecycle calls on an absent client are no-ops.
	client.WriteEntityValue("pnc1", "timeToEnd", "sensor", 5, time.Now())
	client.WriteAlert("pnc1", "E01", "WARNING", "NOT_NEEDED", time.Now())
	client.Flush()
	if client.WriteErrors() != 0 {
		t.Error("nil client reports write errors")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestEntityPoint(t *testing.T) {
	at := time.Unix(1700000000, 0)

	tests := []struct {
		name  string
		value any
		want  []string
	}{
		{"number", 95, []string{"value=95"}},
		{"float", 21.5, []string{"value=21.5"}},
		{"bool", true, []string{"state=true", "value=1i"}},
		{"text", "Main Wash", []string{`text="Main Wash"`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			point := influxdb.EntityPoint("pnc1", "timeToEnd", "sensor", tt.value, at)
			if point == nil {
				t.Fatal("EntityPoint() = nil")
			}
			line := write.PointToLineProtocol(point, time.Second)
			if !strings.HasPrefix(line, "appliance_entity,appliance_id=pnc1,entity=timeToEnd,kind=sensor ") {
				t.Errorf("line = %q", line)
			}
			for _, w := range tt.want {
				if !strings.Contains(line, w) {
					t.Errorf("line %q missing %q", line, w)
				}
			}
		})
	}

	if influxdb.EntityPoint("pnc1", "x", "sensor", nil, at) != nil {
		t.Error("nil value should produce no point")
	}
	if influxdb.EntityPoint("pnc1", "x", "sensor", map[string]any{}, at) != nil {
		t.Error("structured value should produce no point")
	}
}

func TestAlertPoint(t *testing.T) {
	line := write.PointToLineProtocol(
		influxdb.AlertPoint("pnc1", "DOOR_OPEN", "WARNING", "NOT_NEEDED", time.Unix(1700000000, 0)),
		time.Second,
	)
	for _, w := range []string{"appliance_alert,", "code=DOOR_OPEN", "severity=WARNING", `status="NOT_NEEDED"`} {
		if !strings.Contains(line, w) {
			t.Errorf("line %q missing %q", line, w)
		}
	}
}

func TestWriteEntityValue_Integration(t *testing.T) {
	client := skipIfNoInfluxDB(t)

	var writeErr error
	client.SetOnError(func(err error) { writeErr = err })

	client.WriteEntityValue("pnc-test", "timeToEnd", "sensor", 42, time.Now())
	client.WriteAlert("pnc-test", "E01", "WARNING", "NOT_NEEDED", time.Now())
	client.Flush()

	if writeErr != nil {
		t.Errorf("async write error: %v", writeErr)
	}
	if n := client.WriteErrors(); n != 0 {
		t.Errorf("WriteErrors() = %d, want 0", n)
	}
}
