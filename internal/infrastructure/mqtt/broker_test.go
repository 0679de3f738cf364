//go:build integration

package mqtt

import (
	"testing"
	"time"
)

// These tests need a Mosquitto broker at 127.0.0.1:1883.
//
//	go test -tags=integration ./internal/infrastructure/mqtt/...

func TestIntegration_ConnectAndClose(t *testing.T) {
	client, err := Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close")
	}
}

func TestIntegration_CommandRoundtrip(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "graylogic-electrolux-roundtrip"
	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	topics := client.Topics()
	received := make(chan string, 1)
	err = client.Subscribe(topics.AllCommands(), 1, func(topic string, _ []byte) error {
		received <- topics.ApplianceFromTopic(topic)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if !client.HasSubscription(topics.AllCommands()) {
		t.Error("subscription not tracked")
	}

	if err := client.PublishJSON(topics.ApplianceCommand("pnc1"), map[string]any{"entity": "START"}, false); err != nil {
		t.Fatalf("PublishJSON() error = %v", err)
	}

	select {
	case id := <-received:
		if id != "pnc1" {
			t.Errorf("appliance = %q, want pnc1", id)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for command")
	}

	if err := client.Unsubscribe(topics.AllCommands()); err != nil {
		t.Errorf("Unsubscribe() error = %v", err)
	}
}
