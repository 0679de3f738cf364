package history

import (
	"context"
	"encoding/json"
	"time"
)

// Command log sources.
const (
	SourceMQTT = "mqtt"
	SourceAPI  = "api"
	SourceCLI  = "cli"
)

// Entry is one recorded entity value.
type Entry struct {
	ID          int64     `json:"id"`
	ApplianceID string    `json:"appliance_id"`
	EntityKey   string    `json:"entity_key"`
	Kind        string    `json:"kind"`
	Value       any       `json:"value"`
	Origin      string    `json:"origin"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// CommandRecord is one entry of the command log.
type CommandRecord struct {
	ID          string          `json:"id"`
	ApplianceID string          `json:"appliance_id"`
	EntityKey   string          `json:"entity_key"`
	Input       json.RawMessage `json:"input,omitempty"`
	Body        json.RawMessage `json:"body,omitempty"`
	Source      string          `json:"source"`
	Success     bool            `json:"success"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Repository stores entity history and the command log.
//
// Implementations must be safe for concurrent use and store UTC timestamps.
type Repository interface {
	// Record inserts entries atomically. An empty slice is a no-op.
	Record(ctx context.Context, entries []Entry) error

	// History returns recent values of one entity, newest first.
	// An empty entityKey returns all entities of the appliance.
	History(ctx context.Context, applianceID, entityKey string, limit int) ([]Entry, error)

	// Prune deletes entries older than olderThan and returns the count.
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)

	// LogCommand appends to the command log.
	LogCommand(ctx context.Context, rec CommandRecord) error

	// Commands returns recent commands for an appliance, newest first.
	Commands(ctx context.Context, applianceID string, limit int) ([]CommandRecord, error)
}
