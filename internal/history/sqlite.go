package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// SQLiteRepository implements Repository on the entity_state_history and
// command_log tables. Values are stored as JSON text, times as Unix
// milliseconds.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on an open, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Record inserts entries in one transaction.
func (r *SQLiteRepository) Record(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entity_state_history (appliance_id, entity_key, kind, value, origin, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if e.ApplianceID == "" || e.EntityKey == "" {
			return fmt.Errorf("appliance id and entity key are required")
		}
		value, err := json.Marshal(e.Value)
		if err != nil {
			return fmt.Errorf("marshalling value of %s: %w", e.EntityKey, err)
		}
		at := e.RecordedAt
		if at.IsZero() {
			at = time.Now()
		}
		if _, err := stmt.ExecContext(ctx, e.ApplianceID, e.EntityKey, e.Kind, string(value), e.Origin, at.UTC().UnixMilli()); err != nil {
			return fmt.Errorf("inserting history: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing history: %w", err)
	}
	return nil
}

// History returns recent entries, newest first. limit defaults to 50 and
// is capped at 500.
func (r *SQLiteRepository) History(ctx context.Context, applianceID, entityKey string, limit int) ([]Entry, error) {
	if applianceID == "" {
		return nil, fmt.Errorf("appliance id is required")
	}
	limit = clampLimit(limit)

	query := `SELECT id, appliance_id, entity_key, kind, value, origin, recorded_at
		FROM entity_state_history WHERE appliance_id = ?`
	args := []any{applianceID}
	if entityKey != "" {
		query += " AND entity_key = ?"
		args = append(args, entityKey)
	}
	query += " ORDER BY recorded_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var value sql.NullString
		var recorded int64
		if err := rows.Scan(&e.ID, &e.ApplianceID, &e.EntityKey, &e.Kind, &value, &e.Origin, &recorded); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		if value.Valid {
			if err := json.Unmarshal([]byte(value.String), &e.Value); err != nil {
				return nil, fmt.Errorf("unmarshalling value: %w", err)
			}
		}
		e.RecordedAt = time.UnixMilli(recorded).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}
	return entries, nil
}

// Prune deletes history older than now-olderThan. The command log is kept.
func (r *SQLiteRepository) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).UnixMilli()
	result, err := r.db.ExecContext(ctx, "DELETE FROM entity_state_history WHERE recorded_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting history: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}

// LogCommand appends a command record.
func (r *SQLiteRepository) LogCommand(ctx context.Context, rec CommandRecord) error {
	if rec.ID == "" || rec.ApplianceID == "" {
		return fmt.Errorf("command id and appliance id are required")
	}
	at := rec.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO command_log (id, appliance_id, entity_key, input, body, source, success, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ApplianceID, rec.EntityKey,
		nullableJSON(rec.Input), nullableJSON(rec.Body),
		rec.Source, boolToInt(rec.Success), rec.Error, at.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("inserting command log: %w", err)
	}
	return nil
}

// Commands returns recent commands for an appliance, newest first.
func (r *SQLiteRepository) Commands(ctx context.Context, applianceID string, limit int) ([]CommandRecord, error) {
	if applianceID == "" {
		return nil, fmt.Errorf("appliance id is required")
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, appliance_id, entity_key, input, body, source, success, error, created_at
		 FROM command_log WHERE appliance_id = ?
		 ORDER BY created_at DESC LIMIT ?`,
		applianceID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying command log: %w", err)
	}
	defer rows.Close()

	records := make([]CommandRecord, 0)
	for rows.Next() {
		var rec CommandRecord
		var input, body, errText sql.NullString
		var success int
		var created int64
		if err := rows.Scan(&rec.ID, &rec.ApplianceID, &rec.EntityKey, &input, &body, &rec.Source, &success, &errText, &created); err != nil {
			return nil, fmt.Errorf("scanning command log: %w", err)
		}
		if input.Valid {
			rec.Input = json.RawMessage(input.String)
		}
		if body.Valid {
			rec.Body = json.RawMessage(body.String)
		}
		rec.Success = success != 0
		rec.Error = errText.String
		rec.CreatedAt = time.UnixMilli(created).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating command log: %w", err)
	}
	return records, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return min(limit, maxLimit)
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
