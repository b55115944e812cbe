package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ziadkadry99/vaultpilot/internal/db"
)

// Store mirrors audit events into SQLite so they can be queried with filters.
// The JSONL files remain the append-only source of truth; this index can be
// rebuilt from them at any time.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Insert adds an event to the index.
func (s *Store) Insert(event Event) error {
	params, err := json.Marshal(event.Parameters)
	if err != nil {
		return fmt.Errorf("marshalling parameters: %w", err)
	}
	meta, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	var target sql.NullString
	if event.Target != "" {
		target = sql.NullString{String: event.Target, Valid: true}
	}

	_, err = s.db.Exec(`
		INSERT INTO audit_entries (
			event_id, timestamp, event_type, description, actor,
			target, result, parameters, metadata, session_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.EventID,
		event.Timestamp.UTC().Format(time.RFC3339Nano),
		event.EventType,
		event.Description,
		event.Actor,
		target,
		string(event.Result),
		string(params),
		string(meta),
		event.SessionID,
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

// QueryFilter controls which audit events are returned by Query.
type QueryFilter struct {
	EventType string
	Actor     string
	Result    Result
	Target    string
	Since     *time.Time
	Until     *time.Time
	Limit     int
	Offset    int
}

// Query returns indexed audit events matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.EventType != "" {
		clauses = append(clauses, "event_type = ?")
		args = append(args, filter.EventType)
	}
	if filter.Actor != "" {
		clauses = append(clauses, "actor = ?")
		args = append(args, filter.Actor)
	}
	if filter.Result != "" {
		clauses = append(clauses, "result = ?")
		args = append(args, string(filter.Result))
	}
	if filter.Target != "" {
		clauses = append(clauses, "target LIKE ?")
		args = append(args, "%"+filter.Target+"%")
	}
	if filter.Since != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, filter.Since.UTC().Format(time.RFC3339Nano))
	}
	if filter.Until != nil {
		clauses = append(clauses, "timestamp <= ?")
		args = append(args, filter.Until.UTC().Format(time.RFC3339Nano))
	}

	query := "SELECT event_id, timestamp, event_type, description, actor, target, result, parameters, metadata, session_id FROM audit_entries"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY timestamp DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e            Event
			ts, result   string
			target       sql.NullString
			params, meta string
		)
		if err := rows.Scan(&e.EventID, &ts, &e.EventType, &e.Description, &e.Actor,
			&target, &result, &params, &meta, &e.SessionID); err != nil {
			return nil, err
		}
		if t, parseErr := time.Parse(time.RFC3339Nano, ts); parseErr == nil {
			e.Timestamp = t
		}
		if target.Valid {
			e.Target = target.String
		}
		e.Result = Result(result)
		if err := json.Unmarshal([]byte(params), &e.Parameters); err != nil {
			e.Parameters = map[string]any{}
		}
		if err := json.Unmarshal([]byte(meta), &e.Metadata); err != nil {
			e.Metadata = map[string]any{}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetByID retrieves a single indexed event.
func (s *Store) GetByID(ctx context.Context, id string) (*Event, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT event_id, timestamp, event_type, description, actor, target, result, parameters, metadata, session_id
		FROM audit_entries WHERE event_id = ?`, id)

	var (
		e            Event
		ts, result   string
		target       sql.NullString
		params, meta string
	)
	if scanErr := row.Scan(&e.EventID, &ts, &e.EventType, &e.Description, &e.Actor,
		&target, &result, &params, &meta, &e.SessionID); scanErr != nil {
		return nil, scanErr
	}
	if t, parseErr := time.Parse(time.RFC3339Nano, ts); parseErr == nil {
		e.Timestamp = t
	}
	if target.Valid {
		e.Target = target.String
	}
	e.Result = Result(result)
	if jsonErr := json.Unmarshal([]byte(params), &e.Parameters); jsonErr != nil {
		e.Parameters = map[string]any{}
	}
	if jsonErr := json.Unmarshal([]byte(meta), &e.Metadata); jsonErr != nil {
		e.Metadata = map[string]any{}
	}
	return &e, nil
}
