package datastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLite is a local Backend that keeps every table's records as JSON rows in
// one SQLite file. Useful for development and the console without Airtable
// credentials.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// one writer keeps read-modify-write updates consistent
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id         TEXT PRIMARY KEY,
		base_id    TEXT NOT NULL,
		table_id   TEXT NOT NULL,
		fields     TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_records_table ON records(base_id, table_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLite) List(ctx context.Context, table TableRef, maxRecords int) ([]Record, error) {
	query := `SELECT id, fields FROM records WHERE base_id = ? AND table_id = ? ORDER BY created_at, rowid`
	args := []any{table.Base, table.ID}
	if maxRecords > 0 {
		query += ` LIMIT ?`
		args = append(args, maxRecords)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table.ID, err)
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}

		fields, err := decodeFields(raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", id, err)
		}
		out = append(out, Record{ID: id, Fields: fields})
	}

	return out, rows.Err()
}

func (s *SQLite) Create(ctx context.Context, table TableRef, fields map[string]any) (*Record, error) {
	fields, err := normalizeFields(fields)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}

	id := newRecordID()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (id, base_id, table_id, fields, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, table.Base, table.ID, string(raw), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", table.ID, err)
	}

	return &Record{ID: id, Fields: fields}, nil
}

// Update merges fields into the stored record, like an Airtable PATCH.
func (s *SQLite) Update(ctx context.Context, table TableRef, recordID string, fields map[string]any) (*Record, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT fields FROM records WHERE id = ? AND base_id = ? AND table_id = ?`,
		recordID, table.Base, table.ID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &APIError{StatusCode: http.StatusNotFound, Type: "NOT_FOUND", Message: fmt.Sprintf("Could not find record %s", recordID)}
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", recordID, err)
	}

	current, err := decodeFields(raw)
	if err != nil {
		return nil, err
	}

	patch, err := normalizeFields(fields)
	if err != nil {
		return nil, err
	}
	for k, v := range patch {
		if v == nil {
			delete(current, k)
			continue
		}
		current[k] = v
	}

	merged, err := json.Marshal(current)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE records SET fields = ?, updated_at = ? WHERE id = ?`,
		string(merged), time.Now().UTC().Format(time.RFC3339Nano), recordID,
	)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", recordID, err)
	}

	return &Record{ID: recordID, Fields: current}, nil
}

// normalizeFields round-trips through JSON so stored and returned values
// have the same shapes a decoded API response would.
func normalizeFields(fields map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, &APIError{StatusCode: http.StatusUnprocessableEntity, Type: "INVALID_REQUEST_BODY", Message: err.Error()}
	}
	return decodeFields(string(raw))
}

func decodeFields(raw string) (map[string]any, error) {
	fields := map[string]any{}
	if raw == "" || raw == "null" {
		return fields, nil
	}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

func newRecordID() string {
	return recordIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:recordIDLength-len(recordIDPrefix)]
}
