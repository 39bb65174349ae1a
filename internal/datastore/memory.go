package datastore

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

// Memory is a process-local Backend. Nothing survives a restart.
type Memory struct {
	mu     sync.RWMutex
	tables map[TableRef][]Record
}

func NewMemory() *Memory {
	return &Memory{tables: make(map[TableRef][]Record)}
}

// Seed appends records to a table as-is, keeping their ids.
func (m *Memory) Seed(table TableRef, records ...Record) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range records {
		m.tables[table] = append(m.tables[table], Record{ID: r.ID, Fields: copyFields(r.Fields)})
	}
}

func (m *Memory) List(ctx context.Context, table TableRef, maxRecords int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := m.tables[table]
	if maxRecords > 0 && len(records) > maxRecords {
		records = records[:maxRecords]
	}

	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = Record{ID: r.ID, Fields: copyFields(r.Fields)}
	}
	return out, nil
}

func (m *Memory) Create(ctx context.Context, table TableRef, fields map[string]any) (*Record, error) {
	fields, err := normalizeFields(fields)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec := Record{ID: newRecordID(), Fields: fields}
	m.tables[table] = append(m.tables[table], rec)

	return &Record{ID: rec.ID, Fields: copyFields(fields)}, nil
}

func (m *Memory) Update(ctx context.Context, table TableRef, recordID string, fields map[string]any) (*Record, error) {
	patch, err := normalizeFields(fields)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	records := m.tables[table]
	for i := range records {
		if records[i].ID != recordID {
			continue
		}
		if records[i].Fields == nil {
			records[i].Fields = map[string]any{}
		}
		for k, v := range patch {
			if v == nil {
				delete(records[i].Fields, k)
				continue
			}
			records[i].Fields[k] = v
		}
		return &Record{ID: recordID, Fields: copyFields(records[i].Fields)}, nil
	}

	return nil, &APIError{StatusCode: http.StatusNotFound, Type: "NOT_FOUND", Message: fmt.Sprintf("Could not find record %s", recordID)}
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
