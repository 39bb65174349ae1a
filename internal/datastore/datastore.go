// Package datastore is the record store the tools read from and write to.
// A Backend speaks to the storage service; Client layers table resolution,
// id validation and the domain lookups on top of it.
package datastore

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInvalidTable    = errors.New("invalid table")
	ErrInvalidRecordID = errors.New("invalid record id")
)

type Record struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// TableRef points at one table inside one base.
type TableRef struct {
	Base string
	ID   string
}

// Backend is the raw tabular store. Create and Update always ask the store
// to coerce values to the column types where it supports that.
type Backend interface {
	// List returns up to maxRecords records; maxRecords <= 0 means all.
	List(ctx context.Context, table TableRef, maxRecords int) ([]Record, error)
	Create(ctx context.Context, table TableRef, fields map[string]any) (*Record, error)
	Update(ctx context.Context, table TableRef, recordID string, fields map[string]any) (*Record, error)
}

// APIError is a rejection reported by the backend.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("request failed with status code %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("request failed with status code %d: %s: %s", e.StatusCode, e.Type, e.Message)
}
