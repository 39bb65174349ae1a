package datastore

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/logger"
)

const defaultCreateAttempts = 10

var computedFieldPattern = regexp.MustCompile(`(?i)Field\s+"([^"]+)"\s+cannot accept a value because the field is computed`)

// RetryPolicy retries a create after removing a field the backend refused
// because it is computed. No other error is retried.
type RetryPolicy struct {
	MaxAttempts int
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: defaultCreateAttempts}
}

func (p RetryPolicy) Create(ctx context.Context, backend Backend, table TableRef, fields map[string]any) (*Record, error) {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = defaultCreateAttempts
	}

	payload := make(map[string]any, len(fields))
	for k, v := range fields {
		payload[k] = v
	}

	for attempt := 0; attempt < attempts; attempt++ {
		rec, err := backend.Create(ctx, table, payload)
		if err == nil {
			return rec, nil
		}

		field, ok := ComputedField(err)
		if !ok {
			return nil, err
		}
		if _, present := payload[field]; !present {
			// nothing to drop, the same request would fail again
			return nil, err
		}

		logger.Warn("dropping computed field", "table", table.ID, "field", field, "attempt", attempt+1)
		delete(payload, field)
	}

	return nil, fmt.Errorf("create failed after removing computed fields %d times", attempts)
}

// ComputedField extracts the field name from a computed-field rejection.
func ComputedField(err error) (string, bool) {
	var msg string
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		msg = apiErr.Message
	} else {
		msg = err.Error()
	}

	m := computedFieldPattern.FindStringSubmatch(msg)
	if m == nil {
		return "", false
	}
	return m[1], true
}
