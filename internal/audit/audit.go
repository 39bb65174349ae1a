// Package audit keeps a write-only trail of resolved pending actions.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/llm"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/logger"
)

type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
)

// Entry records one resolved pending action.
type Entry struct {
	ActionID        string         `json:"action_id"`
	Sender          string         `json:"sender"`
	OriginalMessage string         `json:"original_message"`
	Calls           []llm.ToolCall `json:"calls"`
	Outcome         Outcome        `json:"outcome"`
	Executed        int            `json:"executed"`
	Error           string         `json:"error,omitempty"`
	RequestedAt     time.Time      `json:"requested_at"`
	ResolvedAt      time.Time      `json:"resolved_at"`
}

type Sink interface {
	Put(ctx context.Context, key string, data []byte) error
}

type Log struct {
	sink Sink
}

func NewLog(sink Sink) *Log {
	return &Log{sink: sink}
}

// Record writes the entry. Errors are logged and dropped; a nil Log does
// nothing.
func (l *Log) Record(ctx context.Context, e Entry) {
	if l == nil || l.sink == nil {
		return
	}

	if e.ResolvedAt.IsZero() {
		e.ResolvedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		logger.Error("audit encode failed", "id", e.ActionID, "error", err)
		return
	}

	if err := l.sink.Put(ctx, Key(e), data); err != nil {
		logger.Error("audit write failed", "id", e.ActionID, "sender", e.Sender, "error", err)
		return
	}

	logger.Debug("audit recorded", "id", e.ActionID, "outcome", e.Outcome)
}

// Key lays entries out by day so a bucket listing reads chronologically.
func Key(e Entry) string {
	t := e.ResolvedAt.UTC()
	return fmt.Sprintf("%s/%s-%s.json", t.Format("2006/01/02"), t.Format("150405.000"), e.ActionID)
}
