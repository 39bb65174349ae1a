package session

import (
	"sync"
	"time"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/llm"
)

const (
	DefaultHistoryLimit = 15
	DefaultTTL          = 30 * time.Minute
)

// PendingAction is a batch of mutating tool calls held until the sender
// approves or rejects it. At most one exists per sender.
type PendingAction struct {
	ID              string
	Calls           []llm.ToolCall
	OriginalMessage string
	CreatedAt       time.Time
}

type Session struct {
	messages   []llm.Message
	lastAccess time.Time
}

type Options struct {
	HistoryLimit int
	TTL          time.Duration
}

type Store struct {
	mu           sync.RWMutex
	sessions     map[string]*Session
	pending      map[string]*PendingAction
	historyLimit int
	ttl          time.Duration
	now          func() time.Time
}

// Stats is a point-in-time count of live state.
type Stats struct {
	Sessions int
	Pending  int
}
