package agent

import (
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/alerts"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/approval"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/audit"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/budget"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/llm"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/metrics"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/session"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/tools"
)

// DefaultSender is used when a request names no sender.
const DefaultSender = "default"

const (
	DefaultMaxSteps    = 10
	DefaultMaxMessages = 25
)

type Agent struct {
	llm          llm.LLM
	sessions     *session.Store
	tools        *tools.Gateway
	gate         *approval.Gate
	systemPrompt string
	maxSteps     int
	maxMessages  int
	budget       *budget.Tracker
	alerts       *alerts.Alerter
	metrics      *metrics.Metrics
}

type Options struct {
	SystemPrompt string
	MaxSteps     int
	MaxMessages  int
	Budget       *budget.Tracker
	Alerts       *alerts.Alerter
	Metrics      *metrics.Metrics
	Audit        *audit.Log
}

// Reply is the outcome of one inbound message.
type Reply struct {
	Success            bool     `json:"success"`
	Response           string   `json:"response,omitempty"`
	ToolsExecuted      []string `json:"toolsExecuted,omitempty"`
	NeedsConfirmation  bool     `json:"needsConfirmation,omitempty"`
	ActionCompleted    bool     `json:"actionCompleted,omitempty"`
	ActionCancelled    bool     `json:"actionCancelled,omitempty"`
	NeedsClarification bool     `json:"needsClarification,omitempty"`
	Steps              int      `json:"steps,omitempty"`
	Error              string   `json:"error,omitempty"`
}

type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Inspection is a read-only view of one sender's state.
type Inspection struct {
	Sender           string         `json:"sender"`
	HistoryLength    int            `json:"historyLength"`
	History          []HistoryEntry `json:"history"`
	HasPendingAction bool           `json:"hasPendingAction"`
}
