package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/approval"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/config"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/llm"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/logger"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/session"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/tools"
)

const msgEmptyMessage = "message is required"

func New(model llm.LLM, sessions *session.Store, gateway *tools.Gateway, keywords config.Keywords, opts Options) *Agent {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	if opts.MaxMessages <= 0 {
		opts.MaxMessages = DefaultMaxMessages
	}

	gate := approval.NewGate(sessions, gateway, approval.NewClassifier(keywords), gateway.Tables(), approval.Options{
		Audit:   opts.Audit,
		Metrics: opts.Metrics,
	})

	return &Agent{
		llm:          model,
		sessions:     sessions,
		tools:        gateway,
		gate:         gate,
		systemPrompt: opts.SystemPrompt,
		maxSteps:     opts.MaxSteps,
		maxMessages:  opts.MaxMessages,
		budget:       opts.Budget,
		alerts:       opts.Alerts,
		metrics:      opts.Metrics,
	}
}

func (a *Agent) Sessions() *session.Store {
	return a.sessions
}

// HandleMessage resolves any pending confirmation for sender, otherwise runs
// one orchestration turn. Failures come back inside the Reply.
func (a *Agent) HandleMessage(ctx context.Context, sender, text string) (reply *Reply) {
	if sender == "" {
		sender = DefaultSender
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("message handling panicked", "sender", sender, "panic", r)
			reply = &Reply{Success: false, Error: fmt.Sprint(r)}
		}
	}()

	logger.Info("message received", "sender", sender, "chars", len(text))

	if strings.TrimSpace(text) == "" {
		return &Reply{Success: false, Error: msgEmptyMessage}
	}

	if out, ok := a.gate.Resolve(ctx, sender, text); ok {
		return a.resolved(sender, text, out)
	}

	history := a.sessions.History(sender)
	a.sessions.Append(sender, llm.UserText(text))
	messages := append(trimToUserTurn(history), llm.UserText(text))

	t := a.run(ctx, sender, messages)

	if t.state == stateSuspended {
		summary := a.gate.Hold(sender, text, t.held)
		a.sessions.Append(sender, llm.AssistantText(summary))
		a.metrics.Turn(t.state.String(), t.steps)

		return &Reply{
			Success:           true,
			Response:          summary,
			ToolsExecuted:     t.toolsExecuted,
			NeedsConfirmation: true,
			Steps:             t.steps,
		}
	}

	response := finalize(t)
	a.sessions.Append(sender, llm.AssistantText(response))
	a.metrics.Turn(t.state.String(), t.steps)

	logger.Info("reply sent", "sender", sender, "state", t.state, "steps", t.steps, "tools", strings.Join(t.toolsExecuted, ","))

	return &Reply{
		Success:       true,
		Response:      response,
		ToolsExecuted: t.toolsExecuted,
		Steps:         t.steps,
	}
}

// resolved turns a gate outcome into a reply. Answers that settle the pending
// action are kept in history so the model knows what happened to it.
func (a *Agent) resolved(sender, text string, out *approval.Outcome) *Reply {
	if out.Kind != approval.Clarify {
		a.sessions.Append(sender, llm.UserText(text))
		a.sessions.Append(sender, llm.AssistantText(out.Response))
	}

	switch out.Kind {
	case approval.Completed:
		return &Reply{Success: true, Response: out.Response, ToolsExecuted: out.Executed, ActionCompleted: true}
	case approval.Failed:
		return &Reply{Success: false, Response: out.Response, ToolsExecuted: out.Executed}
	case approval.Cancelled:
		return &Reply{Success: true, Response: out.Response, ActionCancelled: true}
	default:
		return &Reply{Success: true, Response: out.Response, NeedsClarification: true}
	}
}

func (a *Agent) ClearSession(sender string) {
	if sender == "" {
		sender = DefaultSender
	}
	a.sessions.Clear(sender)
	logger.Info("session cleared", "sender", sender)
}

func (a *Agent) InspectSession(sender string) *Inspection {
	if sender == "" {
		sender = DefaultSender
	}

	history := a.sessions.History(sender)
	entries := make([]HistoryEntry, 0, len(history))
	for _, m := range history {
		entries = append(entries, HistoryEntry{Role: m.Role, Content: m.Content})
	}

	return &Inspection{
		Sender:           sender,
		HistoryLength:    len(history),
		History:          entries,
		HasPendingAction: a.sessions.HasPending(sender),
	}
}

// trimToUserTurn drops leading assistant turns left behind by history
// eviction; providers expect a conversation to open with the user.
func trimToUserTurn(history []llm.Message) []llm.Message {
	for len(history) > 0 && history[0].Role != llm.RoleUser {
		history = history[1:]
	}
	return history
}
