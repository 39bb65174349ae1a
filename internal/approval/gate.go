package approval

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/audit"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/datastore"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/llm"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/logger"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/metrics"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/session"
)

const (
	msgCompleted = "✅ הפעולה בוצעה בהצלחה!"
	msgFailed    = "❌ אירעה שגיאה בביצוע הפעולה: "
	msgCancelled = "❌ הפעולה בוטלה לפי בקשתך"
	msgClarify   = `לא הבנתי את התגובה. אנא כתוב "כן" לאישור או "לא" לביטול.`
)

type Executor interface {
	Execute(ctx context.Context, call llm.ToolCall) (string, error)
}

type Kind int

const (
	Completed Kind = iota + 1
	Failed
	Cancelled
	Clarify
)

// Outcome is the gate's answer to a reply that it absorbed.
type Outcome struct {
	Kind     Kind
	Response string
	Executed []string
	Err      error
}

type Options struct {
	Audit   *audit.Log
	Metrics *metrics.Metrics
}

// Gate holds mutating tool batches until the sender approves them.
type Gate struct {
	store      *session.Store
	exec       Executor
	classifier *Classifier
	tables     *datastore.Tables
	audit      *audit.Log
	metrics    *metrics.Metrics
}

func NewGate(store *session.Store, exec Executor, classifier *Classifier, tables *datastore.Tables, opts Options) *Gate {
	return &Gate{
		store:      store,
		exec:       exec,
		classifier: classifier,
		tables:     tables,
		audit:      opts.Audit,
		metrics:    opts.Metrics,
	}
}

// Hold stores the batch as the sender's pending action, replacing any older
// one, and returns the text asking the sender to confirm.
func (g *Gate) Hold(sender, originalMessage string, calls []llm.ToolCall) string {
	id := uuid.New().String()[:8]

	g.store.SetPending(sender, &session.PendingAction{
		ID:              id,
		Calls:           calls,
		OriginalMessage: originalMessage,
	})

	logger.Info("confirmation requested", "sender", sender, "id", id, "calls", len(calls))
	return Summarize(calls, g.tables)
}

// Resolve handles an inbound message while an action is pending. It reports
// false when there was nothing pending or the message is a new request that
// should go to the orchestration loop.
func (g *Gate) Resolve(ctx context.Context, sender, text string) (*Outcome, bool) {
	if !g.store.HasPending(sender) {
		return nil, false
	}

	verdict := g.classifier.Classify(text)
	logger.Info("pending action reply", "sender", sender, "verdict", verdict)
	g.metrics.Confirmation(verdict.String())

	switch verdict {
	case Affirmative:
		action, ok := g.store.TakePending(sender)
		if !ok {
			return nil, false
		}
		return g.execute(ctx, sender, action), true

	case Negative:
		action, ok := g.store.TakePending(sender)
		if ok {
			g.record(ctx, sender, action, audit.OutcomeCancelled, 0, nil)
		}
		return &Outcome{Kind: Cancelled, Response: msgCancelled}, true

	case NewRequest:
		g.store.ClearPending(sender)
		logger.Info("pending action superseded", "sender", sender)
		return nil, false

	default:
		return &Outcome{Kind: Clarify, Response: msgClarify}, true
	}
}

// execute runs the approved calls in order and stops at the first error.
// The action is already removed, so a half-applied batch is never replayed.
func (g *Gate) execute(ctx context.Context, sender string, action *session.PendingAction) *Outcome {
	out := &Outcome{Kind: Completed, Response: msgCompleted}

	for _, call := range action.Calls {
		out.Executed = append(out.Executed, call.Name)

		_, err := g.exec.Execute(ctx, call)
		g.metrics.Tool(call.Name, err)
		if err != nil {
			logger.Error("approved tool failed", "sender", sender, "tool", call.Name, "id", call.ID, "error", err)
			out.Kind = Failed
			out.Response = msgFailed + err.Error()
			out.Err = err
			g.record(ctx, sender, action, audit.OutcomeFailed, len(out.Executed)-1, err)
			return out
		}

		logger.Info("approved tool completed", "sender", sender, "tool", call.Name, "id", call.ID)
	}

	g.record(ctx, sender, action, audit.OutcomeCompleted, len(out.Executed), nil)
	return out
}

func (g *Gate) record(ctx context.Context, sender string, action *session.PendingAction, outcome audit.Outcome, executed int, err error) {
	entry := audit.Entry{
		ActionID:        action.ID,
		Sender:          sender,
		OriginalMessage: action.OriginalMessage,
		Calls:           action.Calls,
		Outcome:         outcome,
		Executed:        executed,
		RequestedAt:     action.CreatedAt,
		ResolvedAt:      time.Now().UTC(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	g.audit.Record(ctx, entry)
}
