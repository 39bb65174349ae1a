package agent

import (
	"context"
	"time"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/llm"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/logger"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/tools"
)

const (
	msgLLMError        = "❌ אירעה שגיאה בתקשורת עם המערכת: "
	msgBudgetExhausted = "⏳ הגעתי למכסת השימוש היומית. אנא נסה שוב מחר."
)

type loopState int

const (
	stateRunning loopState = iota
	stateFinished
	stateAborted
	stateSuspended
	stateFailed
	stateBudget
)

func (s loopState) String() string {
	switch s {
	case stateFinished:
		return "finished"
	case stateAborted:
		return "aborted"
	case stateSuspended:
		return "suspended"
	case stateFailed:
		return "llm_error"
	case stateBudget:
		return "budget"
	default:
		return "running"
	}
}

// turn is what one orchestration run produced.
type turn struct {
	state         loopState
	text          string
	toolsExecuted []string
	steps         int
	held          []llm.ToolCall
}

// run drives the model until it answers in text, proposes a mutating batch,
// fails, or reaches the step or message cap. messages is turn-local; only the
// final answer is written back to the session by the caller.
func (a *Agent) run(ctx context.Context, sender string, messages []llm.Message) *turn {
	t := &turn{state: stateRunning, toolsExecuted: []string{}}
	schemas := a.tools.Tools()

	for t.state == stateRunning {
		if t.steps >= a.maxSteps || len(messages) >= a.maxMessages {
			logger.Warn("orchestration capped", "sender", sender, "step", t.steps, "messages", len(messages))
			t.state = stateAborted
			break
		}

		if !a.budget.Allow() {
			logger.Warn("daily token budget exhausted", "sender", sender)
			t.text = msgBudgetExhausted
			t.state = stateBudget
			break
		}

		t.steps++
		logger.Debug("orchestration step", "sender", sender, "step", t.steps, "messages", len(messages))

		start := time.Now()
		resp, err := a.llm.ChatWithTools(ctx, a.systemPrompt, messages, schemas)
		a.metrics.LLMCall(a.llm.Provider(), time.Since(start), err)
		if err != nil {
			logger.Error("llm request failed", "sender", sender, "step", t.steps, "error", err)
			a.alerts.Critical("llm", "Chat request failed", err)
			t.text = msgLLMError + err.Error()
			t.state = stateFailed
			break
		}

		if resp.Usage != nil {
			a.budget.Record(a.llm.Provider(), a.llm.Model(), resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
		}

		if len(resp.ToolCalls) == 0 {
			logger.Debug("llm response (final)", "sender", sender, "chars", len(resp.Content))
			t.text = resp.Content
			t.state = stateFinished
			break
		}

		logger.Debug("llm requested tools", "sender", sender, "count", len(resp.ToolCalls))
		messages = append(messages, llm.AssistantToolCalls(resp.Content, resp.ToolCalls))

		if tools.AnyMutating(resp.ToolCalls) {
			t.held = resp.ToolCalls
			t.state = stateSuspended
			break
		}

		results := make([]llm.ToolResult, 0, len(resp.ToolCalls))
		for _, call := range resp.ToolCalls {
			t.toolsExecuted = append(t.toolsExecuted, call.Name)
			results = append(results, a.execute(ctx, sender, call))
		}
		messages = append(messages, llm.ToolResults(results))
	}

	return t
}

// execute always yields a result for call; failures become diagnostics the
// model can act on.
func (a *Agent) execute(ctx context.Context, sender string, call llm.ToolCall) llm.ToolResult {
	logger.Debug("executing tool", "sender", sender, "tool", call.Name, "id", call.ID)

	out, err := a.tools.Execute(ctx, call)
	a.metrics.Tool(call.Name, err)
	if err != nil {
		logger.Warn("tool failed", "sender", sender, "tool", call.Name, "id", call.ID, "error", err)
		return llm.ToolResult{ToolCallID: call.ID, Content: tools.Diagnose(err), IsError: true}
	}

	logger.Debug("tool result", "tool", call.Name, "id", call.ID, "chars", len(out))
	return llm.ToolResult{ToolCallID: call.ID, Content: out}
}
