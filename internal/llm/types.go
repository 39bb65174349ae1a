package llm

import "context"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Config struct {
	Provider  string
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
}

// Message is one conversation turn. Exactly one of Content, ToolCalls or
// ToolResults carries the payload, except assistant turns which may pair
// text with tool calls.
type Message struct {
	Role        string
	Content     string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is a tool invocation proposed by the model. Arguments holds the raw
// JSON object the model produced.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

type ToolResult struct {
	ToolCallID string
	Content    string
	IsError    bool
}

type ChatResponse struct {
	Content    string
	ToolCalls  []ToolCall
	StopReason string
	Usage      *Usage
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type LLM interface {
	ChatWithTools(ctx context.Context, systemPrompt string, messages []Message, tools []Tool) (*ChatResponse, error)
	Provider() string
	Model() string
}

func UserText(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func AssistantText(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// AssistantToolCalls records the model's raw turn, text included, so the
// follow-up tool results line up with the ids it issued.
func AssistantToolCalls(content string, calls []ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// ToolResults packs a whole batch of results into a single user turn.
func ToolResults(results []ToolResult) Message {
	return Message{Role: RoleUser, ToolResults: results}
}
