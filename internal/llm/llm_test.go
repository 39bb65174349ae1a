package llm

import (
	"errors"
	"sort"
	"testing"
)

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(Config{Provider: "claude"})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "nope", APIKey: "k"})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNewClaudeDefaults(t *testing.T) {
	model, err := New(Config{Provider: "claude", APIKey: "k"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.Provider() != "claude" {
		t.Errorf("expected provider claude, got %s", model.Provider())
	}
	if model.Model() != defaultClaudeModel {
		t.Errorf("expected default model, got %s", model.Model())
	}
}

func TestSupportedProviders(t *testing.T) {
	providers := Providers()
	if !sort.StringsAreSorted(providers) {
		t.Errorf("providers not sorted: %v", providers)
	}
	for _, p := range providers {
		if !Supports(p) {
			t.Errorf("%s listed but not supported", p)
		}
	}
	if Supports("kimi-x") {
		t.Error("kimi-x should not be supported")
	}
}

func TestSanitizeToolID(t *testing.T) {
	if got := sanitizeToolID("call:1.2"); got != "call_1_2" {
		t.Errorf("expected call_1_2, got %s", got)
	}
}

func TestClaudeConvertMessagesBatchesToolResults(t *testing.T) {
	c := newClaude(Config{APIKey: "k"}).(*claude)

	msgs := []Message{
		UserText("find customer"),
		AssistantToolCalls("", []ToolCall{
			{ID: "a", Name: "search_airtable", Arguments: `{"searchTerm":"x"}`},
			{ID: "b", Name: "search_airtable", Arguments: ""},
		}),
		ToolResults([]ToolResult{{ToolCallID: "a", Content: "1"}, {ToolCallID: "b", Content: "2"}}),
		AssistantText("done"),
	}

	converted := c.convertMessages(msgs)
	if len(converted) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(converted))
	}
	if len(converted[2].Content) != 2 {
		t.Errorf("expected both results in one turn, got %d blocks", len(converted[2].Content))
	}
}

func TestOpenAIConvertMessagesExpandsToolResults(t *testing.T) {
	o := newOpenAI(Config{Provider: "openai", APIKey: "k", BaseURL: "http://localhost", Model: "m"}).(*openaiCompatible)

	msgs := []Message{
		UserText("hi"),
		AssistantToolCalls("", []ToolCall{{ID: "a", Name: "t"}, {ID: "b", Name: "t"}}),
		ToolResults([]ToolResult{{ToolCallID: "a"}, {ToolCallID: "b"}}),
	}

	converted := o.convertMessages("system", msgs)
	// system + user + assistant + 2 tool messages
	if len(converted) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(converted))
	}
	if converted[0].OfSystem == nil {
		t.Error("first message should be the system prompt")
	}
	if converted[3].OfTool == nil || converted[4].OfTool == nil {
		t.Error("tool results should become tool messages")
	}
}

func TestRequiredFields(t *testing.T) {
	got := requiredFields(map[string]any{"required": []any{"a", 1, "b"}})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("unexpected required fields: %v", got)
	}
}
