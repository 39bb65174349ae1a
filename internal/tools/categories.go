package tools

import "github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/llm"

// MutatingTools create or modify records and are held for confirmation.
var MutatingTools = map[string]bool{
	CreateRecord: true,
	UpdateRecord: true,
}

func Mutating(toolName string) bool {
	return MutatingTools[toolName]
}

// AnyMutating reports whether a batch contains at least one mutating call.
func AnyMutating(calls []llm.ToolCall) bool {
	for _, c := range calls {
		if Mutating(c.Name) {
			return true
		}
	}
	return false
}
