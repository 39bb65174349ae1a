package approval

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/datastore"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/llm"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/tools"
)

const (
	summaryHeader   = "🔔 **בקשת אישור לביצוע פעולה:**\n\n"
	summaryQuestion = "❓ **האם לבצע את הפעולה? (כן/לא)**"
	genericRecord   = "רשומה"
)

// Summarize describes the mutating calls of a batch for the user to approve.
func Summarize(calls []llm.ToolCall, tables *datastore.Tables) string {
	var b strings.Builder
	b.WriteString(summaryHeader)

	for _, call := range calls {
		in, err := tools.Decode(call.Name, call.Arguments)
		if err != nil {
			if tools.Mutating(call.Name) {
				fmt.Fprintf(&b, "⚙️ **%s**\n\n", call.Name)
			}
			continue
		}

		switch v := in.(type) {
		case tools.CreateInput:
			name := genericRecord
			if tables != nil {
				if n := tables.DisplayName(v.TableID); n != "" {
					name = n
				}
			}
			fmt.Fprintf(&b, "🆕 **יצירת %s חדשה**\n", name)
			writeFields(&b, v.Fields)
			b.WriteString("\n")
		case tools.UpdateInput:
			b.WriteString("🔄 **עדכון רשומה**\n")
			fmt.Fprintf(&b, "   🆔 Record ID: %s\n", v.RecordID)
			writeFields(&b, v.Fields)
			b.WriteString("\n")
		}
	}

	b.WriteString(summaryQuestion)
	return b.String()
}

func writeFields(b *strings.Builder, fields map[string]any) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(b, "   📝 %s: %s\n", k, jsonValue(fields[k]))
	}
}

func jsonValue(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimRight(buf.String(), "\n")
}
