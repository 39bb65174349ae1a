package approval

import (
	"strings"
	"testing"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/config"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/datastore"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/llm"
)

func TestSummarizeCreateAndUpdate(t *testing.T) {
	tables := datastore.NewTables(config.DefaultDomain().Tables)

	calls := []llm.ToolCall{
		{ID: "c1", Name: "create_record", Arguments: `{"tableId":"tblSgYN8CbQcxeT0j","fields":{"משרד":["recO1"],"סכום":1200}}`},
		{ID: "c2", Name: "update_record", Arguments: `{"tableId":"customers","recordId":"rec00000000000001","fields":{"status":"Done & dusted"}}`},
		{ID: "c3", Name: "search_airtable", Arguments: `{"tableId":"customers","searchTerm":"x"}`},
	}

	got := Summarize(calls, tables)

	want := summaryHeader +
		"🆕 **יצירת עסקה חדשה**\n" +
		"   📝 משרד: [\"recO1\"]\n" +
		"   📝 סכום: 1200\n" +
		"\n" +
		"🔄 **עדכון רשומה**\n" +
		"   🆔 Record ID: rec00000000000001\n" +
		"   📝 status: \"Done & dusted\"\n" +
		"\n" +
		summaryQuestion

	if got != want {
		t.Errorf("unexpected summary:\n%s\nwant:\n%s", got, want)
	}
}

func TestSummarizeUnknownTableUsesGenericName(t *testing.T) {
	tables := datastore.NewTables(config.DefaultDomain().Tables)

	got := Summarize([]llm.ToolCall{
		{ID: "c1", Name: "create_record", Arguments: `{"tableId":"leads","fields":{"name":"x"}}`},
	}, tables)

	if !strings.Contains(got, "יצירת "+genericRecord+" חדשה") {
		t.Errorf("expected generic record name:\n%s", got)
	}
}

func TestSummarizeUndecodableMutation(t *testing.T) {
	got := Summarize([]llm.ToolCall{{ID: "c1", Name: "update_record", Arguments: `{`}}, nil)

	if !strings.Contains(got, "update_record") || !strings.HasSuffix(got, summaryQuestion) {
		t.Errorf("unexpected summary:\n%s", got)
	}
}
