package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/config"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/datastore"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/llm"
)

const (
	testBase     = "appL1FfUaRbmPNI01"
	txTable      = "tblSgYN8CbQcxeT0j"
	officesTable = "tbl7etO9Yn3VH9QpT"
)

func newTestGateway(t *testing.T) (*Gateway, *datastore.Memory) {
	t.Helper()
	domain := config.DefaultDomain()
	mem := datastore.NewMemory()
	return NewGateway(datastore.NewClient(mem, domain), domain), mem
}

func call(name string, args any) llm.ToolCall {
	data, _ := json.Marshal(args)
	return llm.ToolCall{ID: "call_" + name, Name: name, Arguments: string(data)}
}

func TestGatewayToolsCoverDispatchTable(t *testing.T) {
	g, _ := newTestGateway(t)

	names := map[string]bool{}
	for _, tool := range g.Tools() {
		names[tool.Name] = true
	}

	for _, name := range []string{SearchRecords, SearchTransactions, GetAllRecords, CreateRecord, UpdateRecord, GetTableFields, FindOffice} {
		if !names[name] {
			t.Errorf("missing tool schema %s", name)
		}
	}
}

func TestGatewaySearch(t *testing.T) {
	g, mem := newTestGateway(t)
	mem.Seed(datastore.TableRef{Base: testBase, ID: "tblcTFGg6WyKkO5kq"},
		datastore.Record{ID: "recC1", Fields: map[string]any{"שם": "דנה כהן"}},
	)

	out, err := g.Execute(context.Background(), call(SearchRecords, map[string]any{
		"baseId": testBase, "tableId": "לקוחות", "searchTerm": "דנה",
	}))
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	var res datastore.SearchResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("result is not JSON: %v\n%s", err, out)
	}
	if res.Found != 1 || res.Records[0].ID != "recC1" {
		t.Errorf("unexpected result %+v", res)
	}
	if !strings.Contains(out, "\n  ") {
		t.Error("result should be indented")
	}
}

func TestGatewayUnknownTool(t *testing.T) {
	g, _ := newTestGateway(t)

	_, err := g.Execute(context.Background(), llm.ToolCall{ID: "x", Name: "drop_table", Arguments: "{}"})
	if !errors.Is(err, ErrUnknownTool) {
		t.Errorf("expected ErrUnknownTool, got %v", err)
	}
}

func TestGatewayRefusesTransactionWithoutOffice(t *testing.T) {
	g, mem := newTestGateway(t)

	for _, fields := range []map[string]any{
		{"לקוחות": []string{"recC1"}},
		{"לקוחות": []string{"recC1"}, "משרד": []string{}},
		{"לקוחות": []string{"recC1"}, "משרד": "recO1"},
	} {
		out, err := g.Execute(context.Background(), call(CreateRecord, map[string]any{
			"baseId": testBase, "tableId": txTable, "fields": fields,
		}))
		if err != nil {
			t.Fatalf("Execute() error: %v", err)
		}
		if out != msgTransactionNeedsOffice {
			t.Errorf("expected refusal for %v, got %s", fields, out)
		}
	}

	records, _ := mem.List(context.Background(), datastore.TableRef{Base: testBase, ID: txTable}, 0)
	if len(records) != 0 {
		t.Errorf("refused creates must not reach the store, found %d records", len(records))
	}
}

func TestGatewayCreatesTransactionWithOffice(t *testing.T) {
	g, mem := newTestGateway(t)

	out, err := g.Execute(context.Background(), call(CreateRecord, map[string]any{
		"baseId": testBase, "tableId": "transactions", "fields": map[string]any{"משרד": []string{"recO1"}},
	}))
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	var rec datastore.Record
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("result is not a record: %v\n%s", err, out)
	}

	records, _ := mem.List(context.Background(), datastore.TableRef{Base: testBase, ID: txTable}, 0)
	if len(records) != 1 || records[0].ID != rec.ID {
		t.Errorf("expected the created record in the store, got %+v", records)
	}
}

func TestGatewayCreateOtherTableNotGuarded(t *testing.T) {
	g, _ := newTestGateway(t)

	out, err := g.Execute(context.Background(), call(CreateRecord, map[string]any{
		"baseId": testBase, "tableId": "customers", "fields": map[string]any{"name": "Dana"},
	}))
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if out == msgTransactionNeedsOffice {
		t.Error("customers should not need an office")
	}
}

func TestGatewayFindOfficeFallback(t *testing.T) {
	g, mem := newTestGateway(t)
	mem.Seed(datastore.TableRef{Base: testBase, ID: officesTable},
		datastore.Record{ID: "recO1", Fields: map[string]any{"קומה": float64(2), "פרוייקט": []any{"recP1"}, "מס׳ משרד": "201"}},
		datastore.Record{ID: "recO2", Fields: map[string]any{"קומה": float64(2), "פרוייקט": []any{"recP1"}, "מס׳ משרד": "202"}},
	)

	args := map[string]any{"baseId": testBase, "projectId": "recP1", "floorNumber": 2, "officeNumber": 209}
	out, err := g.Execute(context.Background(), call(FindOffice, args))
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	want := fmt.Sprintf(msgOfficeNotFound, "2") + "- מספר: 201 (ID: recO1)\n- מספר: 202 (ID: recO2)\n" + msgPickOffice
	if out != want {
		t.Errorf("unexpected fallback:\n%s\nwant:\n%s", out, want)
	}

	args["floorNumber"] = 9
	out, err = g.Execute(context.Background(), call(FindOffice, args))
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if out != fmt.Sprintf(msgNoOfficesOnFloor, "9") {
		t.Errorf("unexpected empty-floor text: %s", out)
	}

	args["floorNumber"] = 2
	args["officeNumber"] = 202
	out, err = g.Execute(context.Background(), call(FindOffice, args))
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !strings.Contains(out, `"id": "recO2"`) {
		t.Errorf("expected matched office record, got %s", out)
	}
}

func TestGatewayPropagatesStoreErrors(t *testing.T) {
	g, _ := newTestGateway(t)

	_, err := g.Execute(context.Background(), call(UpdateRecord, map[string]any{
		"baseId": testBase, "tableId": "customers", "recordId": "rec00000000000001", "fields": map[string]any{"a": 1},
	}))

	var apiErr *datastore.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 404 {
		t.Errorf("expected not-found APIError, got %v", err)
	}
}

func TestDiagnose(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&datastore.APIError{StatusCode: 422, Type: "UNKNOWN_FIELD_NAME", Message: `Unknown field name: "x"`}, hintUnknownField},
		{&datastore.APIError{StatusCode: 422, Type: "INVALID_MULTIPLE_CHOICE_OPTIONS", Message: "bad option"}, hintChoice},
		{&datastore.APIError{StatusCode: 422, Type: "INVALID_VALUE_FOR_COLUMN", Message: "bad"}, hintInvalidData},
		{&datastore.APIError{StatusCode: 404, Type: "NOT_FOUND", Message: "NOT_FOUND"}, hintNotFound},
		{fmt.Errorf("update record failed: %w", datastore.ErrInvalidRecordID), hintNotFound},
		{fmt.Errorf("search failed: %w", datastore.ErrInvalidTable), hintBadTable},
		{errors.New("connection reset"), errorPrefix + "connection reset"},
	}

	for _, tt := range tests {
		if got := Diagnose(tt.err); got != tt.want {
			t.Errorf("Diagnose(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
