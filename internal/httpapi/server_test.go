package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/agent"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/config"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/datastore"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/llm"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/metrics"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/session"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/tools"
)

// echoLLM answers every request with a fixed text.
type echoLLM struct{ answer string }

func (e echoLLM) ChatWithTools(ctx context.Context, systemPrompt string, messages []llm.Message, tools []llm.Tool) (*llm.ChatResponse, error) {
	return &llm.ChatResponse{Content: e.answer}, nil
}
func (echoLLM) Provider() string { return "fake" }
func (echoLLM) Model() string    { return "fake-model" }

func newTestServer(t *testing.T, testKey string) *httptest.Server {
	t.Helper()

	domain := config.DefaultDomain()
	tables := datastore.NewTables(domain.Tables)

	backend := datastore.NewMemory()
	backend.Seed(datastore.TableRef{Base: domain.BaseID, ID: tables.ID("projects")},
		datastore.Record{ID: "recProj000000001", Fields: map[string]any{"שם": "מגדל הים"}})
	backend.Seed(datastore.TableRef{Base: domain.BaseID, ID: tables.ID("customers")},
		datastore.Record{ID: "recCust000000001", Fields: map[string]any{"שם": "דנה כהן"}})

	client := datastore.NewClient(backend, domain)
	m := metrics.New(prometheus.NewRegistry())
	a := agent.New(echoLLM{answer: "שלום!"}, session.NewStore(session.Options{}), tools.NewGateway(client, domain), domain.Keywords, agent.Options{Metrics: m})

	ts := httptest.NewServer(New(a, client, Options{TestKey: testKey, Metrics: m}).Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any, header map[string]string) *http.Response {
	t.Helper()

	data, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request error = %v", err)
	}
	return res
}

func decode(t *testing.T, res *http.Response) map[string]any {
	t.Helper()
	defer res.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestQueryAndMemory(t *testing.T) {
	ts := newTestServer(t, "")

	res := postJSON(t, ts.URL+"/claude-query", map[string]string{"sender": "u1", "message": "hi"}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
	if res.Header.Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}
	reply := decode(t, res)
	if reply["success"] != true || reply["response"] != "שלום!" || reply["steps"] != float64(1) {
		t.Errorf("unexpected reply %+v", reply)
	}

	memRes, err := http.Get(ts.URL + "/memory/u1")
	if err != nil {
		t.Fatal(err)
	}
	mem := decode(t, memRes)
	if mem["historyLength"] != float64(2) || mem["hasPendingAction"] != false {
		t.Errorf("unexpected memory view %+v", mem)
	}

	clearRes := postJSON(t, ts.URL+"/clear-memory", map[string]string{"sender": "u1"}, nil)
	cleared := decode(t, clearRes)
	if cleared["message"] != "Memory cleared for u1" {
		t.Errorf("unexpected clear reply %+v", cleared)
	}

	memRes, err = http.Get(ts.URL + "/memory/u1")
	if err != nil {
		t.Fatal(err)
	}
	if mem := decode(t, memRes); mem["historyLength"] != float64(0) {
		t.Errorf("expected empty history, got %+v", mem)
	}
}

func TestQueryDefaultsSender(t *testing.T) {
	ts := newTestServer(t, "")

	decode(t, postJSON(t, ts.URL+"/claude-query", map[string]string{"message": "hi"}, nil))

	memRes, err := http.Get(ts.URL + "/memory")
	if err != nil {
		t.Fatal(err)
	}
	mem := decode(t, memRes)
	if mem["sender"] != agent.DefaultSender || mem["historyLength"] != float64(2) {
		t.Errorf("unexpected memory view %+v", mem)
	}
}

func TestQueryWithoutMessage(t *testing.T) {
	ts := newTestServer(t, "")

	reply := decode(t, postJSON(t, ts.URL+"/claude-query", map[string]string{"sender": "u1"}, nil))
	if reply["success"] != false || reply["error"] == nil {
		t.Errorf("expected failure payload, got %+v", reply)
	}
}

func TestDecodeJSONEmptyAndTruncatedBodies(t *testing.T) {
	var req queryRequest

	empty := httptest.NewRequest(http.MethodPost, "/claude-query", strings.NewReader(""))
	if err := decodeJSON(empty, &req); !errors.Is(err, errEmptyBody) {
		t.Errorf("empty body: expected errEmptyBody, got %v", err)
	}

	truncated := httptest.NewRequest(http.MethodPost, "/claude-query", strings.NewReader(`{"sender":"u1"`))
	err := decodeJSON(truncated, &req)
	if err == nil || errors.Is(err, errEmptyBody) {
		t.Errorf("truncated body: expected a decode error, got %v", err)
	}
}

func TestQueryRejectsTruncatedBody(t *testing.T) {
	ts := newTestServer(t, "")

	res, err := http.Post(ts.URL+"/claude-query", "application/json", strings.NewReader(`{"sender":"u1"`))
	if err != nil {
		t.Fatal(err)
	}
	reply := decode(t, res)
	if reply["success"] != false {
		t.Fatalf("expected failure payload, got %+v", reply)
	}
	if msg, _ := reply["error"].(string); !strings.Contains(msg, "unexpected EOF") {
		t.Errorf("expected the decode error, got %q", msg)
	}
}

func TestTestRoutesRequireKey(t *testing.T) {
	ts := newTestServer(t, "secret")
	body := map[string]string{"tableId": "customers", "searchTerm": "דנה"}

	res := postJSON(t, ts.URL+"/test/search-airtable", body, nil)
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", res.StatusCode)
	}
	res.Body.Close()

	res = postJSON(t, ts.URL+"/test/search-airtable", body, map[string]string{"x-test-key": "secret"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}
	out := decode(t, res)
	result, _ := out["out"].(map[string]any)
	if out["ok"] != true || result["found"] != float64(1) {
		t.Errorf("unexpected search result %+v", out)
	}
}

func TestTestRoutesReportErrors(t *testing.T) {
	ts := newTestServer(t, "")

	res := postJSON(t, ts.URL+"/test/update", map[string]any{"tableId": "customers", "recordId": "bad", "fields": map[string]any{"x": 1}}, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", res.StatusCode)
	}
	if out := decode(t, res); out["ok"] != false {
		t.Errorf("unexpected payload %+v", out)
	}
}

func TestTestGetAll(t *testing.T) {
	ts := newTestServer(t, "")

	out := decode(t, postJSON(t, ts.URL+"/test/get-all", map[string]any{"tableId": "projects"}, nil))
	if out["ok"] != true || out["count"] != float64(1) || out["sample"] == nil {
		t.Errorf("unexpected payload %+v", out)
	}
}

func TestTestAirtableRoute(t *testing.T) {
	ts := newTestServer(t, "")

	res, err := http.Get(ts.URL + "/test-airtable")
	if err != nil {
		t.Fatal(err)
	}
	out := decode(t, res)
	sample, _ := out["sampleRecord"].(map[string]any)
	if out["success"] != true || sample["id"] != "recProj000000001" {
		t.Errorf("unexpected sample %+v", out)
	}
}

func TestHealthStatusAndMetrics(t *testing.T) {
	ts := newTestServer(t, "")

	res, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	if health := decode(t, res); health["status"] != "ok" {
		t.Errorf("unexpected health %+v", health)
	}

	res, err = http.Get(ts.URL + "/status")
	if err != nil {
		t.Fatal(err)
	}
	status := decode(t, res)
	if status["os"] == "" || status["sessions"] != float64(0) {
		t.Errorf("unexpected status %+v", status)
	}
	if status["session_ttl"] != session.DefaultTTL.String() {
		t.Errorf("expected session ttl %s, got %v", session.DefaultTTL, status["session_ttl"])
	}
	if status["base_id"] != config.DefaultDomain().BaseID {
		t.Errorf("expected default base id, got %v", status["base_id"])
	}

	decode(t, postJSON(t, ts.URL+"/claude-query", map[string]string{"sender": "u1", "message": "hi"}, nil))

	res, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	var buf bytes.Buffer
	buf.ReadFrom(res.Body)
	if !strings.Contains(buf.String(), "crmbot_messages_total") {
		t.Errorf("expected message counter in metrics output")
	}
}
