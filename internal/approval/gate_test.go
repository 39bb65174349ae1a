package approval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/config"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/datastore"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/llm"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/session"
)

type recordingExecutor struct {
	calls  []llm.ToolCall
	failOn string
}

func (r *recordingExecutor) Execute(ctx context.Context, call llm.ToolCall) (string, error) {
	r.calls = append(r.calls, call)
	if call.ID == r.failOn {
		return "", errors.New("Unknown field name: \"x\"")
	}
	return "{}", nil
}

func newTestGate() (*Gate, *session.Store, *recordingExecutor) {
	domain := config.DefaultDomain()
	store := session.NewStore(session.Options{})
	exec := &recordingExecutor{}
	gate := NewGate(store, exec, NewClassifier(domain.Keywords), datastore.NewTables(domain.Tables), Options{})
	return gate, store, exec
}

var updateBatch = []llm.ToolCall{{
	ID:        "c1",
	Name:      "update_record",
	Arguments: `{"baseId":"app","tableId":"customers","recordId":"rec0000000000001","fields":{"status":"Done"}}`,
}}

func TestResolveWithoutPending(t *testing.T) {
	gate, _, exec := newTestGate()

	if out, absorbed := gate.Resolve(context.Background(), "u1", "כן"); absorbed || out != nil {
		t.Errorf("nothing pending, got %+v %v", out, absorbed)
	}
	if len(exec.calls) != 0 {
		t.Error("nothing should run")
	}
}

func TestHoldStoresPendingAndSummarizes(t *testing.T) {
	gate, store, _ := newTestGate()

	summary := gate.Hold("u1", "update it", updateBatch)

	if !store.HasPending("u1") {
		t.Fatal("expected pending action")
	}
	if !strings.Contains(summary, "rec0000000000001") {
		t.Errorf("summary should embed record id:\n%s", summary)
	}

	action, _ := store.Pending("u1")
	if action.OriginalMessage != "update it" || len(action.Calls) != 1 || action.ID == "" {
		t.Errorf("unexpected pending action %+v", action)
	}
}

func TestAffirmativeExecutesOnce(t *testing.T) {
	gate, store, exec := newTestGate()
	gate.Hold("u1", "update it", updateBatch)

	out, absorbed := gate.Resolve(context.Background(), "u1", "כן")
	if !absorbed {
		t.Fatal("affirmative reply should be absorbed")
	}
	if out.Kind != Completed || out.Response != msgCompleted {
		t.Errorf("unexpected outcome %+v", out)
	}
	if len(exec.calls) != 1 || exec.calls[0].ID != "c1" {
		t.Errorf("expected c1 executed once, got %+v", exec.calls)
	}
	if store.HasPending("u1") {
		t.Error("pending action should be cleared")
	}

	if _, absorbed := gate.Resolve(context.Background(), "u1", "כן"); absorbed {
		t.Error("second yes must not run the batch again")
	}
	if len(exec.calls) != 1 {
		t.Errorf("batch ran %d times", len(exec.calls))
	}
}

func TestNegativeCancels(t *testing.T) {
	gate, store, exec := newTestGate()
	gate.Hold("u1", "update it", updateBatch)

	out, absorbed := gate.Resolve(context.Background(), "u1", "לא תודה")
	if !absorbed || out.Kind != Cancelled || out.Response != msgCancelled {
		t.Errorf("unexpected outcome %+v %v", out, absorbed)
	}
	if len(exec.calls) != 0 {
		t.Error("cancelled batch must not run")
	}
	if store.HasPending("u1") {
		t.Error("pending action should be cleared")
	}
}

func TestAmbiguousKeepsPending(t *testing.T) {
	gate, store, exec := newTestGate()
	gate.Hold("u1", "update it", updateBatch)

	out, absorbed := gate.Resolve(context.Background(), "u1", "רגע")
	if !absorbed || out.Kind != Clarify || out.Response != msgClarify {
		t.Errorf("unexpected outcome %+v %v", out, absorbed)
	}
	if !store.HasPending("u1") {
		t.Error("pending action should survive an ambiguous reply")
	}
	if len(exec.calls) != 0 {
		t.Error("nothing should run")
	}
}

func TestNewRequestSupersedes(t *testing.T) {
	gate, store, exec := newTestGate()
	gate.Hold("u1", "update it", updateBatch)

	out, absorbed := gate.Resolve(context.Background(), "u1", "חפש את הפרויקט")
	if absorbed || out != nil {
		t.Errorf("new request should fall through, got %+v", out)
	}
	if store.HasPending("u1") {
		t.Error("pending action should be dropped")
	}
	if len(exec.calls) != 0 {
		t.Error("nothing should run")
	}
}

func TestFailureAbortsRemainingCalls(t *testing.T) {
	gate, store, exec := newTestGate()
	exec.failOn = "c2"

	batch := []llm.ToolCall{
		{ID: "c1", Name: "update_record", Arguments: updateBatch[0].Arguments},
		{ID: "c2", Name: "create_record", Arguments: `{"tableId":"customers","fields":{"x":1}}`},
		{ID: "c3", Name: "update_record", Arguments: updateBatch[0].Arguments},
	}
	gate.Hold("u1", "do three things", batch)

	out, absorbed := gate.Resolve(context.Background(), "u1", "אישור")
	if !absorbed {
		t.Fatal("expected absorbed")
	}
	if out.Kind != Failed || out.Err == nil {
		t.Fatalf("expected failure, got %+v", out)
	}
	if !strings.HasPrefix(out.Response, msgFailed) || !strings.Contains(out.Response, "Unknown field name") {
		t.Errorf("failure text should embed the error: %s", out.Response)
	}
	if len(exec.calls) != 2 {
		t.Errorf("expected execution to stop after c2, ran %d calls", len(exec.calls))
	}
	if store.HasPending("u1") {
		t.Error("failed batch must not stay pending")
	}
}

func TestHoldReplacesOlderAction(t *testing.T) {
	gate, store, _ := newTestGate()

	gate.Hold("u1", "first", updateBatch)
	gate.Hold("u1", "second", updateBatch)

	action, _ := store.Pending("u1")
	if action.OriginalMessage != "second" {
		t.Errorf("expected newest action, got %q", action.OriginalMessage)
	}
}
