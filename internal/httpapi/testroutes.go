package httpapi

import (
	"net/http"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/datastore"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/logger"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/tools"
)

const (
	msgConnectionOK = "✅ חיבור תקין!"
	msgForbidden    = "Forbidden: missing/invalid x-test-key"
	sampleTable     = "projects"
)

// handleTestAirtable reads one project record to prove the store is reachable.
func (s *Server) handleTestAirtable(w http.ResponseWriter, r *http.Request) {
	logger.Info("checking datastore connection")

	records, err := s.store.GetAll(r.Context(), "", sampleTable, 1)
	if err != nil {
		respondJSON(w, http.StatusOK, map[string]any{"success": false, "error": err.Error()})
		return
	}

	var sample *datastore.Record
	if len(records) > 0 {
		sample = &records[0]
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"message":      msgConnectionOK,
		"sampleRecord": sample,
	})
}

// The /test routes call the store directly, bypassing the model and the
// confirmation gate.

func (s *Server) requireTestKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.testKey != "" && r.Header.Get("x-test-key") != s.testKey {
			respondJSON(w, http.StatusForbidden, map[string]any{"ok": false, "error": msgForbidden})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type testRequest struct {
	BaseID       string         `json:"baseId"`
	TableID      string         `json:"tableId"`
	SearchTerm   string         `json:"searchTerm"`
	CustomerID   string         `json:"customerId"`
	ProjectID    string         `json:"projectId"`
	FloorNumber  tools.Text     `json:"floorNumber"`
	OfficeNumber tools.Text     `json:"officeNumber"`
	RecordID     string         `json:"recordId"`
	MaxRecords   int            `json:"maxRecords"`
	Fields       map[string]any `json:"fields"`
}

// testHandler decodes the request and wraps fn's result as {ok, out}.
func testHandler(fn func(r *http.Request, req testRequest) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req testRequest
		if err := decodeJSON(r, &req); err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
			return
		}

		out, err := fn(r, req)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
			return
		}

		respondJSON(w, http.StatusOK, map[string]any{"ok": true, "out": out})
	}
}

func (s *Server) handleTestSearch(w http.ResponseWriter, r *http.Request) {
	testHandler(func(r *http.Request, req testRequest) (any, error) {
		return s.store.Search(r.Context(), req.BaseID, req.TableID, req.SearchTerm)
	})(w, r)
}

func (s *Server) handleTestSearchTransactions(w http.ResponseWriter, r *http.Request) {
	testHandler(func(r *http.Request, req testRequest) (any, error) {
		return s.store.SearchTransactions(r.Context(), req.BaseID, req.CustomerID, req.ProjectID)
	})(w, r)
}

func (s *Server) handleTestListOffices(w http.ResponseWriter, r *http.Request) {
	testHandler(func(r *http.Request, req testRequest) (any, error) {
		return s.store.ListOfficesOnFloor(r.Context(), req.BaseID, req.ProjectID, string(req.FloorNumber))
	})(w, r)
}

func (s *Server) handleTestFindOffice(w http.ResponseWriter, r *http.Request) {
	testHandler(func(r *http.Request, req testRequest) (any, error) {
		return s.store.FindOffice(r.Context(), req.BaseID, req.ProjectID, string(req.FloorNumber), string(req.OfficeNumber))
	})(w, r)
}

func (s *Server) handleTestCreate(w http.ResponseWriter, r *http.Request) {
	testHandler(func(r *http.Request, req testRequest) (any, error) {
		return s.store.Create(r.Context(), req.BaseID, req.TableID, req.Fields)
	})(w, r)
}

func (s *Server) handleTestUpdate(w http.ResponseWriter, r *http.Request) {
	testHandler(func(r *http.Request, req testRequest) (any, error) {
		return s.store.Update(r.Context(), req.BaseID, req.TableID, req.RecordID, req.Fields)
	})(w, r)
}

// get-all reports a count and one sample rather than the whole table.
func (s *Server) handleTestGetAll(w http.ResponseWriter, r *http.Request) {
	var req testRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
		return
	}

	records, err := s.store.GetAll(r.Context(), req.BaseID, req.TableID, req.MaxRecords)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
		return
	}

	var sample *datastore.Record
	if len(records) > 0 {
		sample = &records[0]
	}

	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "count": len(records), "sample": sample})
}
