package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/agent"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/budget"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/datastore"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/logger"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/metrics"
)

const transportHTTP = "http"

type Options struct {
	// TestKey guards the /test routes; empty leaves them open
	TestKey string
	Metrics *metrics.Metrics
	Budget  *budget.Tracker
}

type Server struct {
	agent   *agent.Agent
	store   *datastore.Client
	testKey string
	metrics *metrics.Metrics
	budget  *budget.Tracker
	started time.Time
}

func New(a *agent.Agent, store *datastore.Client, opts Options) *Server {
	return &Server{
		agent:   a,
		store:   store,
		testKey: opts.TestKey,
		metrics: opts.Metrics,
		budget:  opts.Budget,
		started: time.Now(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLog)

	r.Get("/healthz", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		s.metrics.Handler().ServeHTTP(w, r)
	})

	r.Post("/claude-query", s.handleQuery)
	r.Post("/clear-memory", s.handleClearMemory)
	r.Get("/memory", s.handleMemory)
	r.Get("/memory/{sender}", s.handleMemory)
	r.Get("/test-airtable", s.handleTestAirtable)

	r.Route("/test", func(r chi.Router) {
		r.Use(s.requireTestKey)
		r.Post("/search-airtable", s.handleTestSearch)
		r.Post("/search-transactions", s.handleTestSearchTransactions)
		r.Post("/list-offices", s.handleTestListOffices)
		r.Post("/find-office", s.handleTestFindOffice)
		r.Post("/get-all", s.handleTestGetAll)
		r.Post("/create", s.handleTestCreate)
		r.Post("/update", s.handleTestUpdate)
	})

	return r
}

type queryRequest struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondJSON(w, http.StatusOK, agent.Reply{Success: false, Error: err.Error()})
		return
	}

	s.metrics.Message(transportHTTP)
	reply := s.agent.HandleMessage(r.Context(), strings.TrimSpace(req.Sender), req.Message)
	respondJSON(w, http.StatusOK, reply)
}

type senderRequest struct {
	Sender string `json:"sender"`
}

func (s *Server) handleClearMemory(w http.ResponseWriter, r *http.Request) {
	var req senderRequest
	_ = decodeJSON(r, &req)

	sender := strings.TrimSpace(req.Sender)
	if sender == "" {
		sender = agent.DefaultSender
	}

	s.agent.ClearSession(sender)
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Memory cleared for " + sender,
	})
}

func (s *Server) handleMemory(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.agent.InspectSession(chi.URLParam(r, "sender")))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// requestLog tags each request with an id and logs its outcome.
func requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger.Debug("http request", "id", id, "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
