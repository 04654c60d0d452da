package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"hiring-bot/api/internal/session"
	"hiring-bot/api/internal/store"
)

// TranscriptFinder looks up archived conversations.
type TranscriptFinder interface {
	FindBySession(ctx context.Context, id string) (*store.TranscriptRow, error)
}

// Container holds the router's dependencies.
type Container struct {
	Sessions *session.Service
	// Transcripts serves archived conversations; nil when no archive is configured.
	Transcripts TranscriptFinder
	// Ping reports storage health for /healthz; nil means no storage.
	Ping        func(ctx context.Context) error
	TurnTimeout time.Duration

	// WebhookPath/Webhook mount the Telegram webhook when set.
	WebhookPath string
	Webhook     http.Handler
}

func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()
	h := &handler{c: c}

	r.HandleFunc("/healthz", h.health).Methods("GET")
	if c.Webhook != nil && c.WebhookPath != "" {
		r.Handle(c.WebhookPath, c.Webhook).Methods("POST")
	}

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/sessions", h.create).Methods("POST")
	v1.HandleFunc("/sessions/{id}", h.get).Methods("GET")
	v1.HandleFunc("/sessions/{id}/messages", h.message).Methods("POST")
	v1.HandleFunc("/sessions/{id}/retry", h.retry).Methods("POST")
	v1.HandleFunc("/sessions/{id}/restart", h.restart).Methods("POST")
	v1.HandleFunc("/transcripts/{id}", h.transcript).Methods("GET")
	return r
}

// ListenAndServe serves handler on addr until the process exits.
func ListenAndServe(addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("listening on %s", addr)
	return srv.ListenAndServe()
}

type handler struct{ c *Container }

type messageRequest struct {
	Text string `json:"text"`
}

type replyResponse struct {
	SessionID    string         `json:"session_id"`
	Phase        session.Phase  `json:"phase"`
	Messages     []string       `json:"messages"`
	Turns        []session.Turn `json:"turns"`
	Notice       string         `json:"notice,omitempty"`
	CanRetry     bool           `json:"can_retry"`
	NeedsRestart bool           `json:"needs_restart"`
	Error        string         `json:"error,omitempty"`
}

func toResponse(id string, r session.Reply) replyResponse {
	turns := r.Turns
	if turns == nil {
		turns = []session.Turn{}
	}
	msgs := r.Messages()
	if msgs == nil {
		msgs = []string{}
	}
	return replyResponse{
		SessionID:    id,
		Phase:        r.Phase,
		Messages:     msgs,
		Turns:        turns,
		Notice:       r.Notice,
		CanRetry:     r.CanRetry,
		NeedsRestart: r.NeedsRestart,
	}
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok", "sessions": h.c.Sessions.Len()}
	if h.c.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.c.Ping(ctx); err != nil {
			status["status"] = "degraded"
			status["db"] = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		status["db"] = "ok"
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	reply := h.c.Sessions.Open(id)
	writeJSON(w, http.StatusCreated, toResponse(id, reply))
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	v, ok := h.c.Sessions.View(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *handler) transcript(w http.ResponseWriter, r *http.Request) {
	if h.c.Transcripts == nil {
		writeError(w, http.StatusServiceUnavailable, "transcript archive is not configured")
		return
	}
	id := mux.Vars(r)["id"]
	row, err := h.c.Transcripts.FindBySession(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "transcript not found")
	case err != nil:
		log.Printf("httpserver: transcript %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "transcript lookup failed")
	default:
		writeJSON(w, http.StatusOK, row)
	}
}

func (h *handler) message(w http.ResponseWriter, r *http.Request) {
	id, ok := h.existing(w, r)
	if !ok {
		return
	}
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ctx, cancel := h.turnContext(r)
	defer cancel()
	reply, err := h.c.Sessions.Handle(ctx, id, req.Text)
	h.writeReply(w, id, reply, err)
}

func (h *handler) retry(w http.ResponseWriter, r *http.Request) {
	id, ok := h.existing(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.turnContext(r)
	defer cancel()
	reply, err := h.c.Sessions.Retry(ctx, id)
	h.writeReply(w, id, reply, err)
}

func (h *handler) restart(w http.ResponseWriter, r *http.Request) {
	id, ok := h.existing(w, r)
	if !ok {
		return
	}
	reply, err := h.c.Sessions.Restart(id)
	h.writeReply(w, id, reply, err)
}

func (h *handler) existing(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := mux.Vars(r)["id"]
	if _, ok := h.c.Sessions.View(id); !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return "", false
	}
	return id, true
}

func (h *handler) turnContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.c.TurnTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.c.TurnTimeout)
}

func (h *handler) writeReply(w http.ResponseWriter, id string, reply session.Reply, err error) {
	var se *session.StateError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, toResponse(id, reply))
	case errors.As(err, &se), errors.Is(err, session.ErrResetNotAllowed):
		resp := toResponse(id, reply)
		resp.Error = err.Error()
		writeJSON(w, http.StatusConflict, resp)
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "turn timed out")
	case errors.Is(err, context.Canceled):
		writeError(w, http.StatusConflict, "turn cancelled")
	default:
		log.Printf("httpserver: session %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
