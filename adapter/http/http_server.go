// Package http serves an agent over the Bedrock AgentCore runtime contract:
// POST /invocations with a JSON prompt and GET /ping for health.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/scttfrdmn/econflux/econflux-go/econflux"
)

const (
	// SessionHeader carries the runtime session id.
	SessionHeader = "X-Amzn-Bedrock-AgentCore-Runtime-Session-Id"

	// MissingPromptMessage is returned when the payload has no prompt.
	MissingPromptMessage = "Missing 'prompt' in payload."

	StatusHealthy     = "Healthy"
	StatusHealthyBusy = "HealthyBusy"

	maxPayloadSize  = 1 << 20
	promptLogPrefix = 50
	shutdownTimeout = 5 * time.Second
)

// InvocationRequest is the /invocations payload. Prompt is usually a
// string but any JSON value is accepted.
type InvocationRequest struct {
	Prompt interface{} `json:"prompt"`
}

// PromptText returns the prompt as text. Empty and zero values (null, "",
// 0, false, [], {}) count as missing and yield "". Strings are returned
// as-is and other values as their JSON text.
func (r InvocationRequest) PromptText() string {
	switch v := r.Prompt.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if !v {
			return ""
		}
		return "true"
	case json.Number:
		if f, err := v.Float64(); err == nil && f == 0 {
			return ""
		}
		return v.String()
	case float64:
		if v == 0 {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []interface{}:
		if len(v) == 0 {
			return ""
		}
	case map[string]interface{}:
		if len(v) == 0 {
			return ""
		}
	}
	data, err := json.Marshal(r.Prompt)
	if err != nil {
		return fmt.Sprint(r.Prompt)
	}
	return string(data)
}

// InvocationResponse is the /invocations reply. Exactly one field is set.
type InvocationResponse struct {
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// PingResponse is the /ping reply.
type PingResponse struct {
	Status           string `json:"status"`
	TimeOfLastUpdate int64  `json:"time_of_last_update"`
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithCORS enables CORS for the given origins. No origins leaves CORS off.
func WithCORS(origins ...string) Option {
	return func(s *Server) { s.corsOrigins = origins }
}

// WithMetricsGatherer serves the gatherer on /metrics.
func WithMetricsGatherer(gatherer prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = gatherer }
}

// WithClock overrides the clock used for /ping timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// Server exposes an agent over HTTP.
type Server struct {
	agent       econflux.Agent
	addr        string
	logger      *slog.Logger
	corsOrigins []string
	gatherer    prometheus.Gatherer
	now         func() time.Time

	router  *mux.Router
	handler http.Handler

	inflight   atomic.Int64
	statusMu   sync.Mutex
	status     string
	lastUpdate time.Time

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// NewServer creates a runtime server for agent listening on addr.
func NewServer(agent econflux.Agent, addr string, opts ...Option) *Server {
	s := &Server{
		agent:    agent,
		addr:     addr,
		logger:   slog.Default(),
		gatherer: prometheus.DefaultGatherer,
		now:      time.Now,
		router:   mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.status = StatusHealthy
	s.lastUpdate = s.now()

	s.router.HandleFunc("/invocations", s.handleInvocations).Methods(http.MethodPost)
	s.router.HandleFunc("/ping", s.handlePing).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	var handler http.Handler = s.router
	if len(s.corsOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins: s.corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", SessionHeader},
			ExposedHeaders: []string{SessionHeader},
		}).Handler(handler)
	}
	handler = otelhttp.NewHandler(handler, "econflux.runtime",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}))
	s.handler = h2c.NewHandler(handler, &http2.Server{})
	return s
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Start listens on the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return fmt.Errorf("server already started")
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	s.listener = listener
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	s.logger.Info("agent listening", "agent", s.agent.Name(), "addr", listener.Addr().String())

	server := s.server
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	err := s.server.Shutdown(ctx)
	s.server = nil
	s.listener = nil
	s.logger.Info("agent stopped", "agent", s.agent.Name())
	return err
}

func (s *Server) handleInvocations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadSize+1))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, InvocationResponse{Error: "Failed to read request body."})
		return
	}
	if len(body) > maxPayloadSize {
		s.writeJSON(w, http.StatusRequestEntityTooLarge, InvocationResponse{Error: "Payload too large."})
		return
	}

	var req InvocationRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil || dec.More() {
		s.logger.WarnContext(ctx, "invalid invocation payload", "error", err)
		s.writeJSON(w, http.StatusBadRequest, InvocationResponse{Error: "Invalid JSON payload."})
		return
	}
	prompt := req.PromptText()
	if prompt == "" {
		s.writeJSON(w, http.StatusOK, InvocationResponse{Error: MissingPromptMessage})
		return
	}

	sessionID := r.Header.Get(SessionHeader)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	w.Header().Set(SessionHeader, sessionID)

	logger := s.logger.With("session_id", sessionID)
	logger.InfoContext(ctx, "Processing prompt: "+truncate(prompt, promptLogPrefix)+"...")

	s.begin()
	defer s.end()

	msg := econflux.NewMessage("user", prompt).WithMetadata(econflux.MetadataSessionID, sessionID)
	resp, err := s.agent.Process(ctx, msg)
	if err != nil {
		status := http.StatusInternalServerError
		var validation *econflux.ValidationError
		if errors.As(err, &validation) {
			status = http.StatusBadRequest
		}
		logger.ErrorContext(ctx, "invocation failed", "error", err)
		s.writeJSON(w, status, InvocationResponse{Error: err.Error()})
		return
	}

	logger.DebugContext(ctx, "Agent response: "+resp.Content)
	s.writeJSON(w, http.StatusOK, InvocationResponse{Result: resp.Content})
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	s.statusMu.Lock()
	resp := PingResponse{Status: s.status, TimeOfLastUpdate: s.lastUpdate.Unix()}
	s.statusMu.Unlock()
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) begin() {
	if s.inflight.Add(1) == 1 {
		s.setStatus(StatusHealthyBusy)
	}
}

func (s *Server) end() {
	if s.inflight.Add(-1) == 0 {
		s.setStatus(StatusHealthy)
	}
}

func (s *Server) setStatus(status string) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	if s.status != status {
		s.status = status
		s.lastUpdate = s.now()
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}

// truncate returns at most n runes of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
