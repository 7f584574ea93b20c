package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scttfrdmn/econflux/econflux-go/econflux"
)

type echoAgent struct {
	mu       sync.Mutex
	err      error
	received []*econflux.Message
	block    chan struct{}
}

func (a *echoAgent) Name() string           { return "echo" }
func (a *echoAgent) Capabilities() []string { return nil }

func (a *echoAgent) Process(_ context.Context, msg *econflux.Message) (*econflux.Message, error) {
	a.mu.Lock()
	a.received = append(a.received, msg)
	a.mu.Unlock()
	if a.block != nil {
		<-a.block
	}
	if a.err != nil {
		return nil, a.err
	}
	return econflux.NewMessage("assistant", "Echo: "+msg.Content), nil
}

var fixedTime = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

func newTestServer(agent econflux.Agent, opts ...Option) *Server {
	opts = append([]Option{
		WithClock(func() time.Time { return fixedTime }),
		WithMetricsGatherer(prometheus.NewRegistry()),
	}, opts...)
	return NewServer(agent, "127.0.0.1:0", opts...)
}

func invoke(t *testing.T, handler http.Handler, body string, headers map[string]string) (*httptest.ResponseRecorder, InvocationResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/invocations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var resp InvocationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec, resp
}

func TestInvocationsResult(t *testing.T) {
	agent := &echoAgent{}
	srv := newTestServer(agent)

	rec, resp := invoke(t, srv.Handler(), `{"prompt":"What is the Fed funds rate?"}`,
		map[string]string{SessionHeader: "session-42"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Echo: What is the Fed funds rate?", resp.Result)
	assert.Empty(t, resp.Error)
	assert.Equal(t, "session-42", rec.Header().Get(SessionHeader))

	require.Len(t, agent.received, 1)
	assert.Equal(t, "user", agent.received[0].Role)
	assert.Equal(t, "session-42", agent.received[0].SessionID())
}

func TestInvocationsGeneratesSessionID(t *testing.T) {
	agent := &echoAgent{}
	srv := newTestServer(agent)

	rec, _ := invoke(t, srv.Handler(), `{"prompt":"hi"}`, nil)
	id := rec.Header().Get(SessionHeader)
	assert.Len(t, id, 36)
	assert.Equal(t, id, agent.received[0].SessionID())
}

func TestInvocationsMissingPrompt(t *testing.T) {
	agent := &echoAgent{}
	srv := newTestServer(agent)

	for _, body := range []string{
		`{}`, `{"prompt":""}`, `{"other":"x"}`,
		`{"prompt":null}`, `{"prompt":0}`, `{"prompt":false}`, `{"prompt":[]}`, `{"prompt":{}}`,
	} {
		rec, resp := invoke(t, srv.Handler(), body, nil)
		assert.Equal(t, http.StatusOK, rec.Code, body)
		assert.Equal(t, MissingPromptMessage, resp.Error, body)
		assert.Empty(t, resp.Result)
	}
	assert.Empty(t, agent.received)
}

func TestInvocationsNonStringPrompt(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"prompt":42}`, "42"},
		{`{"prompt":1.50}`, "1.50"},
		{`{"prompt":true}`, "true"},
		{`{"prompt":["CPI","PCE"]}`, `["CPI","PCE"]`},
		{`{"prompt":{"ticker":"AAPL"}}`, `{"ticker":"AAPL"}`},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			agent := &echoAgent{}
			srv := newTestServer(agent)

			rec, resp := invoke(t, srv.Handler(), tt.body, nil)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "Echo: "+tt.want, resp.Result)
			require.Len(t, agent.received, 1)
			assert.Equal(t, tt.want, agent.received[0].Content)
		})
	}
}

func TestInvocationsInvalidJSON(t *testing.T) {
	srv := newTestServer(&echoAgent{})
	for _, body := range []string{`{not json`, `{"prompt":"a"} trailing`, `["prompt"]`} {
		rec, resp := invoke(t, srv.Handler(), body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.NotEmpty(t, resp.Error, body)
	}
}

func TestInvocationsAgentErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"upstream", econflux.NewUpstreamError("bedrock", errors.New("throttled")), http.StatusInternalServerError},
		{"validation", econflux.NewValidationError("prompt", "too long"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&echoAgent{err: tt.err})
			rec, resp := invoke(t, srv.Handler(), `{"prompt":"hi"}`, nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.err.Error(), resp.Error)
		})
	}
}

func TestInvocationsMethodNotAllowed(t *testing.T) {
	srv := newTestServer(&echoAgent{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/invocations", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func ping(t *testing.T, handler http.Handler) PingResponse {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp PingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestPing(t *testing.T) {
	srv := newTestServer(&echoAgent{})
	resp := ping(t, srv.Handler())
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, fixedTime.Unix(), resp.TimeOfLastUpdate)
}

func TestPingBusyWhileInvoking(t *testing.T) {
	agent := &echoAgent{block: make(chan struct{})}
	srv := newTestServer(agent)

	done := make(chan struct{})
	go func() {
		defer close(done)
		req := httptest.NewRequest(http.MethodPost, "/invocations", strings.NewReader(`{"prompt":"slow"}`))
		srv.Handler().ServeHTTP(httptest.NewRecorder(), req)
	}()

	require.Eventually(t, func() bool {
		return ping(t, srv.Handler()).Status == StatusHealthyBusy
	}, time.Second, 5*time.Millisecond)

	close(agent.block)
	<-done
	assert.Equal(t, StatusHealthy, ping(t, srv.Handler()).Status)
}

func TestMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "econflux_test_total", Help: "test"})
	registry.MustRegister(counter)
	counter.Inc()

	srv := newTestServer(&echoAgent{}, WithMetricsGatherer(registry))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "econflux_test_total 1")
}

func TestCORS(t *testing.T) {
	srv := newTestServer(&echoAgent{}, WithCORS("https://app.example.com"))

	req := httptest.NewRequest(http.MethodOptions, "/invocations", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	plain := newTestServer(&echoAgent{})
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://app.example.com")
	plain.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServerStartStop(t *testing.T) {
	srv := newTestServer(&echoAgent{})
	ctx := context.Background()
	require.NoError(t, srv.Start(ctx))
	assert.Error(t, srv.Start(ctx), "second start fails")

	resp, err := http.Post("http://"+srv.Addr()+"/invocations", "application/json",
		bytes.NewBufferString(`{"prompt":"over the wire"}`))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Contains(t, string(body), "Echo: over the wire")

	require.NoError(t, srv.Stop(ctx))
	require.NoError(t, srv.Stop(ctx), "stop is idempotent")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 50))
	assert.Equal(t, "ééé", truncate("éééé", 3))
}
