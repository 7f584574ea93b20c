// Package evaluation records agent interactions for offline evaluation.
//
// In eval mode every invocation is appended to a per-session recording:
// the prompt, the answer or error, latency, and the response metadata
// (tool calls, token usage, stop reason).
package evaluation

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scttfrdmn/econflux/econflux-go/econflux"
)

// DefaultSessionID is used for messages without a session.
const DefaultSessionID = "default"

// InteractionRecord is one recorded invocation.
type InteractionRecord struct {
	InteractionID string                 `json:"interaction_id"`
	SessionID     string                 `json:"session_id"`
	Agent         string                 `json:"agent"`
	Prompt        string                 `json:"prompt"`
	Response      string                 `json:"response,omitempty"`
	Error         string                 `json:"error,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
	LatencyMs     float64                `json:"latency_ms"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// RecordingStorage persists interaction records.
type RecordingStorage interface {
	// Append adds a record to its session.
	Append(record *InteractionRecord) error

	// Load returns the records of a session in recording order.
	Load(sessionID string) ([]*InteractionRecord, error)

	// Sessions lists the recorded session ids, sorted.
	Sessions() ([]string, error)
}

// InMemoryRecordingStorage keeps records in process memory.
type InMemoryRecordingStorage struct {
	mu       sync.RWMutex
	sessions map[string][]*InteractionRecord
}

// NewInMemoryRecordingStorage creates an empty in-memory storage.
func NewInMemoryRecordingStorage() *InMemoryRecordingStorage {
	return &InMemoryRecordingStorage{sessions: make(map[string][]*InteractionRecord)}
}

func (s *InMemoryRecordingStorage) Append(record *InteractionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[record.SessionID] = append(s.sessions[record.SessionID], record)
	return nil
}

func (s *InMemoryRecordingStorage) Load(sessionID string) ([]*InteractionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*InteractionRecord(nil), s.sessions[sessionID]...), nil
}

func (s *InMemoryRecordingStorage) Sessions() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// FileRecordingStorage writes one JSON Lines file per session.
type FileRecordingStorage struct {
	dir string
	mu  sync.Mutex
}

// NewFileRecordingStorage creates dir if needed.
func NewFileRecordingStorage(dir string) (*FileRecordingStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create recordings directory: %w", err)
	}
	return &FileRecordingStorage{dir: dir}, nil
}

// path maps a session id to a file name inside dir. Session ids come from
// request headers, so anything outside [A-Za-z0-9._-] is replaced.
func (s *FileRecordingStorage) path(sessionID string) string {
	name := unsafeFileChars.ReplaceAllString(sessionID, "_")
	if name == "" || name == "." || name == ".." {
		name = "_"
	}
	return filepath.Join(s.dir, name+".jsonl")
}

func (s *FileRecordingStorage) Append(record *InteractionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path(record.SessionID), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *FileRecordingStorage) Load(sessionID string) ([]*InteractionRecord, error) {
	f, err := os.Open(s.path(sessionID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []*InteractionRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var record InteractionRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			return nil, fmt.Errorf("corrupt recording %s: %w", sessionID, err)
		}
		records = append(records, &record)
	}
	return records, scanner.Err()
}

func (s *FileRecordingStorage) Sessions() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.jsonl"))
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, filepath.Base(m[:len(m)-len(".jsonl")]))
	}
	sort.Strings(ids)
	return ids, nil
}

// Recorder wraps an agent and records every interaction.
type Recorder struct {
	agent   econflux.Agent
	storage RecordingStorage
	logger  *slog.Logger
	now     func() time.Time
}

var _ econflux.Agent = (*Recorder)(nil)

// NewRecorder wraps agent. A nil storage records in memory.
func NewRecorder(agent econflux.Agent, storage RecordingStorage, logger *slog.Logger) *Recorder {
	if storage == nil {
		storage = NewInMemoryRecordingStorage()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{agent: agent, storage: storage, logger: logger, now: time.Now}
}

// Name returns the agent name.
func (r *Recorder) Name() string {
	return r.agent.Name()
}

// Capabilities returns agent capabilities.
func (r *Recorder) Capabilities() []string {
	return r.agent.Capabilities()
}

// Storage returns the storage records are written to.
func (r *Recorder) Storage() RecordingStorage {
	return r.storage
}

// Process runs the agent and records the outcome, failures included.
// Recording errors are logged and never fail the request.
func (r *Recorder) Process(ctx context.Context, message *econflux.Message) (*econflux.Message, error) {
	start := r.now()
	output, err := r.agent.Process(ctx, message)
	latency := r.now().Sub(start)

	record := &InteractionRecord{
		InteractionID: uuid.NewString(),
		SessionID:     DefaultSessionID,
		Agent:         r.agent.Name(),
		Timestamp:     start.UTC(),
		LatencyMs:     float64(latency.Microseconds()) / 1000,
	}
	if message != nil {
		record.Prompt = message.Content
		if id := message.SessionID(); id != "" {
			record.SessionID = id
		}
	}
	if err != nil {
		record.Error = err.Error()
	} else if output != nil {
		record.Response = output.Content
		record.Metadata = output.Metadata
	}

	if serr := r.storage.Append(record); serr != nil {
		r.logger.WarnContext(ctx, "failed to record interaction",
			"session_id", record.SessionID, "error", serr)
	}
	return output, err
}
