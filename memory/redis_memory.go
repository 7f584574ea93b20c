package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/scttfrdmn/econflux/econflux-go/econflux"
)

// DefaultKeyPrefix namespaces the session keys.
const DefaultKeyPrefix = "econflux:memory"

// RedisMemory stores session history in Redis so that replicas of the
// runtime share conversations.
//
// Redis data structure:
//   - Key: "{prefix}:{session_id}:messages"
//   - Type: Sorted Set (ZSET)
//   - Score: Unix timestamp in nanoseconds
//   - Value: JSON message
//
// The key's TTL is refreshed on every Store.
type RedisMemory struct {
	client    redis.UniversalClient
	ttl       time.Duration
	keyPrefix string
	maxSize   int64
}

var _ Memory = (*RedisMemory)(nil)

// RedisOptions configures a RedisMemory.
type RedisOptions struct {
	// TTL expires idle sessions (0 = no expiry)
	TTL time.Duration

	// KeyPrefix defaults to DefaultKeyPrefix
	KeyPrefix string

	// MaxSize trims each session to its newest MaxSize messages (0 = unbounded)
	MaxSize int
}

// NewRedisMemory connects to redisURL (redis://host:port/db).
func NewRedisMemory(redisURL string, opts RedisOptions) (*RedisMemory, error) {
	parsed, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}
	return NewRedisMemoryWithClient(redis.NewClient(parsed), opts), nil
}

// NewRedisMemoryWithClient wraps an existing client.
func NewRedisMemoryWithClient(client redis.UniversalClient, opts RedisOptions) *RedisMemory {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultKeyPrefix
	}
	return &RedisMemory{
		client:    client,
		ttl:       opts.TTL,
		keyPrefix: opts.KeyPrefix,
		maxSize:   int64(opts.MaxSize),
	}
}

func (r *RedisMemory) sessionKey(sessionID string) string {
	return fmt.Sprintf("%s:%s:messages", r.keyPrefix, sessionID)
}

// Store saves a message to the session's sorted set.
func (r *RedisMemory) Store(ctx context.Context, sessionID string, message *econflux.Message) error {
	if message == nil {
		return econflux.NewValidationError("message", "must not be nil")
	}
	stored := *message
	if stored.Timestamp.IsZero() {
		stored.Timestamp = time.Now().UTC()
	}

	value, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %w", err)
	}

	key := r.sessionKey(sessionID)
	pipe := r.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(stored.Timestamp.UnixNano()),
		Member: string(value),
	})
	if r.maxSize > 0 {
		// Keep the newest maxSize members.
		pipe.ZRemRangeByRank(ctx, key, 0, -r.maxSize-1)
	}
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}
	return nil
}

// Retrieve returns messages, most recent first. Malformed members are skipped.
func (r *RedisMemory) Retrieve(ctx context.Context, sessionID string, opts RetrieveOptions) ([]*econflux.Message, error) {
	values, err := r.client.ZRevRange(ctx, r.sessionKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve messages: %w", err)
	}

	limit := opts.limit()
	out := make([]*econflux.Message, 0, min(limit, len(values)))
	for _, value := range values {
		var msg econflux.Message
		if err := json.Unmarshal([]byte(value), &msg); err != nil {
			continue
		}
		if !opts.matches(&msg, msg.Timestamp.Unix()) {
			continue
		}
		out = append(out, &msg)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Clear removes all memory for a session.
func (r *RedisMemory) Clear(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Capabilities returns the memory capabilities.
func (r *RedisMemory) Capabilities() []string {
	return []string{"basic_retrieval", "persistence", "ttl", "time_filtering", "role_filtering"}
}

// GetSessionCount returns the number of messages stored for a session.
func (r *RedisMemory) GetSessionCount(ctx context.Context, sessionID string) (int64, error) {
	count, err := r.client.ZCard(ctx, r.sessionKey(sessionID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get session count: %w", err)
	}
	return count, nil
}

// GetAllSessions returns the ids of all stored sessions.
func (r *RedisMemory) GetAllSessions(ctx context.Context) ([]string, error) {
	prefix := r.keyPrefix + ":"
	var sessions []string

	iter := r.client.Scan(ctx, 0, prefix+"*:messages", 0).Iterator()
	for iter.Next(ctx) {
		key := strings.TrimSuffix(strings.TrimPrefix(iter.Val(), prefix), ":messages")
		sessions = append(sessions, key)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan sessions: %w", err)
	}
	return sessions, nil
}

// Ping checks connectivity.
func (r *RedisMemory) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *RedisMemory) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
