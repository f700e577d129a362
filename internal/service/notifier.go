package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/examforge/examforge-backend/internal/config"
)

// DocEvent is a change notification published for a document id when a
// bank, TOS or test is written. WebSocket subscribers receive it as-is.
type DocEvent struct {
	DocID   string    `json:"doc_id"`
	DocType string    `json:"doc_type"` // "bank", "tos" or "test"
	Action  string    `json:"action"`   // "created", "updated", "deleted", "versions_generated"
	At      time.Time `json:"at"`
}

// Notifier publishes document change events. Services depend on the
// interface so tests can observe events without Redis.
type Notifier interface {
	NotifyDocChange(ctx context.Context, docType, docID, action string)
}

// RedisNotifier publishes events on per-document Redis PubSub channels.
type RedisNotifier struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisNotifier creates a RedisNotifier.
func NewRedisNotifier(rdb *redis.Client, log zerolog.Logger) *RedisNotifier {
	return &RedisNotifier{
		rdb: rdb,
		log: log.With().Str("component", "notifier").Logger(),
	}
}

// NotifyDocChange publishes a DocEvent for docID. Failures are logged,
// not returned: notifications are best-effort and must never fail the
// write they follow.
func (n *RedisNotifier) NotifyDocChange(ctx context.Context, docType, docID, action string) {
	event := DocEvent{
		DocID:   docID,
		DocType: docType,
		Action:  action,
		At:      time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		n.log.Error().Err(err).Msg("encode doc event")
		return
	}

	if err := n.rdb.Publish(ctx, config.CacheKey.DocChangeChannel(docID), payload).Err(); err != nil {
		n.log.Warn().Err(err).Str("doc_id", docID).Msg("publish doc event failed")
	}
}
