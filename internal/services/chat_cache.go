package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"sublet/rentals/internal/logger"
	"sublet/rentals/internal/models"
)

// CachedChatService keeps each transcript in Redis for a short TTL. Sending a
// message bumps the chat's version and drops the cached copy; a fill only lands
// if the version it read before querying the inner service is still current.
// Redis errors never fail a call; the inner service answers instead.
type CachedChatService struct {
	inner IChatService
	rdb   redis.Cmdable
	ttl   time.Duration
	log   *zap.SugaredLogger
}

// chatVersionTTL bounds how long a version counter outlives the last send.
// It must exceed the longest inner fetch.
const chatVersionTTL = 24 * time.Hour

// KEYS[1] transcript, KEYS[2] version; ARGV[1] version seen, ARGV[2] payload, ARGV[3] ttl ms.
var fillIfCurrent = redis.NewScript(`
local v = redis.call('GET', KEYS[2])
if (v or '0') ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// NewCachedChatService wraps inner. A nil rdb or a non-positive ttl disables caching.
func NewCachedChatService(inner IChatService, rdb redis.Cmdable, ttl time.Duration, l *zap.SugaredLogger) *CachedChatService {
	return &CachedChatService{inner: inner, rdb: rdb, ttl: ttl, log: logger.OrNop(l)}
}

// Both keys share a hash tag so the script stays in one slot.
func chatCacheKey(chatID string) string {
	return "chat:{" + chatID + "}:messages"
}

func chatVersionKey(chatID string) string {
	return "chat:{" + chatID + "}:version"
}

func (s *CachedChatService) enabled() bool {
	return s.rdb != nil && s.ttl > 0
}

func (s *CachedChatService) FetchMessages(ctx context.Context, chatID string) ([]models.ChatMessage, error) {
	if !s.enabled() {
		return s.inner.FetchMessages(ctx, chatID)
	}

	key := chatCacheKey(chatID)
	raw, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached []models.ChatMessage
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			return cached, nil
		}
		s.log.Warnw("Discarding unreadable chat cache entry", "chat_id", chatID)
	case !errors.Is(err, redis.Nil):
		s.log.Warnw("Chat cache read failed", "chat_id", chatID, "error", err)
	}

	version, verErr := s.rdb.Get(ctx, chatVersionKey(chatID)).Result()
	switch {
	case errors.Is(verErr, redis.Nil):
		version = "0"
	case verErr != nil:
		s.log.Warnw("Chat cache version read failed", "chat_id", chatID, "error", verErr)
	}

	messages, err := s.inner.FetchMessages(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if verErr != nil && !errors.Is(verErr, redis.Nil) {
		return messages, nil
	}
	if payload, jsonErr := json.Marshal(messages); jsonErr == nil {
		keys := []string{key, chatVersionKey(chatID)}
		if setErr := fillIfCurrent.Run(ctx, s.rdb, keys, version, payload, s.ttl.Milliseconds()).Err(); setErr != nil {
			s.log.Warnw("Chat cache write failed", "chat_id", chatID, "error", setErr)
		}
	}
	return messages, nil
}

func (s *CachedChatService) SendMessage(ctx context.Context, chatID string, data models.SendMessageData) (*models.ChatMessage, error) {
	msg, err := s.inner.SendMessage(ctx, chatID, data)
	if err != nil {
		return nil, err
	}
	if s.enabled() {
		verKey := chatVersionKey(chatID)
		_, pipeErr := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Incr(ctx, verKey)
			pipe.Expire(ctx, verKey, chatVersionTTL)
			pipe.Del(ctx, chatCacheKey(chatID))
			return nil
		})
		if pipeErr != nil {
			s.log.Warnw("Chat cache invalidation failed", "chat_id", chatID, "error", pipeErr)
		}
	}
	return msg, nil
}
