package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// InboxSize is how many notifications are kept per user.
const InboxSize = 100

// Notification is one entry of a user's inbox.
type Notification struct {
	RequestID string    `json:"request_id"`
	Event     string    `json:"event"`
	CreatedAt time.Time `json:"created_at"`
}

type INotificationInbox interface {
	Push(ctx context.Context, userID string, n Notification) error
	List(ctx context.Context, userID string, limit int) ([]Notification, error)
}

// RedisInbox stores notifications in a capped Redis list per user, newest first.
type RedisInbox struct {
	rdb redis.Cmdable
}

func NewRedisInbox(rdb redis.Cmdable) *RedisInbox {
	return &RedisInbox{rdb: rdb}
}

func inboxKey(userID string) string {
	return "notifications:" + userID
}

func (b *RedisInbox) Push(ctx context.Context, userID string, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	key := inboxKey(userID)
	_, err = b.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, data)
		pipe.LTrim(ctx, key, 0, InboxSize-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to push notification for user %s: %w", userID, err)
	}
	return nil
}

// List returns up to limit notifications, newest first. Unreadable entries are skipped.
func (b *RedisInbox) List(ctx context.Context, userID string, limit int) ([]Notification, error) {
	if limit <= 0 || limit > InboxSize {
		limit = InboxSize
	}
	raw, err := b.rdb.LRange(ctx, inboxKey(userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read notifications for user %s: %w", userID, err)
	}
	out := make([]Notification, 0, len(raw))
	for _, item := range raw {
		var n Notification
		if json.Unmarshal([]byte(item), &n) == nil {
			out = append(out, n)
		}
	}
	return out, nil
}
