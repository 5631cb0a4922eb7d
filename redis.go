package memberkit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultIdentityChannel is the pub/sub channel identity events travel on.
const DefaultIdentityChannel = "memberkit:identity"

// RedisPreferenceStore keeps dashboard choices in Redis.
// Key format: memberkit:dashboard_view:<principal_id>
type RedisPreferenceStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPreferenceStore creates a RedisPreferenceStore. A zero ttl keeps choices forever.
func NewRedisPreferenceStore(client *redis.Client, ttl time.Duration) *RedisPreferenceStore {
	return &RedisPreferenceStore{client: client, ttl: ttl}
}

// DashboardView returns the stored choice for principalID, if any.
func (s *RedisPreferenceStore) DashboardView(ctx context.Context, principalID string) (DashboardView, bool, error) {
	v, err := s.client.Get(ctx, s.key(principalID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("memberkit: read dashboard view: %w", err)
	}
	view := DashboardView(v)
	if !view.Valid() {
		return "", false, nil
	}
	return view, true, nil
}

// SetDashboardView stores view for principalID.
func (s *RedisPreferenceStore) SetDashboardView(ctx context.Context, principalID string, view DashboardView) error {
	if !view.Valid() {
		return NewError(ErrInvalidDashboardView, string(view))
	}
	if err := s.client.Set(ctx, s.key(principalID), string(view), s.ttl).Err(); err != nil {
		return fmt.Errorf("memberkit: store dashboard view: %w", err)
	}
	return nil
}

func (s *RedisPreferenceStore) key(principalID string) string {
	return "memberkit:dashboard_view:" + principalID
}

// RedisIdentityFeed delivers identity events published as JSON on a Redis channel.
type RedisIdentityFeed struct {
	client  *redis.Client
	channel string
	logger  zerolog.Logger
}

// NewRedisIdentityFeed creates a feed on channel, or DefaultIdentityChannel when empty.
func NewRedisIdentityFeed(client *redis.Client, channel string, logger zerolog.Logger) *RedisIdentityFeed {
	if channel == "" {
		channel = DefaultIdentityChannel
	}
	return &RedisIdentityFeed{client: client, channel: channel, logger: logger}
}

// Publish sends ev to every watcher of the channel.
func (f *RedisIdentityFeed) Publish(ctx context.Context, ev IdentityEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("memberkit: encode identity event: %w", err)
	}
	if err := f.client.Publish(ctx, f.channel, payload).Err(); err != nil {
		return fmt.Errorf("memberkit: publish identity event: %w", err)
	}
	return nil
}

// Watch subscribes to the channel and calls fn for each event until ctx is done.
// Malformed payloads are logged and skipped.
func (f *RedisIdentityFeed) Watch(ctx context.Context, fn func(IdentityEvent)) error {
	sub := f.client.Subscribe(ctx, f.channel)
	defer sub.Close()

	// Wait for the subscription to be confirmed so no publish after Watch starts is lost.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("memberkit: subscribe %s: %w", f.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev IdentityEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				f.logger.Warn().Err(err).Str("channel", f.channel).Msg("skipping malformed identity event")
				continue
			}
			fn(ev)
		}
	}
}
