package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// GetPayload returns the cached JSON payload, or nil on a cache miss
func (s *Store) GetPayload(ctx context.Context, plugin, service string) ([]byte, error) {
	data, err := s.client.Get(ctx, PluginKey(plugin, service)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get cached payload: %w", err)
	}
	return data, nil
}

// SetPayload stores an encoded payload for ttl
func (s *Store) SetPayload(ctx context.Context, plugin, service string, data []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultPayloadTTL
	}
	if err := s.client.Set(ctx, PluginKey(plugin, service), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache payload: %w", err)
	}
	return nil
}

// InvalidatePayload removes one cached payload
func (s *Store) InvalidatePayload(ctx context.Context, plugin, service string) error {
	if err := s.client.Del(ctx, PluginKey(plugin, service)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate payload: %w", err)
	}
	return nil
}

// PrunePayloads deletes every cached payload for which keep returns false.
// Keys that do not parse as payload keys are deleted as well.
func (s *Store) PrunePayloads(ctx context.Context, keep func(plugin, service string) bool) (int, error) {
	n := 0
	iter := s.client.Scan(ctx, 0, PluginPattern(""), 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if plugin, service, err := SplitPluginKey(key); err == nil && keep(plugin, service) {
			continue
		}
		if err := s.client.Del(ctx, key).Err(); err != nil {
			return n, fmt.Errorf("failed to delete payload key: %w", err)
		}
		n++
	}
	if err := iter.Err(); err != nil {
		return n, fmt.Errorf("failed to prune payloads: %w", err)
	}
	return n, nil
}
