// Package redisstore is the "concrete collaborator" Store implementation
// SPEC_FULL.md's domain stack table calls for: a go-redis/v9-backed
// playback.Store, kept in its own package so importing it (and therefore
// github.com/redis/go-redis/v9) is opt-in for callers who don't need
// Redis-backed persistence.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pv-udpv/vast-client/playback"
)

// Store persists playback sessions as JSON documents under a
// configurable key prefix in Redis.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New returns a Store backed by client. prefix is prepended to every
// session ID to form the Redis key ("vast:playback:" if empty). ttl is an
// optional expiry applied on every Save; zero means no expiry.
func New(client *redis.Client, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = "vast:playback:"
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

func (s *Store) key(id string) string { return s.prefix + id }

// Save serializes sess to JSON and writes it to Redis under its session ID.
func (s *Store) Save(ctx context.Context, sess *playback.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("redisstore: marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sess.ID()), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redisstore: set %q: %w", sess.ID(), err)
	}
	return nil
}

// Load reads the persisted document for id and reconstructs a Session
// from it. It returns playback.ErrNotFound if no document exists.
func (s *Store) Load(ctx context.Context, id string) (*playback.Session, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, playback.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redisstore: get %q: %w", id, err)
	}

	sess := &playback.Session{}
	if err := json.Unmarshal(data, sess); err != nil {
		return nil, fmt.Errorf("redisstore: unmarshal session %q: %w", id, err)
	}
	return sess, nil
}

var _ playback.Store = (*Store)(nil)
