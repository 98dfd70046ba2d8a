// Package redis persists conversations in Redis and provides the
// distributed lock that extends the single-writer-per-conversation
// discipline across replicas.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/maitre-bot/maitre/pkg/domain"
)

// Store implements ports.ConversationStore using Redis.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures the Store.
type Option func(*Store)

// WithTTL sets an expiration for conversations. Zero means no expiration.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithPrefix sets the key prefix for conversations.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// New creates a Redis store with its own client.
func New(address, password string, db int, opts ...Option) *Store {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "maitre:conversation:",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client exposes the underlying connection so hosts can share it with
// other Redis-backed components (e.g. the distributed locker).
func (s *Store) Client() *backend.Client { return s.client }

func (s *Store) key(id string) string { return s.prefix + id }

// Save serializes the conversation as JSON.
func (s *Store) Save(ctx context.Context, conv *domain.Conversation) error {
	copied := conv.Clone()
	copied.UpdatedAt = time.Now()

	data, err := json.Marshal(copied)
	if err != nil {
		return fmt.Errorf("failed to serialize conversation: %w", err)
	}
	if err := s.client.Set(ctx, s.key(conv.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis error saving conversation: %w", err)
	}
	return nil
}

// Load retrieves and deserializes the conversation.
func (s *Store) Load(ctx context.Context, id string) (*domain.Conversation, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err == backend.Nil {
		return nil, domain.ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis error loading conversation: %w", err)
	}

	var conv domain.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("failed to deserialize conversation %s: %w", id, err)
	}
	return &conv, nil
}

// Delete removes the conversation.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("redis error deleting conversation: %w", err)
	}
	return nil
}

// List scans for active conversation IDs under the prefix.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var ids []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, iter.Val()[len(s.prefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis error listing conversations: %w", err)
	}
	return ids, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
