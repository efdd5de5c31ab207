// Package history persists conversation turns in an external key-value
// store. The store is a best-effort cache, not a source of truth: the
// pipeline treats load timeouts as an empty history and save failures as a
// logged, acceptable loss.
package history

import (
	"context"
	"sync"

	"github.com/valpere/perelay/internal/chat"
)

// Store loads and saves a conversation's turns, keyed by conversation id.
// Last-writer-wins; a single conversation is not written concurrently under
// normal use.
type Store interface {
	Load(ctx context.Context, conversationID string) ([]chat.Turn, error)
	Save(ctx context.Context, conversationID string, turns []chat.Turn) error
}

// Memory is an in-process Store for tests and store-less deployments.
type Memory struct {
	mu    sync.RWMutex
	convs map[string][]chat.Turn
}

// NewMemory builds an empty in-process store.
func NewMemory() *Memory {
	return &Memory{convs: make(map[string][]chat.Turn)}
}

func (m *Memory) Load(_ context.Context, conversationID string) ([]chat.Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return chat.Clone(m.convs[conversationID]), nil
}

func (m *Memory) Save(_ context.Context, conversationID string, turns []chat.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.convs[conversationID] = chat.Clone(turns)
	return nil
}
