package tokenstore

import (
	"sync"

	"karesis-backend/lib/scrapers/karesis"
)

// Memory is the default Store: process-local, no expiry. Sessions live
// until the process exits.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]*karesis.Client
}

func NewMemory() *Memory {
	return &Memory{
		sessions: map[string]*karesis.Client{},
	}
}

func (m *Memory) Get(token string) (*karesis.Client, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	client, ok := m.sessions[token]
	return client, ok
}

func (m *Memory) Put(token string, client *karesis.Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = client
}

func (m *Memory) Delete(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}
