package database

import (
	"context"
	"sort"
	"sync"

	"dash-monitor/internal/interfaces"
	"dash-monitor/internal/models"
)

// MemoryStore is a non-durable Store for development and tests. State is
// lost on restart; production deployments use the bolt or postgres backend.
type MemoryStore struct {
	mu        sync.RWMutex
	watchlist map[string][]string                // subscriber -> addresses, insertion order
	seen      map[models.Scope][]models.SeenRecord
}

var _ interfaces.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		watchlist: make(map[string][]string),
		seen:      make(map[models.Scope][]models.SeenRecord),
	}
}

func (m *MemoryStore) AddAddress(_ context.Context, scope models.Scope) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, addr := range m.watchlist[scope.Subscriber] {
		if addr == scope.Address {
			return nil
		}
	}
	m.watchlist[scope.Subscriber] = append(m.watchlist[scope.Subscriber], scope.Address)
	return nil
}

func (m *MemoryStore) RemoveAddress(_ context.Context, scope models.Scope) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	addrs := m.watchlist[scope.Subscriber]
	for i, addr := range addrs {
		if addr == scope.Address {
			m.watchlist[scope.Subscriber] = append(addrs[:i:i], addrs[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *MemoryStore) Addresses(_ context.Context, subscriber string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, len(m.watchlist[subscriber]))
	copy(out, m.watchlist[subscriber])
	return out, nil
}

func (m *MemoryStore) Pairs(_ context.Context) ([]models.Scope, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	subscribers := make([]string, 0, len(m.watchlist))
	for sub := range m.watchlist {
		subscribers = append(subscribers, sub)
	}
	sort.Strings(subscribers)

	var pairs []models.Scope
	for _, sub := range subscribers {
		for _, addr := range m.watchlist[sub] {
			pairs = append(pairs, models.Scope{Subscriber: sub, Address: addr})
		}
	}
	return pairs, nil
}

func (m *MemoryStore) SeenRecords(_ context.Context, scope models.Scope) ([]models.SeenRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.SeenRecord, len(m.seen[scope]))
	copy(out, m.seen[scope])
	return out, nil
}

func (m *MemoryStore) AppendSeen(_ context.Context, scope models.Scope, rec models.SeenRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seen[scope] = append(m.seen[scope], rec)
	return nil
}

func (m *MemoryStore) TrimSeen(_ context.Context, scope models.Scope, keep int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	recs := m.seen[scope]
	if len(recs) <= keep {
		return nil
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Sequence < recs[j].Sequence })
	m.seen[scope] = append([]models.SeenRecord(nil), recs[len(recs)-keep:]...)
	return nil
}

func (m *MemoryStore) DeleteScope(_ context.Context, scope models.Scope) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.seen, scope)
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
