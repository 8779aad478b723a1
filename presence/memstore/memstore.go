package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/JoshuaLakeSexton/Reeflux/presence"
)

var _ presence.Store = (*MemStore)(nil)

type entry struct {
	value     string
	hash      map[string]string
	expiresAt time.Time
}

// MemStore is an in-process presence.Store. Expiry is evaluated lazily
// against the injected clock.
type MemStore struct {
	values  map[string]entry
	scored  map[string]map[string]float64
	nowFunc func() time.Time
	lock    sync.RWMutex
}

func New(nowFunc func() time.Time) *MemStore {
	if nowFunc == nil {
		nowFunc = time.Now
	}
	return &MemStore{
		values:  make(map[string]entry),
		scored:  make(map[string]map[string]float64),
		nowFunc: nowFunc,
	}
}

func (m *MemStore) SetHash(_ context.Context, key string, fields map[string]string, ttl time.Duration) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	e, ok := m.live(key)
	if !ok || e.hash == nil {
		e = entry{hash: make(map[string]string)}
	}
	for k, v := range fields {
		e.hash[k] = v
	}
	e.expiresAt = m.nowFunc().Add(ttl)
	m.values[key] = e
	return nil
}

func (m *MemStore) AddScored(_ context.Context, key, member string, score float64) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.scored[key] == nil {
		m.scored[key] = make(map[string]float64)
	}
	m.scored[key][member] = score
	return nil
}

func (m *MemStore) PruneScored(_ context.Context, key string, max float64) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	for member, score := range m.scored[key] {
		if score <= max {
			delete(m.scored[key], member)
		}
	}
	return nil
}

func (m *MemStore) CountScored(_ context.Context, key string) (int64, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return int64(len(m.scored[key])), nil
}

func (m *MemStore) SetIfAbsent(_ context.Context, key, value string, ttl time.Duration) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if _, ok := m.live(key); ok {
		return nil
	}
	m.values[key] = entry{value: value, expiresAt: m.nowFunc().Add(ttl)}
	return nil
}

func (m *MemStore) Get(_ context.Context, key string) (string, bool, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	e, ok := m.live(key)
	if !ok {
		return "", false, nil
	}
	return e.value, true, nil
}

// Hash returns a copy of the live hash at key.
func (m *MemStore) Hash(key string) map[string]string {
	m.lock.RLock()
	defer m.lock.RUnlock()
	e, ok := m.live(key)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(e.hash))
	for k, v := range e.hash {
		out[k] = v
	}
	return out
}

// Set overwrites a string value without expiry.
func (m *MemStore) Set(key, value string) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.values[key] = entry{value: value}
}

// live must be called with the lock held.
func (m *MemStore) live(key string) (entry, bool) {
	e, ok := m.values[key]
	if !ok {
		return entry{}, false
	}
	if !e.expiresAt.IsZero() && !m.nowFunc().Before(e.expiresAt) {
		return entry{}, false
	}
	return e, true
}
