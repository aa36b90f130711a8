// Package session stores per-user list state and unsaved editor content.
package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/alexedwards/scs/v2"
	"github.com/dimitrije/smsdesk/internal/listquery"
)

// Store is a string keyed, subject scoped session.
type Store interface {
	Get(key, fallback string) string
	Set(key, value string)
	Remove(key string)
}

type scsStore struct {
	ctx     context.Context
	manager *scs.SessionManager
}

// FromContext binds the session loaded by manager.LoadAndSave into ctx.
func FromContext(ctx context.Context, manager *scs.SessionManager) Store {
	return &scsStore{ctx: ctx, manager: manager}
}

func (s *scsStore) Get(key, fallback string) string {
	if !s.manager.Exists(s.ctx, key) {
		return fallback
	}
	return s.manager.GetString(s.ctx, key)
}

func (s *scsStore) Set(key, value string) {
	s.manager.Put(s.ctx, key, value)
}

func (s *scsStore) Remove(key string) {
	s.manager.Remove(s.ctx, key)
}

// MemoryStore is an in-process Store, used by the admin CLI and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(key, fallback string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.values[key]; ok {
		return v
	}
	return fallback
}

func (m *MemoryStore) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

func (m *MemoryStore) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
}

// Len returns the number of stored keys.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

func filterStateKey(listType string) string {
	return listType + ".filter_state"
}

// ContentKey keys the unsaved message body of an entity being edited or cloned.
func ContentKey(sessionID string) string {
	return "sms." + sessionID + ".content"
}

// LoadFilterState returns the saved state for listType, or defaults when none
// is stored or the stored value cannot be decoded.
func LoadFilterState(s Store, listType string, defaults listquery.FilterState) listquery.FilterState {
	raw := s.Get(filterStateKey(listType), "")
	if raw == "" {
		return defaults
	}
	state := defaults
	state.Filters = nil
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return defaults
	}
	if state.Filters == nil {
		state.Filters = map[string][]string{}
	}
	return state
}

func SaveFilterState(s Store, listType string, state listquery.FilterState) {
	data, err := json.Marshal(state)
	if err != nil {
		return
	}
	s.Set(filterStateKey(listType), string(data))
}
