package store

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore keeps state in a map. Used in tests and as a throwaway
// backend; the change-notification semantics match BoltStore.
type MemoryStore struct {
	mu       sync.RWMutex
	data     map[string][]byte
	notifier *notifier
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:     make(map[string][]byte),
		notifier: newNotifier(),
	}
}

func (s *MemoryStore) Load(ctx context.Context, key string, v any) (bool, error) {
	s.mu.RLock()
	raw, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, nil
	}
	return true, nil
}

func (s *MemoryStore) Save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[key] = raw
	s.mu.Unlock()
	s.notifier.publishSave(key, raw)
	return nil
}

func (s *MemoryStore) ApplyExternal(ctx context.Context, key string, raw []byte) error {
	s.mu.Lock()
	s.data[key] = append([]byte(nil), raw...)
	s.mu.Unlock()
	s.notifier.publishExternal(key, raw)
	return nil
}

// Corrupt overwrites a key with bytes that are not valid JSON. Test helper.
func (s *MemoryStore) Corrupt(key string) {
	s.mu.Lock()
	s.data[key] = []byte("{not json")
	s.mu.Unlock()
}

func (s *MemoryStore) Subscribe(key string, fn ChangeFunc) (cancel func()) {
	return s.notifier.subscribeExternal(key, fn)
}

func (s *MemoryStore) OnSave(fn ChangeFunc) (cancel func()) {
	return s.notifier.subscribeSave(fn)
}

func (s *MemoryStore) Close() error { return nil }
