// Package prefs: настройки конкретного устройства (имя дежурного по умолчанию).
// Значения не являются данными заявок и живут отдельно от БД.
package prefs

import (
	"context"
	"sync"
)

// Store: key/value; отсутствие ключа не ошибка.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

const picketNamePrefix = "picket_name:"

// PicketNameKey: ключ сохранённого имени дежурного для устройства.
func PicketNameKey(device string) string { return picketNamePrefix + device }

type MemoryStore struct {
	mu sync.RWMutex
	m  map[string]string
}

func NewMemory() *MemoryStore { return &MemoryStore{m: map[string]string{}} }

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}
