package memory

import (
	"context"
	"errors"
	"sync"
)

var ErrClosed = errors.New("catalog sync transport closed")

// SentinelStore is an in-process key-value store that notifies watchers on every write,
// including writes of an unchanged value.
type SentinelStore struct {
	mu       sync.RWMutex
	values   map[string]string
	watchers map[string]map[uint64]func(string)
	nextID   uint64
}

func NewSentinelStore() *SentinelStore {
	return &SentinelStore{values: map[string]string{}, watchers: map[string]map[uint64]func(string){}}
}

func (s *SentinelStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.values[key] = value
	targets := make([]func(string), 0, len(s.watchers[key]))
	for _, fn := range s.watchers[key] {
		targets = append(targets, fn)
	}
	s.mu.Unlock()
	for _, fn := range targets {
		fn(value)
	}
	return nil
}

// Get returns the last value written for key.
func (s *SentinelStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *SentinelStore) Watch(_ context.Context, key string, onChange func(string)) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watchers[key] == nil {
		s.watchers[key] = map[uint64]func(string){}
	}
	id := s.nextID
	s.nextID++
	s.watchers[key][id] = onChange
	return func() {
		s.mu.Lock()
		delete(s.watchers[key], id)
		s.mu.Unlock()
	}, nil
}
