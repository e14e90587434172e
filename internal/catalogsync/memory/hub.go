// Package memory provides in-process catalog sync transports for a single console process.
package memory

import (
	"context"
	"sync"
)

// Hub is an in-process broadcast channel. Payloads are delivered synchronously, outside the hub's lock.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[uint64]func([]byte)
	nextID uint64
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: map[string]map[uint64]func([]byte){}}
}

func (h *Hub) Publish(_ context.Context, channel string, payload []byte) error {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return ErrClosed
	}
	targets := make([]func([]byte), 0, len(h.subs[channel]))
	for _, deliver := range h.subs[channel] {
		targets = append(targets, deliver)
	}
	h.mu.RUnlock()
	for _, deliver := range targets {
		deliver(append([]byte(nil), payload...))
	}
	return nil
}

func (h *Hub) Subscribe(_ context.Context, channel string, deliver func([]byte)) (func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	if h.subs[channel] == nil {
		h.subs[channel] = map[uint64]func([]byte){}
	}
	id := h.nextID
	h.nextID++
	h.subs[channel][id] = deliver
	return func() {
		h.mu.Lock()
		delete(h.subs[channel], id)
		h.mu.Unlock()
	}, nil
}

// Ping fails once the hub is closed.
func (h *Hub) Ping(context.Context) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrClosed
	}
	return nil
}

// Close drops every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	h.subs = map[string]map[uint64]func([]byte){}
	h.mu.Unlock()
}
