package store

import (
	"context"
	"sync"
)

// Hub fans out Set notifications to per-key subscribers.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]func([]byte)
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]func([]byte))}
}

// Subscribe registers fn for key and returns a function removing it.
func (h *Hub) Subscribe(key string, fn func([]byte)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	if h.subs[key] == nil {
		h.subs[key] = make(map[int]func([]byte))
	}
	h.subs[key][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[key], id)
		})
	}
}

// Notify calls every subscriber of key synchronously, outside the lock.
func (h *Hub) Notify(key string, value []byte) {
	h.mu.RLock()
	fns := make([]func([]byte), 0, len(h.subs[key]))
	for _, fn := range h.subs[key] {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(value)
	}
}

// observed decorates a KV with a Hub.
type observed struct {
	KV
	hub *Hub
}

// Observe wraps kv so that successful writes notify subscribers.
func Observe(kv KV) Observable {
	if o, ok := kv.(Observable); ok {
		return o
	}
	return &observed{KV: kv, hub: NewHub()}
}

func (o *observed) Set(ctx context.Context, key string, value []byte) error {
	if err := o.KV.Set(ctx, key, value); err != nil {
		return err
	}
	o.hub.Notify(key, value)
	return nil
}

func (o *observed) Subscribe(key string, fn func([]byte)) func() {
	return o.hub.Subscribe(key, fn)
}
