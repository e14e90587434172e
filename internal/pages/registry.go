package pages

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Closer is implemented by page instances that hold subscriptions.
type Closer interface {
	Close()
}

type entry[P Closer] struct {
	page     P
	lastSeen time.Time
}

// Registry keeps the live instances of one page kind and when each was last used.
type Registry[P Closer] struct {
	mu    sync.Mutex
	pages map[string]*entry[P]
	now   func() time.Time
}

func NewRegistry[P Closer]() *Registry[P] {
	return &Registry[P]{pages: map[string]*entry[P]{}, now: time.Now}
}

// Open creates an instance under a fresh id.
func (r *Registry[P]) Open(build func(id string) P) (string, P) {
	id := uuid.NewString()
	page := build(id)
	r.mu.Lock()
	r.pages[id] = &entry[P]{page: page, lastSeen: r.now()}
	r.mu.Unlock()
	return id, page
}

// Get looks an instance up and marks it as used.
func (r *Registry[P]) Get(id string) (P, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.pages[id]
	if !ok {
		var zero P
		return zero, false
	}
	e.lastSeen = r.now()
	return e.page, true
}

// Touch marks an instance as used, e.g. while its event stream is open.
func (r *Registry[P]) Touch(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// Close removes and closes the instance; it reports whether one existed.
func (r *Registry[P]) Close(id string) bool {
	r.mu.Lock()
	e, ok := r.pages[id]
	delete(r.pages, id)
	r.mu.Unlock()
	if ok {
		e.page.Close()
	}
	return ok
}

// PurgeIdle closes every instance last used before cutoff and returns how many it closed.
func (r *Registry[P]) PurgeIdle(cutoff time.Time) int {
	var idle []P
	r.mu.Lock()
	for id, e := range r.pages {
		if e.lastSeen.Before(cutoff) {
			idle = append(idle, e.page)
			delete(r.pages, id)
		}
	}
	r.mu.Unlock()
	for _, page := range idle {
		page.Close()
	}
	return len(idle)
}

// CloseAll closes every instance, e.g. on shutdown.
func (r *Registry[P]) CloseAll() {
	r.mu.Lock()
	pages := r.pages
	r.pages = map[string]*entry[P]{}
	r.mu.Unlock()
	for _, e := range pages {
		e.page.Close()
	}
}

func (r *Registry[P]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pages)
}
