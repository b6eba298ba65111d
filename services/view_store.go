// File: services/view_store.go
package services

import (
	"context"
	"sync"
	"time"

	"pickle-web/logger"
)

type viewEntry struct {
	view     *BookingsView
	lastSeen time.Time
}

// ViewStore keeps each browser's bookings page between requests, keyed by
// the view id stored in its session. Idle views are swept after ttl.
type ViewStore struct {
	mu    sync.Mutex
	views map[string]*viewEntry
	ttl   time.Duration
	now   func() time.Time
}

// NewViewStore initializes an empty store.
func NewViewStore(ttl time.Duration) *ViewStore {
	return &ViewStore{
		views: make(map[string]*viewEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns the view for id and marks it as active.
func (s *ViewStore) Get(id string) (*BookingsView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.views[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = s.now()
	return e.view, true
}

// Put stores or replaces the view for id.
func (s *ViewStore) Put(id string, view *BookingsView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views[id] = &viewEntry{view: view, lastSeen: s.now()}
	logger.Debug.Printf("[ViewStore.Put] view=%s stored (%d active)", id, len(s.views))
}

// Delete drops the view for id, e.g. on logout.
func (s *ViewStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.views, id)
}

// Len returns the number of stored views.
func (s *ViewStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.views)
}

// Sweep removes views idle for longer than ttl and returns how many went.
func (s *ViewStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.views {
		if s.now().Sub(e.lastSeen) > s.ttl {
			delete(s.views, id)
			removed++
		}
	}
	if removed > 0 {
		logger.Info.Printf("[ViewStore.Sweep] Removed %d inactive views (ttl=%v)", removed, s.ttl)
	}
	return removed
}

// CleanupInactiveViews sweeps every interval until ctx is done.
func (s *ViewStore) CleanupInactiveViews(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}
