package session

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for an unknown session id.
var ErrNotFound = errors.New("session not found")

// Registry holds independent sessions keyed by id. Sessions share the
// collaborators in Deps but no state. Sessions stay until deleted or
// pruned after sitting idle.
type Registry struct {
	mu       sync.RWMutex
	deps     Deps
	config   Config
	now      func() time.Time
	logger   *slog.Logger
	sessions map[string]*entry
}

type entry struct {
	flow     *Flow
	lastUsed time.Time
}

// NewRegistry creates an empty registry whose sessions use deps and cfg.
func NewRegistry(deps Deps, cfg Config) *Registry {
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		deps:     deps,
		config:   cfg,
		now:      now,
		logger:   logger,
		sessions: make(map[string]*entry),
	}
}

// Create adds a new session. maxQuestions overrides the configured budget
// when positive.
func (r *Registry) Create(maxQuestions int) *Flow {
	cfg := r.config
	if maxQuestions > 0 {
		cfg.MaxQuestions = maxQuestions
	}
	f := NewFlow(uuid.New().String(), r.deps, cfg)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[f.ID()] = &entry{flow: f, lastUsed: r.now()}
	return f
}

// Get returns the session with id and marks it as used.
func (r *Registry) Get(id string) (*Flow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.lastUsed = r.now()
	return e.flow, nil
}

// Delete removes the session with id.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

// IDs returns the ids of all sessions, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Prune removes sessions not fetched or created within idle and returns
// how many were removed. A non-positive idle removes nothing.
func (r *Registry) Prune(idle time.Duration) int {
	if idle <= 0 {
		return 0
	}
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, e := range r.sessions {
		if e.lastUsed.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// StartPruneLoop prunes idle sessions every interval until ctx is done.
func (r *Registry) StartPruneLoop(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 || idle <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := r.Prune(idle); n > 0 {
					r.logger.Info("pruned idle sessions", "count", n, "remaining", r.Len())
				}
			}
		}
	}()
}
