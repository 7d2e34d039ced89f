package engine

import (
	"context"
	"sync"

	"github.com/outpasshq/notify/internal/models"
)

// Registry tracks the live engine per user. Engines are created lazily on the
// first authenticated request and shut down together at process exit.
type Registry struct {
	deps Deps

	// baseCtx outlives any single request; engine subscriptions are bound
	// to it, not to the request that triggered construction.
	baseCtx context.Context

	mu      sync.Mutex
	engines map[string]*Engine
}

func NewRegistry(baseCtx context.Context, deps Deps) *Registry {
	return &Registry{
		deps:    deps,
		baseCtx: baseCtx,
		engines: make(map[string]*Engine),
	}
}

// Ensure returns the user's running engine, constructing and starting one if
// this is the session's first contact.
func (r *Registry) Ensure(session models.Session) *Engine {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.engines[session.UserID]; ok {
		return e
	}
	e := New(session, r.deps)
	e.Start(r.baseCtx)
	r.engines[session.UserID] = e
	return e
}

func (r *Registry) Get(userID string) (*Engine, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.engines[userID]
	return e, ok
}

// Teardown stops and forgets one user's engine.
func (r *Registry) Teardown(userID string) {
	r.mu.Lock()
	e, ok := r.engines[userID]
	delete(r.engines, userID)
	r.mu.Unlock()
	if ok {
		e.Stop()
	}
}

// Shutdown stops every engine.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	engines := make([]*Engine, 0, len(r.engines))
	for _, e := range r.engines {
		engines = append(engines, e)
	}
	r.engines = make(map[string]*Engine)
	r.mu.Unlock()

	for _, e := range engines {
		e.Stop()
	}
}
