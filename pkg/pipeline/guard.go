package pipeline

import "sync"

// LifecycleGuard tracks whether the hosting view is still active. Every
// asynchronous continuation that would mutate host-observable state goes
// through Do, so a dismissed host never sees late callbacks.
type LifecycleGuard struct {
	mu       sync.Mutex
	active   bool
	teardown []func()
}

func NewLifecycleGuard() *LifecycleGuard {
	return &LifecycleGuard{active: true}
}

// Do runs update if the host is still active and reports whether it ran.
// The guard stays locked for the duration of update, so teardown cannot
// interleave with a half-applied state change.
func (g *LifecycleGuard) Do(update func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.active {
		return false
	}
	if update != nil {
		update()
	}
	return true
}

// Active reports whether the host has not been torn down yet.
func (g *LifecycleGuard) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// OnTeardown registers fn to run when the host goes away, typically a
// context.CancelFunc for an owned in-flight operation. Registered after
// teardown, fn runs immediately.
func (g *LifecycleGuard) OnTeardown(fn func()) {
	g.mu.Lock()
	if !g.active {
		g.mu.Unlock()
		fn()
		return
	}
	g.teardown = append(g.teardown, fn)
	g.mu.Unlock()
}

// Teardown marks the host inactive and signals cancellation of owned
// operations. Idempotent.
func (g *LifecycleGuard) Teardown() {
	g.mu.Lock()
	if !g.active {
		g.mu.Unlock()
		return
	}
	g.active = false
	fns := g.teardown
	g.teardown = nil
	g.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
