package pipeline

import "sync"

// SessionProvider exposes the current authenticated user id. It is injected
// into the controller instead of being read from global state; the
// subscription fires on login and logout.
type SessionProvider interface {
	// Current returns the authenticated user id, or "" and false when
	// logged out.
	Current() (string, bool)
	// Subscribe registers fn for auth changes and returns an unsubscribe.
	Subscribe(fn func(authID string, ok bool)) func()
}

// StaticSession is an in-memory SessionProvider.
type StaticSession struct {
	mu     sync.Mutex
	authID string
	nextID int
	subs   map[int]func(string, bool)
}

func NewStaticSession(authID string) *StaticSession {
	return &StaticSession{authID: authID, subs: map[int]func(string, bool){}}
}

func (s *StaticSession) Current() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authID, s.authID != ""
}

// Set changes the logged-in user ("" logs out) and notifies subscribers.
func (s *StaticSession) Set(authID string) {
	s.mu.Lock()
	s.authID = authID
	var fns []func(string, bool)
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(authID, authID != "")
	}
}

func (s *StaticSession) Subscribe(fn func(authID string, ok bool)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
