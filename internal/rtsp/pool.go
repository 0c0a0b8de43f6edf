package rtsp

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTimeout is how long a session may stay idle before the
// reaper may evict it. Protocol keepalives (GET_PARAMETER, PLAY, SETUP)
// refresh the clock.
const DefaultSessionTimeout = 60 * time.Second

// SessionHandle is the protocol engine's per-client session object as the
// pool sees it: something that can be closed. The pool never creates
// sessions, it only tracks and reclaims them.
type SessionHandle interface {
	Close()
}

// Session is the pool's bookkeeping for one client session.
type Session struct {
	// ID tags the session for logs and diagnostics.
	ID uuid.UUID
	// CreatedAt is when the session entered the pool.
	CreatedAt time.Time

	lastActive time.Time
	timeout    time.Duration
	handle     SessionHandle
}

// Expiry returns the instant after which the session counts as expired.
func (s *Session) Expiry() time.Time { return s.lastActive.Add(s.timeout) }

// Pool tracks live client sessions and their expiry. All methods are safe
// for concurrent use; critical sections are bounded (no I/O under the
// lock), so a cleanup pass never stalls packet forwarding.
type Pool struct {
	mu       sync.Mutex
	sessions map[SessionHandle]*Session
	timeout  time.Duration
	now      func() time.Time
}

// NewPool creates a session pool with the given idle timeout. A zero
// timeout selects DefaultSessionTimeout.
func NewPool(timeout time.Duration) *Pool {
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}
	return &Pool{
		sessions: make(map[SessionHandle]*Session),
		timeout:  timeout,
		now:      time.Now,
	}
}

// Add registers a new session. The handle identifies the session in
// subsequent Touch and Remove calls.
func (p *Pool) Add(handle SessionHandle) *Session {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	s := &Session{
		ID:         uuid.New(),
		CreatedAt:  now,
		lastActive: now,
		timeout:    p.timeout,
		handle:     handle,
	}
	p.sessions[handle] = s

	slog.Debug("rtsp: session added to pool", "session_id", s.ID, "pool_size", len(p.sessions))
	return s
}

// Touch refreshes the session's activity clock. Unknown handles are
// ignored: the session may already have been reaped.
func (p *Pool) Touch(handle SessionHandle) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.sessions[handle]; ok {
		s.lastActive = p.now()
	}
}

// Remove drops a session from the pool without closing it, returning
// whether it was still tracked. Called when the protocol engine reports the
// session closed; a false return means the reaper got there first.
func (p *Pool) Remove(handle SessionHandle) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[handle]
	if !ok {
		return false
	}
	delete(p.sessions, handle)
	slog.Debug("rtsp: session removed from pool", "session_id", s.ID, "pool_size", len(p.sessions))
	return true
}

// Len returns the number of tracked sessions.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

// Cleanup evicts every session whose expiry has elapsed at now and returns
// how many were evicted. Sessions are unlinked under the lock in one
// bounded scan; the handles are closed afterwards so a slow close cannot
// block the pool.
func (p *Pool) Cleanup(now time.Time) int {
	p.mu.Lock()
	var expired []*Session
	for handle, s := range p.sessions {
		if now.After(s.Expiry()) {
			expired = append(expired, s)
			delete(p.sessions, handle)
		}
	}
	p.mu.Unlock()

	for _, s := range expired {
		slog.Info("rtsp: evicting expired session",
			"session_id", s.ID,
			"idle", now.Sub(s.lastActive),
		)
		s.handle.Close()
	}
	return len(expired)
}
