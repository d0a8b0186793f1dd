package server

import (
	"context"
	"sync"

	"github.com/statusdeck/statusdeck/internal/login"
	"github.com/statusdeck/statusdeck/internal/session"
)

// sessionCache holds one live session per signed-in subject so the profile
// subscription is established once per session, not once per request. A
// tenant transfer lands in the cached session without re-login.
type sessionCache struct {
	resolver *session.Resolver

	mu       sync.Mutex
	sessions map[string]*session.Session // subject -> live session
}

func newSessionCache(resolver *session.Resolver) *sessionCache {
	return &sessionCache{
		resolver: resolver,
		sessions: make(map[string]*session.Session),
	}
}

// get returns the live session for the identity, resolving it on first use.
func (c *sessionCache) get(ctx context.Context, identity login.Identity) (*session.Session, error) {
	c.mu.Lock()
	if sess, ok := c.sessions[identity.Subject]; ok {
		c.mu.Unlock()
		return sess, nil
	}
	c.mu.Unlock()

	// Resolve outside the lock; it may hit the store.
	sess, err := c.resolver.Resolve(ctx, identity)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.sessions[identity.Subject]; ok {
		// Lost a resolve race; keep the first session.
		go sess.Close()
		return existing, nil
	}
	c.sessions[identity.Subject] = sess
	return sess, nil
}

// close releases the subject's session, if any.
func (c *sessionCache) close(subject string) {
	c.mu.Lock()
	sess, ok := c.sessions[subject]
	delete(c.sessions, subject)
	c.mu.Unlock()

	if ok {
		sess.Close()
	}
}

// closeAll releases every live session.
func (c *sessionCache) closeAll() {
	c.mu.Lock()
	sessions := c.sessions
	c.sessions = make(map[string]*session.Session)
	c.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}
