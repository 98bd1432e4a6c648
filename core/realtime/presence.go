package realtime

import "sync"

// Registry tracks which authenticated users currently have a live
// connection. A user has at most one entry; a new authentication from the
// same user overwrites the previous one (last-writer-wins, no multi-device
// fan-out).
type Registry struct {
	mu    sync.RWMutex
	users map[string]*Client // userID -> live connection
}

func NewRegistry() *Registry {
	return &Registry{users: make(map[string]*Client)}
}

// Register maps the client's user to this connection, overwriting any prior
// mapping. Idempotent. Registering an unauthenticated client is a
// programming error.
func (r *Registry) Register(c *Client) {
	if c == nil || c.UserID() == "" {
		panic("realtime: registering connection without a user id")
	}
	r.mu.Lock()
	r.users[c.UserID()] = c
	r.mu.Unlock()
}

// Lookup returns the user's live connection. An absent entry means the user
// is offline; that is a normal outcome, not an error.
func (r *Registry) Lookup(userID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.users[userID]
	return c, ok
}

// Unregister removes the mapping owned by this connection, if it still is
// the registered one. A superseded connection never evicts its successor.
// Safe to call for never-registered (unauthenticated) connections, and
// calling it twice is the same as calling it once.
func (r *Registry) Unregister(c *Client) {
	if c == nil || c.UserID() == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.users[c.UserID()]; ok && cur.ID() == c.ID() {
		delete(r.users, c.UserID())
	}
}

// PushToUser delivers an event over the user's live connection. An offline
// user is a normal outcome and returns nil: the caller's durable record is
// the retry mechanism. A non-nil error means a stale or saturated
// connection.
func (r *Registry) PushToUser(userID, event string, payload interface{}) error {
	c, ok := r.Lookup(userID)
	if !ok {
		return nil
	}
	return c.Enqueue(event, payload)
}

// Online reports how many users currently have a live connection.
func (r *Registry) Online() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
