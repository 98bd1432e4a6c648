package realtime

import "sync"

// Router manages subscription of connections to named channels and fans
// events out to the current subscriber set. Channels are created implicitly
// on first join and never explicitly destroyed; an empty channel is
// harmless.
type Router struct {
	mu       sync.RWMutex
	channels map[string]map[string]*Client  // channelID -> connID -> Client
	joined   map[string]map[string]struct{} // connID -> channelIDs, for teardown
}

func NewRouter() *Router {
	return &Router{
		channels: make(map[string]map[string]*Client),
		joined:   make(map[string]map[string]struct{}),
	}
}

// Join subscribes the connection to the channel. Unauthenticated
// connections are silently ignored.
func (r *Router) Join(c *Client, channelID string) {
	if c == nil || c.UserID() == "" || channelID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	subs, ok := r.channels[channelID]
	if !ok {
		subs = make(map[string]*Client)
		r.channels[channelID] = subs
	}
	subs[c.ID()] = c

	chans, ok := r.joined[c.ID()]
	if !ok {
		chans = make(map[string]struct{})
		r.joined[c.ID()] = chans
	}
	chans[channelID] = struct{}{}
}

// Leave drops the connection's subscription; a no-op if it was not
// subscribed.
func (r *Router) Leave(c *Client, channelID string) {
	if c == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leave(c.ID(), channelID)
}

// LeaveAll drops every subscription the connection holds; called once on
// connection teardown so stale subscriptions never accumulate.
func (r *Router) LeaveAll(c *Client) {
	if c == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for channelID := range r.joined[c.ID()] {
		r.leave(c.ID(), channelID)
	}
	delete(r.joined, c.ID())
}

func (r *Router) leave(connID, channelID string) {
	if subs, ok := r.channels[channelID]; ok {
		delete(subs, connID)
	}
	if chans, ok := r.joined[connID]; ok {
		delete(chans, channelID)
	}
}

// Broadcast delivers the event to every current subscriber of the channel
// except the excluded connection ids (used to not echo a sender's own
// message back). Delivery is best-effort and at-most-once per subscriber;
// enqueue failures are reported so the caller can log them.
func (r *Router) Broadcast(channelID, event string, payload interface{}, exclude ...string) []error {
	r.mu.RLock()
	subs := make([]*Client, 0, len(r.channels[channelID]))
	for connID, c := range r.channels[channelID] {
		if contains(exclude, connID) {
			continue
		}
		subs = append(subs, c)
	}
	r.mu.RUnlock()

	var errs []error
	for _, c := range subs {
		if err := c.Enqueue(event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Subscribed reports whether the connection is currently subscribed to the
// channel.
func (r *Router) Subscribed(c *Client, channelID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.channels[channelID][c.ID()]
	return ok
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
