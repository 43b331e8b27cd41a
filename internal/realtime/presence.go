package realtime

import "sync"

// Presence is the directory mapping user ids to their active connection.
// At most one entry exists per user; a newer connection replaces the older
// one (last wins). It is owned by a Gateway instance and safe for use from
// every connection's handlers.
type Presence struct {
	mu      sync.RWMutex
	entries map[string]*Connection
}

// NewPresence constructs an empty directory.
func NewPresence() *Presence {
	return &Presence{entries: make(map[string]*Connection)}
}

// Register writes the entry for the connection's user, replacing any prior
// one. The replaced connection is returned so callers can react to it;
// the old socket stays open but can no longer be reached by user id.
func (p *Presence) Register(conn *Connection) *Connection {
	p.mu.Lock()
	defer p.mu.Unlock()
	previous := p.entries[conn.UserID]
	p.entries[conn.UserID] = conn
	return previous
}

// Unregister removes the entry for the connection's user, but only if it
// still belongs to that connection. A stale connection disconnecting must
// not evict the entry of the one that replaced it.
func (p *Presence) Unregister(conn *Connection) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if current, ok := p.entries[conn.UserID]; ok && current == conn {
		delete(p.entries, conn.UserID)
		return true
	}
	return false
}

// Get returns the active connection for the user, or nil.
func (p *Presence) Get(userID string) *Connection {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.entries[userID]
}

// OnlineIDs returns the ids of all currently registered users.
func (p *Presence) OnlineIDs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]string, 0, len(p.entries))
	for id := range p.entries {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of registered users.
func (p *Presence) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}
