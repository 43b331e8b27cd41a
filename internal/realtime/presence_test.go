package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceRegisterAndGet(t *testing.T) {
	p := NewPresence()
	conn := NewConnection("user-1", nil)

	replaced := p.Register(conn)
	assert.Nil(t, replaced)
	assert.Same(t, conn, p.Get("user-1"))
	assert.Equal(t, 1, p.Len())
}

func TestPresenceLastConnectionWins(t *testing.T) {
	p := NewPresence()
	first := NewConnection("user-1", nil)
	second := NewConnection("user-1", nil)

	p.Register(first)
	replaced := p.Register(second)

	assert.Same(t, first, replaced)
	assert.Same(t, second, p.Get("user-1"))
	assert.Equal(t, 1, p.Len(), "one entry per user, not per socket")
}

func TestPresenceStaleDisconnectDoesNotEvictReplacement(t *testing.T) {
	p := NewPresence()
	first := NewConnection("user-1", nil)
	second := NewConnection("user-1", nil)

	p.Register(first)
	p.Register(second)

	// The old socket going away must leave the new registration intact.
	removed := p.Unregister(first)
	assert.False(t, removed)
	require.NotNil(t, p.Get("user-1"))
	assert.Same(t, second, p.Get("user-1"))

	removed = p.Unregister(second)
	assert.True(t, removed)
	assert.Nil(t, p.Get("user-1"))
}

func TestPresenceOnlineIDs(t *testing.T) {
	p := NewPresence()
	p.Register(NewConnection("alice", nil))
	p.Register(NewConnection("bob", nil))

	ids := p.OnlineIDs()
	assert.ElementsMatch(t, []string{"alice", "bob"}, ids)

	p.Unregister(p.Get("alice"))
	assert.ElementsMatch(t, []string{"bob"}, p.OnlineIDs())
}
