package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeHandle struct{ closed bool }

func (h *fakeHandle) Close() error {
	h.closed = true
	return nil
}

func TestConnectAllocatesUniqueIDs(t *testing.T) {
	m := NewManager(10, 0)
	h1, h2 := &fakeHandle{}, &fakeHandle{}

	s1, st := m.Connect("u1", "db", h1)
	require.Equal(t, 0, int(st.Code))
	s2, st := m.Connect("u2", "db", h2)
	require.Equal(t, 0, int(st.Code))
	require.NotEqual(t, s1.ID, s2.ID)
}

func TestConnectRejectsOverCapacity(t *testing.T) {
	m := NewManager(1, 0)
	_, st := m.Connect("u1", "db", &fakeHandle{})
	require.Equal(t, 0, int(st.Code))

	_, st = m.Connect("u2", "db", &fakeHandle{})
	require.NotEqual(t, 0, int(st.Code))
}

func TestDisconnectClosesHandle(t *testing.T) {
	m := NewManager(10, 0)
	h := &fakeHandle{}
	s, _ := m.Connect("u1", "db", h)

	st := m.Disconnect(s.ID)
	require.Equal(t, 0, int(st.Code))
	require.True(t, h.closed)

	_, ok := m.Get(s.ID)
	require.False(t, ok)
}

func TestDisconnectUnknownSessionFails(t *testing.T) {
	m := NewManager(10, 0)
	st := m.Disconnect(999)
	require.NotEqual(t, 0, int(st.Code))
}

func TestCleanupExpiredRemovesIdleSessions(t *testing.T) {
	m := NewManager(10, time.Millisecond)
	h := &fakeHandle{}
	s, _ := m.Connect("u1", "db", h)

	time.Sleep(5 * time.Millisecond)
	m.CleanupExpired()

	_, ok := m.Get(s.ID)
	require.False(t, ok)
	require.True(t, h.closed)
}
