package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(Options{})
	defer m.Close()

	s, err := m.Create()
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, 1, m.Len())

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = m.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.True(t, m.Delete(s.ID))
	assert.False(t, m.Delete(s.ID))
	assert.Equal(t, 0, m.Len())
}

func TestManagerMaxSessions(t *testing.T) {
	m := NewManager(Options{MaxSessions: 1})
	defer m.Close()

	_, err := m.Create()
	require.NoError(t, err)

	_, err = m.Create()
	assert.ErrorIs(t, err, ErrTooManySessions)
}

func TestManagerSweep(t *testing.T) {
	m := NewManager(Options{TTL: time.Minute})
	defer m.Close()

	idle, err := m.Create()
	require.NoError(t, err)

	expired := m.Sweep(time.Now().Add(30 * time.Second))
	assert.Empty(t, expired)

	expired = m.Sweep(time.Now().Add(2 * time.Minute))
	assert.Equal(t, []string{idle.ID}, expired)
	assert.Equal(t, 0, m.Len())
}

func TestManagerSweeperRuns(t *testing.T) {
	m := NewManager(Options{TTL: time.Millisecond, SweepInterval: 5 * time.Millisecond})
	defer m.Close()

	_, err := m.Create()
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestManagerClose(t *testing.T) {
	m := NewManager(Options{TTL: time.Minute, SweepInterval: time.Millisecond})
	_, err := m.Create()
	require.NoError(t, err)

	m.Close()
	m.Close()

	assert.Equal(t, 0, m.Len())
	_, err = m.Create()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSessionCommandsAreSerialized(t *testing.T) {
	m := NewManager(Options{})
	defer m.Close()

	s, err := m.Create()
	require.NoError(t, err)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Apply(Command{Kind: AddRecord, Entry: validEntry(), Today: today})
			assert.NoError(t, err)
			_, err = s.Apply(Command{Kind: RunScoring})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	assert.Equal(t, s.ID, snap.ID)
	assert.Len(t, snap.Records, writers)
	assert.Len(t, snap.Scored, writers)
	assert.Equal(t, uint64(writers), s.Generation())
}
