package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasjlepore/ridechat"
	"github.com/lucasjlepore/ridechat/table"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestManager(clock *fakeClock, opts ...Option) *Manager {
	opts = append([]Option{WithClock(clock.Now), WithTTL(time.Hour)}, opts...)
	return NewManager(func() *ridechat.Engine { return ridechat.New() }, opts...)
}

func TestSessionsHaveIndependentEngines(t *testing.T) {
	m := newTestManager(&fakeClock{now: time.Now()})
	a := m.Create()
	b := m.Create()
	require.NotEqual(t, a.ID, b.ID)

	power, err := table.FromColumns(nil, map[string][]float64{table.Power: {100, 200}})
	require.NoError(t, err)
	a.Engine.Load(power, nil)

	assert.True(t, a.Engine.IsLoaded())
	assert.False(t, b.Engine.IsLoaded())
}

func TestGetAndDelete(t *testing.T) {
	m := newTestManager(&fakeClock{now: time.Now()})
	s := m.Create()

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	assert.True(t, m.Delete(s.ID))
	assert.False(t, m.Delete(s.ID))
	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIdleSessionsExpire(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	var counts []int
	m := newTestManager(clock, OnChange(func(n int) { counts = append(counts, n) }))

	stale := m.Create()
	clock.Advance(40 * time.Minute)
	fresh := m.Create()
	clock.Advance(30 * time.Minute)

	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, m.Len())
	_, err := m.Get(stale.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get(fresh.ID)
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 2, 1}, counts)
}

func TestGetRefreshesIdleTimer(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	m := newTestManager(clock)
	s := m.Create()

	clock.Advance(50 * time.Minute)
	_, err := m.Get(s.ID)
	require.NoError(t, err)
	clock.Advance(50 * time.Minute)
	_, err = m.Get(s.ID)
	require.NoError(t, err)

	clock.Advance(61 * time.Minute)
	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, m.Len())
}

func TestRunStopsOnCancel(t *testing.T) {
	m := newTestManager(&fakeClock{now: time.Now()})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, time.Millisecond) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
