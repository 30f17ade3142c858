package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/companion-nlu-go/internal/course"
	"github.com/garyellow/companion-nlu-go/internal/engine"
	"github.com/garyellow/companion-nlu-go/internal/lexicon"
	"github.com/garyellow/companion-nlu-go/internal/model"
	"github.com/garyellow/companion-nlu-go/internal/nlu"
)

type fakeStore struct {
	mu      sync.Mutex
	rosters map[string][]string
	calls   atomic.Int32
	err     error
}

func (f *fakeStore) Roster(_ context.Context, userID string) ([]string, map[string]string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rosters[userID], nil, nil
}

func (f *fakeStore) set(userID string, names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rosters[userID] = names
}

func TestManager_GetLoadsRosterOnce(t *testing.T) {
	t.Parallel()

	store := &fakeStore{rosters: map[string][]string{"u1": {"Organic Chemistry"}}}
	m := NewManager(Config{Engine: engine.Config{Services: model.RuleServices(nil)}, Store: store})
	ctx := context.Background()

	e1, err := m.Get(ctx, "u1")
	require.NoError(t, err)
	e2, err := m.Get(ctx, "u1")
	require.NoError(t, err)

	assert.Same(t, e1, e2)
	assert.Equal(t, []string{"Organic Chemistry"}, e1.Roster())
	assert.Equal(t, int32(1), store.calls.Load())
	assert.Equal(t, 1, m.Len())

	got := e1.Process(ctx, "orgo")
	assert.Equal(t, "Organic Chemistry", got.Entities.Get(nlu.SlotCourseName))
}

func TestManager_StoreError(t *testing.T) {
	t.Parallel()

	m := NewManager(Config{Store: &fakeStore{err: errors.New("disk gone")}})
	_, err := m.Get(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "u1")
	assert.Zero(t, m.Len())
}

func TestManager_Reload(t *testing.T) {
	t.Parallel()

	store := &fakeStore{rosters: map[string][]string{"u1": {"Biology"}}}
	m := NewManager(Config{Store: store})
	ctx := context.Background()

	e, err := m.Get(ctx, "u1")
	require.NoError(t, err)

	store.set("u1", "Physics")
	require.NoError(t, m.Reload(ctx, "u1"))
	assert.Equal(t, []string{"Physics"}, e.Roster())

	require.NoError(t, m.Reload(ctx, "not-cached"))
}

func TestManager_NoStore(t *testing.T) {
	t.Parallel()

	m := NewManager(Config{})
	e, err := m.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, e.Roster())
}

func TestManager_Evicts(t *testing.T) {
	t.Parallel()

	m := NewManager(Config{Size: 2})
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		_, err := m.Get(ctx, id)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, m.Len())
}

func TestManager_OwnerOnEvents(t *testing.T) {
	t.Parallel()

	events := make(chan course.AmbiguityEvent, 1)
	store := &fakeStore{rosters: map[string][]string{"u7": {"Organic Chemistry"}}}
	m := NewManager(Config{
		Engine: engine.Config{Services: model.RuleServices(nil), Events: events},
		Store:  store,
	})

	e, err := m.Get(context.Background(), "u7")
	require.NoError(t, err)
	e.Process(context.Background(), "got 90 on the pottery quiz")

	require.Len(t, events, 1)
	assert.Equal(t, "u7", (<-events).Owner)
}

func TestManager_SetLexicon(t *testing.T) {
	t.Parallel()

	store := &fakeStore{rosters: map[string][]string{}}
	m := NewManager(Config{Store: store})
	ctx := context.Background()

	before, err := m.Get(ctx, "u1")
	require.NoError(t, err)
	_, ok := before.Lexicon().CourseAlias("pchem")
	assert.False(t, ok)

	m.SetLexicon(lexicon.Default().Merge(lexicon.Bundle{
		Courses: map[string]string{"pchem": "Physical Chemistry"},
	}))
	assert.Zero(t, m.Len())

	after, err := m.Get(ctx, "u1")
	require.NoError(t, err)
	assert.NotSame(t, before, after)
	got, ok := after.Lexicon().CourseAlias("pchem")
	require.True(t, ok)
	assert.Equal(t, "Physical Chemistry", got)

	m.SetLexicon(nil)
	assert.Same(t, after, mustGet(t, m, "u1"))
}

func mustGet(t *testing.T, m *Manager, userID string) *engine.Engine {
	t.Helper()
	e, err := m.Get(context.Background(), userID)
	require.NoError(t, err)
	return e
}

func TestInbox(t *testing.T) {
	t.Parallel()

	inbox := NewInbox(10, time.Minute)
	events := make(chan course.AmbiguityEvent, 3)
	events <- course.AmbiguityEvent{Owner: "u1", Raw: "first"}
	events <- course.AmbiguityEvent{Owner: "u1", Raw: "second"}
	events <- course.AmbiguityEvent{Owner: "u2", Raw: "other"}
	close(events)

	inbox.Run(context.Background(), events)

	ev, ok := inbox.Take("u1")
	require.True(t, ok)
	assert.Equal(t, "second", ev.Raw)

	_, ok = inbox.Take("u1")
	assert.False(t, ok)

	ev, ok = inbox.Take("u2")
	require.True(t, ok)
	assert.Equal(t, "other", ev.Raw)
}

func TestInbox_StopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewInbox(0, 0).Run(ctx, make(chan course.AmbiguityEvent))
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
