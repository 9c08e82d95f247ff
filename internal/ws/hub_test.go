package ws

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-relay/internal/mocks"
	"chat-relay/internal/models"
	"chat-relay/internal/moderation"
)

type fakeMember struct {
	mu     sync.Mutex
	events []models.Event
	fail   bool
	closed bool
}

func (f *fakeMember) Deliver(event models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return assert.AnError
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeMember) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeMember) Events() []models.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Event(nil), f.events...)
}

func newTestHub(t *testing.T, store *mocks.MessageRepositoryMock, hideRejected bool) (*Hub, *Registry) {
	t.Helper()
	matcher, err := moderation.NewMatcher([]string{"дурак", "badger"})
	require.NoError(t, err)
	pipeline := moderation.NewPipeline(matcher)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := NewRegistry()
	return NewHub(registry, pipeline, store, nil, logger, hideRejected), registry
}

func expectCreate(store *mocks.MessageRepositoryMock) *[]models.Message {
	var saved []models.Message
	store.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			saved = append(saved, args.Get(1).(models.Message))
		}).
		Return(models.Message{}, nil)
	return &saved
}

func TestIngestAcceptedBroadcastsOnce(t *testing.T) {
	store := new(mocks.MessageRepositoryMock)
	saved := expectCreate(store)
	hub, registry := newTestHub(t, store, false)

	a, b := &fakeMember{}, &fakeMember{}
	registry.Join("r1", a)
	registry.Join("r1", b)

	hub.Ingest(context.Background(), "r1", "hi", "Smith A.")

	for _, m := range []*fakeMember{a, b} {
		events := m.Events()
		require.Len(t, events, 1)
		require.Equal(t, "hi", events[0].Text)
		require.Equal(t, "r1", events[0].Room)
		require.Equal(t, "Smith A.", events[0].Sender)
		require.True(t, events[0].Visibility)
		require.NotEmpty(t, events[0].HTMLID)
	}

	require.Len(t, *saved, 1)
	require.Equal(t, "hi", (*saved)[0].Text)
	require.True(t, (*saved)[0].Visible)
	store.AssertExpectations(t)
}

func TestIngestRejectedRebroadcastsCensored(t *testing.T) {
	store := new(mocks.MessageRepositoryMock)
	saved := expectCreate(store)
	hub, registry := newTestHub(t, store, false)

	a := &fakeMember{}
	registry.Join("r1", a)

	hub.Ingest(context.Background(), "r1", "ты дурак!", "Smith A.")

	events := a.Events()
	require.Len(t, events, 2)
	require.Equal(t, "ты дурак!", events[0].Text)
	require.Equal(t, "ты *****!", events[1].Text)
	// Both passes describe the same message.
	require.Equal(t, events[0].HTMLID, events[1].HTMLID)

	require.Len(t, *saved, 1)
	require.Equal(t, "ты *****!", (*saved)[0].Text)
	require.True(t, (*saved)[0].Visible)
}

func TestIngestRejectedHiddenMode(t *testing.T) {
	store := new(mocks.MessageRepositoryMock)
	saved := expectCreate(store)
	hub, registry := newTestHub(t, store, true)

	a := &fakeMember{}
	registry.Join("r1", a)

	hub.Ingest(context.Background(), "r1", "ты дурак!", "Smith A.")

	// Raw optimistic pass only, no corrected pass in hidden mode.
	require.Len(t, a.Events(), 1)

	require.Len(t, *saved, 1)
	require.False(t, (*saved)[0].Visible)
	require.Equal(t, "ты *****!", (*saved)[0].Text)
}

func TestIngestEmptyMessagePersistsSurrogate(t *testing.T) {
	store := new(mocks.MessageRepositoryMock)
	saved := expectCreate(store)
	hub, registry := newTestHub(t, store, false)

	a := &fakeMember{}
	registry.Join("r1", a)

	hub.Ingest(context.Background(), "r1", "   ", "Smith A.")

	require.Len(t, *saved, 1)
	require.Equal(t, " ", (*saved)[0].Text)
}

func TestIngestPrunesFailedMember(t *testing.T) {
	store := new(mocks.MessageRepositoryMock)
	expectCreate(store)
	hub, registry := newTestHub(t, store, false)

	healthy := &fakeMember{}
	dead := &fakeMember{fail: true}
	registry.Join("r1", healthy)
	registry.Join("r1", dead)

	hub.Ingest(context.Background(), "r1", "hi", "Smith A.")

	require.Equal(t, 1, registry.Count("r1"))
	require.True(t, dead.closed)
	require.Len(t, healthy.Events(), 1)

	// The pruned member receives nothing on subsequent broadcasts.
	hub.Ingest(context.Background(), "r1", "again", "Smith A.")
	require.Empty(t, dead.Events())
	require.Len(t, healthy.Events(), 2)
}

func TestIngestPersistsWhenRoomIsEmpty(t *testing.T) {
	store := new(mocks.MessageRepositoryMock)
	saved := expectCreate(store)
	hub, _ := newTestHub(t, store, false)

	hub.Ingest(context.Background(), "r1", "hi", "Smith A.")

	require.Len(t, *saved, 1)
}

func TestIngestPersistenceFailureDoesNotPanic(t *testing.T) {
	store := new(mocks.MessageRepositoryMock)
	store.On("Create", mock.Anything, mock.Anything).Return(models.Message{}, assert.AnError)
	hub, registry := newTestHub(t, store, false)

	a := &fakeMember{}
	registry.Join("r1", a)

	hub.Ingest(context.Background(), "r1", "hi", "Smith A.")

	// Broadcast already happened and is not rolled back.
	require.Len(t, a.Events(), 1)
}

func TestRegisterReplaysHistoryBeforeJoining(t *testing.T) {
	store := new(mocks.MessageRepositoryMock)
	history := []models.Message{
		models.NewMessage("r1", "Smith A.", "first"),
		models.NewMessage("r1", "Smith A.", "second"),
	}
	store.On("ListRecentVisible", mock.Anything, "r1", ReplayLimit).Return(history, nil)
	expectCreate(store)
	hub, registry := newTestHub(t, store, false)

	m := &fakeMember{}
	require.NoError(t, hub.Register(context.Background(), "r1", m))

	events := m.Events()
	require.Len(t, events, 2)
	require.Equal(t, "first", events[0].Text)
	require.Equal(t, "second", events[1].Text)
	require.Equal(t, 1, registry.Count("r1"))

	// Once joined, live broadcasts arrive as well.
	hub.Ingest(context.Background(), "r1", "live", "Smith A.")
	require.Len(t, m.Events(), 3)
}

func TestRegisterFailedReplayDoesNotJoin(t *testing.T) {
	store := new(mocks.MessageRepositoryMock)
	store.On("ListRecentVisible", mock.Anything, "r1", ReplayLimit).
		Return([]models.Message{models.NewMessage("r1", "Smith A.", "first")}, nil)
	hub, registry := newTestHub(t, store, false)

	m := &fakeMember{fail: true}
	require.Error(t, hub.Register(context.Background(), "r1", m))
	require.True(t, m.closed)
	require.Equal(t, 0, registry.Count("r1"))
}

func TestRegisterHistoryErrorStillJoins(t *testing.T) {
	store := new(mocks.MessageRepositoryMock)
	store.On("ListRecentVisible", mock.Anything, "r1", ReplayLimit).
		Return(([]models.Message)(nil), assert.AnError)
	hub, registry := newTestHub(t, store, false)

	m := &fakeMember{}
	require.NoError(t, hub.Register(context.Background(), "r1", m))
	require.Equal(t, 1, registry.Count("r1"))
	require.Empty(t, m.Events())
}

func TestIngestConcurrentSendersDeliverEverything(t *testing.T) {
	store := new(mocks.MessageRepositoryMock)
	store.On("Create", mock.Anything, mock.Anything).Return(models.Message{}, nil)
	hub, registry := newTestHub(t, store, false)

	a, b := &fakeMember{}, &fakeMember{}
	registry.Join("r1", a)
	registry.Join("r1", b)

	const senders = 10
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Ingest(context.Background(), "r1", "hello", "Smith A.")
		}()
	}
	wg.Wait()

	require.Len(t, a.Events(), senders)
	require.Len(t, b.Events(), senders)
}
