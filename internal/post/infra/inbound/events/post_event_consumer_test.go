package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	sharedEvents "github.com/davicafu/hexablog/internal/shared/events"
	sharedInfraEvents "github.com/davicafu/hexablog/internal/shared/infra/events"
	"github.com/davicafu/hexablog/internal/shared/infra/platform/dedup"
)

type recordingSink struct {
	mu     sync.Mutex
	events []sharedEvents.PostEvent
	err    error
}

func (s *recordingSink) Record(ctx context.Context, evt sharedEvents.PostEvent, receivedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, evt)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

const createdPayload = `{"id":"p1","title":"Hello","authorName":"Alice","action":"created"}`

func TestPostEventConsumer_DuplicateProcessedOnce(t *testing.T) {
	sink := &recordingSink{}
	c := NewPostEventConsumer(dedup.NewInMemoryDeduplicator(time.Hour), sink, zap.NewNop())

	require.NoError(t, c.HandleMessage(context.Background(), "p1", []byte(createdPayload)))
	require.NoError(t, c.HandleMessage(context.Background(), "p1", []byte(createdPayload)))

	assert.Equal(t, 1, sink.count())
	assert.Equal(t, "Hello", sink.events[0].Title)
}

func TestPostEventConsumer_DifferentActionsAreDistinct(t *testing.T) {
	sink := &recordingSink{}
	c := NewPostEventConsumer(dedup.NewInMemoryDeduplicator(time.Hour), sink, zap.NewNop())

	require.NoError(t, c.HandleMessage(context.Background(), "p1", []byte(createdPayload)))
	require.NoError(t, c.HandleMessage(context.Background(), "p1",
		[]byte(`{"id":"p1","title":"Hello","authorName":"Alice","action":"deleted"}`)))

	assert.Equal(t, 2, sink.count())
}

func TestPostEventConsumer_SinkFailureAllowsRedelivery(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	c := NewPostEventConsumer(dedup.NewInMemoryDeduplicator(time.Hour), sink, zap.NewNop())

	err := c.HandleMessage(context.Background(), "p1", []byte(createdPayload))
	require.Error(t, err)
	assert.False(t, errors.Is(err, sharedInfraEvents.ErrPoisonMessage))

	sink.err = nil
	require.NoError(t, c.HandleMessage(context.Background(), "p1", []byte(createdPayload)))
	assert.Equal(t, 1, sink.count())
}

func TestPostEventConsumer_PoisonMessages(t *testing.T) {
	sink := &recordingSink{}
	c := NewPostEventConsumer(dedup.NewInMemoryDeduplicator(time.Hour), sink, zap.NewNop())

	cases := map[string]string{
		"malformed json": `{"id":`,
		"missing id":     `{"title":"x","action":"created"}`,
		"unknown action": `{"id":"p1","action":"archived"}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			err := c.HandleMessage(context.Background(), "", []byte(payload))
			assert.ErrorIs(t, err, sharedInfraEvents.ErrPoisonMessage)
		})
	}
	assert.Equal(t, 0, sink.count())
}

func TestBackgroundConsumerChan(t *testing.T) {
	sink := &recordingSink{}
	c := NewPostEventConsumer(dedup.NewInMemoryDeduplicator(time.Hour), sink, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := make(chan []byte, 2)
	BackgroundConsumerChan(ctx, ch, c)
	ch <- []byte(createdPayload)
	ch <- []byte(createdPayload)

	assert.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 10*time.Millisecond)
}

// flakySink falla las primeras failures llamadas y después delega en recordingSink.
type flakySink struct {
	recordingSink
	failures int
	calls    int
}

func (s *flakySink) Record(ctx context.Context, evt sharedEvents.PostEvent, receivedAt time.Time) error {
	s.mu.Lock()
	s.calls++
	failing := s.calls <= s.failures
	s.mu.Unlock()
	if failing {
		return errors.New("sink unavailable")
	}
	return s.recordingSink.Record(ctx, evt, receivedAt)
}

func TestBackgroundConsumerChan_RetriesTransientSinkFailure(t *testing.T) {
	sink := &flakySink{failures: 2}
	c := NewPostEventConsumer(dedup.NewInMemoryDeduplicator(time.Hour), sink, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := make(chan []byte, 1)
	BackgroundConsumerChan(ctx, ch, c)
	ch <- []byte(createdPayload)

	assert.Eventually(t, func() bool { return sink.count() == 1 }, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, "p1", sink.events[0].ID)
}

type countingSink map[sharedEvents.PostAction]uint64

func (s countingSink) CountByAction(ctx context.Context, action sharedEvents.PostAction) (uint64, error) {
	return s[action], nil
}

type brokenCounter struct{}

func (brokenCounter) CountByAction(ctx context.Context, action sharedEvents.PostAction) (uint64, error) {
	return 0, errors.New("clickhouse down")
}

func TestLogSinkSummary(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	counter := countingSink{sharedEvents.PostActionCreated: 3, sharedEvents.PostActionDeleted: 1}

	require.NoError(t, LogSinkSummary(context.Background(), counter, zap.New(core)))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, uint64(3), fields["created"])
	assert.Equal(t, uint64(0), fields["updated"])
	assert.Equal(t, uint64(1), fields["deleted"])
}

func TestLogSinkSummary_CounterError(t *testing.T) {
	err := LogSinkSummary(context.Background(), brokenCounter{}, zap.NewNop())
	assert.ErrorContains(t, err, "clickhouse down")
}
