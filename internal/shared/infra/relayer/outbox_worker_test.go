package relayer

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/hexablog/internal/mocks"
	sharedDomain "github.com/davicafu/hexablog/internal/shared/domain"
	sharedEvents "github.com/davicafu/hexablog/internal/shared/events"
)

const (
	testEventType = "post.created"
	testTopic     = "post-created"
)

var fastRetry = RetryPolicy{MaxTries: 3, MaxElapsed: time.Second, InitialInterval: time.Millisecond}

func testRegistry() map[string]sharedEvents.EventMetadata {
	return map[string]sharedEvents.EventMetadata{
		testEventType: {
			Type:  reflect.TypeOf(sharedEvents.PostEvent{}),
			Topic: testTopic,
		},
	}
}

func newTestEvent(t *testing.T) sharedDomain.OutboxEvent {
	t.Helper()
	evt, err := sharedDomain.NewOutboxEvent("post", "p1", testEventType, sharedEvents.PostEvent{
		ID: "p1", Title: "Hello", AuthorName: "Alice", Action: sharedEvents.PostActionCreated,
	})
	require.NoError(t, err)
	return evt
}

func TestOutboxWorker_ProcessBatch_Success(t *testing.T) {
	// ARRANGE
	repo := new(mocks.MockOutboxRepository)
	publisher := new(mocks.MockPublisher)
	evt := newTestEvent(t)

	repo.On("FetchPendingOutbox", mock.Anything, 10).Return([]sharedDomain.OutboxEvent{evt}, nil).Once()
	publisher.On("Publish", mock.Anything, testTopic, mock.MatchedBy(func(e *sharedEvents.PostEvent) bool {
		return e.ID == "p1" && e.Action == sharedEvents.PostActionCreated
	})).Return(nil).Once()
	repo.On("DeleteOutboxEvent", mock.Anything, evt.ID).Return(nil).Once()

	worker := NewOutboxWorker(repo, publisher, testRegistry(), time.Second, 10, fastRetry, zap.NewNop())

	// ACT
	worker.ProcessBatch(context.Background())

	// ASSERT
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
	repo.AssertNotCalled(t, "MarkOutboxFailed", mock.Anything, mock.Anything, mock.Anything)
}

func TestOutboxWorker_ProcessBatch_RetriesTransientFailure(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	publisher := new(mocks.MockPublisher)
	evt := newTestEvent(t)

	repo.On("FetchPendingOutbox", mock.Anything, 10).Return([]sharedDomain.OutboxEvent{evt}, nil).Once()
	publisher.On("Publish", mock.Anything, testTopic, mock.Anything).Return(errors.New("leader not available")).Once()
	publisher.On("Publish", mock.Anything, testTopic, mock.Anything).Return(nil).Once()
	repo.On("DeleteOutboxEvent", mock.Anything, evt.ID).Return(nil).Once()

	worker := NewOutboxWorker(repo, publisher, testRegistry(), time.Second, 10, fastRetry, zap.NewNop())
	worker.ProcessBatch(context.Background())

	publisher.AssertNumberOfCalls(t, "Publish", 2)
	repo.AssertExpectations(t)
}

func TestOutboxWorker_ProcessBatch_PublisherFailsKeepsEvent(t *testing.T) {
	// ARRANGE
	repo := new(mocks.MockOutboxRepository)
	publisher := new(mocks.MockPublisher)
	evt := newTestEvent(t)

	repo.On("FetchPendingOutbox", mock.Anything, 10).Return([]sharedDomain.OutboxEvent{evt}, nil).Once()
	publisher.On("Publish", mock.Anything, testTopic, mock.Anything).Return(errors.New("kafka is down"))
	repo.On("MarkOutboxFailed", mock.Anything, evt.ID, mock.MatchedBy(func(reason string) bool {
		return reason != ""
	})).Return(nil).Once()

	worker := NewOutboxWorker(repo, publisher, testRegistry(), time.Second, 10, fastRetry, zap.NewNop())

	// ACT
	worker.ProcessBatch(context.Background())

	// ASSERT
	publisher.AssertNumberOfCalls(t, "Publish", int(fastRetry.MaxTries))
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "DeleteOutboxEvent", mock.Anything, mock.Anything)
}

func TestOutboxWorker_ProcessBatch_UnknownEventType(t *testing.T) {
	// ARRANGE
	repo := new(mocks.MockOutboxRepository)
	publisher := new(mocks.MockPublisher)

	evt := sharedDomain.OutboxEvent{ID: uuid.New(), EventType: "unregistered.event", Payload: json.RawMessage(`{}`)}

	repo.On("FetchPendingOutbox", mock.Anything, 10).Return([]sharedDomain.OutboxEvent{evt}, nil).Once()
	repo.On("MarkOutboxFailed", mock.Anything, evt.ID, mock.Anything).Return(nil).Once()

	worker := NewOutboxWorker(repo, publisher, testRegistry(), time.Second, 10, fastRetry, zap.NewNop())

	// ACT
	worker.ProcessBatch(context.Background())

	// ASSERT
	repo.AssertExpectations(t)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "DeleteOutboxEvent", mock.Anything, mock.Anything)
}

func TestOutboxWorker_ProcessBatch_FetchError(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	publisher := new(mocks.MockPublisher)

	repo.On("FetchPendingOutbox", mock.Anything, 10).Return(nil, sharedDomain.ErrStoreUnavailable).Once()

	worker := NewOutboxWorker(repo, publisher, testRegistry(), time.Second, 10, fastRetry, zap.NewNop())
	worker.ProcessBatch(context.Background())

	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestOutboxWorker_TriggerWakesWorker(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	bus := mocks.NewCapturingBus()
	evt := newTestEvent(t)

	repo.On("FetchPendingOutbox", mock.Anything, 10).Return([]sharedDomain.OutboxEvent{evt}, nil).Once()
	repo.On("FetchPendingOutbox", mock.Anything, 10).Return([]sharedDomain.OutboxEvent{}, nil)
	repo.On("DeleteOutboxEvent", mock.Anything, evt.ID).Return(nil).Once()

	// Intervalo largo: sólo Trigger puede provocar la pasada.
	worker := NewOutboxWorker(repo, bus, testRegistry(), time.Hour, 10, fastRetry, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	worker.Trigger()
	worker.Trigger() // se agrupa con el anterior

	assert.Eventually(t, func() bool { return len(bus.Events(testTopic)) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	published := bus.Events(testTopic)[0].(*sharedEvents.PostEvent)
	assert.Equal(t, "Hello", published.Title)
}

// blockingBus nunca confirma: cada Publish espera a que se cancele su contexto.
type blockingBus struct {
	mu    sync.Mutex
	calls int
}

func (b *blockingBus) Publish(ctx context.Context, topic string, event interface{}) error {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func TestOutboxWorker_ProcessBatch_UnacknowledgedPublishIsBounded(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	bus := &blockingBus{}
	evt := newTestEvent(t)

	repo.On("FetchPendingOutbox", mock.Anything, 10).Return([]sharedDomain.OutboxEvent{evt}, nil).Once()
	repo.On("MarkOutboxFailed", mock.Anything, evt.ID, mock.Anything).Return(nil).Once()

	policy := RetryPolicy{MaxTries: 2, MaxElapsed: 200 * time.Millisecond, InitialInterval: time.Millisecond, AttemptTimeout: 50 * time.Millisecond}
	worker := NewOutboxWorker(repo, bus, testRegistry(), time.Hour, 10, policy, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		worker.ProcessBatch(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ProcessBatch bloqueado por una publicación sin confirmar")
	}

	bus.mu.Lock()
	assert.Equal(t, 2, bus.calls)
	bus.mu.Unlock()
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "DeleteOutboxEvent", mock.Anything, mock.Anything)
}
