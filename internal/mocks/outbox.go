package mocks

import (
	"context"
	"sync"

	sharedDomain "github.com/davicafu/hexablog/internal/shared/domain"
	sharedBus "github.com/davicafu/hexablog/internal/shared/infra/platform/bus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockOutboxRepository simula el repositorio de outbox.
type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	args := m.Called(ctx, limit)
	events, _ := args.Get(0).([]sharedDomain.OutboxEvent)
	return events, args.Error(1)
}

func (m *MockOutboxRepository) DeleteOutboxEvent(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockOutboxRepository) MarkOutboxFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return m.Called(ctx, id, reason).Error(0)
}

// MockPublisher simula un publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, event interface{}) error {
	return m.Called(ctx, topic, event).Error(0)
}

// CapturingBus guarda todo lo publicado; sirve para comprobar entregas de extremo a extremo.
type CapturingBus struct {
	mu     sync.Mutex
	events map[string][]interface{}
}

func NewCapturingBus() *CapturingBus {
	return &CapturingBus{events: make(map[string][]interface{})}
}

func (b *CapturingBus) Publish(ctx context.Context, topic string, event interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[topic] = append(b.events[topic], event)
	return nil
}

// Events devuelve una copia de lo publicado en el topic.
func (b *CapturingBus) Events(topic string) []interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]interface{}(nil), b.events[topic]...)
}

// NotifierSpy cuenta las llamadas a Trigger.
type NotifierSpy struct {
	mu    sync.Mutex
	calls int
}

func (n *NotifierSpy) Trigger() {
	n.mu.Lock()
	n.calls++
	n.mu.Unlock()
}

func (n *NotifierSpy) Calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

var (
	_ sharedDomain.OutboxRepository = (*MockOutboxRepository)(nil)
	_ sharedBus.EventBus            = (*MockPublisher)(nil)
	_ sharedBus.EventBus            = (*CapturingBus)(nil)
)
