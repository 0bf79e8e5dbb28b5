package domain

import (
	"encoding/json"
	"testing"
	"time"

	sharedEvents "github.com/davicafu/hexablog/internal/shared/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPost_CreatedEvent(t *testing.T) {
	p := &Post{ID: "p1", Title: "Hello", Content: "World", AuthorName: "Alice", CreatedAt: time.Now()}

	evt := p.CreatedEvent()

	assert.Equal(t, sharedEvents.PostEvent{ID: "p1", Title: "Hello", AuthorName: "Alice", Action: sharedEvents.PostActionCreated}, evt)
}

func TestNewCreatedOutboxEvent(t *testing.T) {
	p := &Post{ID: "p1", Title: "Hello", Content: "World", AuthorName: "Alice"}

	evt, err := NewCreatedOutboxEvent(p)
	require.NoError(t, err)

	assert.Equal(t, AggregateType, evt.AggregateType)
	assert.Equal(t, "p1", evt.AggregateID)
	assert.Equal(t, PostCreated, evt.EventType)
	assert.JSONEq(t, `{"id":"p1","title":"Hello","authorName":"Alice","action":"created"}`, string(evt.Payload))
}

func TestPost_JSONShape(t *testing.T) {
	p := Post{ID: "p1", Title: "Hello", Content: "World", AuthorName: "Alice", CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	assert.JSONEq(t, `{"id":"p1","title":"Hello","content":"World","authorName":"Alice","createdAt":"2024-01-02T03:04:05Z"}`, string(data))
}

func TestNewEventRegistry(t *testing.T) {
	registry := NewEventRegistry("")

	meta, ok := registry[PostCreated]
	require.True(t, ok)
	assert.Equal(t, DefaultPostTopic, meta.Topic)
	assert.Len(t, registry, 1)

	assert.Equal(t, "custom", NewEventRegistry("custom")[PostCreated].Topic)
}
