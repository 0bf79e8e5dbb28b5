package domain

import (
	"reflect"

	sharedEvents "github.com/davicafu/hexablog/internal/shared/events"
)

const AggregateType = "post"

// Tipos de evento del outbox. Sólo se produce PostCreated.
const (
	PostCreated = "post.created"
)

const DefaultPostTopic = "post-created"

func NewEventRegistry(topic string) map[string]sharedEvents.EventMetadata {
	if topic == "" {
		topic = DefaultPostTopic
	}
	return map[string]sharedEvents.EventMetadata{
		PostCreated: {
			Type:  reflect.TypeOf(sharedEvents.PostEvent{}),
			Topic: topic,
		},
	}
}
