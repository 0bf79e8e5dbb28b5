package events

import "reflect"

// EventMetadata asocia un tipo de evento del outbox con el tipo Go de su payload
// y el topic en el que se publica.
type EventMetadata struct {
	Type  reflect.Type
	Topic string
}
