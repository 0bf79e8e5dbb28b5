package events

// Estos son contratos de integración, NO entidades del dominio.
// Viajan tal cual (JSON) por el canal de eventos.

type PostAction string

const (
	PostActionCreated PostAction = "created"
	PostActionUpdated PostAction = "updated"
	PostActionDeleted PostAction = "deleted"
)

// PostEvent es el mensaje publicado en el topic de posts.
// Sólo se produce la acción "created"; las otras existen en el contrato.
type PostEvent struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	AuthorName string     `json:"authorName"`
	Action     PostAction `json:"action"`
}

// PartitionKey mantiene los eventos de un mismo post en la misma partición.
func (e *PostEvent) PartitionKey() string {
	return e.ID
}

// IdempotencyKey identifica el evento para la deduplicación en consumidores.
func (e *PostEvent) IdempotencyKey() string {
	return e.ID + ":" + string(e.Action)
}

// Valid indica si el mensaje trae los campos mínimos para procesarse.
func (e *PostEvent) Valid() bool {
	switch e.Action {
	case PostActionCreated, PostActionUpdated, PostActionDeleted:
		return e.ID != ""
	default:
		return false
	}
}
