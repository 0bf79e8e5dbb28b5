package domain

import (
	"time"

	sharedDomain "github.com/davicafu/hexablog/internal/shared/domain"
	sharedEvents "github.com/davicafu/hexablog/internal/shared/events"
)

// Post es inmutable una vez creado: id y createdAt los asigna el almacén.
type Post struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	AuthorName string    `json:"authorName"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewPost son los datos que aporta el cliente al crear un post.
type NewPost struct {
	Title      string
	Content    string
	AuthorName string
}

// PostPage es una página del listado junto al total de posts.
// Ambos valores se leen por separado y pueden no coincidir en el mismo instante.
type PostPage struct {
	Posts []*Post `json:"posts"`
	Total int     `json:"total"`
}

func (p *Post) PartitionKey() string {
	return p.ID
}

// CreatedEvent construye el evento de integración a partir de la fila insertada.
func (p *Post) CreatedEvent() sharedEvents.PostEvent {
	return sharedEvents.PostEvent{
		ID:         p.ID,
		Title:      p.Title,
		AuthorName: p.AuthorName,
		Action:     sharedEvents.PostActionCreated,
	}
}

// NewCreatedOutboxEvent prepara la fila de outbox que acompaña a la inserción del post.
func NewCreatedOutboxEvent(p *Post) (sharedDomain.OutboxEvent, error) {
	return sharedDomain.NewOutboxEvent(AggregateType, p.ID, PostCreated, p.CreatedEvent())
}
