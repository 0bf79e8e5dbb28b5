package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	sharedEvents "github.com/davicafu/hexablog/internal/shared/events"
	sharedQuery "github.com/davicafu/hexablog/internal/shared/infra/platform/query"
)

var ErrPostNotFound = errors.New("post not found")

// --- Repositorio de Posts ---
type PostRepository interface {
	// Create inserta el post y su evento "created" en el outbox dentro de una única transacción.
	Create(ctx context.Context, in NewPost) (*Post, error)
	// GetByID devuelve ErrPostNotFound también para ids mal formados.
	GetByID(ctx context.Context, id string) (*Post, error)
	// List ordena por createdAt descendente; a igual fecha, el último insertado primero.
	List(ctx context.Context, pagination sharedQuery.OffsetPagination) ([]*Post, error)
	Count(ctx context.Context) (int, error)
}

// OutboxNotifier despierta al dispatcher tras un commit.
type OutboxNotifier interface {
	Trigger()
}

// ---------- Helpers comunes (cache keys, etc.) ----------

func PostCacheKeyByID(id string) string {
	return fmt.Sprintf("post:id:%s", id)
}

// PostEventSink registra los eventos de post recibidos por un consumidor.
type PostEventSink interface {
	Record(ctx context.Context, evt sharedEvents.PostEvent, receivedAt time.Time) error
}

// PostEventCounter consulta lo ya registrado por un PostEventSink.
type PostEventCounter interface {
	CountByAction(ctx context.Context, action sharedEvents.PostAction) (uint64, error)
}
