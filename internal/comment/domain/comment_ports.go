package domain

import (
	"context"
	"errors"

	sharedQuery "github.com/davicafu/hexablog/internal/shared/infra/platform/query"
)

var (
	ErrPostNotFound        = errors.New("post not found")
	ErrUpstreamUnavailable = errors.New("posts service unavailable")
)

// --- Repositorio de Comments ---
type CommentRepository interface {
	Create(ctx context.Context, in NewComment) (*Comment, error)
	// ListByPostID ordena por createdAt descendente; un post sin comentarios devuelve una lista vacía.
	ListByPostID(ctx context.Context, postID string, pagination sharedQuery.OffsetPagination) ([]*Comment, error)
}

// PostLookup consulta al servicio de posts.
// Devuelve ErrPostNotFound si el post no existe y ErrUpstreamUnavailable ante cualquier otro fallo.
type PostLookup interface {
	GetPost(ctx context.Context, id string) (*PostRef, error)
}
