package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	postDomain "github.com/davicafu/hexablog/internal/post/domain"
	sharedDomain "github.com/davicafu/hexablog/internal/shared/domain"
	sharedQuery "github.com/davicafu/hexablog/internal/shared/infra/platform/query"
)

// InMemoryPostRepo simula el almacén de posts: asigna id y createdAt como lo haría la base de datos
// y guarda los eventos de outbox que escribiría en la misma transacción.
type InMemoryPostRepo struct {
	mu     sync.Mutex
	posts  []*postDomain.Post
	outbox []sharedDomain.OutboxEvent
	clock  time.Time

	// Err, si no es nil, se devuelve en todas las operaciones.
	Err error
	// GetCalls cuenta las lecturas por id que llegan al almacén.
	GetCalls int
}

var _ postDomain.PostRepository = (*InMemoryPostRepo)(nil)

func NewInMemoryPostRepo() *InMemoryPostRepo {
	return &InMemoryPostRepo{clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (r *InMemoryPostRepo) Create(ctx context.Context, in postDomain.NewPost) (*postDomain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	r.clock = r.clock.Add(time.Millisecond)
	p := &postDomain.Post{
		ID:         uuid.NewString(),
		Title:      in.Title,
		Content:    in.Content,
		AuthorName: in.AuthorName,
		CreatedAt:  r.clock,
	}

	evt, err := postDomain.NewCreatedOutboxEvent(p)
	if err != nil {
		return nil, err
	}

	r.posts = append(r.posts, p)
	r.outbox = append(r.outbox, evt)
	cp := *p
	return &cp, nil
}

func (r *InMemoryPostRepo) GetByID(ctx context.Context, id string) (*postDomain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.GetCalls++
	if r.Err != nil {
		return nil, r.Err
	}

	for _, p := range r.posts {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, postDomain.ErrPostNotFound
}

func (r *InMemoryPostRepo) List(ctx context.Context, pagination sharedQuery.OffsetPagination) ([]*postDomain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	sorted := make([]*postDomain.Post, len(r.posts))
	copy(sorted, r.posts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	if pagination.Offset >= len(sorted) {
		return []*postDomain.Post{}, nil
	}
	end := pagination.Offset + pagination.Limit
	if end > len(sorted) {
		end = len(sorted)
	}
	return sorted[pagination.Offset:end], nil
}

func (r *InMemoryPostRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	return len(r.posts), nil
}

// Outbox devuelve los eventos escritos junto a los posts.
func (r *InMemoryPostRepo) Outbox() []sharedDomain.OutboxEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sharedDomain.OutboxEvent(nil), r.outbox...)
}
