package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	commentDomain "github.com/davicafu/hexablog/internal/comment/domain"
	sharedQuery "github.com/davicafu/hexablog/internal/shared/infra/platform/query"
)

// InMemoryCommentRepo simula el almacén de comentarios.
type InMemoryCommentRepo struct {
	mu       sync.Mutex
	comments []*commentDomain.Comment
	clock    time.Time

	Err error
}

var _ commentDomain.CommentRepository = (*InMemoryCommentRepo)(nil)

func NewInMemoryCommentRepo() *InMemoryCommentRepo {
	return &InMemoryCommentRepo{clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (r *InMemoryCommentRepo) Create(ctx context.Context, in commentDomain.NewComment) (*commentDomain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	r.clock = r.clock.Add(time.Millisecond)
	c := &commentDomain.Comment{
		ID:         uuid.NewString(),
		PostID:     in.PostID,
		Content:    in.Content,
		AuthorName: in.AuthorName,
		CreatedAt:  r.clock,
	}
	r.comments = append(r.comments, c)
	cp := *c
	return &cp, nil
}

func (r *InMemoryCommentRepo) ListByPostID(ctx context.Context, postID string, pagination sharedQuery.OffsetPagination) ([]*commentDomain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	matched := []*commentDomain.Comment{}
	for i := len(r.comments) - 1; i >= 0; i-- {
		if r.comments[i].PostID == postID {
			cp := *r.comments[i]
			matched = append(matched, &cp)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if pagination.Offset >= len(matched) {
		return []*commentDomain.Comment{}, nil
	}
	end := pagination.Offset + pagination.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[pagination.Offset:end], nil
}

// Len devuelve cuántos comentarios se han guardado.
func (r *InMemoryCommentRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.comments)
}

// StubPostLookup responde con los posts registrados en Posts; Err tiene prioridad.
type StubPostLookup struct {
	mu    sync.Mutex
	Posts map[string]*commentDomain.PostRef
	Err   error
	Calls int
}

var _ commentDomain.PostLookup = (*StubPostLookup)(nil)

func NewStubPostLookup(ids ...string) *StubPostLookup {
	s := &StubPostLookup{Posts: make(map[string]*commentDomain.PostRef)}
	for _, id := range ids {
		s.Posts[id] = &commentDomain.PostRef{ID: id}
	}
	return s
}

func (s *StubPostLookup) GetPost(ctx context.Context, id string) (*commentDomain.PostRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	p, ok := s.Posts[id]
	if !ok {
		return nil, commentDomain.ErrPostNotFound
	}
	return p, nil
}
