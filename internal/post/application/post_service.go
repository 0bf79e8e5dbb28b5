package application

import (
	"context"
	"errors"

	"go.uber.org/zap"

	postDomain "github.com/davicafu/hexablog/internal/post/domain"
	sharedCache "github.com/davicafu/hexablog/internal/shared/infra/platform/cache"
	sharedQuery "github.com/davicafu/hexablog/internal/shared/infra/platform/query"
)

// PostService define los casos de uso de Post.
// Los posts son inmutables, así que la caché nunca necesita invalidarse.
type PostService struct {
	repo     postDomain.PostRepository
	cache    sharedCache.Cache
	notifier postDomain.OutboxNotifier
	cacheTTL int
	log      *zap.Logger
}

// NewPostService: cache y notifier son opcionales (nil).
func NewPostService(repo postDomain.PostRepository, cache sharedCache.Cache, notifier postDomain.OutboxNotifier, cacheTTLSecs int, log *zap.Logger) *PostService {
	return &PostService{
		repo:     repo,
		cache:    cache,
		notifier: notifier,
		cacheTTL: cacheTTLSecs,
		log:      log,
	}
}

// CreatePost persiste el post junto a su evento de outbox. La publicación ocurre
// fuera de la petición, así que un broker caído nunca hace fallar la creación.
func (s *PostService) CreatePost(ctx context.Context, title, content, authorName string) (*postDomain.Post, error) {
	post, err := s.repo.Create(ctx, postDomain.NewPost{
		Title:      title,
		Content:    content,
		AuthorName: authorName,
	})
	if err != nil {
		s.log.Error("Failed to create post", zap.Error(err))
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Trigger()
	}

	sharedCache.AsyncCacheSet(s.cache, postDomain.PostCacheKeyByID(post.ID), post, s.cacheTTL, s.log)

	s.log.Info("Post created", zap.String("post_id", post.ID))
	return post, nil
}

// GetPost usa cache-aside; un fallo de caché se ignora y se va al almacén.
func (s *PostService) GetPost(ctx context.Context, id string) (*postDomain.Post, error) {
	key := postDomain.PostCacheKeyByID(id)

	if s.cache != nil {
		var cached postDomain.Post
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		} else if err != nil {
			s.log.Debug("Cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, postDomain.ErrPostNotFound) {
			s.log.Debug("Post not found", zap.String("post_id", id))
		} else {
			s.log.Error("Failed to fetch post", zap.String("post_id", id), zap.Error(err))
		}
		return nil, err
	}

	sharedCache.AsyncCacheSet(s.cache, key, post, s.cacheTTL, s.log)
	return post, nil
}

// ListPosts devuelve una página y el total. Son dos lecturas independientes:
// con escrituras concurrentes el total puede no cuadrar con la página.
func (s *PostService) ListPosts(ctx context.Context, pagination sharedQuery.OffsetPagination) (*postDomain.PostPage, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		s.log.Error("Failed to count posts", zap.Error(err))
		return nil, err
	}

	posts, err := s.repo.List(ctx, pagination)
	if err != nil {
		s.log.Error("Failed to list posts", zap.Error(err))
		return nil, err
	}
	if posts == nil {
		posts = []*postDomain.Post{}
	}

	return &postDomain.PostPage{Posts: posts, Total: total}, nil
}
