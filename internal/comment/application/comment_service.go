package application

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	commentDomain "github.com/davicafu/hexablog/internal/comment/domain"
	sharedQuery "github.com/davicafu/hexablog/internal/shared/infra/platform/query"
)

// CommentService define los casos de uso de Comment.
type CommentService struct {
	repo  commentDomain.CommentRepository
	posts commentDomain.PostLookup
	log   *zap.Logger
}

func NewCommentService(repo commentDomain.CommentRepository, posts commentDomain.PostLookup, log *zap.Logger) *CommentService {
	return &CommentService{
		repo:  repo,
		posts: posts,
		log:   log,
	}
}

// CreateComment comprueba que el post existe antes de escribir.
// Si el servicio de posts no responde no se escribe nada y tampoco se reintenta.
func (s *CommentService) CreateComment(ctx context.Context, postID, content, authorName string) (*commentDomain.Comment, error) {
	if _, err := s.posts.GetPost(ctx, postID); err != nil {
		switch {
		case errors.Is(err, commentDomain.ErrPostNotFound):
			s.log.Info("Comment rejected: post not found", zap.String("post_id", postID))
			return nil, err
		case errors.Is(err, commentDomain.ErrUpstreamUnavailable):
			s.log.Warn("Posts service unavailable", zap.String("post_id", postID), zap.Error(err))
			return nil, err
		default:
			s.log.Warn("Post lookup failed", zap.String("post_id", postID), zap.Error(err))
			return nil, fmt.Errorf("%w: %w", commentDomain.ErrUpstreamUnavailable, err)
		}
	}

	comment, err := s.repo.Create(ctx, commentDomain.NewComment{
		PostID:     postID,
		Content:    content,
		AuthorName: authorName,
	})
	if err != nil {
		s.log.Error("Failed to create comment", zap.String("post_id", postID), zap.Error(err))
		return nil, err
	}

	s.log.Info("Comment created", zap.String("comment_id", comment.ID), zap.String("post_id", postID))
	return comment, nil
}

// ListComments no consulta al servicio de posts: un post desconocido da una lista vacía.
func (s *CommentService) ListComments(ctx context.Context, postID string, pagination sharedQuery.OffsetPagination) ([]*commentDomain.Comment, error) {
	comments, err := s.repo.ListByPostID(ctx, postID, pagination)
	if err != nil {
		s.log.Error("Failed to list comments", zap.String("post_id", postID), zap.Error(err))
		return nil, err
	}
	if comments == nil {
		comments = []*commentDomain.Comment{}
	}
	return comments, nil
}
