package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/davicafu/hexablog/internal/comment/application"
	commentDomain "github.com/davicafu/hexablog/internal/comment/domain"
	sharedQuery "github.com/davicafu/hexablog/internal/shared/infra/platform/query"
	"github.com/davicafu/hexablog/pkg/utils"
)

// CommentHandler encapsula los endpoints HTTP de Comment.
type CommentHandler struct {
	service *application.CommentService
}

func NewCommentHandler(service *application.CommentService) *CommentHandler {
	return &CommentHandler{service: service}
}

type createCommentRequest struct {
	PostID     string `json:"postId" binding:"required"`
	Content    string `json:"content" binding:"required"`
	AuthorName string `json:"authorName" binding:"required"`
}

// CreateComment endpoint POST /comments
func (h *CommentHandler) CreateComment(c *gin.Context) {
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	comment, err := h.service.CreateComment(c.Request.Context(), req.PostID, req.Content, req.AuthorName)
	if err != nil {
		switch {
		case errors.Is(err, commentDomain.ErrPostNotFound):
			utils.SendNotFound(c, "post not found")
		case errors.Is(err, commentDomain.ErrUpstreamUnavailable):
			utils.SendServiceUnavailable(c, "posts service unavailable")
		default:
			utils.SendInternalServerError(c, "failed to create comment")
		}
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// ListComments endpoint GET /comments/:postId?limit=&offset=
func (h *CommentHandler) ListComments(c *gin.Context) {
	pagination := sharedQuery.NewOffsetPagination(
		utils.QueryInt(c, "limit", sharedQuery.DefaultLimit),
		utils.QueryInt(c, "offset", 0),
	)

	comments, err := h.service.ListComments(c.Request.Context(), c.Param("postId"), pagination)
	if err != nil {
		utils.SendInternalServerError(c, "failed to list comments")
		return
	}

	c.JSON(http.StatusOK, commentDomain.CommentList{Comments: comments})
}
