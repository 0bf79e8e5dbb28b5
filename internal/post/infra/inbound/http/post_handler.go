package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/davicafu/hexablog/internal/post/application"
	postDomain "github.com/davicafu/hexablog/internal/post/domain"
	sharedQuery "github.com/davicafu/hexablog/internal/shared/infra/platform/query"
	"github.com/davicafu/hexablog/pkg/utils"
)

// PostHandler encapsula los endpoints HTTP de Post.
type PostHandler struct {
	service *application.PostService
}

func NewPostHandler(service *application.PostService) *PostHandler {
	return &PostHandler{service: service}
}

type createPostRequest struct {
	Title      string `json:"title" binding:"required"`
	Content    string `json:"content" binding:"required"`
	AuthorName string `json:"authorName" binding:"required"`
}

// CreatePost endpoint POST /posts
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	post, err := h.service.CreatePost(c.Request.Context(), req.Title, req.Content, req.AuthorName)
	if err != nil {
		utils.SendInternalServerError(c, "failed to create post")
		return
	}

	c.JSON(http.StatusCreated, post)
}

// GetPost endpoint GET /posts/:id
func (h *PostHandler) GetPost(c *gin.Context) {
	post, err := h.service.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, postDomain.ErrPostNotFound) {
			utils.SendNotFound(c, "post not found")
			return
		}
		utils.SendInternalServerError(c, "failed to get post")
		return
	}

	c.JSON(http.StatusOK, post)
}

// ListPosts endpoint GET /posts?limit=&offset=
func (h *PostHandler) ListPosts(c *gin.Context) {
	pagination := sharedQuery.NewOffsetPagination(
		utils.QueryInt(c, "limit", sharedQuery.DefaultLimit),
		utils.QueryInt(c, "offset", 0),
	)

	page, err := h.service.ListPosts(c.Request.Context(), pagination)
	if err != nil {
		utils.SendInternalServerError(c, "failed to list posts")
		return
	}

	c.JSON(http.StatusOK, page)
}
