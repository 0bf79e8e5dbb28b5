package http

import "github.com/gin-gonic/gin"

// RegisterCommentRoutes monta las rutas de comentarios bajo /comments.
func RegisterCommentRoutes(r gin.IRouter, handler *CommentHandler) {
	comments := r.Group("/comments")
	{
		comments.POST("", handler.CreateComment)
		comments.GET("/:postId", handler.ListComments)
	}
}
