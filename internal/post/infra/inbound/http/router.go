package http

import "github.com/gin-gonic/gin"

// RegisterPostRoutes registra las rutas HTTP del dominio de Posts.
func RegisterPostRoutes(r gin.IRouter, handler *PostHandler) {
	posts := r.Group("/posts")
	{
		posts.POST("", handler.CreatePost)
		posts.GET("", handler.ListPosts)
		posts.GET("/:id", handler.GetPost)
	}
}
