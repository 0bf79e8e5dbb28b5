package domain

import "time"

// Comment referencia a un post de otro servicio sólo por su id.
// La existencia del post se comprueba una única vez, al crear el comentario.
type Comment struct {
	ID         string    `json:"id"`
	PostID     string    `json:"postId"`
	Content    string    `json:"content"`
	AuthorName string    `json:"authorName"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewComment son los datos que aporta el cliente; id y createdAt los asigna el almacén.
type NewComment struct {
	PostID     string
	Content    string
	AuthorName string
}

// PostRef es lo que el servicio de comentarios necesita saber de un post.
type PostRef struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	AuthorName string    `json:"authorName"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CommentList es el cuerpo de GET /comments/:postId.
type CommentList struct {
	Comments []*Comment `json:"comments"`
}
