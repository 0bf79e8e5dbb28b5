package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	commentDomain "github.com/davicafu/hexablog/internal/comment/domain"
	sharedDomain "github.com/davicafu/hexablog/internal/shared/domain"
	sharedQuery "github.com/davicafu/hexablog/internal/shared/infra/platform/query"
)

// CommentRepoMongoDB guarda los comentarios en la colección "comments".
type CommentRepoMongoDB struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewCommentRepoMongoDB(client *mongo.Client, dbName string) *CommentRepoMongoDB {
	return &CommentRepoMongoDB{
		coll: client.Database(dbName).Collection("comments"),
		now:  time.Now,
	}
}

// Connect abre el cliente y comprueba la conexión.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("could not ping mongodb: %w", err)
	}
	return client, nil
}

// mongoComment mapea los documentos de la colección.
type mongoComment struct {
	ID         primitive.ObjectID `bson:"_id"`
	PostID     string             `bson:"postId"`
	Content    string             `bson:"content"`
	AuthorName string             `bson:"authorName"`
	CreatedAt  time.Time          `bson:"createdAt"`
}

// EnsureIndexes crea el índice del listado por post.
func (r *CommentRepoMongoDB) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "postId", Value: 1}, {Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}},
	})
	return err
}

// Create asigna el ObjectID y la fecha en el proceso; Mongo guarda milisegundos.
func (r *CommentRepoMongoDB) Create(ctx context.Context, in commentDomain.NewComment) (*commentDomain.Comment, error) {
	doc := mongoComment{
		ID:         primitive.NewObjectID(),
		PostID:     in.PostID,
		Content:    in.Content,
		AuthorName: in.AuthorName,
		CreatedAt:  r.now().UTC().Truncate(time.Millisecond),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("%w: insert comment: %w", sharedDomain.ErrStoreUnavailable, err)
	}
	return fromMongoComment(&doc), nil
}

func (r *CommentRepoMongoDB) ListByPostID(ctx context.Context, postID string, pagination sharedQuery.OffsetPagination) ([]*commentDomain.Comment, error) {
	filter := bson.M{"postId": postID}

	// El _id (ObjectID) crece con la inserción y desempata a igual fecha.
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(pagination.Offset)).
		SetLimit(int64(pagination.Limit))

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: list comments: %w", sharedDomain.ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	comments := []*commentDomain.Comment{}
	for cursor.Next(ctx) {
		var mc mongoComment
		if err := cursor.Decode(&mc); err != nil {
			return nil, fmt.Errorf("%w: decode comment: %w", sharedDomain.ErrStoreUnavailable, err)
		}
		comments = append(comments, fromMongoComment(&mc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("%w: list comments: %w", sharedDomain.ErrStoreUnavailable, err)
	}
	return comments, nil
}

func fromMongoComment(mc *mongoComment) *commentDomain.Comment {
	return &commentDomain.Comment{
		ID:         mc.ID.Hex(),
		PostID:     mc.PostID,
		Content:    mc.Content,
		AuthorName: mc.AuthorName,
		CreatedAt:  mc.CreatedAt.UTC(),
	}
}

// Verificación en tiempo de compilación.
var _ commentDomain.CommentRepository = (*CommentRepoMongoDB)(nil)
