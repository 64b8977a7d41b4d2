package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/hashfeed/backend/internal/models"
)

// ErrPostNotFound is returned when an id does not reference a stored post.
var ErrPostNotFound = errors.New("post not found")

// MongoStore handles post CRUD in MongoDB. Likes and replies are applied
// with single-document update operators so concurrent writers never
// overwrite each other.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection("posts")}
}

// EnsureIndexes creates the index backing the newest-first feed query.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
		Options: options.Index().SetName("feed_order"),
	})
	if err != nil {
		return fmt.Errorf("mongo index: %w", err)
	}
	return nil
}

// Insert stores post and fills in its id.
func (s *MongoStore) Insert(ctx context.Context, post *models.Post) error {
	post.Normalize()
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	if _, err := s.col.InsertOne(ctx, post); err != nil {
		return fmt.Errorf("mongo insert: %w", err)
	}
	return nil
}

// List returns every post, newest first. Posts created in the same instant
// keep insertion order through the _id tie-break.
func (s *MongoStore) List(ctx context.Context) ([]models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	defer cur.Close(ctx)

	posts := []models.Post{}
	if err := cur.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("mongo decode: %w", err)
	}
	for i := range posts {
		posts[i].Normalize()
	}
	return posts, nil
}

// IncrementLikes atomically adds one like and returns the resulting count.
func (s *MongoStore) IncrementLikes(ctx context.Context, id string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, ErrPostNotFound
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"likes": 1})

	var out struct {
		Likes int64 `bson:"likes"`
	}
	err = s.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{"likes": 1}}, opts).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, ErrPostNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("mongo like: %w", err)
	}
	return out.Likes, nil
}

// AppendReply atomically pushes reply onto the end of the post's replies.
func (s *MongoStore) AppendReply(ctx context.Context, id string, reply models.Reply) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrPostNotFound
	}
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$push": bson.M{"replies": reply}})
	if err != nil {
		return fmt.Errorf("mongo reply: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}
