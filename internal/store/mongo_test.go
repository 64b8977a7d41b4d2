package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/ayush/hashfeed/backend/internal/models"
)

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("indexes", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		if err := s.EnsureIndexes(ctx); err != nil {
			mt.Fatal(err)
		}
		cmd := mt.GetStartedEvent().Command
		if got := cmd.Lookup("createIndexes").StringValue(); got != "posts" {
			mt.Errorf("collection = %q, want posts", got)
		}
		if got := cmd.Lookup("indexes", "0", "name").StringValue(); got != "feed_order" {
			mt.Errorf("index name = %q", got)
		}
	})

	mt.Run("insert", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		post := &models.Post{User: "ana", Content: "hi #go", Hashtags: []string{"#go"}}
		if err := s.Insert(ctx, post); err != nil {
			mt.Fatal(err)
		}
		if post.ID.IsZero() {
			mt.Fatal("id not assigned")
		}
		doc := mt.GetStartedEvent().Command.Lookup("documents", "0").Document()
		if got := doc.Lookup("_id").ObjectID(); got != post.ID {
			mt.Errorf("_id = %s, want %s", got.Hex(), post.ID.Hex())
		}
		if _, ok := doc.Lookup("replies").ArrayOK(); !ok {
			mt.Error("replies not stored as an array")
		}
	})

	mt.Run("list sorts newest first", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		newer, older := primitive.NewObjectID(), primitive.NewObjectID()
		at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "hashfeed.posts", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: newer}, {Key: "user", Value: "ana"}, {Key: "likes", Value: int64(4)}, {Key: "created_at", Value: at.Add(time.Minute)}},
			bson.D{{Key: "_id", Value: older}, {Key: "user", Value: "bob"}, {Key: "created_at", Value: at}},
		))

		posts, err := s.List(ctx)
		if err != nil {
			mt.Fatal(err)
		}
		if len(posts) != 2 || posts[0].ID != newer || posts[1].ID != older || posts[0].Likes != 4 {
			mt.Fatalf("posts = %+v", posts)
		}
		if posts[1].Replies == nil || posts[1].Hashtags == nil {
			mt.Error("missing arrays not normalized")
		}

		elems, err := mt.GetStartedEvent().Command.Lookup("sort").Document().Elements()
		if err != nil {
			mt.Fatal(err)
		}
		if len(elems) != 2 || elems[0].Key() != "created_at" || elems[1].Key() != "_id" {
			mt.Fatalf("sort = %v", elems)
		}
		for _, e := range elems {
			if e.Value().AsInt64() != -1 {
				mt.Errorf("sort %s = %v, want -1", e.Key(), e.Value())
			}
		}
	})

	mt.Run("list empty", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "hashfeed.posts", mtest.FirstBatch))
		posts, err := s.List(ctx)
		if err != nil {
			mt.Fatal(err)
		}
		if posts == nil || len(posts) != 0 {
			mt.Errorf("posts = %#v, want empty slice", posts)
		}
	})

	mt.Run("increment likes", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: bson.D{{Key: "_id", Value: id}, {Key: "likes", Value: int64(3)}}},
		})

		likes, err := s.IncrementLikes(ctx, id.Hex())
		if err != nil {
			mt.Fatal(err)
		}
		if likes != 3 {
			mt.Errorf("likes = %d, want 3", likes)
		}

		cmd := mt.GetStartedEvent().Command
		if got := cmd.Lookup("findAndModify").StringValue(); got != "posts" {
			mt.Errorf("collection = %q", got)
		}
		if got := cmd.Lookup("query", "_id").ObjectID(); got != id {
			mt.Errorf("filter _id = %s", got.Hex())
		}
		if got := cmd.Lookup("update", "$inc", "likes").AsInt64(); got != 1 {
			mt.Errorf("$inc likes = %d, want 1", got)
		}
		if !cmd.Lookup("new").Boolean() {
			mt.Error("update does not return the modified document")
		}
	})

	mt.Run("increment likes unknown post", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}})
		if _, err := s.IncrementLikes(ctx, primitive.NewObjectID().Hex()); !errors.Is(err, ErrPostNotFound) {
			mt.Errorf("err = %v, want ErrPostNotFound", err)
		}
	})

	mt.Run("append reply", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		reply := models.Reply{User: "bob", Content: "nice", CreatedAt: time.Now().UTC()}
		if err := s.AppendReply(ctx, id.Hex(), reply); err != nil {
			mt.Fatal(err)
		}

		u := mt.GetStartedEvent().Command.Lookup("updates", "0")
		if got := u.Document().Lookup("q", "_id").ObjectID(); got != id {
			mt.Errorf("filter _id = %s", got.Hex())
		}
		pushed := u.Document().Lookup("u", "$push", "replies").Document()
		if pushed.Lookup("user").StringValue() != "bob" || pushed.Lookup("content").StringValue() != "nice" {
			mt.Errorf("$push replies = %s", pushed)
		}
	})

	mt.Run("append reply unknown post", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))
		err := s.AppendReply(ctx, primitive.NewObjectID().Hex(), models.Reply{User: "bob", Content: "x"})
		if !errors.Is(err, ErrPostNotFound) {
			mt.Errorf("err = %v, want ErrPostNotFound", err)
		}
	})

	mt.Run("malformed id", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		if _, err := s.IncrementLikes(ctx, "not-an-id"); !errors.Is(err, ErrPostNotFound) {
			mt.Errorf("IncrementLikes err = %v", err)
		}
		if err := s.AppendReply(ctx, "not-an-id", models.Reply{}); !errors.Is(err, ErrPostNotFound) {
			mt.Errorf("AppendReply err = %v", err)
		}
		if ev := mt.GetStartedEvent(); ev != nil {
			mt.Errorf("%s sent for a malformed id", ev.CommandName)
		}
	})

	mt.Run("server error", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Name:    "BadValue",
			Message: "boom",
		}))
		_, err := s.IncrementLikes(ctx, primitive.NewObjectID().Hex())
		if err == nil || errors.Is(err, ErrPostNotFound) {
			mt.Errorf("err = %v, want a storage error", err)
		}
	})
}
