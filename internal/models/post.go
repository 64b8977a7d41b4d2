package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reply is a response embedded in its parent Post. It has no identity of its own.
type Reply struct {
	User      string    `json:"user"       bson:"user"`
	Content   string    `json:"content"    bson:"content"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Post is a single feed entry stored in MongoDB.
type Post struct {
	ID        primitive.ObjectID `json:"id"         bson:"_id,omitempty"`
	User      string             `json:"user"       bson:"user"`
	Content   string             `json:"content"    bson:"content"`
	Hashtags  []string           `json:"hashtags"   bson:"hashtags"`
	Likes     int64              `json:"likes"      bson:"likes"`
	Replies   []Reply            `json:"replies"    bson:"replies"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// Normalize replaces nil slices so the post always encodes arrays.
func (p *Post) Normalize() {
	if p.Hashtags == nil {
		p.Hashtags = []string{}
	}
	if p.Replies == nil {
		p.Replies = []Reply{}
	}
}

// ContentRequest is the JSON body for POST /api/posts and POST /api/posts/{id}/reply.
type ContentRequest struct {
	Content string `json:"content"`
}

// LikeResponse is returned by POST /api/posts/{id}/like.
type LikeResponse struct {
	Likes int64 `json:"likes"`
}
