// Package feed implements posting, liking and replying, and announces each
// persisted change to connected clients.
package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ayush/hashfeed/backend/internal/apierr"
	"github.com/ayush/hashfeed/backend/internal/hashtag"
	"github.com/ayush/hashfeed/backend/internal/models"
	"github.com/ayush/hashfeed/backend/internal/realtime"
	"github.com/ayush/hashfeed/backend/internal/store"
)

// PostStore defines the interface for post persistence. IncrementLikes and
// AppendReply must be atomic per post and return store.ErrPostNotFound for
// an unknown id.
type PostStore interface {
	Insert(ctx context.Context, post *models.Post) error
	List(ctx context.Context) ([]models.Post, error)
	IncrementLikes(ctx context.Context, id string) (int64, error)
	AppendReply(ctx context.Context, id string, reply models.Reply) error
}

// Broadcaster delivers an event to every connected client without waiting.
type Broadcaster interface {
	Broadcast(ev realtime.Event)
}

// Service is the interaction engine behind the posts API.
type Service struct {
	posts   PostStore
	events  Broadcaster
	timeout time.Duration
	now     func() time.Time
}

// NewService returns a Service. Writes get at most timeout to complete once
// started, regardless of the requesting connection.
func NewService(posts PostStore, events Broadcaster, timeout time.Duration) *Service {
	return &Service{posts: posts, events: events, timeout: timeout, now: time.Now}
}

// writeContext detaches a write from the caller's cancellation.
func (s *Service) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func storageErr(op string, err error) error {
	if errors.Is(err, store.ErrPostNotFound) {
		return apierr.ErrNotFound
	}
	return fmt.Errorf("%w: %s: %v", apierr.ErrStorage, op, err)
}

// CreatePost stores a new post by actor and announces it.
func (s *Service) CreatePost(ctx context.Context, actor, content string) (*models.Post, error) {
	if actor == "" {
		return nil, apierr.ErrUnauthorized
	}
	if strings.TrimSpace(content) == "" {
		return nil, apierr.Validation("content_required", "content is required")
	}

	post := &models.Post{
		User:      actor,
		Content:   content,
		Hashtags:  hashtag.Extract(content),
		Replies:   []models.Reply{},
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}

	wctx, cancel := s.writeContext(ctx)
	defer cancel()
	if err := s.posts.Insert(wctx, post); err != nil {
		return nil, storageErr("create post", err)
	}

	s.events.Broadcast(realtime.NewPost(*post))
	return post, nil
}

// LikePost adds one like to the post and returns the new count.
func (s *Service) LikePost(ctx context.Context, actor, postID string) (int64, error) {
	if actor == "" {
		return 0, apierr.ErrUnauthorized
	}

	wctx, cancel := s.writeContext(ctx)
	defer cancel()
	likes, err := s.posts.IncrementLikes(wctx, postID)
	if err != nil {
		return 0, storageErr("like post", err)
	}

	s.events.Broadcast(realtime.UpdateLikes(postID, likes))
	return likes, nil
}

// ReplyToPost appends a reply by actor to the post.
func (s *Service) ReplyToPost(ctx context.Context, actor, postID, content string) (*models.Reply, error) {
	if actor == "" {
		return nil, apierr.ErrUnauthorized
	}
	if strings.TrimSpace(content) == "" {
		return nil, apierr.Validation("content_required", "content is required")
	}

	reply := models.Reply{User: actor, Content: content, CreatedAt: s.now().UTC().Truncate(time.Millisecond)}

	wctx, cancel := s.writeContext(ctx)
	defer cancel()
	if err := s.posts.AppendReply(wctx, postID, reply); err != nil {
		return nil, storageErr("reply to post", err)
	}

	s.events.Broadcast(realtime.NewReply(postID, reply))
	return &reply, nil
}

// ListPosts returns the whole feed, newest first.
func (s *Service) ListPosts(ctx context.Context) ([]models.Post, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, storageErr("list posts", err)
	}
	return posts, nil
}
