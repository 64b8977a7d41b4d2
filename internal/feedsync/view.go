// Package feedsync keeps a local copy of the feed in step with the server.
//
// Push events are applied in place when the post they name is held
// locally. Anything that cannot be applied asks the caller for a full
// refetch, which is always authoritative.
package feedsync

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ayush/hashfeed/backend/internal/models"
	"github.com/ayush/hashfeed/backend/internal/realtime"
)

// Message is a push event as read off the wire.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// View is the local feed, newest first.
type View struct {
	mu    sync.RWMutex
	posts []models.Post
	index map[string]int
}

func NewView() *View {
	return &View{index: map[string]int{}}
}

// Replace installs a freshly fetched feed.
func (v *View) Replace(posts []models.Post) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.posts = make([]models.Post, len(posts))
	v.index = make(map[string]int, len(posts))
	for i, p := range posts {
		p.Normalize()
		p.Replies = append([]models.Reply{}, p.Replies...)
		v.posts[i] = p
		v.index[p.ID.Hex()] = i
	}
}

// Posts returns a copy of the local feed.
func (v *View) Posts() []models.Post {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]models.Post, len(v.posts))
	for i, p := range v.posts {
		p.Replies = append([]models.Reply{}, p.Replies...)
		out[i] = p
	}
	return out
}

// Apply folds msg into the view. It reports true when the view could not
// apply the event and must be refreshed from the server.
func (v *View) Apply(msg Message) (bool, error) {
	switch msg.Type {
	case realtime.TypeNewPost:
		var post models.Post
		if err := json.Unmarshal(msg.Data, &post); err != nil {
			return true, fmt.Errorf("decode %s: %w", msg.Type, err)
		}
		v.mu.RLock()
		_, known := v.index[post.ID.Hex()]
		v.mu.RUnlock()
		// a repeated delivery is already reflected; anything new is placed
		// by the server's ordering, so refetch
		return !known, nil

	case realtime.TypeNewReply:
		var p realtime.ReplyPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return true, fmt.Errorf("decode %s: %w", msg.Type, err)
		}
		v.mu.Lock()
		defer v.mu.Unlock()
		i, ok := v.index[p.PostID]
		if !ok {
			return true, nil
		}
		v.posts[i].Replies = append(v.posts[i].Replies, p.Reply)
		return false, nil

	case realtime.TypeUpdateLikes:
		var p realtime.LikesPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return true, fmt.Errorf("decode %s: %w", msg.Type, err)
		}
		v.mu.Lock()
		defer v.mu.Unlock()
		i, ok := v.index[p.PostID]
		if !ok {
			return true, nil
		}
		// counts only grow; a late event carrying an older count is dropped
		if p.Likes > v.posts[i].Likes {
			v.posts[i].Likes = p.Likes
		}
		return false, nil

	default:
		return false, fmt.Errorf("unknown event type %q", msg.Type)
	}
}
