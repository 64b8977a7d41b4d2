package realtime

import "github.com/ayush/hashfeed/backend/internal/models"

// Event types pushed to connected clients.
const (
	TypeNewPost     = "new_post"
	TypeNewReply    = "new_reply"
	TypeUpdateLikes = "update_likes"
)

// Event is the envelope written to every websocket client.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ReplyPayload is the data of a new_reply event.
type ReplyPayload struct {
	PostID string       `json:"post_id"`
	Reply  models.Reply `json:"reply"`
}

// LikesPayload is the data of an update_likes event. Likes is the
// authoritative count after the server-side increment.
type LikesPayload struct {
	PostID string `json:"post_id"`
	Likes  int64  `json:"likes"`
}

func NewPost(post models.Post) Event {
	return Event{Type: TypeNewPost, Data: post}
}

func NewReply(postID string, reply models.Reply) Event {
	return Event{Type: TypeNewReply, Data: ReplyPayload{PostID: postID, Reply: reply}}
}

func UpdateLikes(postID string, likes int64) Event {
	return Event{Type: TypeUpdateLikes, Data: LikesPayload{PostID: postID, Likes: likes}}
}
