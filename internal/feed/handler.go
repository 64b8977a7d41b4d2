package feed

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/hashfeed/backend/internal/apierr"
	"github.com/ayush/hashfeed/backend/internal/auth"
	"github.com/ayush/hashfeed/backend/internal/models"
)

// Handler holds the posts HTTP handlers.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts the posts API. requireAuth guards the mutating endpoints.
func (h *Handler) Routes(requireAuth func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", h.Create)
		r.Post("/{id}/like", h.Like)
		r.Post("/{id}/reply", h.Reply)
	})
	return r
}

// List returns the full feed.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.ListPosts(r.Context())
	if err != nil {
		apierr.Write(w, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, posts)
}

// Create publishes a new post for the session user.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.ContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, apierr.Validation("invalid_body", "invalid request body"))
		return
	}
	post, err := h.svc.CreatePost(r.Context(), auth.UserFromContext(r.Context()), req.Content)
	if err != nil {
		apierr.Write(w, err)
		return
	}
	apierr.WriteJSON(w, http.StatusCreated, post)
}

// Like adds a like to the post named in the path.
func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	likes, err := h.svc.LikePost(r.Context(), auth.UserFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		apierr.Write(w, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, models.LikeResponse{Likes: likes})
}

// Reply appends a reply to the post named in the path.
func (h *Handler) Reply(w http.ResponseWriter, r *http.Request) {
	var req models.ContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, apierr.Validation("invalid_body", "invalid request body"))
		return
	}
	reply, err := h.svc.ReplyToPost(r.Context(), auth.UserFromContext(r.Context()), chi.URLParam(r, "id"), req.Content)
	if err != nil {
		apierr.Write(w, err)
		return
	}
	apierr.WriteJSON(w, http.StatusCreated, reply)
}
