package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/hashfeed/backend/internal/apierr"
	"github.com/ayush/hashfeed/backend/internal/models"
	"github.com/ayush/hashfeed/backend/internal/store"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, username, hashedPw string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Sessions is the session backend used by the handlers.
type Sessions interface {
	Create(ctx context.Context, username string) (string, error)
	Get(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
	TTL() time.Duration
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	users        UserStore
	sessions     Sessions
	secureCookie bool
}

func NewHandler(users UserStore, sessions Sessions, secureCookie bool) *Handler {
	return &Handler{users: users, sessions: sessions, secureCookie: secureCookie}
}

type userResponse struct {
	Success bool   `json:"success"`
	User    string `json:"user"`
}

type meResponse struct {
	Authenticated bool   `json:"authenticated"`
	User          string `json:"user,omitempty"`
}

func decodeCredentials(r *http.Request) (models.Credentials, error) {
	var req models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, apierr.Validation("invalid_body", "invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return req, apierr.Validation("credentials_required", "username and password are required")
	}
	return req, nil
}

// Register creates a new user and logs them in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(r)
	if err != nil {
		apierr.Write(w, err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		apierr.Write(w, apierr.Validation("password_too_long", "password is too long"))
		return
	}
	if err != nil {
		apierr.Write(w, fmt.Errorf("%w: hash password: %v", apierr.ErrStorage, err))
		return
	}

	user, err := h.users.CreateUser(r.Context(), req.Username, string(hashed))
	if errors.Is(err, store.ErrUsernameTaken) {
		apierr.Write(w, apierr.Validation("username_taken", "username already exists"))
		return
	}
	if err != nil {
		apierr.Write(w, fmt.Errorf("%w: %v", apierr.ErrStorage, err))
		return
	}

	if err := h.startSession(w, r, user.Username); err != nil {
		apierr.Write(w, err)
		return
	}
	apierr.WriteJSON(w, http.StatusCreated, userResponse{Success: true, User: user.Username})
}

// Login authenticates a user and creates a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(r)
	if err != nil {
		apierr.Write(w, err)
		return
	}

	user, err := h.users.GetUserByUsername(r.Context(), req.Username)
	if errors.Is(err, store.ErrUserNotFound) {
		apierr.Write(w, apierr.Validation("user_not_found", "user not found"))
		return
	}
	if err != nil {
		apierr.Write(w, fmt.Errorf("%w: %v", apierr.ErrStorage, err))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		apierr.Write(w, apierr.Validation("bad_credentials", "incorrect password"))
		return
	}

	if err := h.startSession(w, r, user.Username); err != nil {
		apierr.Write(w, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, userResponse{Success: true, User: user.Username})
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, username string) error {
	sid, err := h.sessions.Create(r.Context(), username)
	if err != nil {
		return fmt.Errorf("%w: create session: %v", apierr.ErrStorage, err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.sessions.TTL() / time.Second),
	})
	return nil
}

// Logout destroys the current session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if err := h.sessions.Delete(r.Context(), cookie.Value); err != nil {
			apierr.Write(w, fmt.Errorf("%w: delete session: %v", apierr.ErrStorage, err))
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		MaxAge:   -1,
	})
	apierr.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Me reports whether the caller holds a live session.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	apierr.WriteJSON(w, http.StatusOK, meResponse{Authenticated: user != "", User: user})
}
