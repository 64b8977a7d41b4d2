package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ayush/hashfeed/backend/internal/apierr"
	"github.com/ayush/hashfeed/backend/internal/models"
	"github.com/ayush/hashfeed/backend/internal/store"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]models.User
}

func (m *memUsers) CreateUser(_ context.Context, username, hashed string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.users == nil {
		m.users = map[string]models.User{}
	}
	if _, ok := m.users[username]; ok {
		return nil, store.ErrUsernameTaken
	}
	u := models.User{ID: username, Username: username, Password: hashed, CreatedAt: time.Now()}
	m.users[username] = u
	return &u, nil
}

func (m *memUsers) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return &u, nil
}

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body apierr.Body
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	return body.Code
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	return nil
}

func TestRegisterAndLogin(t *testing.T) {
	sessions, _ := newTestSessions(t, time.Hour)
	h := NewHandler(&memUsers{}, sessions, false)

	rec := post(h.Register, `{"username":"ana","password":"secret"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d", rec.Code)
	}
	c := sessionCookie(rec)
	if c == nil {
		t.Fatal("register did not set a session cookie")
	}
	if got, _ := sessions.Get(context.Background(), c.Value); got != "ana" {
		t.Errorf("session resolves to %q, want ana", got)
	}

	rec = post(h.Login, `{"username":"ana","password":"secret"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d", rec.Code)
	}
	var body userResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if !body.Success || body.User != "ana" {
		t.Errorf("login body = %+v", body)
	}
}

func TestRegisterFailures(t *testing.T) {
	sessions, _ := newTestSessions(t, time.Hour)
	h := NewHandler(&memUsers{}, sessions, false)
	post(h.Register, `{"username":"ana","password":"secret"}`)

	cases := []struct {
		body string
		code string
	}{
		{`{"username":"ana","password":"other"}`, "username_taken"},
		{`{"username":"","password":"x"}`, "credentials_required"},
		{`{"username":"bob"}`, "credentials_required"},
		{`not json`, "invalid_body"},
	}
	for _, tc := range cases {
		rec := post(h.Register, tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tc.body, rec.Code)
			continue
		}
		if got := errorCode(t, rec); got != tc.code {
			t.Errorf("%s: code = %q, want %q", tc.body, got, tc.code)
		}
	}
}

func TestUsernamesAreCaseSensitive(t *testing.T) {
	sessions, _ := newTestSessions(t, time.Hour)
	h := NewHandler(&memUsers{}, sessions, false)
	post(h.Register, `{"username":"ana","password":"secret"}`)

	if rec := post(h.Register, `{"username":"Ana","password":"secret"}`); rec.Code != http.StatusCreated {
		t.Errorf("register Ana status = %d, want 201", rec.Code)
	}
}

func TestLoginFailures(t *testing.T) {
	sessions, _ := newTestSessions(t, time.Hour)
	h := NewHandler(&memUsers{}, sessions, false)
	post(h.Register, `{"username":"ana","password":"secret"}`)

	rec := post(h.Login, `{"username":"nobody","password":"secret"}`)
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "user_not_found" {
		t.Errorf("unknown user: status %d", rec.Code)
	}
	rec = post(h.Login, `{"username":"ana","password":"wrong"}`)
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "bad_credentials" {
		t.Errorf("bad password: status %d", rec.Code)
	}
	if sessionCookie(rec) != nil {
		t.Error("failed login set a session cookie")
	}
}

func TestLogoutDeletesSession(t *testing.T) {
	ctx := context.Background()
	sessions, _ := newTestSessions(t, time.Hour)
	h := NewHandler(&memUsers{}, sessions, false)

	sid, err := sessions.Create(ctx, "ana")
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sid})
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}
	if got, _ := sessions.Get(ctx, sid); got != "" {
		t.Errorf("session still resolves to %q", got)
	}
	if c := sessionCookie(rec); c == nil || c.MaxAge >= 0 {
		t.Error("logout did not expire the cookie")
	}
}

func TestMe(t *testing.T) {
	sessions, _ := newTestSessions(t, time.Hour)
	h := NewHandler(&memUsers{}, sessions, false)

	rec := httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if strings.TrimSpace(rec.Body.String()) != `{"authenticated":false}` {
		t.Errorf("anonymous me = %s", rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), "ana"))
	rec = httptest.NewRecorder()
	h.Me(rec, req)
	if strings.TrimSpace(rec.Body.String()) != `{"authenticated":true,"user":"ana"}` {
		t.Errorf("authenticated me = %s", rec.Body.String())
	}
}
