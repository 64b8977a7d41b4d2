package feedsync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayush/hashfeed/backend/internal/models"
)

// Client follows a server's feed: it subscribes to push events, applies
// them to its View and refetches the feed whenever an event cannot be
// applied or the connection is re-established.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	dialer     *websocket.Dialer
	view       *View
	retry      time.Duration

	// OnChange, when set, is called with the feed after every update.
	OnChange func(posts []models.Post)
}

func NewClient(baseURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	return &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		dialer:     websocket.DefaultDialer,
		view:       NewView(),
		retry:      time.Second,
	}, nil
}

// View returns the client's local feed.
func (c *Client) View() *View { return c.view }

// Refresh replaces the local feed with the server's.
func (c *Client) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.JoinPath("api/posts").String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to get feed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var posts []models.Post
	if err := json.NewDecoder(resp.Body).Decode(&posts); err != nil {
		return fmt.Errorf("failed to decode feed: %w", err)
	}
	c.view.Replace(posts)
	c.changed()
	return nil
}

func (c *Client) changed() {
	if c.OnChange != nil {
		c.OnChange(c.view.Posts())
	}
}

// Run keeps the view synced until ctx is done, reconnecting after failures.
func (c *Client) Run(ctx context.Context) {
	t := time.NewTicker(c.retry)
	defer t.Stop()
	for {
		if err := c.connectAndSync(ctx); err != nil && ctx.Err() == nil {
			slog.Error("feed sync interrupted", "err", err)
		}
		select {
		case <-t.C:
		case <-ctx.Done():
			slog.Info("stopping feed sync")
			return
		}
	}
}

func (c *Client) wsURL() string {
	u := c.baseURL.JoinPath("ws")
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	return u.String()
}

func (c *Client) connectAndSync(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.wsURL(), nil)
	if err != nil {
		return fmt.Errorf("failed to dial: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	// events may have been missed while disconnected
	if err := c.Refresh(ctx); err != nil {
		return err
	}

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}
		refresh, err := c.view.Apply(msg)
		if err != nil {
			slog.Warn("event not applied", "type", msg.Type, "err", err)
		}
		if refresh {
			if err := c.Refresh(ctx); err != nil {
				return err
			}
			continue
		}
		if err == nil {
			c.changed()
		}
	}
}
