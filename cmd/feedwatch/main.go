// Command feedwatch follows a hashfeed server and logs the feed as it changes.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ayush/hashfeed/backend/internal/feedsync"
	"github.com/ayush/hashfeed/backend/internal/models"
)

func main() {
	if err := mainInner(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func mainInner() error {
	addr := flag.String("addr", "http://localhost:3000", "base url of the server")
	top := flag.Int("top", 5, "number of posts to log on each change")
	flag.Parse()

	c, err := feedsync.NewClient(*addr)
	if err != nil {
		return err
	}
	c.OnChange = func(posts []models.Post) {
		slog.Info("feed updated", "posts", len(posts))
		for i, p := range posts {
			if i == *top {
				break
			}
			slog.Info("post", "id", p.ID.Hex(), "user", p.User, "likes", p.Likes, "replies", len(p.Replies), "hashtags", p.Hashtags, "content", p.Content)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("following feed", "addr", *addr)
	c.Run(ctx)
	return nil
}
