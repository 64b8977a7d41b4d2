// Package assets serves the static web client out of object storage.
package assets

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/ayush/hashfeed/backend/internal/store"
)

// FileStore defines the interface for asset storage.
type FileStore interface {
	Download(ctx context.Context, key string) ([]byte, string, error)
}

// Handler serves GET requests for objects in a FileStore. The root path
// maps to index.html.
type Handler struct {
	files FileStore
}

func NewHandler(files FileStore) *Handler {
	return &Handler{files: files}
}

// Key maps a request path to an object key.
func Key(urlPath string) string {
	key := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if key == "" || strings.HasSuffix(urlPath, "/") {
		key = path.Join(key, "index.html")
	}
	return key
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := Key(r.URL.Path)
	data, ct, err := h.files.Download(r.Context(), key)
	if errors.Is(err, store.ErrObjectNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("asset download failed", "key", key, "err", err)
		http.Error(w, "asset unavailable", http.StatusBadGateway)
		return
	}
	if ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}
