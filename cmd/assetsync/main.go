// Command assetsync uploads the web client directory into the asset bucket
// the server serves from.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	"github.com/ayush/hashfeed/backend/internal/config"
	"github.com/ayush/hashfeed/backend/internal/store"
)

func main() {
	if err := mainInner(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func mainInner() error {
	dir := flag.String("dir", "public", "directory holding the web client")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	minioStore, err := store.NewMinioStore(
		ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
		cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
	)
	if err != nil {
		return err
	}

	n := 0
	err = filepath.WalkDir(*dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(*dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		ct := mime.TypeByExtension(filepath.Ext(path))
		if ct == "" {
			ct = "application/octet-stream"
		}
		key := filepath.ToSlash(rel)
		if err := minioStore.Upload(ctx, key, data, ct); err != nil {
			return err
		}
		slog.Info("uploaded", "key", key, "bytes", len(data), "type", ct)
		n++
		return nil
	})
	if err != nil {
		return err
	}
	slog.Info("asset sync complete", "bucket", cfg.MinioBucket, "objects", n)
	return nil
}
