package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/hashfeed/backend/internal/assets"
	"github.com/ayush/hashfeed/backend/internal/auth"
	"github.com/ayush/hashfeed/backend/internal/config"
	"github.com/ayush/hashfeed/backend/internal/feed"
	"github.com/ayush/hashfeed/backend/internal/middleware"
	"github.com/ayush/hashfeed/backend/internal/realtime"
	"github.com/ayush/hashfeed/backend/internal/store"
)

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// ── PostgreSQL ────────────────────────────────────────────
	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		fatal("postgres connect", err)
	}
	defer pgPool.Close()
	users := store.NewPostgresStore(pgPool)
	if err := users.Migrate(ctx); err != nil {
		fatal("postgres migrate", err)
	}

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		fatal("mongo connect", err)
	}
	defer mongoClient.Disconnect(ctx)
	posts := store.NewMongoStore(mongoClient.Database(cfg.MongoDB))
	if err := posts.EnsureIndexes(ctx); err != nil {
		fatal("mongo indexes", err)
	}

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		fatal("redis connect", err)
	}
	defer rdb.Close()
	sessions := auth.NewSessionStore(rdb, cfg.SessionTTL)

	// ── MinIO ────────────────────────────────────────────────
	minioStore, err := store.NewMinioStore(
		ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
		cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
	)
	if err != nil {
		fatal("minio connect", err)
	}

	// ── Realtime ─────────────────────────────────────────────
	hub := realtime.NewHub()

	// ── Handlers ─────────────────────────────────────────────
	authHandler := auth.NewHandler(users, sessions, cfg.CookieSecure)
	feedHandler := feed.NewHandler(feed.NewService(posts, hub, cfg.StoreTimeout))
	requireAuth := middleware.RequireAuth(sessions)
	optionalAuth := middleware.OptionalAuth(sessions)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	authRoutes := func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.With(requireAuth).Post("/logout", authHandler.Logout)
		r.With(optionalAuth).Get("/me", authHandler.Me)
	}
	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", authRoutes)
		// unprefixed paths used by the original web client
		authRoutes(r)
		r.Mount("/posts", feedHandler.Routes(requireAuth))
	})

	r.Handle("/ws", realtime.NewHandler(hub, cfg.AllowedOrigins))
	r.Handle("/*", assets.NewHandler(minioStore))

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		slog.Info("backend listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	hub.Close()
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		slog.Error("shutdown", "err", err)
	}
}
