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

	"omiit/config"
	"omiit/database"
	"omiit/handlers"
	"omiit/middleware"
	"omiit/repository"
	"omiit/routes"
	"omiit/service"
	"omiit/storage"
	"omiit/validation"
	"omiit/websocket"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
)

func main() {
	slog.SetDefault(middleware.Logger)
	slog.Info("starting omiit backend")

	cfg, err := config.Load()
	if err != nil {
		fatal("failed to load config", err)
	}
	middleware.ConfigureLogger(cfg.Env)

	// ===== GIN MODE =====
	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	slog.Info("gin mode", "mode", gin.Mode(), "env", cfg.Env)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// ===== MONGODB =====
	db, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		fatal("failed to connect to MongoDB", err)
	}
	defer func() {
		if err := db.Disconnect(); err != nil {
			slog.Error("MongoDB disconnect failed", "error", err)
		}
	}()

	// ===== REDIS (optional) =====
	rdb, err := repository.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Warn("redis unavailable, posts list cache disabled", "error", err)
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
		slog.Info("posts list cache enabled", "ttl", cfg.PostsCacheTTL)
	}

	// ===== WEBSOCKET =====
	hub := websocket.NewManager()
	go hub.Start(ctx)

	// ===== SERVICES =====
	posts := repository.NewCachedPostStore(repository.NewPostStore(db.Posts, db.Comments), rdb, cfg.PostsCacheTTL)
	users := repository.NewUserStore(db.Users, db.Posts)
	svc := service.NewPostService(posts, users, database.NewTxRunner(db, cfg.MongoTx), hub)

	local := storage.NewLocal(afero.NewOsFs(), cfg.PublicDir, cfg.PublicPath)
	remote, err := storage.NewRemote(cfg.CloudinaryURL, cfg.CloudFolder, cfg.CloudFormat)
	if err != nil {
		fatal("invalid CLOUDINARY_URL", err)
	}
	var cover storage.AttachmentStore = remote
	if cfg.CoverBackend == config.CoverBackendLocal {
		cover = local
	}
	slog.Info("cover backend selected", "backend", cover.Name())

	uploads := handlers.NewUploadHandler(local, remote, cover, cfg.MaxUploadBytes)
	if err := uploads.TrustProxies(cfg.Proxies()); err != nil {
		fatal("invalid TRUSTED_PROXIES", err)
	}
	router := routes.SetupRouter(routes.Deps{
		Config:  cfg,
		Auth:    middleware.NewAuthenticator(cfg.JWTSecret),
		Posts:   handlers.NewPostHandler(svc, validation.NewPostValidator(), uploads),
		Uploads: uploads,
		Hub:     hub,
		Redis:   rdb,
	})

	// ===== SERVER =====
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server error", err)
		}
	}()

	// ===== GRACEFUL SHUTDOWN =====
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}
	stop()

	slog.Info("server stopped gracefully")
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
