package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/cpressland/playlist/cache"
	"github.com/cpressland/playlist/config"
	"github.com/cpressland/playlist/fetch"
	"github.com/cpressland/playlist/handlers"
	"github.com/cpressland/playlist/jukebox"
	"github.com/cpressland/playlist/logger"
	"github.com/cpressland/playlist/middleware"
	"github.com/cpressland/playlist/queue"
	"github.com/cpressland/playlist/repository/sqlite"
	"github.com/cpressland/playlist/storage"
	"github.com/cpressland/playlist/validation"
	"github.com/cpressland/playlist/ytdlp"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.Setup(cfg.LogDir, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if err := checkExternalTools(cfg); err != nil {
		appLogger.WithError(err).Fatal("Missing external tools")
	}

	db, err := sqlite.InitDB(cfg.Database.Path)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	repo, err := sqlite.NewRepository(db)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize repository")
	}
	defer repo.Close()

	store, err := cache.NewStore(cfg.CacheDir)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize cache store")
	}

	client := ytdlp.NewClient(cfg.Jukebox.YtdlpPath)
	coordinator := fetch.NewCoordinator(store, client, cfg.Jukebox.MaxConcurrentDownloads)

	var archiver jukebox.Archiver
	if cfg.Spaces.Enabled {
		spaces, err := storage.NewSpacesClient(storage.SpacesConfig{
			AccessKey: cfg.Spaces.AccessKey,
			SecretKey: cfg.Spaces.SecretKey,
			Region:    cfg.Spaces.Region,
			Endpoint:  cfg.Spaces.Endpoint,
			Bucket:    cfg.Spaces.Bucket,
		})
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize Spaces client")
		}
		archiver = spaces
	}

	service := jukebox.NewService(
		repo,
		client,
		coordinator,
		store,
		queue.New(),
		archiver,
		validation.NewValidator(cfg),
		jukebox.Config{
			MaxDuration:     cfg.Jukebox.MaxDuration,
			LookupTimeout:   cfg.Jukebox.LookupTimeout,
			DownloadTimeout: cfg.Jukebox.DownloadTimeout,
		},
	)

	router := chi.NewRouter()
	router.Use(middleware.Logging)
	if cfg.RateLimit.Enabled {
		limiter := rate.NewLimiter(rate.Every(cfg.RateLimit.Interval), cfg.RateLimit.Burst)
		router.Use(middleware.RateLimit(limiter))
	}
	handlers.NewHandler(service).Register(router)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		appLogger.WithField("port", cfg.ServerPort).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	appLogger.Info("Shutting down the server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.WithError(err).Error("Server shutdown error")
	}
}

// checkExternalTools refuses to boot without yt-dlp and ffmpeg on PATH;
// every download depends on both.
func checkExternalTools(cfg *config.Config) error {
	for _, tool := range []string{cfg.Jukebox.YtdlpPath, cfg.Jukebox.FFmpegPath} {
		if _, err := exec.LookPath(tool); err != nil {
			return err
		}
	}
	return nil
}
