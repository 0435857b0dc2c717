package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/yukikurage/daily-tracker/internal/blob"
	"github.com/yukikurage/daily-tracker/internal/config"
	"github.com/yukikurage/daily-tracker/internal/database"
	"github.com/yukikurage/daily-tracker/internal/handlers"
	"github.com/yukikurage/daily-tracker/internal/logging"
	"github.com/yukikurage/daily-tracker/internal/models"
	"github.com/yukikurage/daily-tracker/internal/notify"
	"github.com/yukikurage/daily-tracker/internal/otp"
	"github.com/yukikurage/daily-tracker/internal/quota"
	"github.com/yukikurage/daily-tracker/internal/repository"
	"github.com/yukikurage/daily-tracker/internal/services"
	"github.com/yukikurage/daily-tracker/internal/websocket"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel)

	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db := openDatabase(ctx, cfg, logger)
	var primary repository.Backend
	if db != nil {
		primary = repository.NewGormBackend(db)
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
	}
	store := repository.New(primary, logger.With("component", "store"))

	sessionStore, err := newSessionStore(cfg)
	if err != nil {
		return err
	}

	storage, err := newBlobStorage(cfg, logger)
	if err != nil {
		return err
	}

	// Services
	otps := otp.NewManager(store)
	notifier := newNotifier(cfg, logger)
	aiService := services.NewAIService(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
	if !aiService.Configured() {
		logger.Warn("OPENAI_API_KEY not set, AI endpoints are disabled")
	}

	hub := websocket.NewHub(logger.With("component", "websocket"))

	router := handlers.NewRouter(handlers.Deps{
		Logger:       logger.With("component", "http"),
		Sessions:     sessionStore,
		Store:        store,
		Events:       hub,
		WebSocket:    websocket.HandleWebSocket(hub, originPatterns(cfg.CORSAllowedOrigins)),
		AuthService:  services.NewAuthService(store, otps, notifier, logger.With("component", "auth")),
		JobService:   services.NewJobService(store, aiService),
		TaskService:  services.NewTaskService(store),
		NoteService:  services.NewNoteService(store),
		DriveService: services.NewDriveService(store, storage, logger.With("component", "drive")),
		AIService:    aiService,
		ChatService:  services.NewChatService(aiService, quota.NewCounter(), cfg.ChatDailyLimit),
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", "addr", httpServer.Addr, "storage", store.Mode().String())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openDatabase connects and migrates the configured database. It returns nil
// when none is configured or it is unusable, in which case the store serves
// from memory.
func openDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) *gorm.DB {
	db, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		if errors.Is(err, database.ErrNotConfigured) {
			logger.Warn("no database configured, using in-memory storage")
		} else {
			logger.Error("database unavailable, using in-memory storage", "error", err)
		}
		return nil
	}

	if err := database.Migrate(db, logger); err != nil {
		logger.Error("migrations failed, using in-memory storage", "error", err)
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
		return nil
	}
	return db
}

func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	if cfg.RedisHost != "" {
		redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
		rs, err := redisStore.NewStore(
			10,        // Redis pool size
			"tcp",     // network type
			redisAddr, // Redis address from config
			"",        // password (empty = no password)
			[]byte(cfg.SessionSecret),
		)
		if err != nil {
			return nil, err
		}
		store = rs
	} else {
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

func newBlobStorage(cfg *config.Config, logger *slog.Logger) (blob.Storage, error) {
	if cfg.S3.Enabled() {
		logger.Info("drive content stored in bucket", "bucket", cfg.S3.Bucket)
		return blob.NewS3Storage(cfg.S3), nil
	}
	logger.Info("drive content stored on disk", "dir", cfg.UploadDir)
	return blob.NewLocalStorage(cfg.UploadDir)
}

func newNotifier(cfg *config.Config, logger *slog.Logger) *notify.Dispatcher {
	var email notify.Sender = notify.NewLogSender(logger, string(models.OTPChannelEmail))
	postmark := notify.NewPostmarkSender(cfg.PostmarkToken, cfg.MailFrom)
	if postmark.Configured() {
		email = postmark
	} else {
		logger.Warn("POSTMARK_TOKEN not set, email codes are logged")
	}
	return notify.NewDispatcher(email, notify.NewLogSender(logger, string(models.OTPChannelPhone)))
}

// originPatterns turns allowed CORS origins into WebSocket host patterns.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if o == "*" {
			return []string{"*"}
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
		}
	}
	return patterns
}
