package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	api "github.com/sovereign-school/interactive-core/internal/api/http"
	auth "github.com/sovereign-school/interactive-core/internal/auth/middleware"
	"github.com/sovereign-school/interactive-core/internal/config"
	"github.com/sovereign-school/interactive-core/internal/content"
	"github.com/sovereign-school/interactive-core/internal/db"
	"github.com/sovereign-school/interactive-core/internal/grading"
	"github.com/sovereign-school/interactive-core/internal/logger"
	"github.com/sovereign-school/interactive-core/internal/quiz"
	"github.com/sovereign-school/interactive-core/internal/sessions"
	"github.com/sovereign-school/interactive-core/internal/storage"
	"github.com/sovereign-school/interactive-core/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("gateway stopped", "error", err)
	}
}

func run(ctx context.Context, cfg config.Config, log *logger.Logger) error {
	// --- DB ---
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	dbh, err := db.Open(openCtx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer dbh.Close()
	st := store.NewSQLStore(dbh, cfg.SiteID)

	// --- Sessions ---
	var (
		sessStore sessions.Store
		rdb       *redis.Client
	)
	switch cfg.SessionDriver {
	case "redis":
		rdb, err = sessions.Dial(openCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rdb.Close()
		sessStore = sessions.NewRedisStore(rdb, cfg.SessionTTL)
	case "", "memory":
		sessStore = sessions.NewMemoryStore()
	default:
		return fmt.Errorf("unknown session driver %q", cfg.SessionDriver)
	}
	grader := grading.NewDefaultGrader(
		grading.WithCaseSensitiveMatching(cfg.GradingCaseSensitiveMatching),
		grading.WithCaseSensitiveMistake(cfg.GradingCaseSensitiveMistake),
	)
	mgr := sessions.NewManager(sessStore, st,
		sessions.WithGrader(grader),
		sessions.WithLogger(log.With("component", "sessions")),
	)

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		return fmt.Errorf("blob store: %w", err)
	}

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret, cfg.TokenTTL)
	var creds auth.CredentialProvider
	if cfg.EnableLocalAuth {
		creds = auth.NewStaticCredentials(cfg.Credentials)
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	api.Mount(r, api.Deps{
		Auth:          authSvc,
		Credentials:   creds,
		GuestAuth:     cfg.EnableGuestAuth,
		SecureCookies: cfg.Mode == config.ModeOnline,
		Store:         st,
		Sessions:      mgr,
		Blobs:         bs,
		Parser:        content.NewParser(log.With("component", "parser")),
		Quizzes:       quiz.NewGrader(),
		Log:           log,
	})

	healthz, readyz := api.Health(func(r *http.Request) error { return ping(r.Context(), dbh, rdb) })
	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", cfg.HTTPAddr, "mode", cfg.Mode, "db", cfg.DBDriver, "sessions", cfg.SessionDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutCtx)
	})
	return g.Wait()
}

func ping(ctx context.Context, dbh *sql.DB, rdb *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := dbh.PingContext(ctx); err != nil {
		return fmt.Errorf("db: %w", err)
	}
	if rdb != nil {
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}
