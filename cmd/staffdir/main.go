package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/incroft/staffdir/cmd/staffdir/cli"
	"github.com/incroft/staffdir/internal/app"
	"github.com/incroft/staffdir/internal/auth"
	"github.com/incroft/staffdir/internal/category"
	"github.com/incroft/staffdir/internal/company"
	"github.com/incroft/staffdir/internal/observability"
	"github.com/incroft/staffdir/internal/platform/cache"
	"github.com/incroft/staffdir/internal/platform/db"
	"github.com/incroft/staffdir/internal/rbac"
	"github.com/incroft/staffdir/internal/users"
	"github.com/incroft/staffdir/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		if err := runJobsCommand(os.Args[2:]); err != nil {
			slog.Default().Error("jobs command", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	readCache := cache.NewCache(redisClient, cfg.CacheTTL)
	kv := cache.NewKV(redisClient)

	engine := rbac.NewEngine(rbac.DefaultCatalog())
	engine.Initialize()

	auditWriter := auth.NewAuditWriter(kv, cfg.AppEnv, cfg.AuditRetention, cfg.AuditQueueSize, logger)

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	verifier := auth.NewVerifier(cfg.JWTSecret, auditWriter, logger)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, issuer, verifier, engine, auth.SequentialCodes{}, readCache, logger)
	authHandler := auth.NewHandler(logger, authService)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, engine, readCache, logger)
	usersHandler := users.NewHandler(logger, usersService)

	categoryRepo := category.NewRepository(dbpool)
	categoryService := category.NewService(categoryRepo, engine, readCache, logger)
	categoryHandler := category.NewHandler(logger, categoryService)

	companyService := company.NewService(kv, cfg.AppEnv, engine, logger)
	companyHandler := company.NewHandler(logger, companyService)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Verifier:        verifier,
		AuthHandler:     authHandler,
		UsersHandler:    usersHandler,
		CategoryHandler: categoryHandler,
		CompanyHandler:  companyHandler,
		JobsHandler:     jobsHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		// Drains invalid-token audit records in the background.
		return auditWriter.Run(groupCtx)
	})

	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		logger.Error("run", slog.Any("error", err))
		os.Exit(1)
	}
}

func runJobsCommand(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: staffdir jobs <task-type>")
	}
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	jobsCLI, err := cli.NewJobsCLI(cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer func() { _ = jobsCLI.Close() }()

	info, err := jobsCLI.Trigger(context.Background(), args[0], cfg.AppEnv)
	if err != nil {
		return err
	}
	slog.Default().Info("job enqueued", slog.String("task", info.Type), slog.String("id", info.ID))
	return nil
}
