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

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/campuscore/campuscore/internal/app"
	"github.com/campuscore/campuscore/internal/assignments"
	"github.com/campuscore/campuscore/internal/auth"
	"github.com/campuscore/campuscore/internal/authz"
	"github.com/campuscore/campuscore/internal/blogs"
	"github.com/campuscore/campuscore/internal/courses"
	"github.com/campuscore/campuscore/internal/enrollments"
	"github.com/campuscore/campuscore/internal/events"
	"github.com/campuscore/campuscore/internal/notices"
	"github.com/campuscore/campuscore/internal/observability"
	"github.com/campuscore/campuscore/internal/platform/cache"
	"github.com/campuscore/campuscore/internal/platform/db"
	"github.com/campuscore/campuscore/internal/shared"
	"github.com/campuscore/campuscore/internal/users"
	"github.com/campuscore/campuscore/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	tokens := auth.NewTokenStore(redisClient, cfg.TokenTTL)
	audit := shared.NewAuditLogger(pool)
	idem := shared.NewIdempotencyStore(pool)
	metrics := observability.NewMetrics()

	authzMW := authz.Middleware{Resolver: authz.NewResolver(pool), Logger: logger}

	authService := auth.NewService(auth.NewRepository(pool), tokens)
	usersService := users.NewService(users.NewRepository(pool), audit, jobClient, logger, cfg.EmailDomain)
	coursesService := courses.NewService(courses.NewRepository(pool))
	enrollmentsService := enrollments.NewService(enrollments.NewRepository(pool), audit, logger)
	assignmentsService := assignments.NewService(assignments.NewRepository(pool), audit, logger)
	noticesService := notices.NewService(notices.NewRepository(pool), audit, jobClient, logger)
	eventsService := events.NewService(events.NewRepository(pool))
	blogsService := blogs.NewService(blogs.NewRepository(pool))

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		AuthMiddleware:     auth.Middleware(tokens, logger),
		AuthHandler:        auth.NewHandler(logger, authService),
		UsersHandler:       users.NewHandler(logger, usersService, authzMW, idem, metrics),
		CoursesHandler:     courses.NewHandler(logger, coursesService, authzMW),
		EnrollmentsHandler: enrollments.NewHandler(logger, enrollmentsService, authzMW, idem, metrics),
		AssignmentsHandler: assignments.NewHandler(logger, assignmentsService, authzMW, idem, metrics),
		NoticesHandler:     notices.NewHandler(logger, noticesService, authzMW, idem, metrics),
		EventsHandler:      events.NewHandler(logger, eventsService, authzMW),
		BlogsHandler:       blogs.NewHandler(logger, blogsService, authzMW),
		JobHandler:         jobs.NewHandler(inspector, logger),
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	group.Go(func() error {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				if err := idem.Cleanup(groupCtx, 24*time.Hour); err != nil {
					logger.Warn("idempotency cleanup", slog.Any("error", err))
				}
			}
		}
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
