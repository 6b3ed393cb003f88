package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/fitness-booking-api/api/swagger"
	"github.com/noah-isme/fitness-booking-api/internal/handler"
	internalmiddleware "github.com/noah-isme/fitness-booking-api/internal/middleware"
	"github.com/noah-isme/fitness-booking-api/internal/repository"
	"github.com/noah-isme/fitness-booking-api/internal/service"
	"github.com/noah-isme/fitness-booking-api/pkg/cache"
	"github.com/noah-isme/fitness-booking-api/pkg/config"
	"github.com/noah-isme/fitness-booking-api/pkg/database"
	"github.com/noah-isme/fitness-booking-api/pkg/events"
	"github.com/noah-isme/fitness-booking-api/pkg/jobs"
	"github.com/noah-isme/fitness-booking-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/fitness-booking-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/fitness-booking-api/pkg/middleware/requestid"
	"github.com/noah-isme/fitness-booking-api/pkg/storage"
)

// @title Fitness Booking API
// @version 1.0.0
// @description Class listing and slot booking for a fitness studio
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics := service.NewMetricsService()
	checks := map[string]handler.ReadinessCheck{}

	store, db, err := openStore(ctx, cfg, logr)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		checks["postgres"] = db.PingContext
	}

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			// The listing cache is optional; serve from memory without it.
			logr.Warn("class cache disabled: redis unavailable", zap.Error(err))
		} else {
			defer redisClient.Close()
			checks["redis"] = cache.Ping(redisClient)
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, redisClient != nil)

	bookingEvents, stopEvents, err := startEvents(ctx, cfg, logr)
	if err != nil {
		return err
	}
	defer stopEvents()

	bookingSvc := service.NewBookingService(store, cacheSvc, bookingEvents, metrics, validator.New(), logr, cfg.Booking.DefaultTimezone)
	if err := bookingSvc.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap booking state: %w", err)
	}
	// Listings cached by a previous process may carry stale capacity.
	cacheSvc.Invalidate(ctx, "classes:*")

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(internalmiddleware.Metrics(metrics))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	metricsHandler := handler.NewMetricsHandler(metrics, checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	classHandler := handler.NewClassHandler(bookingSvc)
	bookingHandler := handler.NewBookingHandler(bookingSvc)

	api := r.Group(cfg.APIPrefix)
	api.GET("/classes", classHandler.List)
	api.POST("/book", bookingHandler.Book)
	api.GET("/bookings", bookingHandler.List)
	api.GET("/bookings/export", bookingHandler.Export)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config, logr *zap.Logger) (service.SnapshotStore, *sqlx.DB, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewPostgresSnapshotRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		logr.Info("using postgres snapshot store", zap.String("host", cfg.Database.Host), zap.String("database", cfg.Database.Name))
		return repo, db, nil
	case config.StoreDriverFile, "":
		files, err := storage.NewLocalStorage(cfg.Store.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open data dir: %w", err)
		}
		logr.Info("using file snapshot store", zap.String("dir", cfg.Store.DataDir))
		return repository.NewFileSnapshotRepository(files, cfg.Store.ClassesFile, cfg.Store.BookingsFile, logr), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func startEvents(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*service.BookingEvents, func(), error) {
	if !cfg.Events.Enabled {
		return nil, func() {}, nil
	}
	publisher, err := events.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.Topic, logr)
	if err != nil {
		return nil, nil, fmt.Errorf("init booking events: %w", err)
	}
	bookingEvents := service.NewBookingEvents(publisher, logr)
	queue := jobs.NewQueue("booking-events", bookingEvents.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Queue.Workers,
		MaxRetries: cfg.Queue.Retries,
		Logger:     logr,
	})
	bookingEvents.SetQueue(queue)
	// Detached so events accepted before shutdown are still drained.
	queue.Start(context.WithoutCancel(ctx))
	logr.Info("booking events enabled", zap.Strings("brokers", cfg.Events.Brokers), zap.String("topic", cfg.Events.Topic))

	return bookingEvents, func() {
		queue.Stop()
		if err := publisher.Close(); err != nil {
			logr.Warn("close kafka publisher", zap.Error(err))
		}
	}, nil
}
