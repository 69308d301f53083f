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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	rediscache "github.com/srgjo27/studio_ledger/internal/adapter/cache/redis"
	"github.com/srgjo27/studio_ledger/internal/adapter/handler"
	"github.com/srgjo27/studio_ledger/internal/adapter/notifier"
	"github.com/srgjo27/studio_ledger/internal/adapter/repository/memory"
	"github.com/srgjo27/studio_ledger/internal/adapter/repository/postgres"
	"github.com/srgjo27/studio_ledger/internal/core/ports"
	"github.com/srgjo27/studio_ledger/internal/core/services"
	"github.com/srgjo27/studio_ledger/internal/metrics"
	"github.com/srgjo27/studio_ledger/internal/platform/config"
	"github.com/srgjo27/studio_ledger/internal/platform/database"
	"github.com/srgjo27/studio_ledger/internal/platform/logger"
	"github.com/srgjo27/studio_ledger/internal/platform/obs"
)

const serviceName = "studio-ledger"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Env)
	log.Info("starting service", slog.String("env", cfg.Env), slog.String("store", cfg.StoreDriver))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, serviceName, cfg.OTLPEndpoint, cfg.Env)
	if err != nil {
		log.Error("failed to init tracer", slog.Any("error", err))
		os.Exit(1)
	}

	repos, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open store", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeStore()

	var cache ports.AvailabilityCache
	if addr := cfg.RedisAddr(); addr != "" {
		log.Info("connecting to redis", slog.String("addr", addr))
		redisClient := goredis.NewClient(&goredis.Options{Addr: addr, DB: 0})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer redisClient.Close()
		cache = rediscache.NewAvailabilityCache(redisClient, cfg.AvailabilityTTL)
	}

	var notify ports.Notifier = notifier.NewLogNotifier(log)
	if cfg.AMQPURL != "" {
		pub, err := notifier.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Error("failed to connect to rabbitmq", slog.Any("error", err))
			os.Exit(1)
		}
		defer pub.Close()
		notify = notifier.NewEventNotifier(pub)
	}
	dispatcher := services.NewDispatcher(notify, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(reg)

	bookingService := services.NewBookingService(repos, cache, dispatcher, log, nil)
	paymentService := services.NewPaymentService(repos, dispatcher, log, nil)
	adminService := services.NewAdminService(repos, bookingService, paymentService, log, nil)

	sweeper := services.NewExpirySweeper(repos.Packages, cfg.ExpirySweepInterval, log, nil)
	go sweeper.Run(ctx)

	router := handler.NewRouter(handler.Handlers{
		Bookings: handler.NewBookingHandler(bookingService, paymentService, log),
		Packages: handler.NewPackageHandler(paymentService, log),
		Admin:    handler.NewAdminHandler(adminService, paymentService, log),
	}, handler.NewAuthenticator(cfg.JWTSecret), handler.RouterConfig{Gatherer: reg, Logger: log})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server starting", slog.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server startup failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", slog.Any("error", err))
	}
	dispatcher.Wait()
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Warn("tracer shutdown", slog.Any("error", err))
	}

	log.Info("server exiting")
}

func openStore(ctx context.Context, cfg config.App, log *slog.Logger) (services.Repositories, func(), error) {
	if cfg.StoreDriver == config.DriverMemory {
		store := memory.New()
		return services.Repositories{
			Tx:       store,
			Sessions: store.Sessions(),
			Packages: store.Packages(),
			Bookings: store.Bookings(),
			Payments: store.Payments(),
		}, func() {}, nil
	}

	db, err := database.NewPostgresDB(ctx, cfg.Database(), log)
	if err != nil {
		return services.Repositories{}, nil, err
	}
	if cfg.DBMigrate {
		if err := database.Migrate(db); err != nil {
			db.Close()
			return services.Repositories{}, nil, err
		}
		log.Info("migrations applied")
	}

	return services.Repositories{
		Tx:       postgres.NewTransactor(db),
		Sessions: postgres.NewSessionRepository(db),
		Packages: postgres.NewPackageRepository(db),
		Bookings: postgres.NewBookingRepository(db),
		Payments: postgres.NewPaymentRepository(db),
	}, func() { db.Close() }, nil
}
