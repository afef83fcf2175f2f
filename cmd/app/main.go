package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/flightdesk/api"
	"github.com/Domenick1991/flightdesk/config"
	"github.com/Domenick1991/flightdesk/internal/auth"
	"github.com/Domenick1991/flightdesk/internal/bootstrap"
	"github.com/Domenick1991/flightdesk/internal/cache"
	"github.com/Domenick1991/flightdesk/internal/kafka"
	"github.com/Domenick1991/flightdesk/internal/logger"
	"github.com/Domenick1991/flightdesk/internal/repository"
	"github.com/Domenick1991/flightdesk/internal/service/booking"
	"github.com/Domenick1991/flightdesk/internal/service/flights"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.New(config.LogConfig{}).WithError(err).Fatal("load config")
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poolCfg, err := cfg.Database.PoolConfig()
	if err != nil {
		log.WithError(err).Fatal("database config")
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.WithError(err).Fatal("connect postgres")
	}
	defer pool.Close()

	if cfg.Database.MigrateOnStart {
		if err := repository.Migrate(ctx, pool); err != nil {
			log.WithError(err).Fatal("migrate")
		}
		log.Info("schema migrated")
	}

	checks := map[string]api.HealthCheck{"postgres": pool.Ping}

	flightRepo := repository.NewFlightRepository(pool)
	bookingOpts := []booking.BookingServiceOption{
		booking.WithRefundGrace(cfg.Booking.RefundGrace()),
		booking.WithScheduleLocation(cfg.Booking.ScheduleLocation()),
		booking.WithOperationTimeout(cfg.Booking.OperationTimeoutDuration()),
		booking.WithBatchSize(cfg.Worker.BatchSize),
	}

	var flightCache flights.FlightCache
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.FlightsCacheDuration())
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			log.WithError(err).Warn("redis unreachable at startup, seat locks and flight cache degrade to postgres only")
		}
		flightCache = redisCache
		checks["redis"] = redisCache.Ping
		bookingOpts = append(bookingOpts, booking.WithSeatLocks(redisCache, cfg.Booking.SeatLockDuration()))
	}

	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.BookingEventsTopic != "" {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer producer.Close()
		if err := producer.CheckConnection(ctx); err != nil {
			log.WithError(err).Warn("kafka unreachable at startup, events will be dropped until it recovers")
		}
		checks["kafka"] = producer.CheckConnection
		bookingOpts = append(bookingOpts,
			booking.WithEvents(producer, cfg.Kafka.BookingEventsTopic),
			booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		)
	}

	flightService := flights.NewFlightService(flightRepo, flightCache, log, flights.WithLocation(cfg.Booking.ScheduleLocation()))
	bookingService := booking.NewBookingService(repository.NewBookingStore(pool), flightRepo, log, bookingOpts...)

	if err := bootstrap.Run(ctx, bootstrap.Deps{
		Config:   cfg,
		Log:      log,
		Bookings: bookingService,
		Flights:  flightService,
		Tokens:   auth.NewTokenManager(cfg.Auth),
		Checks:   checks,
	}); err != nil {
		log.WithError(err).Fatal("server error")
	}
	log.Info("stopped")
}
