package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flightdesk/config"
	"github.com/Domenick1991/flightdesk/internal/email"
	"github.com/Domenick1991/flightdesk/internal/kafka"
	"github.com/Domenick1991/flightdesk/internal/logger"
	"github.com/Domenick1991/flightdesk/internal/repository"
	"github.com/Domenick1991/flightdesk/internal/service/booking"
	"github.com/Domenick1991/flightdesk/internal/worker"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

const consumerRetryDelay = 5 * time.Second

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.New(config.LogConfig{}).WithError(err).Fatal("load config")
	}
	log := logger.New(cfg.Log).WithField("component", "worker")

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

	opts := []booking.BookingServiceOption{
		booking.WithRefundGrace(cfg.Booking.RefundGrace()),
		booking.WithScheduleLocation(cfg.Booking.ScheduleLocation()),
		booking.WithBatchSize(cfg.Worker.BatchSize),
	}
	var producer *kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer producer.Close()
		opts = append(opts,
			booking.WithEvents(producer, cfg.Kafka.BookingEventsTopic),
			booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		)
	}
	flightRepo := repository.NewFlightRepository(pool)
	jobs := booking.NewBookingService(repository.NewBookingStore(pool), flightRepo, log, opts...)

	scheduler, err := worker.NewScheduler(ctx, jobs, cfg.Worker, log)
	if err != nil {
		log.WithError(err).Fatal("scheduler")
	}
	scheduler.Start()

	done := make(chan struct{})
	if producer != nil && cfg.Kafka.NotificationsTopic != "" {
		notifier := worker.NewNotifier(repository.NewPassengerRepository(pool), email.NewSender(cfg.SMTP, log), log)
		go func() {
			defer close(done)
			consumeNotifications(ctx, cfg.Kafka, notifier, log)
		}()
	} else {
		log.Info("notifications disabled")
		close(done)
	}

	<-ctx.Done()
	log.Info("shutting down")
	if err := scheduler.Shutdown(); err != nil {
		log.WithError(err).Warn("scheduler shutdown")
	}
	<-done
}

// consumeNotifications restarts the consumer after failures until ctx is cancelled.
func consumeNotifications(ctx context.Context, cfg config.KafkaConfig, notifier *worker.Notifier, log logrus.FieldLogger) {
	for {
		consumer := kafka.NewConsumer(cfg.Brokers, cfg.GroupID, cfg.NotificationsTopic, log)
		err := consumer.Consume(ctx, notifier.Handle)
		_ = consumer.Close()
		if ctx.Err() != nil {
			return
		}
		log.WithError(err).Warn("consumer stopped, restarting")

		select {
		case <-ctx.Done():
			return
		case <-time.After(consumerRetryDelay):
		}
	}
}
