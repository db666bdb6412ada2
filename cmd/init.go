package cmd

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Builder-Lawyers/execution-service/internal/application"
	"github.com/Builder-Lawyers/execution-service/internal/application/handlers"
	"github.com/Builder-Lawyers/execution-service/internal/application/interfaces"
	"github.com/Builder-Lawyers/execution-service/internal/application/query"
	"github.com/Builder-Lawyers/execution-service/internal/infra/config"
	infradb "github.com/Builder-Lawyers/execution-service/internal/infra/db"
	"github.com/Builder-Lawyers/execution-service/internal/infra/messaging"
	"github.com/Builder-Lawyers/execution-service/internal/infra/metrics"
	"github.com/Builder-Lawyers/execution-service/internal/infra/storage"
	"github.com/Builder-Lawyers/execution-service/internal/presentation/queue"
	"github.com/Builder-Lawyers/execution-service/internal/presentation/rest"
	"github.com/Builder-Lawyers/execution-service/internal/presentation/scheduler"
	"github.com/Builder-Lawyers/execution-service/pkg/db"
	"github.com/Builder-Lawyers/execution-service/pkg/env"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func Init() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// DB
	pool, err := db.NewPool(ctx, db.NewConfig())
	if err != nil {
		log.Panicf("failed to connect to db: %v", err)
	}
	defer pool.Close()
	if env.GetBool("DB_APPLY_SCHEMA", true) {
		if err = infradb.ApplySchema(ctx, pool); err != nil {
			log.Panicf("failed to apply schema: %v", err)
		}
	}
	uowFactory := db.NewUoWFactory(pool)

	// Configs
	messagingConfig := config.NewMessagingConfig()
	if err = messagingConfig.Validate(); err != nil {
		log.Panic(err)
	}
	archiveConfig := config.NewArchiveConfig()
	httpConfig := config.NewHTTPConfig()

	// Metrics
	metricsProvider, err := metrics.NewProvider()
	if err != nil {
		log.Panicf("failed to create metrics provider: %v", err)
	}
	executionMetrics, err := metrics.NewExecutionMetrics(metricsProvider.MeterProvider())
	if err != nil {
		log.Panicf("failed to create execution metrics: %v", err)
	}

	// AWS
	awsCfg, err := config.LoadAWS(ctx)
	if err != nil {
		log.Panic("can't load aws config", err)
	}
	billingQueue := messaging.NewSQSQueue(sqs.NewFromConfig(awsCfg), messagingConfig.QueueURL)
	executionTopic := messaging.NewSNSTopic(sns.NewFromConfig(awsCfg), messagingConfig.TopicArn)
	var archive interfaces.Archive
	if archiveConfig.Enabled {
		ledgerArchive := storage.NewArchive(awsCfg, archiveConfig.Bucket)
		if err = ledgerArchive.EnsureBucket(ctx); err != nil {
			log.Panicf("failed to prepare archive bucket: %v", err)
		}
		archive = ledgerArchive
	}

	app := &application.Collection{
		PaymentConfirmed: handlers.NewPaymentConfirmed(uowFactory, executionMetrics),
		OsCanceled:       handlers.NewOsCanceled(uowFactory, executionMetrics),
		GetExecution:     query.NewGetExecution(uowFactory),
		HealthCheck:      query.NewHealthCheck(pool),
	}

	consumer := queue.NewConsumer(billingQueue, queue.NewConsumerConfig(), app.PaymentConfirmed, app.OsCanceled,
		executionMetrics)
	publisher := scheduler.NewOutboxPublisher(uowFactory, executionTopic, executionMetrics, scheduler.NewPublisherConfig())
	worker := scheduler.NewExecutionWorker(uowFactory, executionMetrics, scheduler.NewWorkerConfig())
	retention := scheduler.NewLedgerRetention(uowFactory, archive, executionMetrics, scheduler.NewRetentionConfig())

	server := fiber.New(fiber.Config{
		IdleTimeout:           5 * time.Second,
		DisableStartupMessage: true,
	})
	rest.NewServer(app, metricsProvider.Handler()).RegisterRoutes(server)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error { return consumer.Start(gCtx) })
	g.Go(func() error { return publisher.Start(gCtx) })
	g.Go(func() error { return worker.Start(gCtx) })
	g.Go(func() error { return retention.Start(gCtx) })
	g.Go(func() error {
		slog.Info("Starting http server", "addr", httpConfig.Addr)
		return server.Listen(httpConfig.Addr)
	})
	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("Gracefully shutting down...")
		return server.ShutdownWithTimeout(shutdownTimeout)
	})

	if err = g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("service stopped with error", "err", err)
	}

	slog.Info("Running cleanup tasks...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = metricsProvider.Shutdown(shutdownCtx); err != nil {
		slog.Error("err shutting down metrics", "err", err)
	}
	slog.Info("Execution service was successfully shutdown.")
}

func logLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(env.GetEnv("LOG_LEVEL", "INFO"))); err != nil {
		return slog.LevelInfo
	}
	return level
}
