package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/tutorbooking/config"
	"github.com/Domenick1991/tutorbooking/internal/app"
	"github.com/Domenick1991/tutorbooking/internal/bootstrap"
	"github.com/Domenick1991/tutorbooking/internal/cache"
	"github.com/Domenick1991/tutorbooking/internal/kafka"
	"github.com/Domenick1991/tutorbooking/internal/pricing"
	"github.com/Domenick1991/tutorbooking/internal/repository"
	"github.com/Domenick1991/tutorbooking/internal/service/booking"
	"github.com/Domenick1991/tutorbooking/internal/service/programs"
	"github.com/Domenick1991/tutorbooking/internal/service/refund"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig(config.Path())
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.App.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.ConnString())
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, logger)
	if err != nil {
		logger.Fatal("init migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}
	_ = migrator.Close()

	location, err := cfg.Booking.Location()
	if err != nil {
		logger.Fatal("load booking timezone", zap.String("timezone", cfg.Booking.Timezone), zap.Error(err))
	}
	rules, err := pricing.NewRules(cfg.Pricing)
	if err != nil {
		logger.Fatal("load pricing rules", zap.Error(err))
	}

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Pricing.ProgramCacheTTL())
	defer redisCache.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
	defer producer.Close()

	var source pricing.PricingSource = pricing.NewRulesSource(rules)
	if cfg.Pricing.RemoteURL != "" {
		source = pricing.NewRemoteSource(cfg.Pricing.RemoteURL, cfg.Pricing.Timeout())
	}
	quoter := pricing.NewQuoter(source, cfg.Pricing.Timeout(), logger)

	programRepo := repository.NewProgramRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	receiptRepo := repository.NewReceiptRepository(pool)
	refundRepo := repository.NewRefundRepository(pool)
	tutorRepo := repository.NewTutorRepository(pool)

	var programCache programs.ProgramCache
	if cfg.Pricing.ProgramCacheTTL() > 0 {
		programCache = redisCache
	}
	programService := programs.NewProgramService(programRepo, programCache, logger)

	bookingService := booking.NewBookingService(
		bookingRepo,
		receiptRepo,
		tutorRepo,
		programService,
		quoter,
		booking.WithLocker(redisCache, cfg.Booking.LockTTL()),
		booking.WithProducer(producer, cfg.Kafka.EventsTopic),
		booking.WithMinFirstPayment(decimal.NewFromFloat(cfg.Booking.MinFirstPayment)),
		booking.WithLogger(logger.Named("booking")),
	)
	refundService := refund.NewRefundService(
		refundRepo,
		bookingRepo,
		receiptRepo,
		refund.WithLocker(redisCache, cfg.Booking.LockTTL()),
		refund.WithProducer(producer, cfg.Kafka.EventsTopic),
		refund.WithLocation(location),
		refund.WithReasonMinLength(cfg.Booking.RefundReasonMinLength),
		refund.WithLogger(logger.Named("refund")),
	)

	checks := map[string]bootstrap.HealthCheck{
		"postgres": pool.Ping,
		"redis":    redisCache.Ping,
		"kafka":    producer.CheckConnection,
	}
	services := bootstrap.Services{
		Programs: programService,
		Bookings: bookingService,
		Refunds:  refundService,
	}
	if err := bootstrap.Run(ctx, cfg, services, checks, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
