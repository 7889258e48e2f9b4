package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/hotel-billing/internal"
	"github.com/frahmantamala/hotel-billing/internal/core/events"
	"github.com/frahmantamala/hotel-billing/internal/notification"
	"github.com/frahmantamala/hotel-billing/internal/payment"
	paymentpg "github.com/frahmantamala/hotel-billing/internal/payment/postgres"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm binds gorm to the pool sqlx already opened.
func initGorm(db *sqlx.DB, production bool) (*gorm.DB, error) {
	level := gormlogger.Info
	if production {
		level = gormlogger.Warn
	}
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	return gdb, nil
}

// initRedis returns nil when no redis url is configured.
func initRedis(ctx context.Context, url string) (redis.UniversalClient, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func newMailer(cfg internal.MailConfig, logger *slog.Logger) notification.Mailer {
	if cfg.Host == "" {
		logger.Warn("mail host not configured, emails will only be logged")
		return notification.NewLogMailer(logger)
	}
	return notification.NewSMTPMailer(notification.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
		FromName: cfg.FromName,
	})
}

func newDispatcher(cfg internal.MailConfig, logger *slog.Logger) *notification.Dispatcher {
	return notification.NewDispatcher(newMailer(cfg, logger), notification.DispatcherConfig{
		Workers:     cfg.Workers,
		QueueSize:   cfg.QueueSize,
		SendTimeout: 30 * time.Second,
	}, logger)
}

// newPaymentService wires the payment core to postgres, the mail pipeline
// and the event bus. bus may be nil.
func newPaymentService(cfg *internal.Config, db *sqlx.DB, gdb *gorm.DB, notifier payment.Notifier, bus *events.EventBus, logger *slog.Logger) *payment.Service {
	var publisher events.Publisher
	if bus != nil {
		publisher = bus
	}
	return payment.NewService(
		paymentpg.NewStores(gdb),
		paymentpg.NewTransactor(gdb),
		paymentpg.NewReportRepository(db),
		notifier,
		publisher,
		payment.Config{
			DefaultAuditUserID:  cfg.Payment.DefaultAuditUserID,
			DefaultRefundReason: cfg.Payment.DefaultRefundReason,
		},
		logger,
	)
}
