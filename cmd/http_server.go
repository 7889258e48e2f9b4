package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/hotel-billing/internal"
	"github.com/frahmantamala/hotel-billing/internal/auth"
	authpg "github.com/frahmantamala/hotel-billing/internal/auth/postgres"
	"github.com/frahmantamala/hotel-billing/internal/core/events"
	"github.com/frahmantamala/hotel-billing/internal/notification"
	"github.com/frahmantamala/hotel-billing/internal/payment"
	"github.com/frahmantamala/hotel-billing/internal/transport/rest"
	"github.com/frahmantamala/hotel-billing/internal/transport/swagger"
	"github.com/frahmantamala/hotel-billing/internal/user"
	userpg "github.com/frahmantamala/hotel-billing/internal/user/postgres"
	"github.com/frahmantamala/hotel-billing/pkg/logger"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config     *internal.Config
	DB         *sqlx.DB
	Redis      redis.UniversalClient
	Router     *chi.Mux
	Handlers   rest.Handlers
	Events     *events.EventBus
	Dispatcher *notification.Dispatcher
	Logger     *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	// subscribers queue mail, so they finish before the dispatcher drains
	deps.Events.Wait()
	deps.Dispatcher.Shutdown()
	if deps.Redis != nil {
		if err := deps.Redis.Close(); err != nil {
			deps.Logger.Error("Redis close error", "error", err)
		}
	}
	if err := deps.DB.Close(); err != nil {
		deps.Logger.Error("Database close error", "error", err)
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) {
	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, deps.Redis, deps.Handlers, rest.RouterConfig{
		AllowedOrigins: deps.Config.Server.AllowedOrigins,
		OpenAPIPath:    deps.Config.Server.OpenAPIPath,
	}, deps.Logger)
}

func initializeDependencies() (*Dependencies, error) {
	ctx := context.Background()

	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Configure(config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	if config.Server.OpenAPIPath != "" {
		if _, err := swagger.LoadSpec(ctx, config.Server.OpenAPIPath); err != nil {
			return nil, err
		}
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := initGorm(db, config.IsProduction())
	if err != nil {
		return nil, err
	}

	rdb, err := initRedis(ctx, config.Redis.URL)
	if err != nil {
		return nil, err
	}

	dispatcher := newDispatcher(config.Mail, lg)
	bus := events.NewEventBus(lg)
	notification.NewEventHandler(dispatcher, lg).Register(bus)

	paymentService := newPaymentService(config, db, gdb, dispatcher, bus, lg)

	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authpg.NewRepository(gdb), tokenGen, lg)
	userService := user.NewService(userpg.NewRepository(gdb))

	var webhook *payment.WebhookHandler
	if config.Payment.CallbackSecret != "" {
		webhook = payment.NewWebhookHandler(paymentService, config.Payment.CallbackSecret, lg)
	} else {
		lg.Warn("payment callback secret not set, reconciliation callback disabled")
	}

	return &Dependencies{
		Config: config,
		DB:     db,
		Redis:  rdb,
		Router: chi.NewRouter(),
		Handlers: rest.Handlers{
			Auth:    auth.NewHandler(authService),
			User:    user.NewHandler(userService),
			Payment: payment.NewHandler(paymentService, lg),
			Webhook: webhook,
			RBAC:    auth.NewRBACAuthorization(auth.NewPermissionChecker(), lg),
		},
		Events:     bus,
		Dispatcher: dispatcher,
		Logger:     lg,
	}, nil
}
