package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/hotel-billing/internal/scheduler"
	"github.com/frahmantamala/hotel-billing/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers such as the weekly overdue payment report.`,
}

var weeklyReportWorkerCmd = &cobra.Command{
	Use:   "weekly-report",
	Short: "Run the weekly overdue payment report",
	Long:  `Mail the overdue payment digest on the configured recurrence rule. Replicas share a redis lock so each occurrence is sent once.`,
	Run: func(cmd *cobra.Command, args []string) {
		startWeeklyReportWorker()
	},
}

var (
	runOnce   bool
	recipient string
)

func startWeeklyReportWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Configure(config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := initDB(config.Database)
	if err != nil {
		lg.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	gdb, err := initGorm(db, config.IsProduction())
	if err != nil {
		lg.Error("failed to initialize gorm", "error", err)
		os.Exit(1)
	}

	var locker scheduler.Locker = scheduler.NewLocalLocker()
	rdb, err := initRedis(ctx, config.Redis.URL)
	if err != nil {
		lg.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
		locker = scheduler.NewRedisLocker(rdb, "hotel-billing:scheduler:")
	} else {
		lg.Warn("redis not configured, run lock only covers this process")
	}

	dispatcher := newDispatcher(config.Mail, lg)
	defer dispatcher.Shutdown()

	paymentService := newPaymentService(config, db, gdb, dispatcher, nil, lg)

	to := getStringFlag(recipient, config.Scheduler.Recipient)
	job := scheduler.NewWeeklyReportJob(paymentService, dispatcher, to, lg)

	schedule, err := scheduler.ParseSchedule(config.Scheduler.WeeklyReportRule, time.Now().UTC())
	if err != nil {
		lg.Error("invalid weekly report schedule", "error", err)
		os.Exit(1)
	}
	runner := scheduler.NewRunner(schedule, locker, config.Scheduler.LockTTL, job, lg)

	if runOnce {
		runner.Fire(ctx, time.Now().UTC().Truncate(time.Minute))
		return
	}

	lg.Info("weekly report worker is running. Press Ctrl+C to stop.", "recipient", to)
	if err := runner.Run(ctx); err != nil && err != context.Canceled {
		lg.Error("weekly report worker stopped", "error", err)
	}
	lg.Info("weekly report worker shutdown complete")
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func init() {
	weeklyReportWorkerCmd.Flags().BoolVar(&runOnce, "once", false, "Send the report now and exit")
	weeklyReportWorkerCmd.Flags().StringVar(&recipient, "recipient", "", "Report recipient (overrides config)")

	workerCmd.AddCommand(weeklyReportWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
