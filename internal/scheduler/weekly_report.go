package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/hotel-billing/internal/notification"
)

type OverdueNotifier interface {
	NotifyOverduePayments(ctx context.Context, recipient string) (bool, error)
}

type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// WeeklyReportJob mails the overdue digest, or an all-clear notice when
// nothing is overdue. Failures are logged and swallowed.
type WeeklyReportJob struct {
	payments  OverdueNotifier
	sender    Sender
	recipient string
	logger    *slog.Logger
	now       func() time.Time
}

func NewWeeklyReportJob(payments OverdueNotifier, sender Sender, recipient string, logger *slog.Logger) *WeeklyReportJob {
	return &WeeklyReportJob{
		payments:  payments,
		sender:    sender,
		recipient: recipient,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (j *WeeklyReportJob) Name() string { return "weekly-overdue-report" }

func (j *WeeklyReportJob) Run(ctx context.Context) error {
	sent, err := j.payments.NotifyOverduePayments(ctx, j.recipient)
	if err != nil {
		j.logger.Error("weekly overdue digest failed", "recipient", j.recipient, "error", err)
		return nil
	}
	if sent {
		return nil
	}

	body, err := notification.RenderAllClear(j.now())
	if err != nil {
		j.logger.Error("failed to render all-clear notice", "error", err)
		return nil
	}
	if err := j.sender.Send(ctx, j.recipient, "Weekly payment report: no overdue payments", body); err != nil {
		j.logger.Error("failed to send all-clear notice", "recipient", j.recipient, "error", err)
		return nil
	}
	j.logger.Info("all-clear notice sent", "recipient", j.recipient)
	return nil
}
