package payment

import (
	"context"

	"github.com/frahmantamala/hotel-billing/internal"
	"github.com/frahmantamala/hotel-billing/internal/core/common/validation"
	"github.com/frahmantamala/hotel-billing/internal/notification"
	"github.com/shopspring/decimal"
)

const overdueSubject = "Overdue payments"

// GetFinancialReport aggregates the completed payments whose transaction date
// falls between minDate and maxDate, both inclusive.
func (s *Service) GetFinancialReport(ctx context.Context, minDate, maxDate string) (*FinancialReport, error) {
	from, to, appErr := validation.ParseDateRange(minDate, maxDate)
	if appErr != nil {
		return nil, appErr
	}

	rows, err := s.reports.CompletedPaymentsBetween(ctx, from, to.AddDate(0, 0, 1))
	if err != nil {
		s.logger.Error("failed to load financial report", "error", err, "min_date", minDate, "max_date", maxDate)
		return nil, internal.WrapInternal(err)
	}
	if len(rows) == 0 {
		return nil, internal.NewNotFoundError("no transactions found for the given period", internal.ErrCodeTransactionNotFound)
	}

	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Amount)
	}

	s.logger.Info("financial report generated", "min_date", minDate, "max_date", maxDate, "count", len(rows))
	return &FinancialReport{
		MinDate:      minDate,
		MaxDate:      maxDate,
		Transactions: rows,
		Count:        len(rows),
		Total:        total,
	}, nil
}

// GetOverduePayments lists pending payments whose due date has passed.
func (s *Service) GetOverduePayments(ctx context.Context) ([]OverduePayment, error) {
	rows, err := s.reports.OverduePayments(ctx, s.now())
	if err != nil {
		s.logger.Error("failed to load overdue payments", "error", err)
		return nil, internal.WrapInternal(err)
	}
	if len(rows) == 0 {
		return nil, internal.NewNotFoundError("no overdue payments", internal.ErrCodeOverdueNotFound)
	}
	return rows, nil
}

// NotifyOverduePayments mails the overdue digest to recipient. It returns
// false without error when nothing is overdue.
func (s *Service) NotifyOverduePayments(ctx context.Context, recipient string) (bool, error) {
	if appErr := validation.ValidateEmail(recipient); appErr != nil {
		return false, appErr
	}

	overdue, err := s.GetOverduePayments(ctx)
	if err != nil {
		if internal.IsType(err, internal.ErrorTypeNotFound) {
			s.logger.Info("no overdue payments to notify", "recipient", recipient)
			return false, nil
		}
		return false, internal.WrapInternal(err)
	}

	body, err := notification.RenderOverdueDigest(toDigestLines(overdue), s.now())
	if err != nil {
		s.logger.Error("failed to render overdue digest", "error", err)
		return false, internal.WrapInternal(err)
	}
	if err := s.notifier.Send(ctx, recipient, overdueSubject, body); err != nil {
		s.logger.Error("failed to dispatch overdue digest", "error", err, "recipient", recipient)
		return false, internal.WrapInternal(err)
	}

	s.logger.Info("overdue digest dispatched", "recipient", recipient, "count", len(overdue))
	return true, nil
}

func toDigestLines(rows []OverduePayment) []notification.OverdueLine {
	lines := make([]notification.OverdueLine, 0, len(rows))
	for _, r := range rows {
		line := notification.OverdueLine{
			PaymentID:     r.PaymentID,
			ReservationID: r.ReservationID,
			ClientName:    r.ClientName,
			ClientEmail:   r.ClientEmail,
			Amount:        r.Amount,
			DueDate:       r.DueDate,
		}
		if r.InstallmentNumber != nil && r.TotalInstallments != nil {
			line.Installment = *r.InstallmentNumber
			line.Installments = *r.TotalInstallments
		}
		lines = append(lines, line)
	}
	return lines
}
