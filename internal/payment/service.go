package payment

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/hotel-billing/internal"
	"github.com/frahmantamala/hotel-billing/internal/core/datamodel/audit"
	"github.com/frahmantamala/hotel-billing/internal/core/datamodel/payment"
	reservationmodel "github.com/frahmantamala/hotel-billing/internal/core/datamodel/reservation"
	"github.com/frahmantamala/hotel-billing/internal/core/events"
	"github.com/frahmantamala/hotel-billing/internal/reservation"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	auditResourcePayment = "payment"
	auditActionRefund    = "refund"
)

type Config struct {
	DefaultAuditUserID  int64
	DefaultRefundReason string
}

// Service owns the payment and installment lifecycle of reservations.
type Service struct {
	stores   Stores
	tx       Transactor
	reports  ReportRepository
	notifier Notifier
	events   events.Publisher
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(stores Stores, tx Transactor, reports ReportRepository, notifier Notifier, publisher events.Publisher, cfg Config, logger *slog.Logger) *Service {
	if cfg.DefaultRefundReason == "" {
		cfg.DefaultRefundReason = "refund requested"
	}
	return &Service{
		stores:   stores,
		tx:       tx,
		reports:  reports,
		notifier: notifier,
		events:   publisher,
		cfg:      cfg,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreatePaymentsWithInstallments records a single payment, or materializes the
// installments of a plan when total_installments is greater than one.
func (s *Service) CreatePaymentsWithInstallments(ctx context.Context, dto *CreatePaymentDTO) ([]*payment.Payment, error) {
	if dto.ReservationID <= 0 {
		return nil, internal.NewValidationError("invalid reservation id", internal.ErrCodeInvalidID)
	}

	var (
		created []*payment.Payment
		res     *reservationmodel.Reservation
		settled bool
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, st Stores) error {
		var err error
		res, err = s.loadReservation(ctx, st, dto.ReservationID)
		if err != nil {
			return err
		}

		if err := dto.Validate(); err != nil {
			return err
		}

		existing, err := st.Payments.GetByReservationID(ctx, res.ID)
		if err != nil {
			return err
		}
		committed := activeSum(existing)

		if dto.isPlanRequest() {
			created, err = s.planInstallments(dto, res, existing, committed)
			if err != nil {
				return err
			}
		} else {
			if committed.Add(dto.Amount).GreaterThan(res.TotalPrice) {
				return internal.NewValidationError("amount exceeds reservation total", internal.ErrCodeAmountExceedsTotal)
			}
			created = []*payment.Payment{s.newPayment(dto)}
		}

		if err := st.Payments.CreateBatch(ctx, created); err != nil {
			return err
		}

		for _, p := range created {
			if p.State == payment.StateComplete {
				settled, err = s.refreshReservationStatus(ctx, st, res)
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logFailure("failed to create payment", err, "reservation_id", dto.ReservationID, "amount", dto.Amount.String())
		return nil, internal.WrapInternal(err)
	}

	s.logger.Info("payments created",
		"reservation_id", res.ID,
		"count", len(created),
		"installment_plan", dto.isPlanRequest())

	for _, p := range created {
		if p.State == payment.StateComplete {
			s.publish(ctx, events.NewPaymentCompletedEvent(p.ID, p.ReservationID, p.Amount, p.Method))
		}
	}
	if settled {
		s.publish(ctx, events.NewReservationSettledEvent(res.ID, res.TotalPrice, recipientOf(res)))
	}
	return created, nil
}

// UpdatePaymentState moves a payment to newState and propagates the derived
// status to its reservation. Repeating the current state is a no-op; leaving
// annule or rembourse is rejected.
func (s *Service) UpdatePaymentState(ctx context.Context, paymentID int64, newState string) (*payment.Payment, error) {
	if paymentID <= 0 {
		return nil, internal.NewValidationError("invalid payment id", internal.ErrCodeInvalidID)
	}
	if !payment.IsValidState(newState) {
		return nil, internal.NewValidationError("invalid payment state: "+newState, internal.ErrCodeInvalidState)
	}

	var (
		updated *payment.Payment
		res     *reservationmodel.Reservation
		changed bool
		settled bool
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, st Stores) error {
		p, err := s.loadPayment(ctx, st, paymentID)
		if err != nil {
			return err
		}
		updated = p
		if p.State == newState {
			return nil
		}
		// cancelled and refunded are final; reviving one would bypass the balance cap
		if !p.IsActive() {
			return internal.NewValidationError("cannot move a "+p.State+" payment to "+newState, internal.ErrCodePaymentLocked)
		}

		if newState == payment.StateComplete && p.IsInstallment() && *p.InstallmentNumber > 1 {
			prev, err := st.Payments.FindPreviousInstallment(ctx, p.ReservationID, *p.InstallmentNumber)
			if err != nil && !errors.Is(err, ErrPaymentNotFound) {
				return err
			}
			if prev == nil || prev.State != payment.StateComplete {
				return internal.NewValidationError("the previous installment must be settled first", internal.ErrCodePreviousInstallment)
			}
		}

		previous := p.State
		now := s.now()
		patch := map[string]interface{}{"state": newState}
		if newState == payment.StateComplete {
			patch["transaction_date"] = now
		}
		if err := st.Payments.Update(ctx, p.ID, patch); err != nil {
			return err
		}
		p.State = newState
		if newState == payment.StateComplete {
			p.TransactionDate = now
		}
		changed = true

		refresh := previous == payment.StateComplete
		if newState == payment.StateComplete {
			remaining, err := st.Payments.CountByState(ctx, p.ReservationID, p.ID, payment.StatePending)
			if err != nil {
				return err
			}
			refresh = remaining == 0
		}
		if !refresh {
			return nil
		}

		res, err = s.loadReservation(ctx, st, p.ReservationID)
		if err != nil {
			return err
		}
		settled, err = s.refreshReservationStatus(ctx, st, res)
		return err
	})
	if err != nil {
		s.logFailure("failed to update payment state", err, "payment_id", paymentID, "state", newState)
		return nil, internal.WrapInternal(err)
	}

	if changed {
		s.logger.Info("payment state updated", "payment_id", updated.ID, "state", newState)
		if newState == payment.StateComplete {
			s.publish(ctx, events.NewPaymentCompletedEvent(updated.ID, updated.ReservationID, updated.Amount, updated.Method))
		}
		if settled {
			s.publish(ctx, events.NewReservationSettledEvent(res.ID, res.TotalPrice, recipientOf(res)))
		}
	}
	return updated, nil
}

// RefundPayment marks a payment refunded, recomputes the reservation status
// and journals the refund against the acting user.
func (s *Service) RefundPayment(ctx context.Context, paymentID int64, dto RefundDTO, actingUserID int64) (*payment.Payment, error) {
	if paymentID <= 0 {
		return nil, internal.NewValidationError("invalid payment id", internal.ErrCodeInvalidID)
	}
	reason := strings.TrimSpace(dto.Reason)
	if reason == "" {
		reason = s.cfg.DefaultRefundReason
	}

	var (
		refunded  *payment.Payment
		res       *reservationmodel.Reservation
		auditUser int64
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, st Stores) error {
		p, err := s.loadPayment(ctx, st, paymentID)
		if err != nil {
			return err
		}
		if p.State == payment.StateRefunded {
			return internal.NewValidationError("payment already refunded", internal.ErrCodeAlreadyRefunded)
		}
		previous := p.State

		if err := st.Payments.Update(ctx, p.ID, map[string]interface{}{
			"state": payment.StateRefunded,
			"notes": reason,
		}); err != nil {
			return err
		}
		p.State = payment.StateRefunded
		p.Notes = &reason
		refunded = p

		res, err = s.loadReservation(ctx, st, p.ReservationID)
		if err != nil {
			return err
		}
		if _, err := s.refreshReservationStatus(ctx, st, res); err != nil {
			return err
		}

		auditUser, err = s.resolveAuditUser(ctx, st, actingUserID)
		if err != nil {
			return err
		}
		details, err := json.Marshal(map[string]interface{}{
			"reason":         reason,
			"amount":         p.Amount.StringFixed(2),
			"previous_state": previous,
			"reservation_id": p.ReservationID,
		})
		if err != nil {
			return err
		}
		return st.Audit.Append(ctx, &audit.Entry{
			UserID:       auditUser,
			ResourceType: auditResourcePayment,
			ResourceID:   p.ID,
			Action:       auditActionRefund,
			Details:      datatypes.JSON(details),
		})
	})
	if err != nil {
		s.logFailure("failed to refund payment", err, "payment_id", paymentID, "acting_user_id", actingUserID)
		return nil, internal.WrapInternal(err)
	}

	s.logger.Info("payment refunded",
		"payment_id", refunded.ID,
		"reservation_id", refunded.ReservationID,
		"amount", refunded.Amount.String(),
		"audit_user_id", auditUser)
	s.publish(ctx, events.NewPaymentRefundedEvent(refunded.ID, refunded.ReservationID, refunded.Amount, reason, auditUser, recipientOf(res)))
	return refunded, nil
}

// UpdatePayment edits the descriptive fields of a payment. Amount changes are
// checked against the reservation balance like a new payment would be.
func (s *Service) UpdatePayment(ctx context.Context, paymentID int64, dto *UpdatePaymentDTO) (*payment.Payment, error) {
	if paymentID <= 0 {
		return nil, internal.NewValidationError("invalid payment id", internal.ErrCodeInvalidID)
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if dto.isEmpty() {
		return nil, internal.NewValidationError("no fields to update", internal.ErrCodeValidationFailed)
	}

	var updated *payment.Payment
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, st Stores) error {
		p, err := s.loadPayment(ctx, st, paymentID)
		if err != nil {
			return err
		}
		if !p.IsActive() {
			return internal.NewValidationError("cancelled or refunded payments cannot be modified", internal.ErrCodePaymentLocked)
		}

		patch := map[string]interface{}{}
		amountChanged := dto.Amount != nil && !dto.Amount.Equal(p.Amount)
		var res *reservationmodel.Reservation
		if amountChanged {
			res, err = s.loadReservation(ctx, st, p.ReservationID)
			if err != nil {
				return err
			}
			siblings, err := st.Payments.GetByReservationID(ctx, p.ReservationID)
			if err != nil {
				return err
			}
			others := activeSum(siblings).Sub(p.Amount)
			if others.Add(*dto.Amount).GreaterThan(res.TotalPrice) {
				return internal.NewValidationError("amount exceeds reservation total", internal.ErrCodeAmountExceedsTotal)
			}
			patch["amount"] = *dto.Amount
			p.Amount = *dto.Amount
		}
		if dto.Method != nil {
			patch["method"] = *dto.Method
			p.Method = *dto.Method
		}
		if dto.TransactionReference != nil {
			patch["transaction_reference"] = *dto.TransactionReference
			p.TransactionReference = dto.TransactionReference
		}
		if dto.DueDate != nil {
			due := dto.DueDate.UTC()
			patch["due_date"] = due
			p.DueDate = &due
		}
		if dto.Notes != nil {
			patch["notes"] = *dto.Notes
			p.Notes = dto.Notes
		}

		if err := st.Payments.Update(ctx, p.ID, patch); err != nil {
			return err
		}
		updated = p

		if amountChanged && p.State == payment.StateComplete {
			_, err = s.refreshReservationStatus(ctx, st, res)
		}
		return err
	})
	if err != nil {
		s.logFailure("failed to update payment", err, "payment_id", paymentID)
		return nil, internal.WrapInternal(err)
	}

	s.logger.Info("payment updated", "payment_id", updated.ID)
	return updated, nil
}

func (s *Service) GetPayment(ctx context.Context, paymentID int64) (*payment.Payment, error) {
	if paymentID <= 0 {
		return nil, internal.NewValidationError("invalid payment id", internal.ErrCodeInvalidID)
	}
	p, err := s.loadPayment(ctx, s.stores, paymentID)
	if err != nil {
		return nil, internal.WrapInternal(err)
	}
	return p, nil
}

// GetReservationBalance lists a reservation's payments with its running totals.
func (s *Service) GetReservationBalance(ctx context.Context, reservationID int64) (*ReservationBalance, error) {
	if reservationID <= 0 {
		return nil, internal.NewValidationError("invalid reservation id", internal.ErrCodeInvalidID)
	}
	res, err := s.loadReservation(ctx, s.stores, reservationID)
	if err != nil {
		return nil, internal.WrapInternal(err)
	}
	payments, err := s.stores.Payments.GetByReservationID(ctx, reservationID)
	if err != nil {
		s.logger.Error("failed to list reservation payments", "error", err, "reservation_id", reservationID)
		return nil, internal.WrapInternal(err)
	}

	paid := decimal.Zero
	for _, p := range payments {
		if p.State == payment.StateComplete {
			paid = paid.Add(p.Amount)
		}
	}
	outstanding := res.TotalPrice.Sub(paid)
	if outstanding.IsNegative() {
		outstanding = decimal.Zero
	}

	return &ReservationBalance{
		ReservationID: res.ID,
		TotalPrice:    res.TotalPrice,
		Paid:          paid,
		Committed:     activeSum(payments),
		Outstanding:   outstanding,
		PaymentStatus: res.PaymentStatus,
		Payments:      ToViews(payments),
	}, nil
}

// GetPaymentAudit returns the journal entries recorded against a payment,
// oldest first.
func (s *Service) GetPaymentAudit(ctx context.Context, paymentID int64) ([]AuditView, error) {
	if paymentID <= 0 {
		return nil, internal.NewValidationError("invalid payment id", internal.ErrCodeInvalidID)
	}
	if _, err := s.loadPayment(ctx, s.stores, paymentID); err != nil {
		return nil, internal.WrapInternal(err)
	}
	entries, err := s.stores.Audit.ListByResource(ctx, auditResourcePayment, paymentID)
	if err != nil {
		s.logger.Error("failed to list payment audit", "error", err, "payment_id", paymentID)
		return nil, internal.WrapInternal(err)
	}

	views := make([]AuditView, 0, len(entries))
	for _, e := range entries {
		views = append(views, AuditView{
			ID:        e.ID,
			UserID:    e.UserID,
			Action:    e.Action,
			Details:   json.RawMessage(e.Details),
			CreatedAt: e.CreatedAt,
		})
	}
	return views, nil
}

// ReconcileByReference applies a gateway status report to the payment
// carrying the given transaction reference.
func (s *Service) ReconcileByReference(ctx context.Context, dto *CallbackDTO) (*payment.Payment, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	p, err := s.stores.Payments.GetByTransactionReference(ctx, dto.TransactionReference)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			return nil, internal.NewNotFoundError("payment not found for transaction reference", internal.ErrCodePaymentNotFound)
		}
		s.logger.Error("failed to resolve transaction reference", "error", err, "transaction_reference", dto.TransactionReference)
		return nil, internal.WrapInternal(err)
	}
	return s.UpdatePaymentState(ctx, p.ID, dto.State)
}

func (s *Service) newPayment(dto *CreatePaymentDTO) *payment.Payment {
	p := &payment.Payment{
		ReservationID:        dto.ReservationID,
		Amount:               dto.Amount,
		Method:               dto.Method,
		State:                dto.state(),
		TransactionReference: dto.TransactionReference,
		InstallmentNumber:    dto.InstallmentNumber,
		TotalInstallments:    dto.TotalInstallments,
		TransactionDate:      s.now(),
		Notes:                dto.Notes,
	}
	if dto.DueDate != nil {
		due := dto.DueDate.UTC()
		p.DueDate = &due
	}
	return p
}

// refreshReservationStatus recomputes the derived payment status and persists
// it when it changed. It reports whether the reservation became settled.
func (s *Service) refreshReservationStatus(ctx context.Context, st Stores, res *reservationmodel.Reservation) (bool, error) {
	paid, err := st.Payments.SumAmount(ctx, res.ID, payment.StateComplete)
	if err != nil {
		return false, err
	}
	status := reservation.DeriveStatus(paid, res.TotalPrice)
	if status == res.PaymentStatus {
		return false, nil
	}
	if err := st.Reservations.UpdatePaymentStatus(ctx, res.ID, status); err != nil {
		return false, err
	}
	s.logger.Info("reservation payment status changed",
		"reservation_id", res.ID,
		"from", res.PaymentStatus,
		"to", status,
		"paid", paid.String())
	res.PaymentStatus = status
	return status == reservationmodel.PaymentStatusComplete, nil
}

func (s *Service) resolveAuditUser(ctx context.Context, st Stores, actingUserID int64) (int64, error) {
	if actingUserID > 0 {
		exists, err := st.Users.Exists(ctx, actingUserID)
		if err != nil {
			return 0, err
		}
		if exists {
			return actingUserID, nil
		}
	}
	s.logger.Warn("acting user not found, journaling under default audit user",
		"acting_user_id", actingUserID,
		"default_audit_user_id", s.cfg.DefaultAuditUserID)
	return s.cfg.DefaultAuditUserID, nil
}

func (s *Service) loadPayment(ctx context.Context, st Stores, id int64) (*payment.Payment, error) {
	p, err := st.Payments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			return nil, internal.NewNotFoundError("payment not found", internal.ErrCodePaymentNotFound)
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) loadReservation(ctx context.Context, st Stores, id int64) (*reservationmodel.Reservation, error) {
	res, err := st.Reservations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservation.ErrNotFound) {
			return nil, internal.NewNotFoundError("reservation not found", internal.ErrCodeReservationNotFound)
		}
		return nil, err
	}
	return res, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}

func (s *Service) logFailure(msg string, err error, attrs ...any) {
	attrs = append(attrs, "error", err)
	if internal.IsType(err, internal.ErrorTypeInternal) {
		s.logger.Error(msg, attrs...)
		return
	}
	if _, ok := internal.IsAppError(err); ok {
		s.logger.Warn(msg, attrs...)
		return
	}
	s.logger.Error(msg, attrs...)
}

// activeSum adds up the payments that still count against the reservation price.
func activeSum(payments []*payment.Payment) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range payments {
		if p.IsActive() {
			sum = sum.Add(p.Amount)
		}
	}
	return sum
}

func recipientOf(res *reservationmodel.Reservation) events.Recipient {
	if res == nil || res.Client == nil {
		return events.Recipient{}
	}
	return events.Recipient{Name: res.Client.Name, Email: res.Client.Email}
}
