package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/hotel-billing/internal/core/events"
)

// Sender queues an HTML email.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// EventHandler mails clients about settled reservations and refunds.
type EventHandler struct {
	sender Sender
	logger *slog.Logger
}

func NewEventHandler(sender Sender, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		sender: sender,
		logger: logger,
	}
}

func (h *EventHandler) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeReservationSettled, h.HandleReservationSettled)
	bus.Subscribe(events.EventTypePaymentRefunded, h.HandlePaymentRefunded)
}

func (h *EventHandler) HandleReservationSettled(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.ReservationSettledEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	if e.Client.Email == "" {
		h.logger.Debug("settled reservation has no client email", "reservation_id", e.ReservationID)
		return nil
	}

	body, err := RenderSettlement(e.Client.Name, e.ReservationID, e.TotalPrice)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Reservation #%d fully paid", e.ReservationID)
	return h.sender.Send(ctx, e.Client.Email, subject, body)
}

func (h *EventHandler) HandlePaymentRefunded(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.PaymentRefundedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	if e.Client.Email == "" {
		h.logger.Debug("refunded payment has no client email", "payment_id", e.PaymentID)
		return nil
	}

	body, err := RenderRefund(e.Client.Name, e.PaymentID, e.ReservationID, e.Amount, e.Reason)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Refund for reservation #%d", e.ReservationID)
	return h.sender.Send(ctx, e.Client.Email, subject, body)
}
