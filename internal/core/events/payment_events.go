package events

import "github.com/shopspring/decimal"

const (
	EventTypePaymentCompleted   = "payment.completed"
	EventTypePaymentRefunded    = "payment.refunded"
	EventTypeReservationSettled = "reservation.settled"
)

// Recipient identifies the client a payment event concerns.
type Recipient struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type PaymentCompletedEvent struct {
	BaseEvent
	PaymentID     int64           `json:"payment_id"`
	ReservationID int64           `json:"reservation_id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method"`
}

func NewPaymentCompletedEvent(paymentID, reservationID int64, amount decimal.Decimal, method string) *PaymentCompletedEvent {
	return &PaymentCompletedEvent{
		BaseEvent:     newBaseEvent(EventTypePaymentCompleted),
		PaymentID:     paymentID,
		ReservationID: reservationID,
		Amount:        amount,
		Method:        method,
	}
}

type PaymentRefundedEvent struct {
	BaseEvent
	PaymentID     int64           `json:"payment_id"`
	ReservationID int64           `json:"reservation_id"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason"`
	ActingUserID  int64           `json:"acting_user_id"`
	Client        Recipient       `json:"client"`
}

func NewPaymentRefundedEvent(paymentID, reservationID int64, amount decimal.Decimal, reason string, actingUserID int64, client Recipient) *PaymentRefundedEvent {
	return &PaymentRefundedEvent{
		BaseEvent:     newBaseEvent(EventTypePaymentRefunded),
		PaymentID:     paymentID,
		ReservationID: reservationID,
		Amount:        amount,
		Reason:        reason,
		ActingUserID:  actingUserID,
		Client:        client,
	}
}

// ReservationSettledEvent fires when the derived payment status turns complete.
type ReservationSettledEvent struct {
	BaseEvent
	ReservationID int64           `json:"reservation_id"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	Client        Recipient       `json:"client"`
}

func NewReservationSettledEvent(reservationID int64, totalPrice decimal.Decimal, client Recipient) *ReservationSettledEvent {
	return &ReservationSettledEvent{
		BaseEvent:     newBaseEvent(EventTypeReservationSettled),
		ReservationID: reservationID,
		TotalPrice:    totalPrice,
		Client:        client,
	}
}
