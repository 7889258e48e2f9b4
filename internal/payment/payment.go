package payment

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/frahmantamala/hotel-billing/internal/core/datamodel/audit"
	"github.com/frahmantamala/hotel-billing/internal/core/datamodel/payment"
	"github.com/frahmantamala/hotel-billing/internal/core/datamodel/reservation"
	"github.com/frahmantamala/hotel-billing/internal/report"
	"github.com/shopspring/decimal"
)

var ErrPaymentNotFound = errors.New("payment not found")

// planTolerance is how far a declared plan total may drift from the reservation price.
var planTolerance = decimal.NewFromFloat(0.01)

// RepositoryAPI is the payment record store.
type RepositoryAPI interface {
	CreateBatch(ctx context.Context, ps []*payment.Payment) error
	GetByID(ctx context.Context, id int64) (*payment.Payment, error)
	GetByTransactionReference(ctx context.Context, reference string) (*payment.Payment, error)
	GetByReservationID(ctx context.Context, reservationID int64) ([]*payment.Payment, error)
	FindPreviousInstallment(ctx context.Context, reservationID int64, installmentNumber int) (*payment.Payment, error)
	SumAmount(ctx context.Context, reservationID int64, states ...string) (decimal.Decimal, error)
	CountByState(ctx context.Context, reservationID int64, excludeID int64, states ...string) (int64, error)
	Update(ctx context.Context, id int64, patch map[string]interface{}) error
}

// ReservationRepository resolves reservations and persists their derived payment status.
type ReservationRepository interface {
	GetByID(ctx context.Context, id int64) (*reservation.Reservation, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status string) error
}

type AuditRepository interface {
	Append(ctx context.Context, entry *audit.Entry) error
	ListByResource(ctx context.Context, resourceType string, resourceID int64) ([]*audit.Entry, error)
}

type UserRepository interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// Stores groups the stores bound to one database handle. Inside a
// transaction every store shares the transaction handle.
type Stores struct {
	Payments     RepositoryAPI
	Reservations ReservationRepository
	Audit        AuditRepository
	Users        UserRepository
}

// Transactor runs fn atomically; a returned error or panic rolls back every
// write made through the stores it was given.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
}

type ReportRepository interface {
	CompletedPaymentsBetween(ctx context.Context, from, to time.Time) ([]ReportTransaction, error)
	OverduePayments(ctx context.Context, asOf time.Time) ([]OverduePayment, error)
}

// Notifier hands a rendered message to the mail pipeline.
type Notifier interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type ReportTransaction struct {
	PaymentID            int64           `db:"payment_id" json:"payment_id"`
	ReservationID        int64           `db:"reservation_id" json:"reservation_id"`
	ClientName           string          `db:"client_name" json:"client_name"`
	Amount               decimal.Decimal `db:"amount" json:"amount"`
	Method               string          `db:"method" json:"method"`
	TransactionReference *string         `db:"transaction_reference" json:"transaction_reference,omitempty"`
	TransactionDate      time.Time       `db:"transaction_date" json:"transaction_date"`
}

type OverduePayment struct {
	PaymentID         int64           `db:"payment_id" json:"payment_id"`
	ReservationID     int64           `db:"reservation_id" json:"reservation_id"`
	ClientName        string          `db:"client_name" json:"client_name"`
	ClientEmail       string          `db:"client_email" json:"client_email"`
	Amount            decimal.Decimal `db:"amount" json:"amount"`
	Method            string          `db:"method" json:"method"`
	DueDate           time.Time       `db:"due_date" json:"due_date"`
	InstallmentNumber *int            `db:"installment_number" json:"installment_number,omitempty"`
	TotalInstallments *int            `db:"total_installments" json:"total_installments,omitempty"`
}

type FinancialReport struct {
	MinDate      string              `json:"min_date"`
	MaxDate      string              `json:"max_date"`
	Transactions []ReportTransaction `json:"transactions"`
	Count        int                 `json:"count"`
	Total        decimal.Decimal     `json:"total"`
}

// ToReportData adapts the report for the PDF and XLSX renderers.
func (r *FinancialReport) ToReportData() report.Financial {
	rows := make([]report.Transaction, 0, len(r.Transactions))
	for _, t := range r.Transactions {
		ref := ""
		if t.TransactionReference != nil {
			ref = *t.TransactionReference
		}
		rows = append(rows, report.Transaction{
			ClientName: t.ClientName,
			Amount:     t.Amount,
			Date:       t.TransactionDate,
			Method:     t.Method,
			Reference:  ref,
		})
	}
	return report.Financial{
		Title:        "Financial report",
		From:         r.MinDate,
		To:           r.MaxDate,
		Transactions: rows,
		Total:        r.Total,
	}
}

// View is the API representation of a payment row.
type View struct {
	ID                   int64           `json:"id"`
	ReservationID        int64           `json:"reservation_id"`
	Amount               decimal.Decimal `json:"amount"`
	Method               string          `json:"method"`
	State                string          `json:"state"`
	TransactionReference *string         `json:"transaction_reference,omitempty"`
	InstallmentNumber    *int            `json:"installment_number,omitempty"`
	TotalInstallments    *int            `json:"total_installments,omitempty"`
	TransactionDate      time.Time       `json:"transaction_date"`
	DueDate              *time.Time      `json:"due_date,omitempty"`
	Notes                *string         `json:"notes,omitempty"`
}

func ToView(p *payment.Payment) View {
	return View{
		ID:                   p.ID,
		ReservationID:        p.ReservationID,
		Amount:               p.Amount,
		Method:               p.Method,
		State:                p.State,
		TransactionReference: p.TransactionReference,
		InstallmentNumber:    p.InstallmentNumber,
		TotalInstallments:    p.TotalInstallments,
		TransactionDate:      p.TransactionDate,
		DueDate:              p.DueDate,
		Notes:                p.Notes,
	}
}

func ToViews(ps []*payment.Payment) []View {
	views := make([]View, 0, len(ps))
	for _, p := range ps {
		views = append(views, ToView(p))
	}
	return views
}

// ReservationBalance summarises the payments recorded against a reservation.
type ReservationBalance struct {
	ReservationID int64           `json:"reservation_id"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	Paid          decimal.Decimal `json:"paid"`
	Committed     decimal.Decimal `json:"committed"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	PaymentStatus string          `json:"payment_status"`
	Payments      []View          `json:"payments"`
}

// AuditView is one journal entry about a payment.
type AuditView struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Action    string          `json:"action"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
