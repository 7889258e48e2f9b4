package postgres

import (
	"context"
	"time"

	"github.com/frahmantamala/hotel-billing/internal/core/datamodel/payment"
	paymentpkg "github.com/frahmantamala/hotel-billing/internal/payment"
	"github.com/jmoiron/sqlx"
)

const completedBetweenQuery = `
SELECT p.id AS payment_id,
       p.reservation_id,
       c.name AS client_name,
       p.amount,
       p.method,
       p.transaction_reference,
       p.transaction_date
FROM payments p
JOIN reservations r ON r.id = p.reservation_id
JOIN clients c ON c.id = r.client_id
WHERE p.state = ?
  AND p.transaction_date >= ?
  AND p.transaction_date < ?
ORDER BY p.transaction_date ASC, p.id ASC`

const overdueQuery = `
SELECT p.id AS payment_id,
       p.reservation_id,
       c.name AS client_name,
       COALESCE(c.email, '') AS client_email,
       p.amount,
       p.method,
       p.due_date,
       p.installment_number,
       p.total_installments
FROM payments p
JOIN reservations r ON r.id = p.reservation_id
JOIN clients c ON c.id = r.client_id
WHERE p.state = ?
  AND p.due_date IS NOT NULL
  AND p.due_date < ?
ORDER BY p.due_date ASC, p.id ASC`

// ReportRepository runs the read-only join queries behind reports.
type ReportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// CompletedPaymentsBetween returns completed payments with from <= transaction_date < to.
func (r *ReportRepository) CompletedPaymentsBetween(ctx context.Context, from, to time.Time) ([]paymentpkg.ReportTransaction, error) {
	rows := []paymentpkg.ReportTransaction{}
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(completedBetweenQuery), payment.StateComplete, from.UTC(), to.UTC())
	return rows, err
}

func (r *ReportRepository) OverduePayments(ctx context.Context, asOf time.Time) ([]paymentpkg.OverduePayment, error) {
	rows := []paymentpkg.OverduePayment{}
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(overdueQuery), payment.StatePending, asOf.UTC())
	return rows, err
}
