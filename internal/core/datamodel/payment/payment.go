package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatePending   = "en_attente"
	StateComplete  = "complete"
	StateCancelled = "annule"
	StateRefunded  = "rembourse"
)

type Payment struct {
	ID                   int64           `gorm:"primaryKey"`
	ReservationID        int64           `gorm:"column:reservation_id;not null;index"`
	Amount               decimal.Decimal `gorm:"column:amount;type:decimal(12,2);not null"`
	Method               string          `gorm:"column:method;not null"`
	State                string          `gorm:"column:state;not null;index"`
	TransactionReference *string         `gorm:"column:transaction_reference;index"`
	InstallmentNumber    *int            `gorm:"column:installment_number"`
	TotalInstallments    *int            `gorm:"column:total_installments"`
	TransactionDate      time.Time       `gorm:"column:transaction_date;not null"`
	DueDate              *time.Time      `gorm:"column:due_date"`
	Notes                *string         `gorm:"column:notes"`
	CreatedAt            time.Time       `gorm:"column:created_at"`
	UpdatedAt            time.Time       `gorm:"column:updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

// IsInstallment reports whether the row belongs to a plan of more than one installment.
func (p *Payment) IsInstallment() bool {
	return p.TotalInstallments != nil && *p.TotalInstallments > 1 && p.InstallmentNumber != nil
}

// IsActive reports whether the amount still counts against the reservation balance.
func (p *Payment) IsActive() bool {
	return p.State != StateCancelled && p.State != StateRefunded
}

func IsValidState(state string) bool {
	switch state {
	case StatePending, StateComplete, StateCancelled, StateRefunded:
		return true
	}
	return false
}
