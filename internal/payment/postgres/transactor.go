package postgres

import (
	"context"

	auditpg "github.com/frahmantamala/hotel-billing/internal/audit/postgres"
	paymentpkg "github.com/frahmantamala/hotel-billing/internal/payment"
	reservationpg "github.com/frahmantamala/hotel-billing/internal/reservation/postgres"
	userpg "github.com/frahmantamala/hotel-billing/internal/user/postgres"
	"gorm.io/gorm"
)

// NewStores binds every store the payment service writes through to db.
func NewStores(db *gorm.DB) paymentpkg.Stores {
	return paymentpkg.Stores{
		Payments:     NewPaymentRepository(db),
		Reservations: reservationpg.NewReservationRepository(db),
		Audit:        auditpg.NewRepository(db),
		Users:        userpg.NewRepository(db),
	}
}

type Transactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) *Transactor {
	return &Transactor{db: db}
}

// WithinTransaction commits when fn returns nil and rolls back otherwise.
func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, stores paymentpkg.Stores) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewStores(tx))
	})
}
