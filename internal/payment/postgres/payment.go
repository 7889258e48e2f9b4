package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/hotel-billing/internal/core/datamodel/payment"
	paymentpkg "github.com/frahmantamala/hotel-billing/internal/payment"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{
		db: db,
	}
}

func (r *PaymentRepository) CreateBatch(ctx context.Context, ps []*payment.Payment) error {
	if len(ps) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&ps).Error
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*payment.Payment, error) {
	var p payment.Payment
	err := r.db.WithContext(ctx).First(&p, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *PaymentRepository) GetByTransactionReference(ctx context.Context, reference string) (*payment.Payment, error) {
	var p payment.Payment
	err := r.db.WithContext(ctx).
		Where("transaction_reference = ?", reference).
		Order("id DESC").
		First(&p).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// GetByReservationID lists a reservation's payments, installments in plan order.
func (r *PaymentRepository) GetByReservationID(ctx context.Context, reservationID int64) ([]*payment.Payment, error) {
	var payments []*payment.Payment
	err := r.db.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Order("COALESCE(installment_number, 0) ASC, id ASC").
		Find(&payments).Error
	return payments, err
}

func (r *PaymentRepository) FindPreviousInstallment(ctx context.Context, reservationID int64, installmentNumber int) (*payment.Payment, error) {
	var p payment.Payment
	err := r.db.WithContext(ctx).
		Where("reservation_id = ? AND installment_number = ?", reservationID, installmentNumber-1).
		Order("id DESC").
		First(&p).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// SumAmount adds up the reservation's payments in the given states.
func (r *PaymentRepository) SumAmount(ctx context.Context, reservationID int64, states ...string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	row := r.db.WithContext(ctx).
		Model(&payment.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("reservation_id = ? AND state IN ?", reservationID, states).
		Row()
	if err := row.Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return sum.Round(2), nil
}

func (r *PaymentRepository) CountByState(ctx context.Context, reservationID int64, excludeID int64, states ...string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&payment.Payment{}).
		Where("reservation_id = ? AND id <> ? AND state IN ?", reservationID, excludeID, states).
		Count(&count).Error
	return count, err
}

func (r *PaymentRepository) Update(ctx context.Context, id int64, patch map[string]interface{}) error {
	if len(patch) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&payment.Payment{}).Where("id = ?", id).Updates(patch)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return paymentpkg.ErrPaymentNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return paymentpkg.ErrPaymentNotFound
	}
	return err
}
