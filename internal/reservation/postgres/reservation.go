package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/hotel-billing/internal/core/datamodel/reservation"
	reservationpkg "github.com/frahmantamala/hotel-billing/internal/reservation"
	"gorm.io/gorm"
)

type ReservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{
		db: db,
	}
}

// GetByID loads a reservation together with its client.
func (r *ReservationRepository) GetByID(ctx context.Context, id int64) (*reservation.Reservation, error) {
	var res reservation.Reservation
	err := r.db.WithContext(ctx).Preload("Client").First(&res, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reservationpkg.ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}

func (r *ReservationRepository) UpdatePaymentStatus(ctx context.Context, id int64, status string) error {
	res := r.db.WithContext(ctx).
		Model(&reservation.Reservation{}).
		Where("id = ?", id).
		Update("payment_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return reservationpkg.ErrNotFound
	}
	return nil
}
