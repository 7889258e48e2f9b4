package reservation

import (
	"errors"

	"github.com/frahmantamala/hotel-billing/internal/core/datamodel/reservation"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("reservation not found")

// DeriveStatus is complete once the settled amount covers the total price.
func DeriveStatus(paid, totalPrice decimal.Decimal) string {
	if paid.GreaterThanOrEqual(totalPrice) {
		return reservation.PaymentStatusComplete
	}
	return reservation.PaymentStatusPending
}
