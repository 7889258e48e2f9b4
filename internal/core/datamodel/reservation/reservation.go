package reservation

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentStatusPending  = "en_attente"
	PaymentStatusComplete = "complete"
)

type Client struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Email     string    `gorm:"column:email"`
	Phone     string    `gorm:"column:phone"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Client) TableName() string {
	return "clients"
}

type Reservation struct {
	ID            int64           `gorm:"primaryKey"`
	ClientID      int64           `gorm:"column:client_id;not null;index"`
	Client        *Client         `gorm:"foreignKey:ClientID"`
	RoomNumber    string          `gorm:"column:room_number"`
	CheckIn       time.Time       `gorm:"column:check_in"`
	CheckOut      time.Time       `gorm:"column:check_out"`
	TotalPrice    decimal.Decimal `gorm:"column:total_price;type:decimal(12,2);not null"`
	PaymentStatus string          `gorm:"column:payment_status;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at"`
}

func (Reservation) TableName() string {
	return "reservations"
}
