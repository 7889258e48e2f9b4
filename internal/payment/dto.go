package payment

import (
	"time"

	errors "github.com/frahmantamala/hotel-billing/internal"
	"github.com/frahmantamala/hotel-billing/internal/core/common/validation"
	"github.com/frahmantamala/hotel-billing/internal/core/datamodel/payment"
	"github.com/shopspring/decimal"
)

var validStates = []string{payment.StatePending, payment.StateComplete, payment.StateCancelled, payment.StateRefunded}

type CreatePaymentDTO struct {
	ReservationID        int64           `json:"reservation_id"`
	Amount               decimal.Decimal `json:"amount"`
	Method               string          `json:"method"`
	TransactionReference *string         `json:"transaction_reference,omitempty"`
	State                string          `json:"state,omitempty"`
	InstallmentNumber    *int            `json:"installment_number,omitempty"`
	TotalInstallments    *int            `json:"total_installments,omitempty"`
	DueDate              *time.Time      `json:"due_date,omitempty"`
	Notes                *string         `json:"notes,omitempty"`
}

func (dto *CreatePaymentDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("reservation_id", dto.ReservationID).Required().MinInt(1, errors.ErrCodeInvalidID)
	v.Field("amount", dto.Amount).PositiveDecimal(errors.ErrCodeInvalidAmount)
	v.Field("method", dto.Method).Required().MaxLength(50)
	v.Field("state", dto.State).OneOf(errors.ErrCodeInvalidState, validStates...)
	v.Field("total_installments", dto.TotalInstallments).MinInt(1, errors.ErrCodeValidationFailed)
	v.Field("installment_number", dto.InstallmentNumber).MinInt(1, errors.ErrCodeValidationFailed)
	v.Field("transaction_reference", dto.TransactionReference).MaxLength(100)

	v.Field("installment_number", dto.InstallmentNumber).Custom(func(interface{}) *errors.AppError {
		if dto.InstallmentNumber == nil {
			return nil
		}
		if dto.TotalInstallments == nil {
			return errors.NewValidationFieldError("installment_number", "installment_number requires total_installments", errors.ErrCodeValidationFailed)
		}
		if *dto.InstallmentNumber > *dto.TotalInstallments {
			return errors.NewValidationFieldError("installment_number", "installment_number cannot exceed total_installments", errors.ErrCodeValidationFailed)
		}
		return nil
	})

	// a plan (total > 1) derives the numbers itself; anything else must carry both fields
	v.Field("total_installments", dto.TotalInstallments).Custom(func(interface{}) *errors.AppError {
		if dto.TotalInstallments == nil || dto.InstallmentNumber != nil || dto.isPlanRequest() {
			return nil
		}
		return errors.NewValidationFieldError("total_installments", "total_installments requires installment_number", errors.ErrCodeValidationFailed)
	})

	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// isPlanRequest reports whether the request asks for a multi-installment plan.
func (dto *CreatePaymentDTO) isPlanRequest() bool {
	return dto.TotalInstallments != nil && *dto.TotalInstallments > 1
}

func (dto *CreatePaymentDTO) state() string {
	if dto.State == "" {
		return payment.StatePending
	}
	return dto.State
}

type UpdateStateDTO struct {
	State string `json:"state"`
}

type UpdatePaymentDTO struct {
	Amount               *decimal.Decimal `json:"amount,omitempty"`
	Method               *string          `json:"method,omitempty"`
	TransactionReference *string          `json:"transaction_reference,omitempty"`
	DueDate              *time.Time       `json:"due_date,omitempty"`
	Notes                *string          `json:"notes,omitempty"`
}

func (dto *UpdatePaymentDTO) Validate() error {
	v := validation.NewValidator()
	if dto.Amount != nil {
		v.Field("amount", *dto.Amount).PositiveDecimal(errors.ErrCodeInvalidAmount)
	}
	if dto.Method != nil {
		v.Field("method", *dto.Method).Required().MaxLength(50)
	}
	v.Field("transaction_reference", dto.TransactionReference).MaxLength(100)
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

func (dto *UpdatePaymentDTO) isEmpty() bool {
	return dto.Amount == nil && dto.Method == nil && dto.TransactionReference == nil && dto.DueDate == nil && dto.Notes == nil
}

type RefundDTO struct {
	Reason string `json:"reason"`
}

type NotifyOverdueDTO struct {
	Email string `json:"email"`
}

type NotifyOverdueResponse struct {
	Sent bool `json:"sent"`
}

type CallbackDTO struct {
	TransactionReference string `json:"transaction_reference"`
	State                string `json:"state"`
}

func (dto *CallbackDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("transaction_reference", dto.TransactionReference).Required()
	v.Field("state", dto.State).Required().OneOf(errors.ErrCodeInvalidState, validStates...)
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
