package payment

import (
	"time"

	"github.com/frahmantamala/hotel-billing/internal"
	"github.com/frahmantamala/hotel-billing/internal/core/datamodel/payment"
	"github.com/frahmantamala/hotel-billing/internal/core/datamodel/reservation"
	"github.com/shopspring/decimal"
	"github.com/teambition/rrule-go"
)

// splitPlan divides total into n amounts rounded down to the cent; the last
// amount absorbs the remainder so the parts always add up to total.
func splitPlan(total decimal.Decimal, n int) []decimal.Decimal {
	amounts := make([]decimal.Decimal, n)
	share := total.Div(decimal.NewFromInt(int64(n))).Truncate(2)
	for i := 0; i < n-1; i++ {
		amounts[i] = share
	}
	amounts[n-1] = total.Sub(share.Mul(decimal.NewFromInt(int64(n - 1))))
	return amounts
}

// installmentDueDates returns count monthly due dates starting at first.
// Days past the 28th are pulled back because a monthly rule skips months
// that lack the start day.
func installmentDueDates(first time.Time, count int) ([]time.Time, error) {
	if first.Day() > 28 {
		first = first.AddDate(0, 0, 28-first.Day())
	}
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.MONTHLY,
		Count:   count,
		Dtstart: first,
	})
	if err != nil {
		return nil, err
	}
	return rule.All(), nil
}

// planInstallments checks the plan preconditions and builds the rows that are
// still missing from the plan.
func (s *Service) planInstallments(dto *CreatePaymentDTO, res *reservation.Reservation, existing []*payment.Payment, committed decimal.Decimal) ([]*payment.Payment, error) {
	total := *dto.TotalInstallments

	var plan []*payment.Payment
	for _, p := range existing {
		if p.IsInstallment() {
			plan = append(plan, p)
		}
	}

	var planAmount decimal.Decimal
	anchor := s.now()
	if dto.DueDate != nil {
		anchor = dto.DueDate.UTC()
	}

	switch {
	case len(plan) == 0:
		if dto.Amount.Sub(res.TotalPrice).Abs().GreaterThan(planTolerance) {
			return nil, internal.NewValidationError("for a first installment payment, the total amount must equal the reservation price", internal.ErrCodePlanTotalMismatch)
		}
		planAmount = res.TotalPrice
		if committed.Add(planAmount).GreaterThan(res.TotalPrice) {
			return nil, internal.NewValidationError("amount exceeds reservation total", internal.ErrCodeAmountExceedsTotal)
		}
	case len(plan) >= total:
		return nil, internal.NewValidationError("all installments already created", internal.ErrCodeInstallmentsComplete)
	default:
		if *plan[0].TotalInstallments != total {
			return nil, internal.NewValidationError("total_installments does not match the existing installment plan", internal.ErrCodeValidationFailed)
		}
		planAmount = res.TotalPrice.Sub(committed)
		if !planAmount.IsPositive() {
			return nil, internal.NewValidationError("amount exceeds reservation total", internal.ErrCodeAmountExceedsTotal)
		}
		for _, p := range plan {
			if *p.InstallmentNumber == 1 && p.DueDate != nil {
				anchor = *p.DueDate
			}
		}
	}

	dueDates, err := installmentDueDates(anchor, total)
	if err != nil {
		return nil, err
	}

	taken := make(map[int]bool, len(plan))
	for _, p := range plan {
		taken[*p.InstallmentNumber] = true
	}
	var numbers []int
	for n := 1; n <= total; n++ {
		if !taken[n] {
			numbers = append(numbers, n)
		}
	}
	if len(numbers) == 0 {
		return nil, internal.NewValidationError("all installments already created", internal.ErrCodeInstallmentsComplete)
	}

	amounts := splitPlan(planAmount, len(numbers))
	now := s.now()
	rows := make([]*payment.Payment, 0, len(numbers))
	for i, n := range numbers {
		number, count := n, total
		due := dueDates[n-1]
		row := &payment.Payment{
			ReservationID:     res.ID,
			Amount:            amounts[i],
			Method:            dto.Method,
			State:             payment.StatePending,
			InstallmentNumber: &number,
			TotalInstallments: &count,
			TransactionDate:   now,
			DueDate:           &due,
			Notes:             dto.Notes,
		}
		if i == 0 {
			row.TransactionReference = dto.TransactionReference
			// later installments cannot start settled ahead of their predecessors
			if n == 1 {
				row.State = dto.state()
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
