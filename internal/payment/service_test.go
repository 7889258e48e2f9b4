package payment_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/hotel-billing/internal"
	"github.com/frahmantamala/hotel-billing/internal/core/datamodel/payment"
	reservationmodel "github.com/frahmantamala/hotel-billing/internal/core/datamodel/reservation"
	"github.com/frahmantamala/hotel-billing/internal/core/events"
	paymentpkg "github.com/frahmantamala/hotel-billing/internal/payment"
)

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }

func codeOf(err error) internal.ErrorCode {
	appErr, ok := internal.IsAppError(err)
	Expect(ok).To(BeTrue(), "expected an AppError, got %v", err)
	return appErr.Code
}

var _ = Describe("PaymentService", func() {
	var (
		ctx       context.Context
		db        *memDB
		reports   *fakeReports
		notifier  *fakeNotifier
		publisher *recordingPublisher
		service   *paymentpkg.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		db = newMemDB()
		db.addReservation(1, "300.00")
		db.users[7] = true
		reports = &fakeReports{}
		notifier = &fakeNotifier{}
		publisher = &recordingPublisher{}
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		service = paymentpkg.NewService(db.stores(), memTransactor{db}, reports, notifier, publisher,
			paymentpkg.Config{DefaultAuditUserID: 1}, logger).
			WithClock(func() time.Time { return fixedNow })
	})

	pending := func(amount string) *payment.Payment {
		return db.addPayment(&payment.Payment{
			ReservationID:   1,
			Amount:          dec(amount),
			Method:          "carte",
			State:           payment.StatePending,
			TransactionDate: fixedNow,
		})
	}

	Describe("CreatePaymentsWithInstallments", func() {
		It("should reject a non-positive reservation id before touching storage", func() {
			_, err := service.CreatePaymentsWithInstallments(ctx, &paymentpkg.CreatePaymentDTO{Amount: dec("10"), Method: "carte"})

			Expect(codeOf(err)).To(Equal(internal.ErrCodeInvalidID))
			Expect(db.calls).To(BeZero())
		})

		It("should return not found for an unknown reservation", func() {
			_, err := service.CreatePaymentsWithInstallments(ctx, &paymentpkg.CreatePaymentDTO{ReservationID: 42, Amount: dec("10"), Method: "carte"})

			Expect(internal.IsType(err, internal.ErrorTypeNotFound)).To(BeTrue())
			Expect(codeOf(err)).To(Equal(internal.ErrCodeReservationNotFound))
		})

		It("should reject an invalid payload without persisting anything", func() {
			_, err := service.CreatePaymentsWithInstallments(ctx, &paymentpkg.CreatePaymentDTO{ReservationID: 1, Amount: dec("-5"), Method: ""})

			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
			Expect(db.payments).To(BeEmpty())
		})

		It("should reject total_installments without installment_number outside a plan", func() {
			_, err := service.CreatePaymentsWithInstallments(ctx, &paymentpkg.CreatePaymentDTO{
				ReservationID: 1, Amount: dec("100"), Method: "carte", TotalInstallments: intPtr(1),
			})

			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("total_installments requires installment_number"))
			Expect(db.payments).To(BeEmpty())
		})

		It("should store a single installment with both plan fields", func() {
			created, err := service.CreatePaymentsWithInstallments(ctx, &paymentpkg.CreatePaymentDTO{
				ReservationID: 1, Amount: dec("100"), Method: "carte", TotalInstallments: intPtr(1), InstallmentNumber: intPtr(1),
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(*created[0].InstallmentNumber).To(Equal(1))
			Expect(*created[0].TotalInstallments).To(Equal(1))
		})

		It("should enforce the reservation total across payments", func() {
			first, err := service.CreatePaymentsWithInstallments(ctx, &paymentpkg.CreatePaymentDTO{ReservationID: 1, Amount: dec("100"), Method: "carte"})
			Expect(err).ToNot(HaveOccurred())
			Expect(first).To(HaveLen(1))
			Expect(first[0].State).To(Equal(payment.StatePending))
			Expect(db.status(1)).To(Equal(reservationmodel.PaymentStatusPending))

			_, err = service.CreatePaymentsWithInstallments(ctx, &paymentpkg.CreatePaymentDTO{ReservationID: 1, Amount: dec("250"), Method: "carte"})

			Expect(codeOf(err)).To(Equal(internal.ErrCodeAmountExceedsTotal))
			Expect(err.Error()).To(ContainSubstring("amount exceeds reservation total"))
			Expect(db.payments).To(HaveLen(1))
		})

		It("should ignore cancelled payments when checking the total", func() {
			p := pending("300")
			db.payments[p.ID].State = payment.StateCancelled

			_, err := service.CreatePaymentsWithInstallments(ctx, &paymentpkg.CreatePaymentDTO{ReservationID: 1, Amount: dec("300"), Method: "carte"})

			Expect(err).ToNot(HaveOccurred())
		})

		It("should settle the reservation when a complete payment covers the total", func() {
			created, err := service.CreatePaymentsWithInstallments(ctx, &paymentpkg.CreatePaymentDTO{
				ReservationID: 1, Amount: dec("300"), Method: "especes", State: payment.StateComplete,
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(created[0].ID).ToNot(BeZero())
			Expect(db.status(1)).To(Equal(reservationmodel.PaymentStatusComplete))
			Expect(publisher.types()).To(Equal([]string{events.EventTypePaymentCompleted, events.EventTypeReservationSettled}))
		})

		Context("with an installment plan", func() {
			It("should materialize every installment of the plan", func() {
				created, err := service.CreatePaymentsWithInstallments(ctx, &paymentpkg.CreatePaymentDTO{
					ReservationID: 1, Amount: dec("300"), Method: "carte", TotalInstallments: intPtr(3),
				})

				Expect(err).ToNot(HaveOccurred())
				Expect(created).To(HaveLen(3))
				for i, p := range created {
					Expect(*p.InstallmentNumber).To(Equal(i + 1))
					Expect(*p.TotalInstallments).To(Equal(3))
					Expect(p.Amount.StringFixed(2)).To(Equal("100.00"))
					Expect(p.State).To(Equal(payment.StatePending))
				}
				Expect(*created[0].DueDate).To(BeTemporally("==", fixedNow))
				Expect(*created[1].DueDate).To(BeTemporally("==", fixedNow.AddDate(0, 1, 0)))
				Expect(*created[2].DueDate).To(BeTemporally("==", fixedNow.AddDate(0, 2, 0)))
			})

			It("should put the rounding remainder on the last installment", func() {
				db.addReservation(2, "100.00")

				created, err := service.CreatePaymentsWithInstallments(ctx, &paymentpkg.CreatePaymentDTO{
					ReservationID: 2, Amount: dec("100"), Method: "carte", TotalInstallments: intPtr(3),
				})

				Expect(err).ToNot(HaveOccurred())
				Expect(created[0].Amount.StringFixed(2)).To(Equal("33.33"))
				Expect(created[1].Amount.StringFixed(2)).To(Equal("33.33"))
				Expect(created[2].Amount.StringFixed(2)).To(Equal("33.34"))
			})

			It("should require the first submission to match the reservation price", func() {
				_, err := service.CreatePaymentsWithInstallments(ctx, &paymentpkg.CreatePaymentDTO{
					ReservationID: 1, Amount: dec("250"), Method: "carte", TotalInstallments: intPtr(3),
				})

				Expect(codeOf(err)).To(Equal(internal.ErrCodePlanTotalMismatch))
				Expect(db.payments).To(BeEmpty())
			})

			It("should accept a plan total within a cent of the price", func() {
				_, err := service.CreatePaymentsWithInstallments(ctx, &paymentpkg.CreatePaymentDTO{
					ReservationID: 1, Amount: dec("299.99"), Method: "carte", TotalInstallments: intPtr(2),
				})

				Expect(err).ToNot(HaveOccurred())
			})

			It("should refuse a plan once every installment exists", func() {
				_, err := service.CreatePaymentsWithInstallments(ctx, &paymentpkg.CreatePaymentDTO{
					ReservationID: 1, Amount: dec("300"), Method: "carte", TotalInstallments: intPtr(3),
				})
				Expect(err).ToNot(HaveOccurred())

				_, err = service.CreatePaymentsWithInstallments(ctx, &paymentpkg.CreatePaymentDTO{
					ReservationID: 1, Amount: dec("300"), Method: "carte", TotalInstallments: intPtr(3),
				})

				Expect(codeOf(err)).To(Equal(internal.ErrCodeInstallmentsComplete))
				Expect(err.Error()).To(ContainSubstring("all installments already created"))
				Expect(db.payments).To(HaveLen(3))
			})
		})
	})

	Describe("UpdatePaymentState", func() {
		It("should reject an unknown state", func() {
			p := pending("100")

			_, err := service.UpdatePaymentState(ctx, p.ID, "paid")

			Expect(codeOf(err)).To(Equal(internal.ErrCodeInvalidState))
		})

		It("should return not found for a missing payment", func() {
			_, err := service.UpdatePaymentState(ctx, 99, payment.StateComplete)

			Expect(codeOf(err)).To(Equal(internal.ErrCodePaymentNotFound))
		})

		It("should require the previous installment to be settled", func() {
			created, err := service.CreatePaymentsWithInstallments(ctx, &paymentpkg.CreatePaymentDTO{
				ReservationID: 1, Amount: dec("300"), Method: "carte", TotalInstallments: intPtr(3),
			})
			Expect(err).ToNot(HaveOccurred())

			_, err = service.UpdatePaymentState(ctx, created[1].ID, payment.StateComplete)

			Expect(codeOf(err)).To(Equal(internal.ErrCodePreviousInstallment))
			Expect(err.Error()).To(ContainSubstring("the previous installment must be settled first"))
			Expect(db.payment(created[1].ID).State).To(Equal(payment.StatePending))
		})

		It("should settle installments in order", func() {
			created, err := service.CreatePaymentsWithInstallments(ctx, &paymentpkg.CreatePaymentDTO{
				ReservationID: 1, Amount: dec("300"), Method: "carte", TotalInstallments: intPtr(3),
			})
			Expect(err).ToNot(HaveOccurred())

			for _, p := range created {
				_, err := service.UpdatePaymentState(ctx, p.ID, payment.StateComplete)
				Expect(err).ToNot(HaveOccurred())
			}

			Expect(db.status(1)).To(Equal(reservationmodel.PaymentStatusComplete))
		})

		It("should only settle the reservation once nothing is pending", func() {
			first := pending("150")
			second := pending("150")

			_, err := service.UpdatePaymentState(ctx, first.ID, payment.StateComplete)
			Expect(err).ToNot(HaveOccurred())
			Expect(db.status(1)).To(Equal(reservationmodel.PaymentStatusPending))

			updated, err := service.UpdatePaymentState(ctx, second.ID, payment.StateComplete)
			Expect(err).ToNot(HaveOccurred())
			Expect(updated.TransactionDate).To(BeTemporally("==", fixedNow))
			Expect(db.status(1)).To(Equal(reservationmodel.PaymentStatusComplete))

			published := len(publisher.types())
			_, err = service.UpdatePaymentState(ctx, second.ID, payment.StateComplete)
			Expect(err).ToNot(HaveOccurred())
			Expect(publisher.types()).To(HaveLen(published))
			Expect(publisher.types()).To(ContainElement(events.EventTypeReservationSettled))
		})

		It("should downgrade the reservation when a settled payment is cancelled", func() {
			p := pending("300")
			_, err := service.UpdatePaymentState(ctx, p.ID, payment.StateComplete)
			Expect(err).ToNot(HaveOccurred())
			Expect(db.status(1)).To(Equal(reservationmodel.PaymentStatusComplete))

			_, err = service.UpdatePaymentState(ctx, p.ID, payment.StateCancelled)

			Expect(err).ToNot(HaveOccurred())
			Expect(db.status(1)).To(Equal(reservationmodel.PaymentStatusPending))
		})

		It("should not revive a cancelled payment past the reservation price", func() {
			created, err := service.CreatePaymentsWithInstallments(ctx, &paymentpkg.CreatePaymentDTO{
				ReservationID: 1, Amount: dec("300"), Method: "carte",
			})
			Expect(err).ToNot(HaveOccurred())
			first := created[0]
			_, err = service.UpdatePaymentState(ctx, first.ID, payment.StateCancelled)
			Expect(err).ToNot(HaveOccurred())
			_, err = service.CreatePaymentsWithInstallments(ctx, &paymentpkg.CreatePaymentDTO{
				ReservationID: 1, Amount: dec("300"), Method: "virement", State: payment.StateComplete,
			})
			Expect(err).ToNot(HaveOccurred())

			_, err = service.UpdatePaymentState(ctx, first.ID, payment.StateComplete)

			Expect(codeOf(err)).To(Equal(internal.ErrCodePaymentLocked))
			Expect(db.payment(first.ID).State).To(Equal(payment.StateCancelled))
		})

		It("should keep a refunded payment refunded", func() {
			p := pending("300")
			_, err := service.UpdatePaymentState(ctx, p.ID, payment.StateComplete)
			Expect(err).ToNot(HaveOccurred())
			_, err = service.RefundPayment(ctx, p.ID, paymentpkg.RefundDTO{}, 1)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.UpdatePaymentState(ctx, p.ID, payment.StatePending)

			Expect(codeOf(err)).To(Equal(internal.ErrCodePaymentLocked))
			Expect(db.payment(p.ID).State).To(Equal(payment.StateRefunded))
		})

		It("should settle the reservation when the only other payment is cancelled", func() {
			db.addPayment(&payment.Payment{
				ReservationID: 1, Amount: dec("100"), Method: "carte",
				State: payment.StateCancelled, TransactionDate: fixedNow,
			})
			p := pending("300")

			_, err := service.UpdatePaymentState(ctx, p.ID, payment.StateComplete)

			Expect(err).ToNot(HaveOccurred())
			Expect(db.status(1)).To(Equal(reservationmodel.PaymentStatusComplete))
			Expect(publisher.types()).To(ContainElement(events.EventTypeReservationSettled))
		})

		It("should surface storage failures as internal errors", func() {
			p := pending("100")
			db.updateErr = errDatabase

			_, err := service.UpdatePaymentState(ctx, p.ID, payment.StateComplete)

			Expect(internal.IsType(err, internal.ErrorTypeInternal)).To(BeTrue())
		})
	})

	Describe("RefundPayment", func() {
		var settled *payment.Payment

		BeforeEach(func() {
			settled = pending("300")
			_, err := service.UpdatePaymentState(ctx, settled.ID, payment.StateComplete)
			Expect(err).ToNot(HaveOccurred())
		})

		It("should refund, downgrade the reservation and journal the refund", func() {
			refunded, err := service.RefundPayment(ctx, settled.ID, paymentpkg.RefundDTO{Reason: "guest cancelled"}, 7)

			Expect(err).ToNot(HaveOccurred())
			Expect(refunded.State).To(Equal(payment.StateRefunded))
			Expect(*refunded.Notes).To(Equal("guest cancelled"))
			Expect(db.status(1)).To(Equal(reservationmodel.PaymentStatusPending))

			entries := db.auditEntries()
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].UserID).To(Equal(int64(7)))
			Expect(entries[0].ResourceID).To(Equal(settled.ID))
			Expect(entries[0].Action).To(Equal("refund"))

			var details map[string]interface{}
			Expect(json.Unmarshal(entries[0].Details, &details)).To(Succeed())
			Expect(details).To(HaveKeyWithValue("amount", "300.00"))
			Expect(details).To(HaveKeyWithValue("previous_state", payment.StateComplete))
			Expect(publisher.types()).To(ContainElement(events.EventTypePaymentRefunded))
		})

		It("should expose the refund in the payment audit trail", func() {
			_, err := service.RefundPayment(ctx, settled.ID, paymentpkg.RefundDTO{Reason: "overbooked"}, 7)
			Expect(err).ToNot(HaveOccurred())

			trail, err := service.GetPaymentAudit(ctx, settled.ID)

			Expect(err).ToNot(HaveOccurred())
			Expect(trail).To(HaveLen(1))
			Expect(trail[0].Action).To(Equal("refund"))
			Expect(string(trail[0].Details)).To(ContainSubstring("overbooked"))
		})

		It("should journal under the default user when the acting user is unknown", func() {
			_, err := service.RefundPayment(ctx, settled.ID, paymentpkg.RefundDTO{}, 404)

			Expect(err).ToNot(HaveOccurred())
			entries := db.auditEntries()
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].UserID).To(Equal(int64(1)))
			Expect(*db.payment(settled.ID).Notes).To(Equal("refund requested"))
		})

		It("should reject a second refund of the same payment", func() {
			_, err := service.RefundPayment(ctx, settled.ID, paymentpkg.RefundDTO{}, 7)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.RefundPayment(ctx, settled.ID, paymentpkg.RefundDTO{}, 7)

			Expect(codeOf(err)).To(Equal(internal.ErrCodeAlreadyRefunded))
			Expect(db.auditEntries()).To(HaveLen(1))
		})

		It("should roll back the refund when the journal write fails", func() {
			db.appendErr = errDatabase

			_, err := service.RefundPayment(ctx, settled.ID, paymentpkg.RefundDTO{}, 7)

			Expect(internal.IsType(err, internal.ErrorTypeInternal)).To(BeTrue())
			Expect(db.payment(settled.ID).State).To(Equal(payment.StateComplete))
			Expect(db.status(1)).To(Equal(reservationmodel.PaymentStatusComplete))
		})
	})

	Describe("UpdatePayment", func() {
		It("should reject an empty update", func() {
			p := pending("100")

			_, err := service.UpdatePayment(ctx, p.ID, &paymentpkg.UpdatePaymentDTO{})

			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})

		It("should recheck the balance when the amount changes", func() {
			pending("200")
			p := pending("100")
			amount := dec("150")

			_, err := service.UpdatePayment(ctx, p.ID, &paymentpkg.UpdatePaymentDTO{Amount: &amount})

			Expect(codeOf(err)).To(Equal(internal.ErrCodeAmountExceedsTotal))
			Expect(db.payment(p.ID).Amount.StringFixed(2)).To(Equal("100.00"))
		})

		It("should lock cancelled payments", func() {
			p := pending("100")
			db.payments[p.ID].State = payment.StateCancelled

			_, err := service.UpdatePayment(ctx, p.ID, &paymentpkg.UpdatePaymentDTO{Notes: strPtr("late")})

			Expect(codeOf(err)).To(Equal(internal.ErrCodePaymentLocked))
		})

		It("should recompute the status when a settled amount shrinks", func() {
			p := pending("300")
			_, err := service.UpdatePaymentState(ctx, p.ID, payment.StateComplete)
			Expect(err).ToNot(HaveOccurred())
			amount := dec("200")

			updated, err := service.UpdatePayment(ctx, p.ID, &paymentpkg.UpdatePaymentDTO{Amount: &amount, Method: strPtr("virement")})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Method).To(Equal("virement"))
			Expect(db.status(1)).To(Equal(reservationmodel.PaymentStatusPending))
		})
	})

	Describe("GetReservationBalance", func() {
		It("should report paid, committed and outstanding amounts", func() {
			settled := pending("100")
			pending("50")
			cancelled := pending("40")
			db.payments[settled.ID].State = payment.StateComplete
			db.payments[cancelled.ID].State = payment.StateCancelled

			balance, err := service.GetReservationBalance(ctx, 1)

			Expect(err).ToNot(HaveOccurred())
			Expect(balance.Paid.StringFixed(2)).To(Equal("100.00"))
			Expect(balance.Committed.StringFixed(2)).To(Equal("150.00"))
			Expect(balance.Outstanding.StringFixed(2)).To(Equal("200.00"))
			Expect(balance.Payments).To(HaveLen(3))
		})
	})

	Describe("ReconcileByReference", func() {
		It("should apply the reported state to the referenced payment", func() {
			p := pending("300")
			db.payments[p.ID].TransactionReference = strPtr("TX-1")

			updated, err := service.ReconcileByReference(ctx, &paymentpkg.CallbackDTO{TransactionReference: "TX-1", State: payment.StateComplete})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.State).To(Equal(payment.StateComplete))
			Expect(db.status(1)).To(Equal(reservationmodel.PaymentStatusComplete))
		})

		It("should return not found for an unknown reference", func() {
			_, err := service.ReconcileByReference(ctx, &paymentpkg.CallbackDTO{TransactionReference: "TX-404", State: payment.StateComplete})

			Expect(codeOf(err)).To(Equal(internal.ErrCodePaymentNotFound))
		})
	})

	Describe("GetFinancialReport", func() {
		It("should reject an impossible date before querying", func() {
			_, err := service.GetFinancialReport(ctx, "2023-13-01", "2023-12-31")

			Expect(codeOf(err)).To(Equal(internal.ErrCodeInvalidDate))
			Expect(reports.calls).To(BeZero())
		})

		It("should reject an inverted range", func() {
			_, err := service.GetFinancialReport(ctx, "2024-02-01", "2024-01-01")

			Expect(codeOf(err)).To(Equal(internal.ErrCodeInvalidDateRange))
		})

		It("should return not found when the period is empty", func() {
			_, err := service.GetFinancialReport(ctx, "2024-01-01", "2024-01-31")

			Expect(codeOf(err)).To(Equal(internal.ErrCodeTransactionNotFound))
		})

		It("should total the completed payments of the period", func() {
			reports.completed = []paymentpkg.ReportTransaction{
				{PaymentID: 1, ClientName: "Alice", Amount: dec("120.50"), Method: "carte"},
				{PaymentID: 2, ClientName: "Bob", Amount: dec("79.50"), Method: "especes"},
			}

			fin, err := service.GetFinancialReport(ctx, "2024-01-01", "2024-01-31")

			Expect(err).ToNot(HaveOccurred())
			Expect(fin.Count).To(Equal(2))
			Expect(fin.Total.StringFixed(2)).To(Equal("200.00"))
			Expect(reports.from).To(BeTemporally("==", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
			Expect(reports.to).To(BeTemporally("==", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
		})
	})

	Describe("overdue payments", func() {
		It("should return not found when nothing is overdue", func() {
			_, err := service.GetOverduePayments(ctx)

			Expect(codeOf(err)).To(Equal(internal.ErrCodeOverdueNotFound))
			Expect(reports.asOf).To(BeTemporally("==", fixedNow))
		})

		It("should report no notification when nothing is overdue", func() {
			sent, err := service.NotifyOverduePayments(ctx, "manager@example.com")

			Expect(err).ToNot(HaveOccurred())
			Expect(sent).To(BeFalse())
			Expect(notifier.sent).To(BeEmpty())
		})

		It("should reject an invalid recipient", func() {
			_, err := service.NotifyOverduePayments(ctx, "not-an-email")

			Expect(codeOf(err)).To(Equal(internal.ErrCodeInvalidEmail))
		})

		It("should mail the digest of overdue payments", func() {
			reports.overdue = []paymentpkg.OverduePayment{
				{PaymentID: 3, ReservationID: 1, ClientName: "Alice", Amount: dec("100"), DueDate: fixedNow.AddDate(0, 0, -3),
					InstallmentNumber: intPtr(2), TotalInstallments: intPtr(3)},
			}

			sent, err := service.NotifyOverduePayments(ctx, "manager@example.com")

			Expect(err).ToNot(HaveOccurred())
			Expect(sent).To(BeTrue())
			Expect(notifier.sent).To(HaveLen(1))
			Expect(notifier.sent[0].To).To(Equal("manager@example.com"))
			Expect(notifier.sent[0].Subject).To(Equal("Overdue payments"))
			Expect(notifier.sent[0].Body).To(ContainSubstring("Alice"))
		})

		It("should surface a delivery failure", func() {
			reports.overdue = []paymentpkg.OverduePayment{{PaymentID: 3, ClientName: "Alice", Amount: dec("100")}}
			notifier.err = errDatabase

			_, err := service.NotifyOverduePayments(ctx, "manager@example.com")

			Expect(internal.IsType(err, internal.ErrorTypeInternal)).To(BeTrue())
		})
	})
})
