package payment_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/hotel-billing/internal"
	"github.com/frahmantamala/hotel-billing/internal/core/datamodel/payment"
	paymentpkg "github.com/frahmantamala/hotel-billing/internal/payment"
)

type mockPaymentService struct {
	err            error
	payment        *payment.Payment
	created        []*payment.Payment
	balance        *paymentpkg.ReservationBalance
	report         *paymentpkg.FinancialReport
	overdue        []paymentpkg.OverduePayment
	sent           bool
	refundedBy     int64
	refundReason   string
	stateRequested string
	reconciled     *paymentpkg.CallbackDTO
	audit          []paymentpkg.AuditView
}

func (m *mockPaymentService) CreatePaymentsWithInstallments(ctx context.Context, dto *paymentpkg.CreatePaymentDTO) ([]*payment.Payment, error) {
	return m.created, m.err
}

func (m *mockPaymentService) GetPayment(ctx context.Context, paymentID int64) (*payment.Payment, error) {
	return m.payment, m.err
}

func (m *mockPaymentService) UpdatePayment(ctx context.Context, paymentID int64, dto *paymentpkg.UpdatePaymentDTO) (*payment.Payment, error) {
	return m.payment, m.err
}

func (m *mockPaymentService) UpdatePaymentState(ctx context.Context, paymentID int64, newState string) (*payment.Payment, error) {
	m.stateRequested = newState
	return m.payment, m.err
}

func (m *mockPaymentService) RefundPayment(ctx context.Context, paymentID int64, dto paymentpkg.RefundDTO, actingUserID int64) (*payment.Payment, error) {
	m.refundedBy = actingUserID
	m.refundReason = dto.Reason
	return m.payment, m.err
}

func (m *mockPaymentService) GetReservationBalance(ctx context.Context, reservationID int64) (*paymentpkg.ReservationBalance, error) {
	return m.balance, m.err
}

func (m *mockPaymentService) GetFinancialReport(ctx context.Context, minDate, maxDate string) (*paymentpkg.FinancialReport, error) {
	return m.report, m.err
}

func (m *mockPaymentService) GetOverduePayments(ctx context.Context) ([]paymentpkg.OverduePayment, error) {
	return m.overdue, m.err
}

func (m *mockPaymentService) NotifyOverduePayments(ctx context.Context, recipient string) (bool, error) {
	return m.sent, m.err
}

func (m *mockPaymentService) ReconcileByReference(ctx context.Context, dto *paymentpkg.CallbackDTO) (*payment.Payment, error) {
	m.reconciled = dto
	return m.payment, m.err
}

func (m *mockPaymentService) GetPaymentAudit(ctx context.Context, paymentID int64) ([]paymentpkg.AuditView, error) {
	return m.audit, m.err
}

func newTestRouter(h *paymentpkg.Handler, wh *paymentpkg.WebhookHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/payments", h.CreatePayment)
	r.Post("/payments/callback", wh.HandlePaymentCallback)
	r.Get("/payments/overdue", h.GetOverduePayments)
	r.Post("/payments/overdue/notify", h.NotifyOverduePayments)
	r.Get("/payments/{id}", h.GetPayment)
	r.Patch("/payments/{id}", h.UpdatePayment)
	r.Patch("/payments/{id}/state", h.UpdatePaymentState)
	r.Post("/payments/{id}/refund", h.RefundPayment)
	r.Get("/payments/{id}/audit", h.GetPaymentAudit)
	r.Get("/reservations/{id}/payments", h.GetReservationPayments)
	r.Get("/reports/financial", h.GetFinancialReport)
	return r
}

func errorCode(rec *httptest.ResponseRecorder) string {
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(gomega.Succeed())
	return body.Error.Code
}

var _ = ginkgo.Describe("PaymentHandler", func() {
	var (
		svc    *mockPaymentService
		router http.Handler
	)

	ginkgo.BeforeEach(func() {
		svc = &mockPaymentService{
			payment: &payment.Payment{ID: 5, ReservationID: 1, Amount: dec("100"), Method: "carte", State: payment.StatePending},
		}
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		router = newTestRouter(paymentpkg.NewHandler(svc, logger), paymentpkg.NewWebhookHandler(svc, "s3cret", logger))
	})

	do := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	ginkgo.Describe("CreatePayment", func() {
		ginkgo.It("should return the created payments", func() {
			svc.created = []*payment.Payment{svc.payment}
			body := `{"reservation_id":1,"amount":"100","method":"carte"}`

			rec := do(httptest.NewRequest(http.MethodPost, "/payments", bytes.NewBufferString(body)))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusCreated))
			var resp struct {
				Payments []paymentpkg.View `json:"payments"`
			}
			gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(gomega.Succeed())
			gomega.Expect(resp.Payments).To(gomega.HaveLen(1))
			gomega.Expect(resp.Payments[0].ID).To(gomega.Equal(int64(5)))
		})

		ginkgo.It("should reject a malformed body", func() {
			rec := do(httptest.NewRequest(http.MethodPost, "/payments", bytes.NewBufferString("{")))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
		})

		ginkgo.It("should map validation failures to 400", func() {
			svc.err = internal.NewValidationError("amount exceeds reservation total", internal.ErrCodeAmountExceedsTotal)

			rec := do(httptest.NewRequest(http.MethodPost, "/payments", bytes.NewBufferString(`{"reservation_id":1}`)))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
			gomega.Expect(errorCode(rec)).To(gomega.Equal(string(internal.ErrCodeAmountExceedsTotal)))
		})
	})

	ginkgo.Describe("GetPayment", func() {
		ginkgo.It("should reject a non-numeric id", func() {
			rec := do(httptest.NewRequest(http.MethodGet, "/payments/abc", nil))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
			gomega.Expect(errorCode(rec)).To(gomega.Equal(string(internal.ErrCodeInvalidID)))
		})

		ginkgo.It("should map not found to 404", func() {
			svc.err = internal.NewNotFoundError("payment not found", internal.ErrCodePaymentNotFound)

			rec := do(httptest.NewRequest(http.MethodGet, "/payments/9", nil))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNotFound))
		})
	})

	ginkgo.Describe("UpdatePaymentState", func() {
		ginkgo.It("should pass the requested state through", func() {
			rec := do(httptest.NewRequest(http.MethodPatch, "/payments/5/state", bytes.NewBufferString(`{"state":"complete"}`)))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(svc.stateRequested).To(gomega.Equal(payment.StateComplete))
		})
	})

	ginkgo.Describe("RefundPayment", func() {
		ginkgo.It("should refund on behalf of the authenticated user", func() {
			req := httptest.NewRequest(http.MethodPost, "/payments/5/refund", bytes.NewBufferString(`{"reason":"double charge"}`))
			req = req.WithContext(internal.ContextWithUserID(req.Context(), 7))

			rec := do(req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(svc.refundedBy).To(gomega.Equal(int64(7)))
			gomega.Expect(svc.refundReason).To(gomega.Equal("double charge"))
		})

		ginkgo.It("should accept a refund without a body", func() {
			rec := do(httptest.NewRequest(http.MethodPost, "/payments/5/refund", nil))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(svc.refundReason).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("GetPaymentAudit", func() {
		ginkgo.It("should list the journal entries", func() {
			svc.audit = []paymentpkg.AuditView{{ID: 1, UserID: 7, Action: "refund", Details: json.RawMessage(`{"reason":"x"}`)}}

			rec := do(httptest.NewRequest(http.MethodGet, "/payments/5/audit", nil))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring(`"action":"refund"`))
			gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring(`"reason":"x"`))
		})
	})

	ginkgo.Describe("NotifyOverduePayments", func() {
		ginkgo.It("should report whether a digest was sent", func() {
			rec := do(httptest.NewRequest(http.MethodPost, "/payments/overdue/notify", bytes.NewBufferString(`{"email":"manager@example.com"}`)))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring(`"sent":false`))
		})
	})

	ginkgo.Describe("GetFinancialReport", func() {
		ginkgo.BeforeEach(func() {
			svc.report = &paymentpkg.FinancialReport{
				MinDate: "2024-01-01",
				MaxDate: "2024-01-31",
				Transactions: []paymentpkg.ReportTransaction{
					{PaymentID: 1, ClientName: "Alice", Amount: dec("100"), Method: "carte"},
				},
				Count: 1,
				Total: dec("100"),
			}
		})

		ginkgo.It("should default to JSON", func() {
			rec := do(httptest.NewRequest(http.MethodGet, "/reports/financial?min_date=2024-01-01&max_date=2024-01-31", nil))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(rec.Header().Get("Content-Type")).To(gomega.Equal("application/json"))
			gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring(`"count":1`))
		})

		ginkgo.It("should stream a PDF download", func() {
			rec := do(httptest.NewRequest(http.MethodGet, "/reports/financial?min_date=2024-01-01&max_date=2024-01-31&format=pdf", nil))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(rec.Header().Get("Content-Type")).To(gomega.Equal("application/pdf"))
			gomega.Expect(rec.Header().Get("Content-Disposition")).To(gomega.ContainSubstring("financial-report_2024-01-01_2024-01-31.pdf"))
			gomega.Expect(rec.Body.String()).To(gomega.HavePrefix("%PDF"))
		})

		ginkgo.It("should reject an unknown format", func() {
			rec := do(httptest.NewRequest(http.MethodGet, "/reports/financial?min_date=2024-01-01&max_date=2024-01-31&format=csv", nil))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
		})

		ginkgo.It("should map an empty period to 404", func() {
			svc.err = internal.NewNotFoundError("no transactions found for the given period", internal.ErrCodeTransactionNotFound)

			rec := do(httptest.NewRequest(http.MethodGet, "/reports/financial?min_date=2024-01-01&max_date=2024-01-31", nil))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNotFound))
			gomega.Expect(errorCode(rec)).To(gomega.Equal(string(internal.ErrCodeTransactionNotFound)))
		})
	})

	ginkgo.Describe("HandlePaymentCallback", func() {
		ginkgo.It("should reject a missing callback token", func() {
			rec := do(httptest.NewRequest(http.MethodPost, "/payments/callback", bytes.NewBufferString(`{}`)))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(errorCode(rec)).To(gomega.Equal(string(internal.ErrCodeInvalidCallbackToken)))
			gomega.Expect(svc.reconciled).To(gomega.BeNil())
		})

		ginkgo.It("should reconcile a signed callback", func() {
			svc.payment.State = payment.StateComplete
			req := httptest.NewRequest(http.MethodPost, "/payments/callback",
				bytes.NewBufferString(`{"transaction_reference":"TX-1","state":"complete"}`))
			req.Header.Set(paymentpkg.CallbackTokenHeader, "s3cret")

			rec := do(req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(svc.reconciled.TransactionReference).To(gomega.Equal("TX-1"))
			gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring(`"status":"processed"`))
		})
	})
})
