package payment

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/hotel-billing/internal"
	"github.com/frahmantamala/hotel-billing/internal/core/datamodel/payment"
	"github.com/frahmantamala/hotel-billing/internal/report"
	"github.com/frahmantamala/hotel-billing/internal/transport"
)

type ServiceAPI interface {
	CreatePaymentsWithInstallments(ctx context.Context, dto *CreatePaymentDTO) ([]*payment.Payment, error)
	GetPayment(ctx context.Context, paymentID int64) (*payment.Payment, error)
	UpdatePayment(ctx context.Context, paymentID int64, dto *UpdatePaymentDTO) (*payment.Payment, error)
	UpdatePaymentState(ctx context.Context, paymentID int64, newState string) (*payment.Payment, error)
	RefundPayment(ctx context.Context, paymentID int64, dto RefundDTO, actingUserID int64) (*payment.Payment, error)
	GetReservationBalance(ctx context.Context, reservationID int64) (*ReservationBalance, error)
	GetFinancialReport(ctx context.Context, minDate, maxDate string) (*FinancialReport, error)
	GetOverduePayments(ctx context.Context) ([]OverduePayment, error)
	NotifyOverduePayments(ctx context.Context, recipient string) (bool, error)
	ReconcileByReference(ctx context.Context, dto *CallbackDTO) (*payment.Payment, error)
	GetPaymentAudit(ctx context.Context, paymentID int64) ([]AuditView, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger),
		Service:     svc,
	}
}

// CreatePayment handles POST /api/v1/payments
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var dto CreatePaymentDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	created, err := h.Service.CreatePaymentsWithInstallments(r.Context(), &dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"payments": ToViews(created),
	})
}

// GetPayment handles GET /api/v1/payments/{id}
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.PathID(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	p, err := h.Service.GetPayment(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToView(p))
}

// UpdatePayment handles PATCH /api/v1/payments/{id}
func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.PathID(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	var dto UpdatePaymentDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	p, err := h.Service.UpdatePayment(r.Context(), id, &dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToView(p))
}

// UpdatePaymentState handles PATCH /api/v1/payments/{id}/state
func (h *Handler) UpdatePaymentState(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.PathID(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	var dto UpdateStateDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	p, err := h.Service.UpdatePaymentState(r.Context(), id, dto.State)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToView(p))
}

// RefundPayment handles POST /api/v1/payments/{id}/refund
func (h *Handler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.PathID(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	var dto RefundDTO
	if r.ContentLength != 0 && !h.DecodeJSON(w, r, &dto) {
		return
	}

	p, err := h.Service.RefundPayment(r.Context(), id, dto, internal.UserIDFromContext(r.Context()))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToView(p))
}

// GetPaymentAudit handles GET /api/v1/payments/{id}/audit
func (h *Handler) GetPaymentAudit(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.PathID(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	entries, err := h.Service.GetPaymentAudit(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
	})
}

// GetReservationPayments handles GET /api/v1/reservations/{id}/payments
func (h *Handler) GetReservationPayments(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.PathID(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	balance, err := h.Service.GetReservationBalance(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, balance)
}

// GetOverduePayments handles GET /api/v1/payments/overdue
func (h *Handler) GetOverduePayments(w http.ResponseWriter, r *http.Request) {
	overdue, err := h.Service.GetOverduePayments(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"payments": overdue,
		"count":    len(overdue),
	})
}

// NotifyOverduePayments handles POST /api/v1/payments/overdue/notify
func (h *Handler) NotifyOverduePayments(w http.ResponseWriter, r *http.Request) {
	var dto NotifyOverdueDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	sent, err := h.Service.NotifyOverduePayments(r.Context(), dto.Email)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, NotifyOverdueResponse{Sent: sent})
}

// GetFinancialReport handles GET /api/v1/reports/financial. The format query
// parameter selects json (default), pdf or xlsx.
func (h *Handler) GetFinancialReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format, err := report.ParseFormat(q.Get("format"))
	if err != nil {
		h.WriteAppError(w, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed))
		return
	}

	fin, err := h.Service.GetFinancialReport(r.Context(), q.Get("min_date"), q.Get("max_date"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	renderer, ok := report.RendererFor(format)
	if !ok {
		h.WriteJSON(w, http.StatusOK, fin)
		return
	}

	data := fin.ToReportData()
	w.Header().Set("Content-Type", renderer.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.FileName(data, renderer)+`"`)
	w.WriteHeader(http.StatusOK)
	if err := renderer.Render(w, data); err != nil {
		// headers are gone; all that is left is to log
		h.Logger.Error("failed to render financial report", "format", format, "error", err)
	}
}
