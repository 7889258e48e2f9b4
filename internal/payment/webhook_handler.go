package payment

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/hotel-billing/internal"
	"github.com/frahmantamala/hotel-billing/internal/transport"
)

// CallbackTokenHeader carries the secret shared with the payment gateway.
const CallbackTokenHeader = "X-Callback-Token"

// WebhookHandler receives gateway status reports for payments that carry a
// transaction reference.
type WebhookHandler struct {
	*transport.BaseHandler
	service ServiceAPI
	secret  string
}

func NewWebhookHandler(service ServiceAPI, secret string, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler: transport.NewBaseHandler(logger),
		service:     service,
		secret:      secret,
	}
}

type PaymentCallbackResponse struct {
	Status    string `json:"status"`
	PaymentID int64  `json:"payment_id"`
	State     string `json:"state"`
}

// HandlePaymentCallback handles POST /api/v1/payments/callback
func (h *WebhookHandler) HandlePaymentCallback(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(CallbackTokenHeader)
	if h.secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) != 1 {
		h.Logger.Warn("payment callback rejected: bad token", "remote_addr", r.RemoteAddr)
		h.WriteAppError(w, internal.NewUnauthorizedError("invalid callback token", internal.ErrCodeInvalidCallbackToken))
		return
	}

	var req CallbackDTO
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	h.Logger.Info("received payment callback",
		"transaction_reference", req.TransactionReference,
		"state", req.State)

	p, err := h.service.ReconcileByReference(r.Context(), &req)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, PaymentCallbackResponse{
		Status:    "processed",
		PaymentID: p.ID,
		State:     p.State,
	})
}
