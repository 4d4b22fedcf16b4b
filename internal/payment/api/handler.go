package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"assessment-gateway/internal/logger"
	"assessment-gateway/internal/models"
	orderdb "assessment-gateway/internal/order/db"
	"assessment-gateway/internal/payment"
	"assessment-gateway/internal/utils"
)

type PaymentService interface {
	UpdatePaymentStatus(ctx context.Context, req models.PaymentStatusRequest) (*models.Order, error)
}

type Handler struct {
	Service PaymentService
	Logger  *logger.Logger
}

func NewHandler(service PaymentService, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// UpdatePaymentStatus is the payment-status endpoint. The success envelope
// echoes the post-write order row; failures use the shared error envelope.
func (h *Handler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdatePaymentStatus: failed to decode request body: %v", err))
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	req.IdempotencyKey = r.Header.Get("Idempotency-Key")

	h.Logger.Info("API", fmt.Sprintf("UpdatePaymentStatus: orderId=%s status=%s", req.OrderID, req.PaymentStatus))

	order, err := h.Service.UpdatePaymentStatus(r.Context(), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdatePaymentStatus: %v", err))
		h.writeError(w, statusForError(err), err.Error())
		return
	}

	utils.WriteJSON(w, http.StatusOK, models.PaymentStatusResponse{
		Success: true,
		Order: models.OrderSummary{
			ID:               order.ID,
			PaymentStatus:    order.PaymentStatus,
			PaymentReference: order.PaymentReference,
			UpdatedAt:        order.UpdatedAt,
		},
		Message: fmt.Sprintf("Payment status updated to %s", order.PaymentStatus),
	})
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	utils.WriteJSON(w, status, models.ErrorEnvelope{
		Success:   false,
		Error:     msg,
		Timestamp: time.Now().UTC(),
	})
}

// statusForError maps the service's error taxonomy to response codes:
// validation failures are client errors, transition conflicts are conflicts,
// everything else is the store failing.
func statusForError(err error) int {
	switch {
	case errors.Is(err, payment.ErrMissingField), errors.Is(err, payment.ErrUnknownStatus):
		return http.StatusBadRequest
	case errors.Is(err, payment.ErrDuplicateRequest), errors.Is(err, orderdb.ErrIllegalTransition):
		return http.StatusConflict
	case errors.Is(err, orderdb.ErrOrderNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
