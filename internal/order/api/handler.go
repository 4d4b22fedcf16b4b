package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"assessment-gateway/internal/logger"
	"assessment-gateway/internal/models"
	"assessment-gateway/internal/order"
	orderdb "assessment-gateway/internal/order/db"
	"assessment-gateway/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	OrderService *order.OrderService
	Logger       *logger.Logger
}

func NewHandler(orderService *order.OrderService, log *logger.Logger) *Handler {
	return &Handler{OrderService: orderService, Logger: log}
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateOrder: failed to decode request body: %v", err))
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	resp, err := h.OrderService.PlaceOrder(r.Context(), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateOrder: %v", err))
		status := http.StatusInternalServerError
		if errors.Is(err, order.ErrMissingAssessmentType) ||
			errors.Is(err, order.ErrMissingGuestEmail) ||
			errors.Is(err, order.ErrInvalidAmount) {
			status = http.StatusBadRequest
		}
		utils.WriteJSON(w, status, utils.ErrorResponse("Could not create order", err.Error()))
		return
	}

	h.Logger.Info("API", fmt.Sprintf("CreateOrder: order %s created", resp.Order.ID))
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Order created", resp))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	h.Logger.Info("API", fmt.Sprintf("GetOrder: orderId=%s", orderID))

	orderData, err := h.OrderService.GetOrder(r.Context(), orderID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, orderdb.ErrOrderNotFound) {
			status = http.StatusNotFound
		}
		h.Logger.Error("API", fmt.Sprintf("GetOrder: %v", err))
		utils.WriteJSON(w, status, utils.ErrorResponse("Order not found", err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Order retrieved", orderData))
}

// GetGuestOrders lists the guest orders placed with an email, newest first.
func (h *Handler) GetGuestOrders(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		utils.WriteJSON(w, http.StatusBadRequest,
			utils.ErrorResponse("Invalid request", "email query parameter is required"))
		return
	}

	orders, err := h.OrderService.GetGuestOrders(r.Context(), email)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetGuestOrders: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError,
			utils.ErrorResponse("Could not list orders", err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Orders retrieved", orders))
}
