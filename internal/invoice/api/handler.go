package api

import (
	"errors"
	"net/http"

	"assessment-gateway/internal/invoice"
	"assessment-gateway/internal/logger"
	"assessment-gateway/internal/models"
	orderdb "assessment-gateway/internal/order/db"
	"assessment-gateway/internal/utils"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Service *invoice.Service
	Logger  *logger.Logger
}

func NewHandler(service *invoice.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// GenerateInvoice builds a receipt for a completed order and triggers the
// receipt email.
func (h *Handler) GenerateInvoice(c *gin.Context) {
	var req models.InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}
	if req.OrderID == "" {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request", "order_id is required"))
		return
	}

	inv, err := h.Service.GenerateForOrder(c.Request.Context(), req.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, orderdb.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Order not found", err.Error()))
		case errors.Is(err, invoice.ErrOrderNotCompleted):
			c.JSON(http.StatusConflict, utils.ErrorResponse("Order not completed", err.Error()))
		default:
			h.Logger.Error("API", "GenerateInvoice: "+err.Error())
			c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Invoice generation failed", err.Error()))
		}
		return
	}

	c.JSON(http.StatusCreated, utils.SuccessResponse("Invoice generated", inv))
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
