package api

import (
	"errors"
	"fmt"
	"net/http"

	"assessment-gateway/internal/logger"
	"assessment-gateway/internal/tokens"
	tokendb "assessment-gateway/internal/tokens/db"
	"assessment-gateway/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	TokenService *tokens.TokenService
	Logger       *logger.Logger
}

func NewHandler(tokenService *tokens.TokenService, log *logger.Logger) *Handler {
	return &Handler{TokenService: tokenService, Logger: log}
}

// CheckAccess validates a presented guest access token. The assessment UI
// calls this before letting a guest start their attempt.
func (h *Handler) CheckAccess(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	check, err := h.TokenService.ValidateToken(r.Context(), token)
	if err != nil {
		status := http.StatusForbidden
		if errors.Is(err, tokendb.ErrTokenNotFound) {
			status = http.StatusNotFound
		}
		h.Logger.Warn("API", fmt.Sprintf("CheckAccess: %v", err))
		utils.WriteJSON(w, status, utils.ErrorResponse("Access denied", err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Access granted", check))
}

// AccessQR serves the QR code PNG for an issued guest token, so the checkout
// flow can show a scannable access link.
func (h *Handler) AccessQR(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	png, err := h.TokenService.AccessQRForToken(r.Context(), token)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, tokendb.ErrTokenNotFound) {
			status = http.StatusNotFound
		}
		h.Logger.Warn("API", fmt.Sprintf("AccessQR: %v", err))
		utils.WriteJSON(w, status, utils.ErrorResponse("Could not render QR code", err.Error()))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
