package handlers

import (
	"encoding/json"
	"net/http"

	"krishi-backend/internal/middleware"
	"krishi-backend/internal/models"
	"krishi-backend/internal/services"
	"krishi-backend/pkg/utils"
)

// PaymentHandler exposes the online deposit flow backed by Razorpay
type PaymentHandler struct {
	Razorpay *services.RazorpayService
	Users    *services.UserService
}

func NewPaymentHandler(razorpayService *services.RazorpayService, users *services.UserService) *PaymentHandler {
	return &PaymentHandler{Razorpay: razorpayService, Users: users}
}

func (h *PaymentHandler) Status(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]bool{"enabled": h.Razorpay.IsEnabled()})
}

func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	user, err := h.Users.GetProfile(r.Context(), userID)
	if err != nil {
		utils.Error(w, http.StatusUnauthorized, "User not found")
		return
	}

	var req models.CreateOnlinePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.Razorpay.CreateDepositOrder(r.Context(), user, &req)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.JSON(w, http.StatusCreated, resp)
}

func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	purchase, err := h.Razorpay.VerifyPayment(r.Context(), &req)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, purchase)
}
