package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"krishi-backend/internal/middleware"
	"krishi-backend/internal/models"
	"krishi-backend/internal/services"
	"krishi-backend/pkg/utils"

	"github.com/gorilla/mux"
)

// 5 MB cap on bulk upload files
const maxBulkUploadBytes = 5 << 20

type PurchaseHandler struct {
	Service  *services.PurchaseService
	Receipts *services.ReceiptService
}

func NewPurchaseHandler(s *services.PurchaseService, receipts *services.ReceiptService) *PurchaseHandler {
	return &PurchaseHandler{Service: s, Receipts: receipts}
}

func (h *PurchaseHandler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	purchase, err := h.Service.CreatePurchase(r.Context(), &req)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.JSON(w, http.StatusCreated, purchase)
}

func (h *PurchaseHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.Service.ListPurchases(r.Context())
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, purchases)
}

// ListMyPurchases returns the authenticated customer's own ledger
func (h *PurchaseHandler) ListMyPurchases(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	purchases, err := h.Service.ListUserPurchases(r.Context(), userID)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, purchases)
}

func (h *PurchaseHandler) GetPurchase(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	purchase, err := h.Service.GetPurchase(r.Context(), id)
	if err != nil {
		utils.Error(w, http.StatusNotFound, "Purchase not found")
		return
	}

	// Farmers may only see their own purchases
	role, _ := middleware.GetRoleFromContext(r.Context())
	if role != models.RoleAdmin {
		userID, _ := middleware.GetUserIDFromContext(r.Context())
		if purchase.UserID == nil || *purchase.UserID != userID {
			utils.Error(w, http.StatusForbidden, "Forbidden")
			return
		}
	}

	utils.JSON(w, http.StatusOK, purchase)
}

func (h *PurchaseHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	var req models.UpdatePurchaseStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	purchase, err := h.Service.UpdateStatus(r.Context(), id, &req)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, purchase)
}

// BulkUpload ingests a CSV ledger file posted as multipart form data
func (h *PurchaseHandler) BulkUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxBulkUploadBytes); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid upload")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	result, err := h.Service.BulkImport(r.Context(), file)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, result)
}

// Receipt streams the purchase receipt as a PDF download
func (h *PurchaseHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	purchase, err := h.Service.GetPurchase(r.Context(), id)
	if err != nil {
		utils.Error(w, http.StatusNotFound, "Purchase not found")
		return
	}

	role, _ := middleware.GetRoleFromContext(r.Context())
	if role != models.RoleAdmin {
		userID, _ := middleware.GetUserIDFromContext(r.Context())
		if purchase.UserID == nil || *purchase.UserID != userID {
			utils.Error(w, http.StatusForbidden, "Forbidden")
			return
		}
	}

	pdf, err := h.Receipts.GeneratePurchaseReceipt(r.Context(), id)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "Failed to generate receipt")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="receipt-%s.pdf"`, purchase.SN))
	w.Write(pdf)
}
