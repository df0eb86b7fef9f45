package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"krishi-backend/internal/models"
	"krishi-backend/internal/repositories"
	"krishi-backend/internal/services"
	"krishi-backend/pkg/utils"
)

type AnnouncementHandler struct {
	Service *services.AnnouncementService
	Logs    *repositories.MessageLogRepository
}

func NewAnnouncementHandler(s *services.AnnouncementService, logs *repositories.MessageLogRepository) *AnnouncementHandler {
	return &AnnouncementHandler{Service: s, Logs: logs}
}

func (h *AnnouncementHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	var req models.BroadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.Service.Broadcast(r.Context(), &req)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

func (h *AnnouncementHandler) SendPaymentReminders(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Service.SendPaymentReminders(r.Context())
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

// ListMessageLogs shows recent outbound messages on the admin dashboard
func (h *AnnouncementHandler) ListMessageLogs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	logs, err := h.Logs.List(r.Context(), limit)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, logs)
}
