package handler

import (
	"net/http"

	"github.com/aidar/teamflow/internal/domain"
	"github.com/aidar/teamflow/internal/middleware"
	"github.com/aidar/teamflow/internal/service"
)

// SubscriptionHandler обрабатывает эндпоинты подписки
type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
}

// NewSubscriptionHandler создает новый SubscriptionHandler
func NewSubscriptionHandler(subscriptionService *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
	}
}

// Status обрабатывает GET /api/subscription/status для команды из токена
func (h *SubscriptionHandler) Status(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		HandleError(w, r, domain.ErrUnauthorized)
		return
	}

	sub, err := h.subscriptionService.Status(r.Context(), claims.TeamID)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, sub)
}
