package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aidar/teamflow/internal/service"
)

// StatsHandler обрабатывает эндпоинты статистики
type StatsHandler struct {
	statsService *service.StatsService
}

// NewStatsHandler создает новый StatsHandler
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
	}
}

// TeamStats обрабатывает GET /api/teams/{teamID}/stats
func (h *StatsHandler) TeamStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.TeamStats(r.Context(), chi.URLParam(r, "teamID"))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, stats)
}
