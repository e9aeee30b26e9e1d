package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aidar/teamflow/internal/middleware"
	"github.com/aidar/teamflow/internal/service"
)

// ActivityHandler принимает отчеты трекера активности
type ActivityHandler struct {
	activityService *service.ActivityService
}

// NewActivityHandler создает новый ActivityHandler
func NewActivityHandler(activityService *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
	}
}

// Record обрабатывает POST /api/teams/{teamID}/activity
func (h *ActivityHandler) Record(w http.ResponseWriter, r *http.Request) {
	var sample service.ActivitySample
	if !decodeBody(w, r, &sample) {
		return
	}

	activity, err := h.activityService.Record(r.Context(), middleware.ClaimsFromContext(r.Context()), chi.URLParam(r, "teamID"), sample)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, activity)
}
