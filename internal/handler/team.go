package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aidar/teamflow/internal/domain"
	"github.com/aidar/teamflow/internal/middleware"
	"github.com/aidar/teamflow/internal/service"
)

// TeamHandler обрабатывает эндпоинты команд
type TeamHandler struct {
	teamService *service.TeamService
}

// NewTeamHandler создает новый TeamHandler
func NewTeamHandler(teamService *service.TeamService) *TeamHandler {
	return &TeamHandler{
		teamService: teamService,
	}
}

// CreateTeamRequest представляет тело запроса для создания команды
type CreateTeamRequest struct {
	Name string `json:"name"`
}

// ListTeamsResponse представляет список команд пользователя
type ListTeamsResponse struct {
	Teams []*domain.TeamWithRole `json:"teams"`
}

// MembersResponse представляет список участников команды
type MembersResponse struct {
	TeamID  string               `json:"team_id"`
	Members []*domain.Membership `json:"members"`
}

// CreateTeam обрабатывает POST /api/teams
func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req CreateTeamRequest
	if !decodeBody(w, r, &req) {
		return
	}

	// Создаем команду вместе с кодами и подпиской
	team, err := h.teamService.CreateTeam(r.Context(), req.Name)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, team)
}

// ListTeams обрабатывает GET /api/teams
func (h *TeamHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		HandleError(w, r, domain.ErrUnauthorized)
		return
	}

	teams, err := h.teamService.ListForUser(r.Context(), claims.UserID)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, ListTeamsResponse{Teams: teams})
}

// Members обрабатывает GET /api/teams/{teamID}/members
func (h *TeamHandler) Members(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "teamID")

	members, err := h.teamService.Members(r.Context(), teamID)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, MembersResponse{TeamID: teamID, Members: members})
}
