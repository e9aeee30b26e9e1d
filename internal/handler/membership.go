package handler

import (
	"net/http"

	"github.com/aidar/teamflow/internal/middleware"
	"github.com/aidar/teamflow/internal/service"
)

// MembershipHandler обрабатывает вступление в команду и получение роли менеджера
type MembershipHandler struct {
	membershipService *service.MembershipService
}

// NewMembershipHandler создает новый MembershipHandler
func NewMembershipHandler(membershipService *service.MembershipService) *MembershipHandler {
	return &MembershipHandler{
		membershipService: membershipService,
	}
}

// JoinTeamRequest представляет тело запроса на вступление
type JoinTeamRequest struct {
	Name     string `json:"name"`
	TeamCode string `json:"team_code"`
}

// ClaimManagerRoleRequest представляет тело запроса на роль менеджера
type ClaimManagerRoleRequest struct {
	Name              string `json:"name"`
	ManagerInviteCode string `json:"manager_invite_code"`
}

// authUserID возвращает пользователя из необязательного токена
func authUserID(r *http.Request) string {
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		return claims.UserID
	}
	return ""
}

// JoinTeam обрабатывает POST /api/teams/join
func (h *MembershipHandler) JoinTeam(w http.ResponseWriter, r *http.Request) {
	var req JoinTeamRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.membershipService.JoinTeam(r.Context(), service.JoinInput{
		Code:        req.TeamCode,
		DisplayName: req.Name,
		AuthUserID:  authUserID(r),
	})
	if err != nil {
		HandleError(w, r, err)
		return
	}

	// Повторное вступление возвращает существующее участие
	status := http.StatusCreated
	if result.AlreadyMember {
		status = http.StatusOK
	}

	RespondWithJSON(w, r, status, result)
}

// ClaimManagerRole обрабатывает POST /api/teams/claim-manager-role
func (h *MembershipHandler) ClaimManagerRole(w http.ResponseWriter, r *http.Request) {
	var req ClaimManagerRoleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.membershipService.ClaimManagerRole(r.Context(), service.ClaimInput{
		InviteCode:  req.ManagerInviteCode,
		DisplayName: req.Name,
		AuthUserID:  authUserID(r),
	})
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, result)
}
